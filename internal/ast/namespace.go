package ast

import (
	"strings"

	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// NamespaceVariable is the object produced by import * as ns. It maps each
// export of a module to the variable behind it.
type NamespaceVariable struct {
	VariableBase

	memberVariables  map[string]Variable
	memberNames      []string
	mergedNamespaces []Variable
}

// NewNamespaceVariable creates the namespace of module. Its name starts as
// the module name and follows the last identifier that references it.
func NewNamespaceVariable(module ModuleContext) *NamespaceVariable {
	return &NamespaceVariable{
		VariableBase: VariableBase{name: module.ModuleName(), module: module},
	}
}

// AddReference renames the namespace after the referencing identifier.
func (v *NamespaceVariable) AddReference(id *Identifier) {
	v.references = append(v.references, id)
	v.name = id.Name
}

// MemberVariables maps every public export name to its variable. Names
// standing for external wildcard sources and the synthetic named exports
// name are skipped. The result is computed once.
func (v *NamespaceVariable) MemberVariables() map[string]Variable {
	if v.memberVariables != nil {
		return v.memberVariables
	}
	members := make(map[string]Variable)
	var names []string
	synthetic := v.module.SyntheticNamedExports()
	add := func(list []string) {
		for _, name := range list {
			if strings.HasPrefix(name, "*") || name == synthetic && synthetic != "" {
				continue
			}
			if _, ok := members[name]; ok {
				continue
			}
			if exported := v.module.TraceExport(name); exported != nil {
				members[name] = exported
				names = append(names, name)
			}
		}
	}
	add(v.module.Exports())
	add(v.module.Reexports())
	v.memberVariables = members
	v.memberNames = names
	return members
}

// MemberNames returns the member names in export order.
func (v *NamespaceVariable) MemberNames() []string {
	v.MemberVariables()
	return v.memberNames
}

// SetMergedNamespaces records the namespaces of external wildcard sources.
func (v *NamespaceVariable) SetMergedNamespaces(merged []Variable) {
	v.mergedNamespaces = merged
}

// MergedNamespaces returns the namespaces merged into this one.
func (v *NamespaceVariable) MergedNamespaces() []Variable {
	return v.mergedNamespaces
}

// RenderFirst returns true if the namespace object must be emitted before
// the code of its module, with getters for its members. That is the case
// when any reference sits in a module that runs no later than the
// namespace's own module. References keep arriving while the graph is
// bound, so the answer is not cached.
func (v *NamespaceVariable) RenderFirst() bool {
	execIndex := v.module.ExecIndex()
	for _, ref := range v.references {
		if ref.Ctx != nil && ref.Ctx.ExecIndex() <= execIndex {
			return true
		}
	}
	return false
}

func (v *NamespaceVariable) LiteralValueAt(path objpath.Path, _ *objpath.Tracker, _ Deoptimizable) LiteralValue {
	if len(path) > 0 && path[0] == objpath.ToStringTagKey {
		return StringValue("Module")
	}
	return UnknownValue
}

func (v *NamespaceVariable) DeoptimizePath(path objpath.Path) {
	if len(path) <= 1 || !path[0].IsKnown() {
		return
	}
	if member := v.MemberVariables()[string(path[0])]; member != nil {
		member.DeoptimizePath(objpath.WithoutFirst(path))
	}
}

func (v *NamespaceVariable) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	if len(path) > 1 || len(path) == 1 && interaction.Kind == InteractionCalled {
		if !path[0].IsKnown() {
			interaction.deoptimizeThis()
			return
		}
		if member := v.MemberVariables()[string(path[0])]; member != nil {
			member.DeoptimizeThisOnInteractionAt(interaction, objpath.WithoutFirst(path), tracker)
		}
	}
}

// HasEffectsOnInteractionAt treats the namespace as a frozen object: reading
// a member is free, writing one throws, and deeper interactions are answered
// by the member itself.
func (v *NamespaceVariable) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if len(path) == 0 {
		return true
	}
	if len(path) == 1 && interaction.Kind != InteractionCalled {
		return interaction.Kind == InteractionAssigned
	}
	if !path[0].IsKnown() {
		return true
	}
	member := v.MemberVariables()[string(path[0])]
	return member == nil || member.HasEffectsOnInteractionAt(objpath.WithoutFirst(path), interaction, ctx)
}

func (v *NamespaceVariable) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	if len(path) == 0 || !path[0].IsKnown() {
		return UnknownExpression, false
	}
	member := v.MemberVariables()[string(path[0])]
	if member == nil {
		return UnknownExpression, false
	}
	return member.ReturnExpressionWhenCalledAt(objpath.WithoutFirst(path), interaction, tracker, origin)
}

// Include keeps the namespace object, which needs every export.
func (v *NamespaceVariable) Include() {
	if v.included {
		return
	}
	v.included = true
	v.module.IncludeAllExports()
}
