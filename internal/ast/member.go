package ast

import (
	"fmt"

	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// MemberExpression is object.property or object[property].
//
// When object is a namespace and the property is a known export, Bind
// resolves the expression to the exported variable itself, so that reading
// one member does not keep the whole namespace alive.
type MemberExpression struct {
	NodeBase
	Object   Node
	Property string

	// PropertyNode is the computed key expression, nil for dotted access.
	PropertyNode Node

	// Variable is the namespace member the expression resolved to.
	Variable Variable

	// Missing is set when the object is a namespace without this export.
	Missing bool
}

func (m *MemberExpression) ForEachChild(fn func(Node)) {
	fn(m.Object)
	visit(m.PropertyNode, fn)
}

// Key returns the property as a path key. Computed keys are known only for
// string and number literals.
func (m *MemberExpression) Key() objpath.Key {
	if m.PropertyNode == nil {
		return objpath.Key(m.Property)
	}
	if lit, ok := m.PropertyNode.(*Literal); ok {
		switch lit.Value.Kind {
		case LiteralString:
			return objpath.Key(lit.Value.String)
		case LiteralNumber:
			return objpath.Key(FormatNumber(lit.Value.Number))
		}
	}
	return objpath.UnknownKey
}

// namespaceOf returns the namespace a node refers to directly, if any.
func namespaceOf(n Node) *NamespaceVariable {
	switch n := n.(type) {
	case *Identifier:
		ns, _ := n.Variable.(*NamespaceVariable)
		return ns
	case *MemberExpression:
		ns, _ := n.Variable.(*NamespaceVariable)
		return ns
	}
	return nil
}

func (m *MemberExpression) bind() {
	ns := namespaceOf(m.Object)
	if ns == nil || m.Variable != nil {
		return
	}
	key := m.Key()
	if !key.IsKnown() {
		return
	}
	if v, ok := ns.MemberVariables()[string(key)]; ok {
		m.Variable = v
		return
	}
	m.Missing = true
	if m.Ctx != nil {
		m.Ctx.Warn("MISSING_EXPORT", fmt.Sprintf("%q is not exported by %q", string(key), ns.Module().ID()), m.Loc.Start)
	}
}

// resolved returns the entity the whole expression stands for, or nil if
// queries must go through the object.
func (m *MemberExpression) resolved() Entity {
	if m.Variable != nil {
		return m.Variable
	}
	if m.Missing {
		return UndefinedExpression
	}
	return nil
}

func (m *MemberExpression) path(rest objpath.Path) objpath.Path {
	return objpath.Prepend(m.Key(), rest)
}

func (m *MemberExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	if e := m.resolved(); e != nil {
		return e.LiteralValueAt(path, tracker, origin)
	}
	return m.Object.LiteralValueAt(m.path(path), tracker, origin)
}

func (m *MemberExpression) DeoptimizePath(path objpath.Path) {
	if e := m.resolved(); e != nil {
		e.DeoptimizePath(path)
		return
	}
	m.Object.DeoptimizePath(m.path(path))
}

func (m *MemberExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	if e := m.resolved(); e != nil {
		e.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
		return
	}
	m.Object.DeoptimizeThisOnInteractionAt(interaction, m.path(path), tracker)
}

func (m *MemberExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if e := m.resolved(); e != nil {
		return e.HasEffectsOnInteractionAt(path, interaction, ctx)
	}
	return m.Object.HasEffectsOnInteractionAt(m.path(path), interaction, ctx)
}

func (m *MemberExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	if e := m.resolved(); e != nil {
		return e.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
	}
	return m.Object.ReturnExpressionWhenCalledAt(m.path(path), interaction, tracker, origin)
}

func (m *MemberExpression) HasEffects(ctx *HasEffectsContext) bool {
	if m.resolved() != nil {
		return false
	}
	if m.Object.HasEffects(ctx) || hasEffects(m.PropertyNode, ctx) {
		return true
	}
	return m.options().PropertyReadSideEffects &&
		m.Object.HasEffectsOnInteractionAt(objpath.Path{m.Key()}, NewAccess(m.Object), ctx)
}

func (m *MemberExpression) hasEffectsAsAssignmentTarget(ctx *HasEffectsContext, compound bool) bool {
	if m.resolved() != nil {
		return true
	}
	if compound && m.HasEffects(ctx) {
		return true
	}
	if m.Object.HasEffects(ctx) || hasEffects(m.PropertyNode, ctx) {
		return true
	}
	return m.Object.HasEffectsOnInteractionAt(objpath.Path{m.Key()}, NewAssignment(m.Object, UnknownExpression), ctx)
}

// Include keeps the resolved namespace member instead of the namespace.
func (m *MemberExpression) Include(ctx *InclusionContext, recursive bool) {
	m.included = true
	if m.Variable != nil {
		if !m.Variable.Included() {
			if m.Ctx != nil {
				m.Ctx.IncludeVariable(m.Variable)
			} else {
				m.Variable.Include()
			}
		}
		return
	}
	if m.Missing {
		return
	}
	m.Object.Include(ctx, recursive)
	include(m.PropertyNode, ctx, recursive)
}
