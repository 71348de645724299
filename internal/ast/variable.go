package ast

import (
	"github.com/HugoDaniel/treeshaker/internal/builtins"
	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// Variable is a named binding. The name is mutable because the renamer
// deconflicts bindings of different modules sharing one output scope.
type Variable interface {
	Entity

	Name() string
	SetName(name string)

	// RenderName is the name the binding has in the output.
	RenderName() string
	SetRenderName(name string)

	Included() bool
	Include()

	IsReassigned() bool

	// Module returns the owning module, or nil for globals.
	Module() ModuleContext

	// AddReference records an identifier resolved to this variable.
	AddReference(id *Identifier)
}

// VariableKind is how a local variable was declared.
type VariableKind uint8

const (
	KindVar VariableKind = iota
	KindLet
	KindConst
	KindFunction
	KindClass
	KindParameter
	KindDefault
	KindThis
)

// ----------------------------------------------------------------------------
// Variable Base
// ----------------------------------------------------------------------------

// VariableBase holds the fields shared by all variables.
type VariableBase struct {
	name       string
	renderName string
	included   bool
	reassigned bool
	module     ModuleContext
	references []*Identifier
}

func (v *VariableBase) Name() string { return v.name }
func (v *VariableBase) SetName(name string) { v.name = name }
func (v *VariableBase) Included() bool { return v.included }
func (v *VariableBase) IsReassigned() bool { return v.reassigned }
func (v *VariableBase) Module() ModuleContext { return v.module }

func (v *VariableBase) RenderName() string {
	if v.renderName == "" {
		return v.name
	}
	return v.renderName
}

func (v *VariableBase) SetRenderName(name string) { v.renderName = name }

func (v *VariableBase) AddReference(id *Identifier) {
	v.references = append(v.references, id)
}

// References returns the identifiers resolved to the variable.
func (v *VariableBase) References() []*Identifier {
	return v.references
}

func (v *VariableBase) propertyReadSideEffects() bool {
	if v.module == nil {
		return true
	}
	return v.module.Options().PropertyReadSideEffects
}

// ----------------------------------------------------------------------------
// Local Variable
// ----------------------------------------------------------------------------

// LocalVariable is a binding declared inside a module.
type LocalVariable struct {
	VariableBase
	Kind VariableKind

	// Declarations are the nodes that declare the binding: identifiers for
	// ordinary declarations, the export default node for a default export.
	Declarations []Node

	// Init is the initial value, or nil if unknown or absent.
	Init Node

	dependents       dependents
	deoptimizedPaths objpath.EntitySet

	// wildcards are deoptimized paths ending in an unknown key. Each covers
	// every longer path it is a prefix of.
	wildcards []objpath.Path
}

// NewLocalVariable creates a module-local binding.
func NewLocalVariable(name string, kind VariableKind, declaration Node, init Node, module ModuleContext) *LocalVariable {
	v := &LocalVariable{
		VariableBase: VariableBase{name: name, module: module},
		Kind:         kind,
		Init:         init,
	}
	if declaration != nil {
		v.Declarations = append(v.Declarations, declaration)
	}
	return v
}

// AddDeclaration records a redeclaration. A function declaration replaces
// any previous initial value.
func (v *LocalVariable) AddDeclaration(declaration Node, init Node) {
	v.Declarations = append(v.Declarations, declaration)
	if init != nil && (v.Init == nil || v.Kind == KindFunction) {
		v.Init = init
	}
}

// DependentCount returns how many consumers currently rely on facts about
// the variable's value.
func (v *LocalVariable) DependentCount() int {
	return v.dependents.len()
}

func (v *LocalVariable) knownInit() bool {
	return !v.reassigned && v.Init != nil
}

func (v *LocalVariable) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	if !v.knownInit() {
		return UnknownValue
	}
	return objpath.WithTracking(tracker, v, path, func() LiteralValue {
		v.dependents.add(origin)
		return v.Init.LiteralValueAt(path, tracker, origin)
	}, UnknownValue)
}

// DeoptimizePath handles reassignment at the empty path and mutation at
// longer paths. Reassignment is permanent: every consumer that derived a
// fact from the initial value is notified exactly once.
func (v *LocalVariable) DeoptimizePath(path objpath.Path) {
	if v.deoptimizedPaths.TrackAndCheck(path, v, nil) {
		return
	}
	if len(path) == 0 {
		if v.reassigned {
			return
		}
		v.reassigned = true
		v.dependents.notify()
		if v.Init != nil {
			v.deoptimizeInit(objpath.UnknownPath)
		}
		if v.module != nil {
			v.module.RequestTreeshakingPass()
		}
		return
	}
	if v.Init != nil {
		v.deoptimizeInit(path)
	}
}

// deoptimizeInit forwards a mutation to the initial value unless a wildcard
// deoptimized earlier already covers it.
func (v *LocalVariable) deoptimizeInit(path objpath.Path) {
	for _, wildcard := range v.wildcards {
		if objpath.IsPrefix(wildcard, path) {
			return
		}
	}
	if !path[len(path)-1].IsKnown() {
		v.wildcards = append(v.wildcards, path)
	}
	v.Init.DeoptimizePath(path)
}

func (v *LocalVariable) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	if !v.knownInit() {
		interaction.deoptimizeThis()
		return
	}
	objpath.WithTracking(tracker, v, path, func() struct{} {
		v.Init.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
		return struct{}{}
	}, struct{}{})
}

func (v *LocalVariable) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	switch interaction.Kind {
	case InteractionAccessed:
		if len(path) == 0 {
			return false
		}
		if !v.knownInit() {
			return len(path) > 1 || v.propertyReadSideEffects()
		}
		return !ctx.Accessed.TrackAndCheck(path, v, nil) &&
			v.Init.HasEffectsOnInteractionAt(path, interaction, ctx)

	case InteractionAssigned:
		if v.included {
			return true
		}
		if len(path) == 0 {
			return false
		}
		if !v.knownInit() {
			return true
		}
		return !ctx.Assigned.TrackAndCheck(path, v, nil) &&
			v.Init.HasEffectsOnInteractionAt(path, interaction, ctx)

	case InteractionCalled:
		if !v.knownInit() {
			return true
		}
		set := &ctx.Called
		if interaction.WithNew {
			set = &ctx.Instantiated
		}
		return !set.TrackAndCheck(path, v, interaction) &&
			v.Init.HasEffectsOnInteractionAt(path, interaction, ctx)
	}
	return true
}

func (v *LocalVariable) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	if !v.knownInit() {
		return UnknownExpression, false
	}
	result := objpath.WithTracking(tracker, v, path, func() returnResult {
		v.dependents.add(origin)
		e, pure := v.Init.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
		return returnResult{e, pure}
	}, unknownReturn)
	return result.expression, result.pure
}

// Include marks the variable and its declarations. The enclosing statements
// are flagged too, so the next pass walks into them.
func (v *LocalVariable) Include() {
	if v.included {
		return
	}
	v.included = true
	for _, decl := range v.Declarations {
		markIncluded(decl)
	}
}

// ----------------------------------------------------------------------------
// This Variable
// ----------------------------------------------------------------------------

// ThisVariable is the receiver inside a function or a class instance.
type ThisVariable struct {
	VariableBase

	// referenced counts this expressions bound to the variable.
	referenced int
}

// NewThisVariable creates the this binding of a function or class instance.
func NewThisVariable(module ModuleContext) *ThisVariable {
	return &ThisVariable{VariableBase: VariableBase{name: "this", module: module}}
}

func (v *ThisVariable) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

func (v *ThisVariable) DeoptimizePath(objpath.Path) {}

func (v *ThisVariable) DeoptimizeThisOnInteractionAt(interaction *Interaction, _ objpath.Path, _ *objpath.Tracker) {
	interaction.deoptimizeThis()
}

// HasEffectsOnInteractionAt answers for the receiver bound by the call
// being analysed. Without one the receiver is unknown: it may be shared or
// undefined, so writing through it is always an effect.
func (v *ThisVariable) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if receiver, ok := ctx.receivers[v]; ok {
		return receiver.HasEffectsOnInteractionAt(path, interaction, ctx)
	}
	if interaction.Kind == InteractionAccessed {
		return len(path) > 0 && v.propertyReadSideEffects()
	}
	return true
}

func (v *ThisVariable) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

func (v *ThisVariable) Include() { v.included = true }

// freshObject is the receiver of a constructor call: the object under
// construction. Its own properties may be read and written freely, anything
// deeper is unknown.
type freshObject struct {
	this *ThisVariable
}

func (o freshObject) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

func (o freshObject) DeoptimizePath(objpath.Path) {}

func (o freshObject) DeoptimizeThisOnInteractionAt(interaction *Interaction, _ objpath.Path, _ *objpath.Tracker) {
	interaction.deoptimizeThis()
}

func (o freshObject) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	switch interaction.Kind {
	case InteractionAccessed:
		return len(path) > 1 && o.this.propertyReadSideEffects()
	case InteractionAssigned:
		return len(path) > 1
	}
	return true
}

func (o freshObject) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

// ----------------------------------------------------------------------------
// Global Variable
// ----------------------------------------------------------------------------

// GlobalVariable is a name that is not declared anywhere in the bundle.
type GlobalVariable struct {
	VariableBase
	options *Options
}

// NewGlobalVariable creates a global binding.
func NewGlobalVariable(name string, options *Options) *GlobalVariable {
	if options == nil {
		options = DefaultOptions()
	}
	return &GlobalVariable{VariableBase: VariableBase{name: name}, options: options}
}

func (v *GlobalVariable) keys(path objpath.Path) ([]string, bool) {
	keys := make([]string, 0, len(path)+1)
	keys = append(keys, v.name)
	for _, key := range path {
		if !key.IsKnown() {
			return nil, false
		}
		keys = append(keys, string(key))
	}
	return keys, true
}

func (v *GlobalVariable) LiteralValueAt(path objpath.Path, _ *objpath.Tracker, _ Deoptimizable) LiteralValue {
	if len(path) > 0 {
		return UnknownValue
	}
	switch v.name {
	case "undefined":
		return UndefinedValue
	case "NaN", "Infinity":
		if value, ok := builtins.NumberConstant(v.name); ok {
			return NumberValue(value)
		}
	}
	if builtins.IsKnownGlobal(v.name) {
		return UnknownTruthyValue
	}
	return UnknownValue
}

func (v *GlobalVariable) DeoptimizePath(objpath.Path) {}

func (v *GlobalVariable) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, _ *objpath.Tracker) {
	if keys, ok := v.keys(path); ok && builtins.IsPureCall(keys) {
		return
	}
	interaction.deoptimizeThis()
}

func (v *GlobalVariable) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	keys, ok := v.keys(path)
	switch interaction.Kind {
	case InteractionAccessed:
		if len(path) == 0 {
			return v.options.UnknownGlobalSideEffects && !builtins.IsKnownGlobal(v.name)
		}
		return !ok || !builtins.IsPureAccess(keys)
	case InteractionCalled:
		return !ok || !builtins.IsPureCall(keys) || interaction.WithNew && !builtins.IsPureConstructor(keys)
	}
	return true
}

func (v *GlobalVariable) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

func (v *GlobalVariable) Include() { v.included = true }

// ----------------------------------------------------------------------------
// External Variable
// ----------------------------------------------------------------------------

// ExternalVariable is a binding imported from a module outside the bundle.
type ExternalVariable struct {
	VariableBase

	// Source is the external module specifier.
	Source string

	// Imported is the exported name in the external module, or "*" for a
	// namespace import.
	Imported string
}

// NewExternalVariable creates a binding for an external import.
func NewExternalVariable(source string, imported string) *ExternalVariable {
	name := imported
	if imported == "*" || imported == "default" {
		name = SafeIdentifier(source)
	}
	return &ExternalVariable{
		VariableBase: VariableBase{name: name},
		Source:       source,
		Imported:     imported,
	}
}

// IsNamespace returns true for namespace imports.
func (v *ExternalVariable) IsNamespace() bool {
	return v.Imported == "*"
}

func (v *ExternalVariable) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

func (v *ExternalVariable) DeoptimizePath(objpath.Path) {}

func (v *ExternalVariable) DeoptimizeThisOnInteractionAt(interaction *Interaction, _ objpath.Path, _ *objpath.Tracker) {
	interaction.deoptimizeThis()
}

func (v *ExternalVariable) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	return interaction.Kind != InteractionAccessed || len(path) > 0
}

func (v *ExternalVariable) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

func (v *ExternalVariable) Include() { v.included = true }
