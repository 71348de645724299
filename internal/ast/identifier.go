package ast

import (
	"unicode/utf16"

	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// ----------------------------------------------------------------------------
// Identifier
// ----------------------------------------------------------------------------

// Identifier is a name in the source. Declaration identifiers have their
// variable set by the parser; references are resolved by Bind through Scope.
type Identifier struct {
	NodeBase
	Name     string
	Variable Variable
	Scope    *Scope
}

func (id *Identifier) ForEachChild(func(Node)) {}

func (id *Identifier) bind() {
	if id.Variable != nil || id.Scope == nil {
		return
	}
	id.Variable = id.Scope.FindVariable(id.Name)
	if id.Variable != nil {
		id.Variable.AddReference(id)
	}
}

func (id *Identifier) target() Entity {
	if id.Variable == nil {
		return UnknownExpression
	}
	return id.Variable
}

func (id *Identifier) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	return id.target().LiteralValueAt(path, tracker, origin)
}

func (id *Identifier) DeoptimizePath(path objpath.Path) {
	id.target().DeoptimizePath(path)
}

func (id *Identifier) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	id.target().DeoptimizeThisOnInteractionAt(interaction, path, tracker)
}

func (id *Identifier) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	return id.target().HasEffectsOnInteractionAt(path, interaction, ctx)
}

func (id *Identifier) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	return id.target().ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
}

// HasEffects is true only for reads of globals that may not exist.
func (id *Identifier) HasEffects(ctx *HasEffectsContext) bool {
	global, ok := id.Variable.(*GlobalVariable)
	return ok && global.HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAccess, ctx)
}

func (id *Identifier) Include(*InclusionContext, bool) {
	id.included = true
	if id.Variable == nil || id.Variable.Included() {
		return
	}
	if id.Ctx != nil {
		id.Ctx.IncludeVariable(id.Variable)
	} else {
		id.Variable.Include()
	}
}

func (id *Identifier) hasEffectsAsAssignmentTarget(ctx *HasEffectsContext, compound bool) bool {
	if compound && id.HasEffects(ctx) {
		return true
	}
	if _, ok := id.Variable.(*NamespaceVariable); ok {
		return true
	}
	return id.target().HasEffectsOnInteractionAt(objpath.EmptyPath, UnknownAssignment, ctx)
}

// ----------------------------------------------------------------------------
// This Expression
// ----------------------------------------------------------------------------

// ThisExpression is the this keyword. At module level it is undefined.
type ThisExpression struct {
	NodeBase
	Variable Variable
	Scope    *Scope
}

func (t *ThisExpression) ForEachChild(func(Node)) {}

func (t *ThisExpression) bind() {
	if t.Variable != nil || t.Scope == nil {
		return
	}
	t.Variable = t.Scope.FindVariable("this")
	switch v := t.Variable.(type) {
	case nil:
		if t.Ctx != nil {
			t.Ctx.Warn("THIS_IS_UNDEFINED", "The 'this' keyword is equivalent to 'undefined' at the top level of an ES module, and has been rewritten", t.Loc.Start)
		}
	case *ThisVariable:
		v.referenced++
	}
}

// IsUndefined returns true for a top-level this.
func (t *ThisExpression) IsUndefined() bool {
	return t.Variable == nil
}

func (t *ThisExpression) target() Entity {
	if t.Variable == nil {
		return UndefinedExpression
	}
	return t.Variable
}

func (t *ThisExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	return t.target().LiteralValueAt(path, tracker, origin)
}

func (t *ThisExpression) DeoptimizePath(path objpath.Path) {
	t.target().DeoptimizePath(path)
}

func (t *ThisExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	t.target().DeoptimizeThisOnInteractionAt(interaction, path, tracker)
}

func (t *ThisExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	return t.target().HasEffectsOnInteractionAt(path, interaction, ctx)
}

func (t *ThisExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	return t.target().ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
}

func (t *ThisExpression) HasEffects(*HasEffectsContext) bool { return false }

func (t *ThisExpression) Include(*InclusionContext, bool) {
	t.included = true
	if t.Variable == nil || t.Variable.Included() {
		return
	}
	if t.Ctx != nil {
		t.Ctx.IncludeVariable(t.Variable)
	} else {
		t.Variable.Include()
	}
}

// ----------------------------------------------------------------------------
// Literal
// ----------------------------------------------------------------------------

// Literal is a string, number, boolean or null literal.
type Literal struct {
	NodeBase
	Value LiteralValue
	Raw   string
}

func (l *Literal) ForEachChild(func(Node)) {}

func (l *Literal) LiteralValueAt(path objpath.Path, _ *objpath.Tracker, _ Deoptimizable) LiteralValue {
	switch {
	case len(path) == 0:
		return l.Value
	case len(path) == 1 && path[0] == "length" && l.Value.Kind == LiteralString:
		return NumberValue(float64(len(utf16.Encode([]rune(l.Value.String)))))
	}
	return UnknownValue
}

func (l *Literal) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	return primitiveHasEffects(l.Value, path, interaction)
}

func (l *Literal) HasEffects(*HasEffectsContext) bool { return false }

func (l *Literal) Include(*InclusionContext, bool) { l.included = true }
