package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// FunctionKind distinguishes the syntactic forms of functions.
type FunctionKind uint8

const (
	FunctionDeclaration FunctionKind = iota
	FunctionExpression
	FunctionArrow
	FunctionMethod
)

// Function is a function declaration, function expression, arrow function
// or class method.
type Function struct {
	NodeBase
	Kind   FunctionKind
	ID     *Identifier
	Params []*Identifier

	// Body is nil for arrow functions with an expression body.
	Body     *BlockStatement
	ExprBody Node

	Scope *Scope

	// Returns are the return statements that belong to this function and
	// not to a nested one, in source order.
	Returns []*ReturnStatement
}

func (f *Function) ForEachChild(fn func(Node)) {
	if f.ID != nil {
		fn(f.ID)
	}
	for _, p := range f.Params {
		fn(p)
	}
	if f.Body != nil {
		fn(f.Body)
	} else {
		visit(f.ExprBody, fn)
	}
}

// IsStatement returns true for function declarations.
func (f *Function) IsStatement() bool {
	return f.Kind == FunctionDeclaration
}

// thisVariable returns the function's own receiver binding, nil for arrow
// functions.
func (f *Function) thisVariable() *ThisVariable {
	if f.Kind == FunctionArrow || f.Scope == nil {
		return nil
	}
	this, _ := f.Scope.Variables["this"].(*ThisVariable)
	return this
}

// usesThis returns true if the body reads or writes its own receiver.
func (f *Function) usesThis() bool {
	this := f.thisVariable()
	return this != nil && this.referenced > 0
}

func (f *Function) LiteralValueAt(path objpath.Path, _ *objpath.Tracker, _ Deoptimizable) LiteralValue {
	if len(path) == 0 {
		return UnknownTruthyValue
	}
	return UnknownValue
}

func (f *Function) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, _ *objpath.Tracker) {
	if len(path) == 0 && interaction.Kind == InteractionCalled && !f.usesThis() {
		return
	}
	interaction.deoptimizeThis()
}

func (f *Function) HasEffects(*HasEffectsContext) bool { return false }

func (f *Function) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	switch interaction.Kind {
	case InteractionAccessed, InteractionAssigned:
		return len(path) > 1
	}
	if len(path) > 0 {
		return true
	}
	if interaction.WithNew && (f.Kind == FunctionArrow || f.Kind == FunctionMethod) {
		return true
	}
	if f.usesThis() && !interaction.WithNew {
		if interaction.This == nil {
			return true
		}
		if interaction.This.HasEffectsOnInteractionAt(objpath.UnknownPath, NewAssignment(interaction.This, UnknownExpression), ctx) {
			return true
		}
	}
	return f.bodyHasEffects(interaction, ctx)
}

// receiverOf returns what the body sees as this during interaction: the
// object under construction for new, otherwise the call's receiver.
func (f *Function) receiverOf(interaction *Interaction) Entity {
	if interaction.WithNew {
		return freshObject{this: f.thisVariable()}
	}
	if interaction.This == nil {
		return UndefinedExpression
	}
	return interaction.This
}

// bodyHasEffects examines the body on behalf of a call. Returning ends the
// call and is not an effect of its own.
func (f *Function) bodyHasEffects(interaction *Interaction, ctx *HasEffectsContext) bool {
	brokenFlow, ignoreReturn := ctx.BrokenFlow, ctx.IgnoreReturn
	ctx.BrokenFlow, ctx.IgnoreReturn = false, true
	restore := ctx.replaceReceiver(f.thisVariable(), f.receiverOf(interaction))
	defer func() {
		ctx.BrokenFlow, ctx.IgnoreReturn = brokenFlow, ignoreReturn
		restore()
	}()
	if f.Body != nil {
		return f.Body.HasEffects(ctx)
	}
	return hasEffects(f.ExprBody, ctx)
}

// ReturnExpressionWhenCalledAt returns the single returned expression, the
// implicit undefined, or the union of every possible return value.
func (f *Function) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, _ *objpath.Tracker, _ Deoptimizable) (Entity, bool) {
	if len(path) > 0 || interaction.WithNew {
		return UnknownExpression, false
	}
	if f.Body == nil {
		return asEntity(f.ExprBody), false
	}
	var returns []Entity
	for _, ret := range f.Returns {
		returns = append(returns, asEntity(ret.Argument))
	}
	if !f.endsWithReturn() {
		returns = append(returns, UndefinedExpression)
	}
	if len(returns) == 1 {
		return returns[0], false
	}
	return NewMultiExpression(returns...), false
}

func (f *Function) endsWithReturn() bool {
	if n := len(f.Body.Body); n > 0 {
		_, ok := f.Body.Body[n-1].(*ReturnStatement)
		return ok
	}
	return false
}

func (f *Function) Include(ctx *InclusionContext, recursive bool) {
	f.included = true
	if f.ID != nil {
		f.ID.Include(ctx, recursive)
	}
	for _, p := range f.Params {
		p.Include(ctx, recursive)
	}
	brokenFlow := ctx.BrokenFlow
	ctx.BrokenFlow = false
	if f.Body != nil {
		f.Body.Include(ctx, recursive)
	} else {
		include(f.ExprBody, ctx, recursive)
	}
	ctx.BrokenFlow = brokenFlow
}
