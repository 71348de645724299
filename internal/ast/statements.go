package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// ----------------------------------------------------------------------------
// Program
// ----------------------------------------------------------------------------

// Program is the root of a module.
type Program struct {
	NodeBase
	Body   []Node
	Scope  *Scope
	Source string
}

func (p *Program) ForEachChild(fn func(Node)) {
	for _, stmt := range p.Body {
		fn(stmt)
	}
}

func (p *Program) HasEffects(ctx *HasEffectsContext) bool {
	return statementsHaveEffects(p.Body, ctx)
}

// Include runs one inclusion walk over the module's statements.
func (p *Program) Include(ctx *InclusionContext, recursive bool) {
	p.included = true
	includeStatements(p.Body, ctx, recursive)
}

// ----------------------------------------------------------------------------
// Block
// ----------------------------------------------------------------------------

// BlockStatement is a braced statement list with its own scope.
type BlockStatement struct {
	NodeBase
	Body  []Node
	Scope *Scope
}

func (b *BlockStatement) ForEachChild(fn func(Node)) {
	for _, stmt := range b.Body {
		fn(stmt)
	}
}

func (b *BlockStatement) HasEffects(ctx *HasEffectsContext) bool {
	return statementsHaveEffects(b.Body, ctx)
}

func (b *BlockStatement) Include(ctx *InclusionContext, recursive bool) {
	b.included = true
	includeStatements(b.Body, ctx, recursive)
}

// EmptyStatement is a lone semicolon.
type EmptyStatement struct {
	NodeBase
}

func (*EmptyStatement) ForEachChild(func(Node)) {}
func (*EmptyStatement) HasEffects(*HasEffectsContext) bool { return false }

func (e *EmptyStatement) Include(*InclusionContext, bool) { e.included = true }

// ----------------------------------------------------------------------------
// Expression Statement
// ----------------------------------------------------------------------------

type ExpressionStatement struct {
	NodeBase
	Expression Node
}

func (s *ExpressionStatement) ForEachChild(fn func(Node)) { fn(s.Expression) }

func (s *ExpressionStatement) HasEffects(ctx *HasEffectsContext) bool {
	return s.Expression.HasEffects(ctx)
}

func (s *ExpressionStatement) Include(ctx *InclusionContext, recursive bool) {
	s.included = true
	s.Expression.Include(ctx, recursive)
}

// ----------------------------------------------------------------------------
// Return and Throw
// ----------------------------------------------------------------------------

type ReturnStatement struct {
	NodeBase
	Argument Node
}

func (s *ReturnStatement) ForEachChild(fn func(Node)) { visit(s.Argument, fn) }

// HasEffects treats returning as an effect unless a call is being analysed,
// in which case only the argument matters.
func (s *ReturnStatement) HasEffects(ctx *HasEffectsContext) bool {
	if !ctx.IgnoreReturn || hasEffects(s.Argument, ctx) {
		return true
	}
	ctx.BrokenFlow = true
	return false
}

func (s *ReturnStatement) Include(ctx *InclusionContext, recursive bool) {
	s.included = true
	include(s.Argument, ctx, recursive)
	ctx.BrokenFlow = true
}

type ThrowStatement struct {
	NodeBase
	Argument Node
}

func (s *ThrowStatement) ForEachChild(fn func(Node)) { fn(s.Argument) }

func (s *ThrowStatement) HasEffects(*HasEffectsContext) bool { return true }

func (s *ThrowStatement) Include(ctx *InclusionContext, recursive bool) {
	s.included = true
	s.Argument.Include(ctx, recursive)
	ctx.BrokenFlow = true
}

// ----------------------------------------------------------------------------
// If Statement
// ----------------------------------------------------------------------------

// IfStatement resolves its test the same way ConditionalExpression does.
// When the test is known, the untaken branch is never analysed.
type IfStatement struct {
	NodeBase
	Test       Node
	Consequent Node
	Alternate  Node

	state BranchState
}

func (s *IfStatement) ForEachChild(fn func(Node)) {
	fn(s.Test)
	fn(s.Consequent)
	visit(s.Alternate, fn)
}

// State returns the branch resolution of the test.
func (s *IfStatement) State() BranchState {
	s.resolve()
	return s.state
}

func (s *IfStatement) resolve() {
	if s.state != BranchUnresolved {
		return
	}
	s.state = BranchUnknown
	value := s.Test.LiteralValueAt(objpath.EmptyPath, trackerOf(s.Ctx), s)
	if truthy, known := value.Truthiness(); known {
		if truthy {
			s.state = BranchConsequent
		} else {
			s.state = BranchAlternate
		}
	}
}

// DeoptimizeCache forgets the resolved branch for good.
func (s *IfStatement) DeoptimizeCache() {
	if s.state == BranchConsequent || s.state == BranchAlternate {
		s.state = BranchUnknown
		s.requestPass()
	}
}

func (s *IfStatement) HasEffects(ctx *HasEffectsContext) bool {
	if s.Test.HasEffects(ctx) {
		return true
	}
	switch s.State() {
	case BranchConsequent:
		return s.Consequent.HasEffects(ctx)
	case BranchAlternate:
		return hasEffects(s.Alternate, ctx)
	}
	broken := ctx.BrokenFlow
	if s.Consequent.HasEffects(ctx) {
		return true
	}
	consequentBroken := ctx.BrokenFlow
	ctx.BrokenFlow = broken
	if s.Alternate == nil {
		return false
	}
	if s.Alternate.HasEffects(ctx) {
		return true
	}
	ctx.BrokenFlow = ctx.BrokenFlow && consequentBroken
	return false
}

func (s *IfStatement) Include(ctx *InclusionContext, recursive bool) {
	s.included = true
	if recursive {
		s.Test.Include(ctx, true)
		s.Consequent.Include(ctx, true)
		include(s.Alternate, ctx, true)
		return
	}
	state := s.State()
	if state == BranchUnknown {
		s.Test.Include(ctx, false)
		broken := ctx.BrokenFlow
		if ShouldBeIncluded(s.Consequent, ctx) {
			s.Consequent.Include(ctx, false)
		}
		consequentBroken := ctx.BrokenFlow
		ctx.BrokenFlow = broken
		if s.Alternate != nil && ShouldBeIncluded(s.Alternate, ctx) {
			s.Alternate.Include(ctx, false)
			ctx.BrokenFlow = ctx.BrokenFlow && consequentBroken
		} else {
			ctx.BrokenFlow = broken
		}
		return
	}
	if ShouldBeIncluded(s.Test, ctx) {
		s.Test.Include(ctx, false)
	}
	if state == BranchConsequent && ShouldBeIncluded(s.Consequent, ctx) {
		s.Consequent.Include(ctx, false)
	}
	if state == BranchAlternate && s.Alternate != nil && ShouldBeIncluded(s.Alternate, ctx) {
		s.Alternate.Include(ctx, false)
	}
}
