package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// BranchState is the branch resolution of a conditional construct.
//
// Resolution runs at most once. A resolved branch can only move to
// BranchUnknown, when the fact it was derived from is invalidated; it never
// goes back to being resolved.
type BranchState uint8

const (
	// BranchUnresolved means the test has not been analysed yet.
	BranchUnresolved BranchState = iota
	// BranchConsequent means only the consequent (or, for logical
	// expressions, the left operand) can be the result.
	BranchConsequent
	// BranchAlternate means only the alternate (or right operand) can be the
	// result.
	BranchAlternate
	// BranchUnknown means both branches must be kept.
	BranchUnknown
)

func (s BranchState) String() string {
	switch s {
	case BranchUnresolved:
		return "unresolved"
	case BranchConsequent:
		return "consequent"
	case BranchAlternate:
		return "alternate"
	}
	return "unknown"
}

// IsResolved returns true if exactly one branch is known to be taken.
func (s BranchState) IsResolved() bool {
	return s == BranchConsequent || s == BranchAlternate
}

// ----------------------------------------------------------------------------
// Conditional Expression
// ----------------------------------------------------------------------------

// ConditionalExpression is test ? consequent : alternate.
type ConditionalExpression struct {
	NodeBase
	Test       Node
	Consequent Node
	Alternate  Node

	state                      BranchState
	expressionsToBeDeoptimized dependents
}

func (c *ConditionalExpression) ForEachChild(fn func(Node)) {
	fn(c.Test)
	fn(c.Consequent)
	fn(c.Alternate)
}

// State returns the branch resolution, analysing the test on first use.
func (c *ConditionalExpression) State() BranchState {
	if c.state == BranchUnresolved {
		c.state = BranchUnknown
		value := c.Test.LiteralValueAt(objpath.EmptyPath, trackerOf(c.Ctx), c)
		if truthy, known := value.Truthiness(); known {
			if truthy {
				c.state = BranchConsequent
			} else {
				c.state = BranchAlternate
			}
		}
	}
	return c.state
}

// UsedBranch returns the only branch that can produce the result, or nil if
// either can.
func (c *ConditionalExpression) UsedBranch() Node {
	switch c.State() {
	case BranchConsequent:
		return c.Consequent
	case BranchAlternate:
		return c.Alternate
	}
	return nil
}

// DeoptimizeCache drops the resolved branch. The branch that was skipped so
// far may now run, so it loses all its assumptions, and every consumer that
// read a value through the resolved branch is notified.
func (c *ConditionalExpression) DeoptimizeCache() {
	used := c.UsedBranch()
	if used == nil {
		return
	}
	unused := c.Consequent
	if used == c.Consequent {
		unused = c.Alternate
	}
	c.state = BranchUnknown
	unused.DeoptimizePath(objpath.UnknownPath)
	c.expressionsToBeDeoptimized.notify()
	c.requestPass()
}

func (c *ConditionalExpression) DeoptimizePath(path objpath.Path) {
	if used := c.UsedBranch(); used != nil {
		used.DeoptimizePath(path)
		return
	}
	c.Consequent.DeoptimizePath(path)
	c.Alternate.DeoptimizePath(path)
}

func (c *ConditionalExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	c.Consequent.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
	c.Alternate.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
}

func (c *ConditionalExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	used := c.UsedBranch()
	if used == nil {
		return UnknownValue
	}
	c.expressionsToBeDeoptimized.add(origin)
	return used.LiteralValueAt(path, tracker, origin)
}

func (c *ConditionalExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	used := c.UsedBranch()
	if used == nil {
		consequent, _ := c.Consequent.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
		alternate, _ := c.Alternate.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
		return NewMultiExpression(consequent, alternate), false
	}
	c.expressionsToBeDeoptimized.add(origin)
	return used.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
}

func (c *ConditionalExpression) HasEffects(ctx *HasEffectsContext) bool {
	if c.Test.HasEffects(ctx) {
		return true
	}
	if used := c.UsedBranch(); used != nil {
		return used.HasEffects(ctx)
	}
	return c.Consequent.HasEffects(ctx) || c.Alternate.HasEffects(ctx)
}

func (c *ConditionalExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if used := c.UsedBranch(); used != nil {
		return used.HasEffectsOnInteractionAt(path, interaction, ctx)
	}
	return c.Consequent.HasEffectsOnInteractionAt(path, interaction, ctx) ||
		c.Alternate.HasEffectsOnInteractionAt(path, interaction, ctx)
}

// Include keeps only the used branch unless the test itself must stay or
// the test could not be resolved.
func (c *ConditionalExpression) Include(ctx *InclusionContext, recursive bool) {
	c.included = true
	used := c.UsedBranch()
	if recursive || used == nil || ShouldBeIncluded(c.Test, ctx) {
		c.Test.Include(ctx, recursive)
		c.Consequent.Include(ctx, recursive)
		c.Alternate.Include(ctx, recursive)
		return
	}
	used.Include(ctx, false)
}

// ----------------------------------------------------------------------------
// Logical Expression
// ----------------------------------------------------------------------------

// LogicalExpression is left && right, left || right or left ?? right.
type LogicalExpression struct {
	NodeBase
	Operator string
	Left     Node
	Right    Node

	state                      BranchState
	expressionsToBeDeoptimized dependents
}

func (l *LogicalExpression) ForEachChild(fn func(Node)) {
	fn(l.Left)
	fn(l.Right)
}

// State returns which operand produces the result: BranchConsequent for the
// left one, BranchAlternate for the right one.
func (l *LogicalExpression) State() BranchState {
	if l.state != BranchUnresolved {
		return l.state
	}
	l.state = BranchUnknown
	value := l.Left.LiteralValueAt(objpath.EmptyPath, trackerOf(l.Ctx), l)
	truthy, known := value.Truthiness()
	if !known || l.Operator == "??" && value.IsUnknown() {
		return l.state
	}
	useLeft := false
	switch l.Operator {
	case "||":
		useLeft = truthy
	case "&&":
		useLeft = !truthy
	case "??":
		useLeft = !value.IsNullish()
	}
	if useLeft {
		l.state = BranchConsequent
	} else {
		l.state = BranchAlternate
	}
	return l.state
}

// UsedBranch returns the operand that produces the result, or nil.
func (l *LogicalExpression) UsedBranch() Node {
	switch l.State() {
	case BranchConsequent:
		return l.Left
	case BranchAlternate:
		return l.Right
	}
	return nil
}

func (l *LogicalExpression) DeoptimizeCache() {
	used := l.UsedBranch()
	if used == nil {
		return
	}
	unused := l.Left
	if used == l.Left {
		unused = l.Right
	}
	l.state = BranchUnknown
	unused.DeoptimizePath(objpath.UnknownPath)
	l.expressionsToBeDeoptimized.notify()
	l.requestPass()
}

func (l *LogicalExpression) DeoptimizePath(path objpath.Path) {
	if used := l.UsedBranch(); used != nil {
		used.DeoptimizePath(path)
		return
	}
	l.Left.DeoptimizePath(path)
	l.Right.DeoptimizePath(path)
}

func (l *LogicalExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	l.Left.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
	l.Right.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
}

func (l *LogicalExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	used := l.UsedBranch()
	if used == nil {
		return UnknownValue
	}
	l.expressionsToBeDeoptimized.add(origin)
	return used.LiteralValueAt(path, tracker, origin)
}

func (l *LogicalExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	used := l.UsedBranch()
	if used == nil {
		left, _ := l.Left.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
		right, _ := l.Right.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
		return NewMultiExpression(left, right), false
	}
	l.expressionsToBeDeoptimized.add(origin)
	return used.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
}

func (l *LogicalExpression) HasEffects(ctx *HasEffectsContext) bool {
	if l.Left.HasEffects(ctx) {
		return true
	}
	if l.UsedBranch() != l.Left {
		return l.Right.HasEffects(ctx)
	}
	return false
}

func (l *LogicalExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if used := l.UsedBranch(); used != nil {
		return used.HasEffectsOnInteractionAt(path, interaction, ctx)
	}
	return l.Left.HasEffectsOnInteractionAt(path, interaction, ctx) ||
		l.Right.HasEffectsOnInteractionAt(path, interaction, ctx)
}

// Include keeps the left operand when it is the result or has effects of
// its own, and the right operand when it can be the result.
func (l *LogicalExpression) Include(ctx *InclusionContext, recursive bool) {
	l.included = true
	used := l.UsedBranch()
	if recursive || used == nil || used == l.Right && ShouldBeIncluded(l.Left, ctx) {
		l.Left.Include(ctx, recursive)
		l.Right.Include(ctx, recursive)
		return
	}
	used.Include(ctx, false)
}

func trackerOf(ctx ModuleContext) *objpath.Tracker {
	if ctx == nil {
		return objpath.NewTracker()
	}
	return ctx.Tracker()
}
