package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// assignmentTarget is implemented by the nodes that may appear on the left
// of an assignment.
type assignmentTarget interface {
	Node
	hasEffectsAsAssignmentTarget(ctx *HasEffectsContext, compound bool) bool
}

// AssignmentExpression is left = right, left += right or left -= right.
type AssignmentExpression struct {
	NodeBase
	Operator string
	Left     Node
	Right    Node

	deoptimized bool
}

func (a *AssignmentExpression) ForEachChild(fn func(Node)) {
	fn(a.Left)
	fn(a.Right)
}

// applyDeoptimizations records the write: the target no longer holds its
// initial value, and the assigned value may now be mutated through it.
func (a *AssignmentExpression) applyDeoptimizations() {
	if a.deoptimized {
		return
	}
	a.deoptimized = true
	a.Left.DeoptimizePath(objpath.EmptyPath)
	a.Right.DeoptimizePath(objpath.UnknownPath)
}

func (a *AssignmentExpression) targetHasEffects(ctx *HasEffectsContext) bool {
	target, ok := a.Left.(assignmentTarget)
	return !ok || target.hasEffectsAsAssignmentTarget(ctx, a.Operator != "=")
}

func (a *AssignmentExpression) HasEffects(ctx *HasEffectsContext) bool {
	a.applyDeoptimizations()
	return a.Right.HasEffects(ctx) || a.targetHasEffects(ctx)
}

func (a *AssignmentExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	return a.Right.HasEffectsOnInteractionAt(path, interaction, ctx)
}

func (a *AssignmentExpression) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

// Include drops the write itself when nothing can observe it, keeping only
// the evaluation of the right-hand side.
func (a *AssignmentExpression) Include(ctx *InclusionContext, recursive bool) {
	a.included = true
	a.applyDeoptimizations()
	if recursive || a.Operator != "=" || a.Left.Included() || a.targetHasEffects(NewHasEffectsContext()) {
		a.Left.Include(ctx, recursive)
	}
	a.Right.Include(ctx, recursive)
}

// KeepsTarget returns true if the assignment is printed with its target.
func (a *AssignmentExpression) KeepsTarget() bool {
	return a.Left.Included()
}
