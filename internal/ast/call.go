package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// CallExpression is a function call or, with New set, a constructor call.
//
// The return expression of the callee is resolved once and cached. If the
// callee later loses the facts behind that answer, the cache drops to the
// unknown expression for good and everyone who read through it is told.
type CallExpression struct {
	NodeBase
	Callee    Node
	Arguments []Node
	New       bool

	interaction                *Interaction
	returnExpression           Entity
	returnPure                 bool
	deoptimized                bool
	expressionsToBeDeoptimized dependents
}

func (c *CallExpression) ForEachChild(fn func(Node)) {
	fn(c.Callee)
	for _, arg := range c.Arguments {
		fn(arg)
	}
}

// Interaction returns the call interaction of this call site.
func (c *CallExpression) Interaction() *Interaction {
	if c.interaction == nil {
		var this Entity
		if m, ok := c.Callee.(*MemberExpression); ok && m.resolved() == nil {
			this = m.Object
		}
		c.interaction = NewCall(this, entities(c.Arguments), c.New)
	}
	return c.interaction
}

// applyDeoptimizations tells the callee it is being called here. Arguments
// escape into the callee and the receiver may be mutated by it.
func (c *CallExpression) applyDeoptimizations() {
	if c.deoptimized {
		return
	}
	c.deoptimized = true
	interaction := c.Interaction()
	c.Callee.DeoptimizeThisOnInteractionAt(interaction, objpath.EmptyPath, trackerOf(c.Ctx))
	interaction.deoptimizeArgs()
}

func (c *CallExpression) getReturnExpression(tracker *objpath.Tracker) Entity {
	if c.returnExpression == nil {
		c.returnExpression = UnknownExpression
		c.returnExpression, c.returnPure = c.Callee.ReturnExpressionWhenCalledAt(objpath.EmptyPath, c.Interaction(), tracker, c)
	}
	return c.returnExpression
}

// DeoptimizeCache drops the cached return expression.
func (c *CallExpression) DeoptimizeCache() {
	if c.returnExpression == UnknownExpression {
		return
	}
	c.returnExpression = UnknownExpression
	c.returnPure = false
	c.expressionsToBeDeoptimized.notify()
	c.requestPass()
}

func (c *CallExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	ret := c.getReturnExpression(tracker)
	if ret == UnknownExpression {
		return UnknownValue
	}
	return objpath.WithTracking(tracker, ret, path, func() LiteralValue {
		c.expressionsToBeDeoptimized.add(origin)
		return ret.LiteralValueAt(path, tracker, origin)
	}, UnknownValue)
}

func (c *CallExpression) DeoptimizePath(path objpath.Path) {
	if len(path) == 0 {
		return
	}
	tracker := trackerOf(c.Ctx)
	ret := c.getReturnExpression(tracker)
	if ret == UnknownExpression {
		return
	}
	objpath.WithTracking(tracker, ret, path, func() struct{} {
		ret.DeoptimizePath(path)
		return struct{}{}
	}, struct{}{})
}

func (c *CallExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	ret := c.getReturnExpression(tracker)
	if ret == UnknownExpression {
		interaction.deoptimizeThis()
		return
	}
	objpath.WithTracking(tracker, ret, path, func() struct{} {
		ret.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
		return struct{}{}
	}, struct{}{})
}

func (c *CallExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	ret := c.getReturnExpression(tracker)
	if ret == UnknownExpression {
		return UnknownExpression, false
	}
	result := objpath.WithTracking(tracker, ret, path, func() returnResult {
		c.expressionsToBeDeoptimized.add(origin)
		e, pure := ret.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
		return returnResult{e, pure}
	}, unknownReturn)
	return result.expression, result.pure
}

func (c *CallExpression) HasEffects(ctx *HasEffectsContext) bool {
	c.applyDeoptimizations()
	for _, arg := range c.Arguments {
		if arg.HasEffects(ctx) {
			return true
		}
	}
	return c.Callee.HasEffects(ctx) ||
		c.Callee.HasEffectsOnInteractionAt(objpath.EmptyPath, c.Interaction(), ctx)
}

func (c *CallExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	switch interaction.Kind {
	case InteractionCalled:
		set := &ctx.Called
		if interaction.WithNew {
			set = &ctx.Instantiated
		}
		if set.TrackAndCheck(path, c, interaction) {
			return false
		}
	case InteractionAssigned:
		if ctx.Assigned.TrackAndCheck(path, c, nil) {
			return false
		}
	default:
		if ctx.Accessed.TrackAndCheck(path, c, nil) {
			return false
		}
	}
	ret := c.getReturnExpression(trackerOf(c.Ctx))
	return (interaction.Kind == InteractionAssigned || !c.returnPure) &&
		ret.HasEffectsOnInteractionAt(path, interaction, ctx)
}

func (c *CallExpression) Include(ctx *InclusionContext, recursive bool) {
	c.included = true
	c.applyDeoptimizations()
	c.Callee.Include(ctx, recursive)
	for _, arg := range c.Arguments {
		arg.Include(ctx, recursive)
	}
}
