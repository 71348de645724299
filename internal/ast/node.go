package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// Range is a half-open byte range in the module source.
type Range struct {
	Start int
	End   int
}

// Node is a syntax tree node. Every node is also an Entity, so expression
// nodes can be asked about their values directly.
type Node interface {
	Entity
	Deoptimizable

	Span() Range
	Parent() Node
	SetParent(parent Node)

	// Module returns the module the node belongs to.
	Module() ModuleContext

	// HasEffects returns true if evaluating the node could be observed.
	HasEffects(ctx *HasEffectsContext) bool

	// Include marks the node for output. With recursive set, every
	// descendant is included regardless of its effects.
	Include(ctx *InclusionContext, recursive bool)

	Included() bool

	// ForEachChild calls fn on every direct child in source order.
	ForEachChild(fn func(Node))

	base() *NodeBase
}

// NodeBase holds the fields shared by all nodes and the conservative
// defaults of the entity protocol.
type NodeBase struct {
	Loc      Range
	Ctx      ModuleContext
	parent   Node
	included bool
}

func (n *NodeBase) Span() Range { return n.Loc }
func (n *NodeBase) Parent() Node { return n.parent }
func (n *NodeBase) SetParent(parent Node) { n.parent = parent }
func (n *NodeBase) Module() ModuleContext { return n.Ctx }
func (n *NodeBase) Included() bool { return n.included }
func (n *NodeBase) base() *NodeBase { return n }
func (n *NodeBase) DeoptimizeCache() {}
func (n *NodeBase) DeoptimizePath(objpath.Path) {}

func (n *NodeBase) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

func (n *NodeBase) DeoptimizeThisOnInteractionAt(interaction *Interaction, _ objpath.Path, _ *objpath.Tracker) {
	interaction.deoptimizeThis()
}

func (n *NodeBase) HasEffectsOnInteractionAt(objpath.Path, *Interaction, *HasEffectsContext) bool {
	return true
}

func (n *NodeBase) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

func (n *NodeBase) options() *Options {
	if n.Ctx == nil {
		return DefaultOptions()
	}
	return n.Ctx.Options()
}

func (n *NodeBase) requestPass() {
	if n.Ctx != nil {
		n.Ctx.RequestTreeshakingPass()
	}
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// ShouldBeIncluded returns true if the node is already included or, while
// control flow still reaches it, evaluating it has an effect.
func ShouldBeIncluded(n Node, ctx *InclusionContext) bool {
	return n.Included() || (!ctx.BrokenFlow && n.HasEffects(NewHasEffectsContext()))
}

// Walk calls fn on n and its descendants in pre-order. Returning false from
// fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	n.ForEachChild(func(child Node) {
		Walk(child, fn)
	})
}

// SetParents links every node below root to its parent.
func SetParents(root Node) {
	root.ForEachChild(func(child Node) {
		child.SetParent(root)
		SetParents(child)
	})
}

// markIncluded sets the included flag of n and every ancestor up to the
// first one that is already included.
func markIncluded(n Node) {
	for n != nil {
		b := n.base()
		if b.included {
			return
		}
		b.included = true
		n = b.parent
	}
}

func hasEffects(n Node, ctx *HasEffectsContext) bool {
	return n != nil && n.HasEffects(ctx)
}

func include(n Node, ctx *InclusionContext, recursive bool) {
	if n != nil {
		n.Include(ctx, recursive)
	}
}

func visit(n Node, fn func(Node)) {
	if n != nil {
		fn(n)
	}
}

func asEntity(n Node) Entity {
	if n == nil {
		return UndefinedExpression
	}
	return n
}

func entities(nodes []Node) []Entity {
	out := make([]Entity, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// includeStatements includes each statement that has effects, stopping
// effect checks once flow is broken.
func includeStatements(body []Node, ctx *InclusionContext, recursive bool) {
	for _, stmt := range body {
		if recursive || ShouldBeIncluded(stmt, ctx) {
			stmt.Include(ctx, recursive)
		}
	}
}

func statementsHaveEffects(body []Node, ctx *HasEffectsContext) bool {
	for _, stmt := range body {
		if ctx.BrokenFlow {
			return false
		}
		if stmt.HasEffects(ctx) {
			return true
		}
	}
	return false
}
