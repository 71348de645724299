package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// MemberKind distinguishes class members.
type MemberKind uint8

const (
	MemberMethod MemberKind = iota
	MemberProperty
	MemberConstructor
)

// ClassMember is a method, field or constructor.
//
// Static members are evaluated in the class body scope, where this is the
// class. Instance members are evaluated in the instance scope, where this
// is the object under construction.
type ClassMember struct {
	NodeBase
	Kind   MemberKind
	Static bool
	Key    string

	// Value is the method function or the field initializer, nil for a
	// field without one.
	Value Node
}

func (m *ClassMember) ForEachChild(fn func(Node)) { visit(m.Value, fn) }

// HasEffects covers evaluation at class definition time: only static field
// initializers run then.
func (m *ClassMember) HasEffects(ctx *HasEffectsContext) bool {
	return m.Static && m.Kind == MemberProperty && hasEffects(m.Value, ctx)
}

func (m *ClassMember) Include(ctx *InclusionContext, recursive bool) {
	m.included = true
	include(m.Value, ctx, recursive)
}

// Class is a class declaration or class expression.
type Class struct {
	NodeBase
	IsDeclaration bool
	ID            *Identifier
	SuperClass    Node
	Members       []*ClassMember

	// Scope is the class body scope.
	Scope *Scope

	deoptimized bool
	dependents  dependents
}

func (c *Class) ForEachChild(fn func(Node)) {
	if c.ID != nil {
		fn(c.ID)
	}
	visit(c.SuperClass, fn)
	for _, m := range c.Members {
		fn(m)
	}
}

// IsStatement returns true for class declarations.
func (c *Class) IsStatement() bool {
	return c.IsDeclaration
}

func (c *Class) staticMember(key objpath.Key) *ClassMember {
	if !key.IsKnown() || c.deoptimized {
		return nil
	}
	var found *ClassMember
	for _, m := range c.Members {
		if m.Static && m.Key == string(key) {
			found = m
		}
	}
	return found
}

func (c *Class) constructor() *ClassMember {
	for _, m := range c.Members {
		if m.Kind == MemberConstructor {
			return m
		}
	}
	return nil
}

func (c *Class) LiteralValueAt(path objpath.Path, _ *objpath.Tracker, _ Deoptimizable) LiteralValue {
	if len(path) == 0 {
		return UnknownTruthyValue
	}
	return UnknownValue
}

// DeoptimizePath forgets every static member once any property of the class
// may have changed.
func (c *Class) DeoptimizePath(path objpath.Path) {
	if len(path) == 0 || c.deoptimized {
		return
	}
	c.deoptimized = true
	c.dependents.notify()
	for _, m := range c.Members {
		if m.Static && m.Value != nil {
			m.Value.DeoptimizePath(objpath.UnknownPath)
		}
	}
	c.requestPass()
}

func (c *Class) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	if len(path) == 1 {
		if m := c.staticMember(path[0]); m != nil && m.Value != nil {
			m.Value.DeoptimizeThisOnInteractionAt(interaction, objpath.EmptyPath, tracker)
			return
		}
	}
	interaction.deoptimizeThis()
}

// HasEffects covers class definition: the superclass expression and static
// field initializers.
func (c *Class) HasEffects(ctx *HasEffectsContext) bool {
	if hasEffects(c.SuperClass, ctx) {
		return true
	}
	for _, m := range c.Members {
		if m.HasEffects(ctx) {
			return true
		}
	}
	return false
}

func (c *Class) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if len(path) == 0 {
		if interaction.Kind != InteractionCalled {
			return false
		}
		if !interaction.WithNew {
			return true
		}
		return c.instantiationHasEffects(interaction, ctx)
	}
	member := c.staticMember(path[0])
	switch interaction.Kind {
	case InteractionAccessed:
		if len(path) == 1 {
			return false
		}
		if member == nil || member.Value == nil {
			return true
		}
		return member.Value.HasEffectsOnInteractionAt(objpath.WithoutFirst(path), interaction, ctx)
	case InteractionCalled:
		if member == nil || member.Value == nil {
			return true
		}
		return member.Value.HasEffectsOnInteractionAt(objpath.WithoutFirst(path), interaction, ctx)
	}
	return true
}

// instantiationHasEffects covers new C(): the superclass constructor, the
// instance field initializers and the constructor body.
func (c *Class) instantiationHasEffects(interaction *Interaction, ctx *HasEffectsContext) bool {
	if c.SuperClass != nil && c.SuperClass.HasEffectsOnInteractionAt(objpath.EmptyPath, interaction, ctx) {
		return true
	}
	if c.Scope != nil && c.Scope.InstanceScope != nil {
		if this, ok := c.Scope.InstanceScope.Variables["this"].(*ThisVariable); ok {
			defer ctx.replaceReceiver(this, freshObject{this: this})()
		}
	}
	for _, m := range c.Members {
		if !m.Static && m.Kind == MemberProperty && hasEffects(m.Value, ctx) {
			return true
		}
	}
	if ctor := c.constructor(); ctor != nil {
		if fn, ok := ctor.Value.(*Function); ok {
			return fn.bodyHasEffects(interaction, ctx)
		}
	}
	return false
}

func (c *Class) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	if len(path) == 1 {
		if m := c.staticMember(path[0]); m != nil && m.Kind == MemberMethod && m.Value != nil {
			c.dependents.add(origin)
			return m.Value.ReturnExpressionWhenCalledAt(objpath.EmptyPath, interaction, tracker, origin)
		}
	}
	return UnknownExpression, false
}

// Include keeps every member. Only the bodies of methods are trimmed.
func (c *Class) Include(ctx *InclusionContext, recursive bool) {
	c.included = true
	if c.ID != nil {
		c.ID.Include(ctx, recursive)
	}
	include(c.SuperClass, ctx, recursive)
	for _, m := range c.Members {
		m.Include(ctx, recursive)
	}
}
