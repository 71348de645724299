package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// Property is a key: value pair of an object literal. Shorthand properties
// have an Identifier value with the same name.
type Property struct {
	NodeBase
	Key       string
	Value     Node
	Shorthand bool

	// QuotedKey records that the key was written as a string literal.
	QuotedKey bool
}

func (p *Property) ForEachChild(fn func(Node)) { fn(p.Value) }

func (p *Property) HasEffects(ctx *HasEffectsContext) bool {
	return p.Value.HasEffects(ctx)
}

func (p *Property) Include(ctx *InclusionContext, recursive bool) {
	p.included = true
	p.Value.Include(ctx, recursive)
}

// ObjectExpression is an object literal.
//
// Facts about the literal are tracked per key. Writing to one key only
// invalidates consumers of that key; writing to an unknown key invalidates
// everything.
type ObjectExpression struct {
	NodeBase
	Properties []*Property

	byKey           map[string]*Property
	deoptimizedKeys map[string]bool
	deoptimizedAll  bool
	keyDependents   map[string]*dependents
}

func (o *ObjectExpression) ForEachChild(fn func(Node)) {
	for _, p := range o.Properties {
		fn(p)
	}
}

func (o *ObjectExpression) property(key objpath.Key) *Property {
	if o.byKey == nil {
		o.byKey = make(map[string]*Property, len(o.Properties))
		for _, p := range o.Properties {
			o.byKey[p.Key] = p
		}
	}
	return o.byKey[string(key)]
}

// knownProperty returns the property at key if its value is still the one
// written in the literal.
func (o *ObjectExpression) knownProperty(key objpath.Key) *Property {
	if !key.IsKnown() || o.deoptimizedAll || o.deoptimizedKeys[string(key)] {
		return nil
	}
	return o.property(key)
}

func (o *ObjectExpression) addDependent(key objpath.Key, origin Deoptimizable) {
	if origin == nil {
		return
	}
	if o.keyDependents == nil {
		o.keyDependents = make(map[string]*dependents)
	}
	d := o.keyDependents[string(key)]
	if d == nil {
		d = &dependents{}
		o.keyDependents[string(key)] = d
	}
	d.add(origin)
}

func (o *ObjectExpression) notifyKey(key string) {
	if d := o.keyDependents[key]; d != nil && d.len() > 0 {
		d.notify()
		o.requestPass()
	}
}

func (o *ObjectExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	if len(path) == 0 {
		return UnknownTruthyValue
	}
	p := o.knownProperty(path[0])
	if p == nil {
		return UnknownValue
	}
	return objpath.WithTracking(tracker, o, path, func() LiteralValue {
		o.addDependent(path[0], origin)
		return p.Value.LiteralValueAt(objpath.WithoutFirst(path), tracker, origin)
	}, UnknownValue)
}

// DeoptimizePath invalidates the key written to, or every key when the
// written key is not known.
func (o *ObjectExpression) DeoptimizePath(path objpath.Path) {
	if len(path) == 0 || o.deoptimizedAll {
		return
	}
	key := path[0]
	if !key.IsKnown() {
		o.deoptimizedAll = true
		for k := range o.keyDependents {
			o.notifyKey(k)
		}
		for _, p := range o.Properties {
			p.Value.DeoptimizePath(objpath.UnknownPath)
		}
		return
	}
	if len(path) == 1 {
		if o.deoptimizedKeys[string(key)] {
			return
		}
		if o.deoptimizedKeys == nil {
			o.deoptimizedKeys = make(map[string]bool)
		}
		o.deoptimizedKeys[string(key)] = true
		o.notifyKey(string(key))
		return
	}
	if p := o.property(key); p != nil {
		p.Value.DeoptimizePath(objpath.WithoutFirst(path))
	}
}

func (o *ObjectExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	if len(path) == 1 && interaction.Kind == InteractionCalled {
		if p := o.knownProperty(path[0]); p != nil {
			p.Value.DeoptimizeThisOnInteractionAt(interaction, objpath.EmptyPath, tracker)
			return
		}
	}
	interaction.deoptimizeThis()
}

func (o *ObjectExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	if len(path) == 0 {
		return interaction.Kind == InteractionCalled
	}
	p := o.knownProperty(path[0])
	if p == nil {
		if interaction.Kind == InteractionCalled {
			return true
		}
		return len(path) > 1
	}
	if len(path) == 1 {
		switch interaction.Kind {
		case InteractionAccessed, InteractionAssigned:
			return false
		}
		return p.Value.HasEffectsOnInteractionAt(objpath.EmptyPath, interaction, ctx)
	}
	return p.Value.HasEffectsOnInteractionAt(objpath.WithoutFirst(path), interaction, ctx)
}

func (o *ObjectExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	if len(path) == 0 {
		return UnknownExpression, false
	}
	p := o.knownProperty(path[0])
	if p == nil {
		return UnknownExpression, false
	}
	o.addDependent(path[0], origin)
	return p.Value.ReturnExpressionWhenCalledAt(objpath.WithoutFirst(path), interaction, tracker, origin)
}

func (o *ObjectExpression) HasEffects(ctx *HasEffectsContext) bool {
	for _, p := range o.Properties {
		if p.HasEffects(ctx) {
			return true
		}
	}
	return false
}

func (o *ObjectExpression) Include(ctx *InclusionContext, recursive bool) {
	o.included = true
	for _, p := range o.Properties {
		p.Include(ctx, recursive)
	}
}
