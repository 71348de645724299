package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// InteractionKind is the way a value is used.
type InteractionKind uint8

const (
	InteractionAccessed InteractionKind = iota
	InteractionAssigned
	InteractionCalled
)

func (k InteractionKind) String() string {
	switch k {
	case InteractionAccessed:
		return "accessed"
	case InteractionAssigned:
		return "assigned"
	case InteractionCalled:
		return "called"
	}
	return "unknown"
}

// Interaction describes one use of a value. Interactions are compared by
// pointer, so each call site owns a distinct one and recursion guards can
// tell two calls of the same function apart.
type Interaction struct {
	Kind InteractionKind

	// This is the receiver: the object a method is called on or a property
	// is read from. It is nil for plain function calls.
	This Entity

	// Args are the call arguments.
	Args []Entity

	// Value is the assigned value for InteractionAssigned.
	Value Entity

	// WithNew marks constructor calls.
	WithNew bool
}

// NewAccess returns an access interaction with the given receiver.
func NewAccess(this Entity) *Interaction {
	return &Interaction{Kind: InteractionAccessed, This: this}
}

// NewAssignment returns an assignment interaction.
func NewAssignment(this Entity, value Entity) *Interaction {
	return &Interaction{Kind: InteractionAssigned, This: this, Value: value}
}

// NewCall returns a call interaction.
func NewCall(this Entity, args []Entity, withNew bool) *Interaction {
	return &Interaction{Kind: InteractionCalled, This: this, Args: args, WithNew: withNew}
}

var (
	// UnknownAccess reads a property of an unknown receiver.
	UnknownAccess = NewAccess(UnknownExpression)

	// UnknownAssignment writes an unknown value to an unknown receiver.
	UnknownAssignment = NewAssignment(UnknownExpression, UnknownExpression)

	// UnknownCall calls a value with unknown receiver and arguments.
	UnknownCall = NewCall(UnknownExpression, nil, false)
)

// deoptimizeThis forgets everything about the receiver, which an unknown
// callee may mutate.
func (i *Interaction) deoptimizeThis() {
	if i.This != nil {
		i.This.DeoptimizePath(objpath.UnknownPath)
	}
}

// deoptimizeArgs forgets everything about the arguments of a call.
func (i *Interaction) deoptimizeArgs() {
	for _, arg := range i.Args {
		arg.DeoptimizePath(objpath.UnknownPath)
	}
}
