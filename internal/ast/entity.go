// Package ast defines the JavaScript syntax tree used by the tree-shaker and
// the abstract-interpretation protocol every node and variable implements.
//
// The protocol answers four kinds of questions about a value reached through
// an object path:
// - LiteralValueAt: is the value statically known?
// - HasEffectsOnInteractionAt: can reading, assigning or calling it be observed?
// - ReturnExpressionWhenCalledAt: what does calling it return?
// - DeoptimizePath: forget what was assumed about it
//
// Answers that are not "unknown" are optimistic bets. Every consumer that
// derives a fact from such an answer registers itself as a Deoptimizable and
// is told through DeoptimizeCache when the bet is lost.
package ast

import (
	"math"
	"strconv"

	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// ----------------------------------------------------------------------------
// Literal Values
// ----------------------------------------------------------------------------

// LiteralKind identifies what a LiteralValue holds.
type LiteralKind uint8

const (
	// LiteralUnknown is the zero value: nothing is known.
	LiteralUnknown LiteralKind = iota
	// LiteralUnknownTruthy is an unknown value that is known to be truthy,
	// such as a function or an object.
	LiteralUnknownTruthy
	LiteralUndefined
	LiteralNull
	LiteralBool
	LiteralNumber
	LiteralString
)

// LiteralValue is the result of a literal-value query.
type LiteralValue struct {
	Kind   LiteralKind
	Bool   bool
	Number float64
	String string
}

var (
	// UnknownValue is returned whenever a value cannot be determined.
	UnknownValue = LiteralValue{}

	// UnknownTruthyValue is an unknown value that is known to be truthy.
	UnknownTruthyValue = LiteralValue{Kind: LiteralUnknownTruthy}

	// UndefinedValue is the literal undefined.
	UndefinedValue = LiteralValue{Kind: LiteralUndefined}

	// NullValue is the literal null.
	NullValue = LiteralValue{Kind: LiteralNull}
)

// BoolValue returns a known boolean.
func BoolValue(b bool) LiteralValue {
	return LiteralValue{Kind: LiteralBool, Bool: b}
}

// NumberValue returns a known number.
func NumberValue(n float64) LiteralValue {
	return LiteralValue{Kind: LiteralNumber, Number: n}
}

// StringValue returns a known string.
func StringValue(s string) LiteralValue {
	return LiteralValue{Kind: LiteralString, String: s}
}

// IsUnknown returns true if the concrete value is not known.
func (v LiteralValue) IsUnknown() bool {
	return v.Kind == LiteralUnknown || v.Kind == LiteralUnknownTruthy
}

// IsNullish returns true for null and undefined.
func (v LiteralValue) IsNullish() bool {
	return v.Kind == LiteralNull || v.Kind == LiteralUndefined
}

// Truthiness reports the boolean coercion of the value and whether it is
// known at all.
func (v LiteralValue) Truthiness() (truthy bool, known bool) {
	switch v.Kind {
	case LiteralUnknownTruthy:
		return true, true
	case LiteralUndefined, LiteralNull:
		return false, true
	case LiteralBool:
		return v.Bool, true
	case LiteralNumber:
		return v.Number != 0 && !math.IsNaN(v.Number), true
	case LiteralString:
		return v.String != "", true
	}
	return false, false
}

// Format renders the value as JavaScript source, or "<unknown>".
func (v LiteralValue) Format() string {
	switch v.Kind {
	case LiteralUndefined:
		return "undefined"
	case LiteralNull:
		return "null"
	case LiteralBool:
		return strconv.FormatBool(v.Bool)
	case LiteralNumber:
		return FormatNumber(v.Number)
	case LiteralString:
		return strconv.Quote(v.String)
	case LiteralUnknownTruthy:
		return "<unknown truthy>"
	}
	return "<unknown>"
}

// FormatNumber prints a number the way JavaScript's ToString does for the
// common cases.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ----------------------------------------------------------------------------
// Capability Protocol
// ----------------------------------------------------------------------------

// Deoptimizable is implemented by every consumer that caches a fact derived
// from another entity's analysis state.
type Deoptimizable interface {
	// DeoptimizeCache tells the consumer that a fact it relied on may no
	// longer hold. Implementations must be idempotent.
	DeoptimizeCache()
}

// Entity is the protocol shared by value-producing nodes and variables.
type Entity interface {
	// LiteralValueAt returns the statically known value at path. When the
	// answer is not unknown, origin has been registered and will be
	// deoptimized if the answer changes.
	LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue

	// DeoptimizePath declares that the value at path must now be treated as
	// unknown.
	DeoptimizePath(path objpath.Path)

	// DeoptimizeThisOnInteractionAt deoptimizes the receiver of interaction
	// if performing it at path may mutate that receiver.
	DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker)

	// HasEffectsOnInteractionAt returns true if performing interaction at
	// path could have an observable side effect.
	HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool

	// ReturnExpressionWhenCalledAt returns the entity produced by calling
	// the value at path, and whether that call is known to be pure.
	ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool)
}

// returnResult lets ReturnExpressionWhenCalledAt results pass through
// objpath.WithTracking.
type returnResult struct {
	expression Entity
	pure       bool
}

var unknownReturn = returnResult{expression: UnknownExpression}

// ----------------------------------------------------------------------------
// Dependents
// ----------------------------------------------------------------------------

// dependents is the list of consumers to notify when a cached fact goes
// stale. Entries are appended during analysis and drained on notification.
type dependents struct {
	list []Deoptimizable
}

func (d *dependents) add(origin Deoptimizable) {
	if origin != nil {
		d.list = append(d.list, origin)
	}
}

func (d *dependents) len() int {
	return len(d.list)
}

// notify drains the list before calling anyone, so a consumer that
// re-registers while being notified is not notified twice for one event.
func (d *dependents) notify() {
	list := d.list
	d.list = nil
	seen := make(map[Deoptimizable]struct{}, len(list))
	for _, origin := range list {
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		origin.DeoptimizeCache()
	}
}

// ----------------------------------------------------------------------------
// Unknown Expression
// ----------------------------------------------------------------------------

type unknownExpression struct{}

// UnknownExpression answers every query conservatively.
var UnknownExpression Entity = &unknownExpression{}

func (*unknownExpression) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

func (*unknownExpression) DeoptimizePath(objpath.Path) {}

func (*unknownExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, _ objpath.Path, _ *objpath.Tracker) {
	interaction.deoptimizeThis()
}

func (*unknownExpression) HasEffectsOnInteractionAt(objpath.Path, *Interaction, *HasEffectsContext) bool {
	return true
}

func (*unknownExpression) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

// ----------------------------------------------------------------------------
// Multi Expression
// ----------------------------------------------------------------------------

// MultiExpression is the union of several possible values. It is returned
// when a call cannot be narrowed to a single callee.
type MultiExpression struct {
	Expressions []Entity
}

// NewMultiExpression creates a union of the given entities.
func NewMultiExpression(expressions ...Entity) *MultiExpression {
	return &MultiExpression{Expressions: expressions}
}

func (m *MultiExpression) LiteralValueAt(objpath.Path, *objpath.Tracker, Deoptimizable) LiteralValue {
	return UnknownValue
}

func (m *MultiExpression) DeoptimizePath(path objpath.Path) {
	for _, e := range m.Expressions {
		e.DeoptimizePath(path)
	}
}

func (m *MultiExpression) DeoptimizeThisOnInteractionAt(interaction *Interaction, path objpath.Path, tracker *objpath.Tracker) {
	for _, e := range m.Expressions {
		e.DeoptimizeThisOnInteractionAt(interaction, path, tracker)
	}
}

func (m *MultiExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, ctx *HasEffectsContext) bool {
	for _, e := range m.Expressions {
		if e.HasEffectsOnInteractionAt(path, interaction, ctx) {
			return true
		}
	}
	return false
}

func (m *MultiExpression) ReturnExpressionWhenCalledAt(path objpath.Path, interaction *Interaction, tracker *objpath.Tracker, origin Deoptimizable) (Entity, bool) {
	returns := make([]Entity, len(m.Expressions))
	for i, e := range m.Expressions {
		returns[i], _ = e.ReturnExpressionWhenCalledAt(path, interaction, tracker, origin)
	}
	return NewMultiExpression(returns...), false
}

// ----------------------------------------------------------------------------
// Constant Values
// ----------------------------------------------------------------------------

// valueEntity is a synthetic entity holding a known primitive, such as the
// implicit undefined returned by a function without return statements.
type valueEntity struct {
	value LiteralValue
}

// UndefinedExpression is the value of a missing return argument.
var UndefinedExpression Entity = &valueEntity{value: UndefinedValue}

func (v *valueEntity) LiteralValueAt(path objpath.Path, _ *objpath.Tracker, _ Deoptimizable) LiteralValue {
	if len(path) == 0 {
		return v.value
	}
	return UnknownValue
}

func (*valueEntity) DeoptimizePath(objpath.Path) {}

func (*valueEntity) DeoptimizeThisOnInteractionAt(interaction *Interaction, _ objpath.Path, _ *objpath.Tracker) {
	interaction.deoptimizeThis()
}

func (v *valueEntity) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	return primitiveHasEffects(v.value, path, interaction)
}

func (*valueEntity) ReturnExpressionWhenCalledAt(objpath.Path, *Interaction, *objpath.Tracker, Deoptimizable) (Entity, bool) {
	return UnknownExpression, false
}

// primitiveHasEffects answers effect queries for primitive values: reading
// a property is safe unless the value is nullish, anything else is not.
func primitiveHasEffects(value LiteralValue, path objpath.Path, interaction *Interaction) bool {
	if interaction.Kind != InteractionAccessed {
		return true
	}
	if len(path) == 0 {
		return false
	}
	if value.IsNullish() {
		return true
	}
	return len(path) > 1
}
