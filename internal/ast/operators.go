package ast

import (
	"math"
	"strconv"
	"strings"

	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// ----------------------------------------------------------------------------
// Binary Expression
// ----------------------------------------------------------------------------

// BinaryExpression is an arithmetic, equality or relational operation.
type BinaryExpression struct {
	NodeBase
	Operator string
	Left     Node
	Right    Node
}

func (b *BinaryExpression) ForEachChild(fn func(Node)) {
	fn(b.Left)
	fn(b.Right)
}

// LiteralValueAt folds the operation when both operands are known.
func (b *BinaryExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	if len(path) > 0 {
		return UnknownValue
	}
	left := b.Left.LiteralValueAt(objpath.EmptyPath, tracker, origin)
	if left.IsUnknown() {
		return UnknownValue
	}
	right := b.Right.LiteralValueAt(objpath.EmptyPath, tracker, origin)
	if right.IsUnknown() {
		return UnknownValue
	}
	return FoldBinary(b.Operator, left, right)
}

func (b *BinaryExpression) HasEffects(ctx *HasEffectsContext) bool {
	return b.Left.HasEffects(ctx) || b.Right.HasEffects(ctx)
}

// HasEffectsOnInteractionAt treats the result as a primitive.
func (b *BinaryExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	return interaction.Kind != InteractionAccessed || len(path) > 1
}

func (b *BinaryExpression) Include(ctx *InclusionContext, recursive bool) {
	b.included = true
	b.Left.Include(ctx, recursive)
	b.Right.Include(ctx, recursive)
}

// FoldBinary evaluates a binary operator on two known values. It returns
// UnknownValue for operators it does not fold.
func FoldBinary(op string, left, right LiteralValue) LiteralValue {
	switch op {
	case "+":
		if left.Kind == LiteralString || right.Kind == LiteralString {
			return StringValue(toString(left) + toString(right))
		}
		return NumberValue(toNumber(left) + toNumber(right))
	case "-":
		return NumberValue(toNumber(left) - toNumber(right))
	case "*":
		return NumberValue(toNumber(left) * toNumber(right))
	case "/":
		return NumberValue(toNumber(left) / toNumber(right))
	case "%":
		return NumberValue(math.Mod(toNumber(left), toNumber(right)))
	case "===":
		return BoolValue(strictEquals(left, right))
	case "!==":
		return BoolValue(!strictEquals(left, right))
	case "==":
		return BoolValue(looseEquals(left, right))
	case "!=":
		return BoolValue(!looseEquals(left, right))
	case "<", ">", "<=", ">=":
		return compare(op, left, right)
	}
	return UnknownValue
}

func strictEquals(a, b LiteralValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case LiteralBool:
		return a.Bool == b.Bool
	case LiteralNumber:
		return a.Number == b.Number
	case LiteralString:
		return a.String == b.String
	}
	return true
}

func looseEquals(a, b LiteralValue) bool {
	if a.Kind == b.Kind {
		return strictEquals(a, b)
	}
	if a.IsNullish() || b.IsNullish() {
		return a.IsNullish() && b.IsNullish()
	}
	return toNumber(a) == toNumber(b)
}

func compare(op string, a, b LiteralValue) LiteralValue {
	if a.Kind == LiteralString && b.Kind == LiteralString {
		c := strings.Compare(a.String, b.String)
		switch op {
		case "<":
			return BoolValue(c < 0)
		case ">":
			return BoolValue(c > 0)
		case "<=":
			return BoolValue(c <= 0)
		}
		return BoolValue(c >= 0)
	}
	x, y := toNumber(a), toNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return BoolValue(false)
	}
	switch op {
	case "<":
		return BoolValue(x < y)
	case ">":
		return BoolValue(x > y)
	case "<=":
		return BoolValue(x <= y)
	}
	return BoolValue(x >= y)
}

func toNumber(v LiteralValue) float64 {
	switch v.Kind {
	case LiteralNull:
		return 0
	case LiteralBool:
		if v.Bool {
			return 1
		}
		return 0
	case LiteralNumber:
		return v.Number
	case LiteralString:
		return ParseNumber(strings.TrimSpace(v.String))
	}
	return math.NaN()
}

// ParseNumber converts numeric source text or a numeric string. Invalid
// input yields NaN and the empty string yields 0.
func ParseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, "_", "")
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "iInN") {
		return math.NaN()
	}
	return n
}

func toString(v LiteralValue) string {
	switch v.Kind {
	case LiteralString:
		return v.String
	case LiteralNumber:
		return FormatNumber(v.Number)
	case LiteralBool:
		return strconv.FormatBool(v.Bool)
	case LiteralNull:
		return "null"
	}
	return "undefined"
}

// ----------------------------------------------------------------------------
// Unary Expression
// ----------------------------------------------------------------------------

// UnaryExpression is !x, -x, +x, typeof x or void x.
type UnaryExpression struct {
	NodeBase
	Operator string
	Argument Node
}

func (u *UnaryExpression) ForEachChild(fn func(Node)) { fn(u.Argument) }

func (u *UnaryExpression) LiteralValueAt(path objpath.Path, tracker *objpath.Tracker, origin Deoptimizable) LiteralValue {
	if len(path) > 0 {
		return UnknownValue
	}
	if u.Operator == "void" {
		return UndefinedValue
	}
	value := u.Argument.LiteralValueAt(objpath.EmptyPath, tracker, origin)
	if u.Operator == "!" {
		if truthy, known := value.Truthiness(); known {
			return BoolValue(!truthy)
		}
		return UnknownValue
	}
	if value.IsUnknown() {
		return UnknownValue
	}
	switch u.Operator {
	case "-":
		return NumberValue(-toNumber(value))
	case "+":
		return NumberValue(toNumber(value))
	case "typeof":
		return StringValue(typeOf(value))
	}
	return UnknownValue
}

func typeOf(v LiteralValue) string {
	switch v.Kind {
	case LiteralNull:
		return "object"
	case LiteralBool:
		return "boolean"
	case LiteralNumber:
		return "number"
	case LiteralString:
		return "string"
	}
	return "undefined"
}

// HasEffects ignores a typeof of a bare identifier, which never throws.
func (u *UnaryExpression) HasEffects(ctx *HasEffectsContext) bool {
	if _, ok := u.Argument.(*Identifier); ok && u.Operator == "typeof" {
		return false
	}
	return u.Argument.HasEffects(ctx)
}

func (u *UnaryExpression) HasEffectsOnInteractionAt(path objpath.Path, interaction *Interaction, _ *HasEffectsContext) bool {
	if u.Operator == "void" {
		return primitiveHasEffects(UndefinedValue, path, interaction)
	}
	return interaction.Kind != InteractionAccessed || len(path) > 1
}

func (u *UnaryExpression) Include(ctx *InclusionContext, recursive bool) {
	u.included = true
	u.Argument.Include(ctx, recursive)
}
