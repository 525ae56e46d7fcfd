package boolexpr

import "github.com/zurustar/tinyscript/pkg/compiler/token"

type valueKind int

const (
	valueFloat valueKind = iota
	valueBool
	valueOperator
)

// value is an accumulator entry: a resolved constant or a pending operator.
type value struct {
	kind valueKind
	f    float64
	b    bool
	op   token.TokenType
}

func floatValue(f float64) value { return value{kind: valueFloat, f: f} }

func boolValue(b bool) value { return value{kind: valueBool, b: b} }

// number coerces v for a comparison. true is 1 and false is 0.
func (v value) number() float64 {
	switch v.kind {
	case valueFloat:
		return v.f
	case valueBool:
		if v.b {
			return 1
		}
	}
	return 0
}

// boolean coerces v for a logical operator. Any nonzero float is true.
func (v value) boolean() bool {
	switch v.kind {
	case valueFloat:
		return v.f != 0
	case valueBool:
		return v.b
	}
	return false
}

// combine applies op to two operands.
func combine(left value, op token.TokenType, right value) value {
	switch op {
	case token.EQ:
		return boolValue(left.number() == right.number())
	case token.NOT_EQ:
		return boolValue(left.number() != right.number())
	case token.GT:
		return boolValue(left.number() > right.number())
	case token.LT:
		return boolValue(left.number() < right.number())
	case token.GTE:
		return boolValue(left.number() >= right.number())
	case token.LTE:
		return boolValue(left.number() <= right.number())
	case token.AND:
		return boolValue(left.boolean() && right.boolean())
	case token.OR:
		return boolValue(left.boolean() || right.boolean())
	}
	return boolValue(false)
}
