// Package boolexpr compiles comparison and logical expressions into a flat
// sequence of bracket-level-tagged terms and evaluates them without building
// a tree.
//
// There is no operator precedence. Within one bracket level, operands and
// operators are combined strictly left to right, so
//
//	true || false && false
//
// reads as (true || false) && false. Brackets are the only way to group:
// each term records how many brackets enclose it, and evaluation keeps one
// accumulator per level, collapsing a deeper level to a single value before
// the enclosing level consumes it.
package boolexpr

import (
	"fmt"
	"strings"

	"github.com/zurustar/tinyscript/pkg/compiler/diag"
	"github.com/zurustar/tinyscript/pkg/compiler/lexer"
	"github.com/zurustar/tinyscript/pkg/compiler/token"
	"github.com/zurustar/tinyscript/pkg/registry"
)

// TermKind identifies what a Term carries.
type TermKind int

const (
	FloatConst TermKind = iota
	BoolConst
	FloatVar
	BoolVar
	Operator
)

func (k TermKind) String() string {
	switch k {
	case FloatConst:
		return "float"
	case BoolConst:
		return "bool"
	case FloatVar:
		return "float-var"
	case BoolVar:
		return "bool-var"
	case Operator:
		return "op"
	}
	return "unknown"
}

// Term is one operand or operator of a compiled expression.
type Term struct {
	Kind  TermKind
	Level int // bracket nesting depth, 0 = outermost

	Float float64         // FloatConst
	Bool  bool            // BoolConst
	Index int             // FloatVar, BoolVar
	Op    token.TokenType // Operator
}

// Expression is a compiled boolean expression bound to its registries.
//
// Evaluate reuses internal scratch storage, so an Expression must not be
// evaluated from more than one goroutine at a time.
type Expression struct {
	source string
	terms  []Term
	depth  int

	vars  registry.Variables
	bools registry.Booleans

	// one accumulator per bracket level, reused across evaluations
	accum [][]value
}

// Compile tokenizes source against the registries and produces the term sequence.
//
// An opening bracket deepens the level and a closing bracket returns to the
// enclosing one; closing below level 0 is a StructuralError. Assignment,
// if, else and braces cannot appear in an expression. Brackets left open at
// the end are tolerated.
func Compile(source string, vars registry.Variables, bools registry.Booleans) (*Expression, error) {
	l := lexer.New(source, vars, bools)

	var terms []Term
	level, depth := 0, 0

	for {
		tok := l.NextToken()

		switch tok.Type {
		case token.END:
			return newExpression(source, terms, depth, vars, bools), nil

		case token.ILLEGAL:
			return nil, diag.At(diag.LexicalError, source, tok.Pos,
				fmt.Sprintf("illegal token %q", tok.Literal))

		case token.UNRESOLVED:
			return nil, diag.At(diag.NameResolutionError, source, tok.Pos,
				fmt.Sprintf("unknown identifier %q", tok.Literal))

		case token.LPAREN:
			level++
			if level > depth {
				depth = level
			}

		case token.RPAREN:
			if level == 0 {
				return nil, diag.At(diag.StructuralError, source, tok.Pos, "unbalanced ')'")
			}
			level--

		case token.NUMBER:
			terms = append(terms, Term{Kind: FloatConst, Level: level, Float: tok.Number})

		case token.TRUE:
			terms = append(terms, Term{Kind: BoolConst, Level: level, Bool: true})

		case token.FALSE:
			terms = append(terms, Term{Kind: BoolConst, Level: level, Bool: false})

		case token.FLOAT_IDENT:
			terms = append(terms, Term{Kind: FloatVar, Level: level, Index: tok.Index})

		case token.BOOL_IDENT:
			terms = append(terms, Term{Kind: BoolVar, Level: level, Index: tok.Index})

		default:
			if tok.Type.IsOperator() {
				terms = append(terms, Term{Kind: Operator, Level: level, Op: tok.Type})
				continue
			}
			return nil, diag.At(diag.StructuralError, source, tok.Pos,
				fmt.Sprintf("%q is not allowed in a boolean expression", tok.Literal))
		}
	}
}

func newExpression(source string, terms []Term, depth int, vars registry.Variables, bools registry.Booleans) *Expression {
	return &Expression{
		source: source,
		terms:  terms,
		depth:  depth,
		vars:   vars,
		bools:  bools,
		accum:  make([][]value, depth+1),
	}
}

// Source returns the text the expression was compiled from.
func (e *Expression) Source() string {
	return e.source
}

// Terms returns a copy of the compiled term sequence.
func (e *Expression) Terms() []Term {
	terms := make([]Term, len(e.terms))
	copy(terms, e.terms)
	return terms
}

// Depth returns the deepest bracket level seen while compiling.
func (e *Expression) Depth() int {
	return e.depth
}

// Evaluate resolves the expression against the current registry values.
// An expression that leaves nothing at level 0 evaluates to false.
func (e *Expression) Evaluate() bool {
	for i := range e.accum {
		e.accum[i] = e.accum[i][:0]
	}

	level := 0
	for _, t := range e.terms {
		if t.Level > level {
			level = t.Level
		} else if t.Level < level {
			level = e.collapse(level, t.Level)
		}
		e.address(e.resolve(t), level)
	}

	e.collapse(level, 0)
	if len(e.accum[0]) == 0 {
		return false
	}
	return e.accum[0][0].boolean()
}

// collapse reduces every level above target to a single value and hands it to
// the enclosing level. It returns target.
func (e *Expression) collapse(level, target int) int {
	for level > target {
		if len(e.accum[level]) > 0 {
			v := e.accum[level][0]
			e.accum[level] = e.accum[level][:0]
			level--
			e.address(v, level)
		} else {
			level--
		}
	}
	return level
}

// address feeds one value into the accumulator of level.
// An operand that follows a pending operator is combined with the first
// operand of the level at once, which is what makes evaluation left to right.
func (e *Expression) address(v value, level int) {
	acc := e.accum[level]

	if v.kind == valueOperator || len(acc) == 0 {
		e.accum[level] = append(acc, v)
		return
	}

	last := acc[len(acc)-1]
	if last.kind != valueOperator {
		// two operands in a row; the second has nothing to combine with
		return
	}

	result := combine(acc[0], last.op, v)
	e.accum[level] = append(acc[:0], result)
}

// resolve turns a term into a value, reading variables from their slots.
// A nil slot reads as zero or false.
func (e *Expression) resolve(t Term) value {
	switch t.Kind {
	case FloatConst:
		return floatValue(t.Float)
	case BoolConst:
		return boolValue(t.Bool)
	case FloatVar:
		f, _ := e.vars.Get(t.Index)
		return floatValue(f)
	case BoolVar:
		b, _ := e.bools.Get(t.Index)
		return boolValue(b)
	default:
		return value{kind: valueOperator, op: t.Op}
	}
}

// String renders the term sequence as operand@level pairs, mainly for logs.
func (e *Expression) String() string {
	parts := make([]string, len(e.terms))
	for i, t := range e.terms {
		var s string
		switch t.Kind {
		case FloatConst:
			s = fmt.Sprintf("%g", t.Float)
		case BoolConst:
			s = fmt.Sprintf("%t", t.Bool)
		case FloatVar:
			s = e.vars.Name(t.Index)
		case BoolVar:
			s = e.bools.Name(t.Index)
		case Operator:
			s = string(t.Op)
		}
		parts[i] = fmt.Sprintf("%s@%d", s, t.Level)
	}
	return strings.Join(parts, " ")
}
