package boolexpr

import (
	"errors"
	"testing"

	"github.com/zurustar/tinyscript/pkg/compiler/diag"
	"github.com/zurustar/tinyscript/pkg/registry"
)

type fixture struct {
	x, y    float64
	a, b, c bool
	vars    registry.Variables
	bools   registry.Booleans
}

func newFixture() *fixture {
	f := &fixture{}
	f.vars = registry.MustNew(
		registry.Float("x", &f.x),
		registry.Float("y", &f.y),
	)
	f.bools = registry.MustNew(
		registry.Bool("a", &f.a),
		registry.Bool("b", &f.b),
		registry.Bool("c", &f.c),
	)
	return f
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		source string
		x, y   float64
		a, b   bool
		want   bool
	}{
		{"literal true", "true", 0, 0, false, false, true},
		{"literal false", "false", 0, 0, false, false, false},
		{"greater", "x > 1", 2, 0, false, false, true},
		{"not greater", "x > 1", 1, 0, false, false, false},
		{"greater equal", "x >= 1", 1, 0, false, false, true},
		{"less", "x < y", 1, 2, false, false, true},
		{"less equal", "x <= y", 3, 2, false, false, false},
		{"equal", "x == 2.5", 2.5, 0, false, false, true},
		{"not equal", "x != 2.5", 2.5, 0, false, false, false},
		{"left to right", "true || false && false", 0, 0, false, false, false},
		{"left to right reversed", "false && false || true", 0, 0, false, false, true},
		{"brackets group", "true || (false && false)", 0, 0, false, false, true},
		{"nested brackets", "((x > 1) && (y > 1)) || a", 2, 2, false, false, true},
		{"deep jump", "((true))", 0, 0, false, false, true},
		{"comparison chain", "x > 1 == true", 2, 0, false, false, true},
		{"bool compared as number", "a == 1", 0, 0, true, false, true},
		{"false compared as number", "b < 1", 0, 0, false, false, true},
		{"float as boolean", "x && true", 0.5, 0, false, false, true},
		{"zero is false", "x || false", 0, 0, false, false, false},
		{"bare float", "x", 3, 0, false, false, true},
		{"bare bool var", "a", 0, 0, true, false, true},
		{"condition in brackets", "(x > 1)", 2, 0, false, false, true},
		{"bracketed on the left", "(a || b) && x > 0", 1, 0, false, true, true},
		{"empty", "", 0, 0, true, true, false},
		{"only brackets", "()", 0, 0, true, true, false},
		{"unclosed bracket tolerated", "(x > 1", 2, 0, false, false, true},
		{"dangling operand dropped", "true false", 0, 0, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			expr, err := Compile(tt.source, f.vars, f.bools)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.source, err)
			}

			f.x, f.y, f.a, f.b = tt.x, tt.y, tt.a, tt.b
			if got := expr.Evaluate(); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v (terms: %s)", tt.source, got, tt.want, expr)
			}
		})
	}
}

func TestEvaluate_ReadsLiveValues(t *testing.T) {
	f := newFixture()
	expr, err := Compile("x > y", f.vars, f.bools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.x, f.y = 1, 2
	if expr.Evaluate() {
		t.Error("1 > 2 should be false")
	}
	f.x, f.y = 3, 2
	if !expr.Evaluate() {
		t.Error("3 > 2 should be true")
	}
}

func TestEvaluate_NilSlotReadsZero(t *testing.T) {
	vars := registry.MustNew(registry.Float("x", nil))
	expr, err := Compile("x == 0", vars, registry.Booleans{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.Evaluate() {
		t.Error("nil slot should read as 0")
	}
}

func TestCompile_Terms(t *testing.T) {
	f := newFixture()
	expr, err := Compile("a || (x > 1)", f.vars, f.bools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		kind  TermKind
		level int
	}{
		{BoolVar, 0},
		{Operator, 0},
		{FloatVar, 1},
		{Operator, 1},
		{FloatConst, 1},
	}

	terms := expr.Terms()
	if len(terms) != len(want) {
		t.Fatalf("len(terms) = %d, want %d", len(terms), len(want))
	}
	for i, w := range want {
		if terms[i].Kind != w.kind || terms[i].Level != w.level {
			t.Errorf("terms[%d] = (%s, %d), want (%s, %d)", i, terms[i].Kind, terms[i].Level, w.kind, w.level)
		}
	}
	if expr.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", expr.Depth())
	}
	if got := expr.String(); got != "a@0 ||@0 x@1 >@1 1@1" {
		t.Errorf("String() = %q", got)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"unbalanced close", "x > 1)", diag.ErrStructural},
		{"close first", ")(", diag.ErrStructural},
		{"assignment", "a = true", diag.ErrStructural},
		{"if keyword", "if a", diag.ErrStructural},
		{"else keyword", "a else b", diag.ErrStructural},
		{"open brace", "{ a", diag.ErrStructural},
		{"close brace", "a }", diag.ErrStructural},
		{"unknown identifier", "z > 1", diag.ErrNameResolution},
		{"single ampersand", "a & b", diag.ErrLexical},
		{"arithmetic", "x + 1 > 2", diag.ErrLexical},
		{"malformed number", "x > 1..2", diag.ErrLexical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := Compile(tt.source, f.vars, f.bools)
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile(%q) error = %v, want %v", tt.source, err, tt.want)
			}
		})
	}
}
