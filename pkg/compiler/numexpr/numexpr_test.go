package numexpr

import (
	"errors"
	"math"
	"testing"

	"github.com/zurustar/tinyscript/pkg/compiler/diag"
	"github.com/zurustar/tinyscript/pkg/registry"
)

func TestEval(t *testing.T) {
	var x, y float64
	vars := registry.MustNew(registry.Float("x", &x), registry.Float("y", &y))

	tests := []struct {
		name   string
		source string
		x, y   float64
		want   float64
	}{
		{"integer sum", "2 + 3", 0, 0, 5},
		{"precedence", "1 + 2 * 3", 0, 0, 7},
		{"variables", "x * y", 1.5, 4, 6},
		{"division is float", "x / y", 1, 4, 0.25},
		{"sqrt", "sqrt(x * x + y * y)", 3, 4, 5},
		{"unary minus", "-x", 2, 0, -2},
		{"builtin abs", "abs(x - y)", 1, 4, 3},
		{"pi", "pi", 0, 0, math.Pi},
		{"atan2", "atan2(y, x)", 1, 1, math.Pi / 4},
		{"acos", "acos(x)", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.source, vars)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.source, err)
			}

			x, y = tt.x, tt.y
			got, err := p.Eval()
			if err != nil {
				t.Fatalf("Eval() error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Eval(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestEval_FollowsSlotChanges(t *testing.T) {
	var x float64
	vars := registry.MustNew(registry.Float("x", &x))
	p, err := Compile("x + 1", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, v := range []float64{0, 10, -3.5} {
		x = v
		got, err := p.Eval()
		if err != nil {
			t.Fatalf("Eval() error: %v", err)
		}
		if got != v+1 {
			t.Errorf("Eval() with x=%v = %v, want %v", v, got, v+1)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	var x float64
	vars := registry.MustNew(registry.Float("x", &x))

	tests := []struct {
		name   string
		source string
	}{
		{"dangling operator", "2 +"},
		{"empty", ""},
		{"boolean result", "x > 1"},
		{"unbalanced", "(x + 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, vars)
			if !errors.Is(err, diag.ErrCollaborator) {
				t.Fatalf("Compile(%q) error = %v, want collaborator error", tt.source, err)
			}
			var ce *diag.CompileError
			if !errors.As(err, &ce) || ce.Err == nil {
				t.Errorf("collaborator error should wrap the engine error: %#v", err)
			}
		})
	}
}

func TestCompile_UnknownName(t *testing.T) {
	var x float64
	vars := registry.MustNew(registry.Float("x", &x))

	tests := []struct {
		name     string
		source   string
		position int
	}{
		{"leading", "q + 1", 0},
		{"after operator", "x * q", 4},
		{"function argument", "sqrt(q)", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, vars)
			if !errors.Is(err, diag.ErrNameResolution) {
				t.Fatalf("Compile(%q) error = %v, want name resolution error", tt.source, err)
			}
			var ce *diag.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error is not a *diag.CompileError: %T", err)
			}
			if ce.Position != tt.position {
				t.Errorf("Position = %d, want %d", ce.Position, tt.position)
			}
			if ce.Message != `unknown identifier "q"` {
				t.Errorf("Message = %q", ce.Message)
			}
		})
	}
}

func TestVariableShadowsFunction(t *testing.T) {
	sqrt := 9.0
	vars := registry.MustNew(registry.Float("sqrt", &sqrt))
	p, err := Compile("sqrt + 1", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := p.Eval(); got != 10 {
		t.Errorf("Eval() = %v, want 10", got)
	}
}
