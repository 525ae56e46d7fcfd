package compiler

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/zurustar/tinyscript/pkg/compiler/diag"
	"github.com/zurustar/tinyscript/pkg/opcode"
	"github.com/zurustar/tinyscript/pkg/registry"
)

type fixture struct {
	x, y float64
	a, b bool
}

func (f *fixture) compiler(log *slog.Logger) *Compiler {
	vars := registry.MustNew(registry.Float("x", &f.x), registry.Float("y", &f.y))
	bools := registry.MustNew(registry.Bool("a", &f.a), registry.Bool("b", &f.b))
	return New(vars, bools, log)
}

// TestCompile_Statements tests statement classification and block levels.
func TestCompile_Statements(t *testing.T) {
	type want struct {
		kind  opcode.Kind
		level int
		dest  int
	}

	tests := []struct {
		name   string
		input  string
		depth  int
		expect []want
	}{
		{
			name:   "float assignment",
			input:  "x = 2 + 3;",
			expect: []want{{opcode.FloatAssign, 0, 0}},
		},
		{
			name:   "bool assignment",
			input:  "b = x > 1;",
			expect: []want{{opcode.BoolAssign, 0, 1}},
		},
		{
			name:   "if with block",
			input:  "if (x > 1) { b = true; }",
			depth:  1,
			expect: []want{{opcode.If, 0, -1}, {opcode.BoolAssign, 1, 1}},
		},
		{
			name:  "nested blocks",
			input: "if (a) { y = 1; if (b) { x = 2; } } y = 3;",
			depth: 2,
			expect: []want{
				{opcode.If, 0, -1},
				{opcode.FloatAssign, 1, 1},
				{opcode.If, 1, -1},
				{opcode.FloatAssign, 2, 0},
				{opcode.FloatAssign, 0, 1},
			},
		},
		{
			name:   "one-line if gets a block",
			input:  "if (a) x = 1;",
			depth:  1,
			expect: []want{{opcode.If, 0, -1}, {opcode.FloatAssign, 1, 0}},
		},
		{
			name:   "else produces nothing",
			input:  "if (a) { x = 1; } else { x = 2; }",
			depth:  1,
			expect: []want{{opcode.If, 0, -1}, {opcode.FloatAssign, 1, 0}, {opcode.FloatAssign, 1, 0}},
		},
		{
			name:   "comments and blank statements",
			input:  "// header\nx = 1; /* b = true; */ ;;\n",
			expect: []want{{opcode.FloatAssign, 0, 0}},
		},
		{
			name:   "empty script",
			input:  "",
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fixture{}
			program, err := f.compiler(nil).Compile(tt.input)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.input, err)
			}

			if program.Depth != tt.depth {
				t.Errorf("Depth = %d, want %d", program.Depth, tt.depth)
			}
			if len(program.Statements) != len(tt.expect) {
				t.Fatalf("got %d statements, want %d:\n%s", len(program.Statements), len(tt.expect), program)
			}
			for i, w := range tt.expect {
				s := program.Statements[i]
				if s.Kind != w.kind || s.Level != w.level || s.Dest != w.dest {
					t.Errorf("statement %d = {%s %d %d}, want {%s %d %d}",
						i, s.Kind, s.Level, s.Dest, w.kind, w.level, w.dest)
				}
			}
		})
	}
}

func TestCompile_Payloads(t *testing.T) {
	f := &fixture{}
	program, err := f.compiler(nil).Compile("if (a) { x = y * 2; b = a; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ifStmt := program.Statements[0]
	if ifStmt.Cond == nil || ifStmt.Cell == nil {
		t.Fatalf("if statement missing condition or cell: %+v", ifStmt)
	}
	if ifStmt.Cond.Source() != "(a)" {
		t.Errorf("condition source = %q, want %q", ifStmt.Cond.Source(), "(a)")
	}

	assign := program.Statements[1]
	if assign.Num == nil || assign.Num.Source() != " y * 2" {
		t.Errorf("numeric payload = %+v", assign.Num)
	}

	boolAssign := program.Statements[2]
	if boolAssign.Cond == nil || boolAssign.Cond.Source() != " a" {
		t.Errorf("boolean payload = %+v", boolAssign.Cond)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     error
		position int
	}{
		{"unclosed block", "if (a) { x = 1;", diag.ErrStructural, -1},
		{"stray close brace", "x = 1; }", diag.ErrStructural, 0},
		{"close before open", "} {", diag.ErrStructural, 0},
		{"unknown target", "q = 1;", diag.ErrNameResolution, 0},
		{"unknown name in condition", "if (q > 1) { x = 1; }", diag.ErrNameResolution, 4},
		{"unknown name in bool rhs", "b = q;", diag.ErrNameResolution, 4},
		{"unknown name in float rhs", "x = q + 1;", diag.ErrNameResolution, 4},
		{"if without bracket", "if a { x = 1; }", diag.ErrStructural, 3},
		{"missing assign", "x 1;", diag.ErrStructural, 2},
		{"comparison instead of assign", "x == 1;", diag.ErrStructural, 2},
		{"statement starting with number", "1 = x;", diag.ErrStructural, 0},
		{"illegal character", "x = 1; # comment", diag.ErrLexical, 0},
		{"illegal operator in condition", "if (a & b) { x = 1; }", diag.ErrLexical, 6},
		{"unbalanced bracket in condition", "if (a)) { x = 1; }", diag.ErrStructural, 6},
		{"arithmetic rejected by engine", "x = 2 +;", diag.ErrCollaborator, -2},
		{"boolean in numeric expression", "x = y > 1;", diag.ErrCollaborator, -2},
		{"assignment inside bool rhs", "b = a = true;", diag.ErrStructural, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fixture{}
			program, err := f.compiler(nil).Compile(tt.input)
			if program != nil {
				t.Errorf("Compile(%q) returned a program alongside error", tt.input)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Compile(%q) error = %v, want %v", tt.input, err, tt.want)
			}

			var ce *diag.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error is not a *diag.CompileError: %T", err)
			}
			// -2: engine-reported, only check it lies inside the statement
			if tt.position == -2 {
				if ce.Position < 0 || ce.Position > len(ce.Statement) {
					t.Errorf("Position = %d outside statement %q", ce.Position, ce.Statement)
				}
				return
			}
			if ce.Position != tt.position {
				t.Errorf("Position = %d, want %d (statement %q)", ce.Position, tt.position, ce.Statement)
			}
		})
	}
}

func TestCompile_NameInBothRegistries(t *testing.T) {
	var fx float64
	var bx bool
	vars := registry.MustNew(registry.Float("x", &fx))
	bools := registry.MustNew(registry.Bool("x", &bx))

	_, err := New(vars, bools, nil).Compile("x = 1;")
	if !errors.Is(err, diag.ErrNameResolution) {
		t.Errorf("error = %v, want name resolution error", err)
	}
}

func TestCompile_StopsAtFirstError(t *testing.T) {
	f := &fixture{}
	_, err := f.compiler(nil).Compile("x = 1; q = 2; z = 3;")

	var ce *diag.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("unexpected error type %T", err)
	}
	if ce.Statement != "q = 2" {
		t.Errorf("error statement = %q, want the first failing statement", ce.Statement)
	}
}

func TestCompile_ElseLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	f := &fixture{}
	if _, err := f.compiler(log).Compile("if (a) { x = 1; } else { x = 2; }"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "else is not supported") {
		t.Errorf("expected a warning about else, got %q", buf.String())
	}
}

func TestCompile_RegistriesCopied(t *testing.T) {
	f := &fixture{}
	vars := registry.MustNew(registry.Float("x", &f.x))
	c := New(vars, registry.Booleans{}, nil)

	// replacing the caller's registry must not change what the compiler sees
	vars = registry.MustNew(registry.Float("other", &f.y))

	program, err := c.Compile("x = 1;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if program.Vars.Name(0) != "x" || vars.Name(0) != "other" {
		t.Errorf("compiler registry = %v", program.Vars.Names())
	}
}
