package opcode_test

import (
	"testing"

	"github.com/zurustar/tinyscript/pkg/compiler/compiler"
	"github.com/zurustar/tinyscript/pkg/opcode"
	"github.com/zurustar/tinyscript/pkg/registry"
)

func TestStatement_String(t *testing.T) {
	s := opcode.Statement{Kind: opcode.If, Level: 1, Source: "if (a)"}
	if got, want := s.String(), `If@1 "if (a)"`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestProgram_String(t *testing.T) {
	var x float64
	var a bool
	vars := registry.MustNew(registry.Float("x", &x))
	bools := registry.MustNew(registry.Bool("a", &a))

	program, err := compiler.New(vars, bools, nil).Compile("if (a) { x = 1; } a = true;")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	want := "000 If if (a)\n" +
		"001   FloatAssign x = 1\n" +
		"002 BoolAssign a = true\n"
	if got := program.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}
