// Package opcode defines the compiled statement list the runtime executes.
// This package is the foundation that both the compiler and VM depend on.
// The compiler produces a Program, and the VM evaluates it.
package opcode

import (
	"fmt"
	"strings"

	"github.com/zurustar/tinyscript/pkg/compiler/boolexpr"
	"github.com/zurustar/tinyscript/pkg/compiler/numexpr"
	"github.com/zurustar/tinyscript/pkg/registry"
)

// Kind represents a compiled statement type.
type Kind string

// Statement kinds.
const (
	// FloatAssign evaluates a numeric expression into a float variable.
	// Payload: Dest (variable index), Num.
	FloatAssign Kind = "FloatAssign"

	// BoolAssign evaluates a boolean expression into a boolean variable.
	// Payload: Dest (boolean index), Cond.
	BoolAssign Kind = "BoolAssign"

	// If evaluates a condition into the statement's own cell and decides
	// whether the block that follows runs.
	// Payload: Cond, Cell.
	If Kind = "If"
)

// Statement is a single compiled statement.
type Statement struct {
	Kind Kind

	// Level is the brace-nesting depth the statement appears at.
	Level int

	// Dest is the registry index written by an assignment. Unused by If.
	Dest int

	// Num is the right-hand side of a FloatAssign.
	Num *numexpr.Program

	// Cond is the right-hand side of a BoolAssign or the condition of an If.
	Cond *boolexpr.Expression

	// Cell receives the most recent value of an If condition.
	Cell *bool

	// Source is the preprocessed statement text, kept for diagnostics.
	Source string
}

// String returns a readable representation of the statement.
func (s Statement) String() string {
	return fmt.Sprintf("%s@%d %q", s.Kind, s.Level, s.Source)
}

// Program is a compiled script: the statement list in source order plus the
// bindings it was compiled against.
// A Program is never modified after compilation.
type Program struct {
	Statements []Statement

	// Depth is the deepest block level any statement reached.
	// The runtime keeps Depth+1 flag slots.
	Depth int

	Vars  registry.Variables
	Bools registry.Booleans
}

// String lists the statements one per line, indented by block level.
func (p *Program) String() string {
	var sb strings.Builder
	for i, s := range p.Statements {
		fmt.Fprintf(&sb, "%03d %s%s %s\n", i, strings.Repeat("  ", s.Level), s.Kind, s.Source)
	}
	return sb.String()
}
