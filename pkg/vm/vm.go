// Package vm provides the runtime that executes compiled tinyscript programs.
//
// A Program is a flat statement list; there is no tree of "then" blocks.
// Conditional execution is driven by one flag per block level:
//   - an if statement sets the flag at its own level to IfTrue or IfFalse
//   - a statement deeper than the current level is skipped while the flag at
//     the current level is IfFalse
//   - returning to a shallower level clears the flags of the levels left
package vm

import (
	"log/slog"

	"github.com/zurustar/tinyscript/pkg/logger"
	"github.com/zurustar/tinyscript/pkg/opcode"
)

// Flag is the state of one block level.
type Flag uint8

const (
	// FlagNone means the last statement at this level was not an if.
	FlagNone Flag = iota
	// FlagIfTrue means the last if at this level held.
	FlagIfTrue
	// FlagIfFalse means the last if at this level failed; the block below is skipped.
	FlagIfFalse
)

// String returns the flag name.
func (f Flag) String() string {
	switch f {
	case FlagNone:
		return "none"
	case FlagIfTrue:
		return "if-true"
	case FlagIfFalse:
		return "if-false"
	default:
		return "unknown"
	}
}

// VM evaluates a Program against the slots of its registries.
// A VM is not safe for concurrent use, and the host must not write the
// bound slots while Evaluate runs.
type VM struct {
	program *opcode.Program

	flags []Flag
	level int

	log *slog.Logger
}

// Option is a functional option for configuring the VM.
type Option func(*VM)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// New creates a new VM for program.
func New(program *opcode.Program, opts ...Option) *VM {
	vm := &VM{
		program: program,
		flags:   make([]Flag, program.Depth+1),
		log:     logger.GetLogger(),
	}

	for _, opt := range opts {
		opt(vm)
	}

	return vm
}

// Flags returns a copy of the block-level flags left by the last evaluation.
func (vm *VM) Flags() []Flag {
	flags := make([]Flag, len(vm.flags))
	copy(flags, vm.flags)
	return flags
}

// Evaluate runs every statement once, in order, writing results into the
// registry slots. It never fails: a numeric expression that errors at run
// time leaves its destination unchanged, and writes to nil slots are dropped.
func (vm *VM) Evaluate() {
	for i := range vm.flags {
		vm.flags[i] = FlagNone
	}
	vm.level = 0

	executed, skipped := 0, 0
	for i := range vm.program.Statements {
		stmt := &vm.program.Statements[i]

		if stmt.Level > vm.level && vm.flags[vm.level] == FlagIfFalse {
			skipped++
			continue
		}

		if stmt.Level < vm.level {
			for l := stmt.Level + 1; l <= vm.level; l++ {
				vm.flags[l] = FlagNone
			}
		}
		vm.level = stmt.Level

		vm.execute(stmt)
		executed++
	}

	vm.log.Debug("Evaluated program", "executed", executed, "skipped", skipped)
}

// execute runs one statement at the current level.
func (vm *VM) execute(stmt *opcode.Statement) {
	switch stmt.Kind {
	case opcode.FloatAssign:
		v, err := stmt.Num.Eval()
		if err != nil {
			vm.log.Debug("Numeric expression failed; destination unchanged",
				"statement", stmt.Source, "error", err)
		} else {
			vm.program.Vars.Set(stmt.Dest, v)
		}
		vm.flags[stmt.Level] = FlagNone

	case opcode.BoolAssign:
		vm.program.Bools.Set(stmt.Dest, stmt.Cond.Evaluate())
		vm.flags[stmt.Level] = FlagNone

	case opcode.If:
		*stmt.Cell = stmt.Cond.Evaluate()
		if *stmt.Cell {
			vm.flags[stmt.Level] = FlagIfTrue
		} else {
			vm.flags[stmt.Level] = FlagIfFalse
		}
	}
}
