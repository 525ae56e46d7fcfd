// Package numexpr adapts the expr engine for the right-hand side of float
// assignments.
//
// The engine owns parsing, precedence and arithmetic. This package only
// decides which names an expression can see (every bound float variable,
// the math functions below and the constant pi), forwards the text, and
// refreshes variable values from their slots before each run.
package numexpr

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"

	"github.com/zurustar/tinyscript/pkg/compiler/diag"
	"github.com/zurustar/tinyscript/pkg/registry"
)

// Functions available to numeric expressions in addition to the engine's
// builtins (abs, floor, ceil, round, min, max).
var Functions = map[string]any{
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"atan2": math.Atan2,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"pow":   math.Pow,
}

// Program is a compiled numeric expression.
// Eval reuses its environment map, so a Program must not be evaluated from
// more than one goroutine at a time.
type Program struct {
	source  string
	program *vm.Program
	vars    registry.Variables
	env     map[string]any
}

// unknownName prefixes the engine's message for an undefined identifier.
const unknownName = "unknown name "

// Compile hands source to the expression engine.
// A rejected expression yields a CollaboratorError carrying the column the
// engine reported, except an undefined identifier, which is a
// NameResolutionError like anywhere else in a script.
func Compile(source string, vars registry.Variables) (*Program, error) {
	env := newEnv(vars)

	program, err := expr.Compile(source, expr.Env(env), expr.AsFloat64())
	if err != nil {
		ce := diag.At(diag.CollaboratorError, "", -1, err.Error())
		ce.Err = err
		var fileErr *file.Error
		if errors.As(err, &fileErr) {
			ce.Position = fileErr.Column
			ce.Message = fileErr.Message
			if name, ok := strings.CutPrefix(fileErr.Message, unknownName); ok {
				ce.Kind = diag.NameResolutionError
				ce.Message = fmt.Sprintf("unknown identifier %q", name)
			}
		}
		return nil, ce
	}

	return &Program{
		source:  source,
		program: program,
		vars:    vars,
		env:     env,
	}, nil
}

// Source returns the expression text.
func (p *Program) Source() string {
	return p.source
}

// Eval runs the program against the current slot values.
// The engine can still fail at run time (integer modulo by zero, for
// example); the error is returned and the caller decides what to do with it.
func (p *Program) Eval() (float64, error) {
	for i := 0; i < p.vars.Len(); i++ {
		v, _ := p.vars.Get(i)
		p.env[p.vars.Name(i)] = v
	}

	out, err := expr.Run(p.program, p.env)
	if err != nil {
		return 0, err
	}
	return toFloat(out)
}

func newEnv(vars registry.Variables) map[string]any {
	env := make(map[string]any, len(Functions)+vars.Len()+1)
	for name, fn := range Functions {
		env[name] = fn
	}
	env["pi"] = math.Pi
	// variables shadow functions and constants of the same name
	for i := 0; i < vars.Len(); i++ {
		v, _ := vars.Get(i)
		env[vars.Name(i)] = v
	}
	return env
}

func toFloat(out any) (float64, error) {
	switch v := out.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expression produced %T, not a number", out)
	}
}
