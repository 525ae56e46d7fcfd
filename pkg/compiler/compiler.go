// Package compiler provides the compilation pipeline for tinyscript.
// It transforms script text into an opcode.Program through three phases:
// 1. Preprocessor: comment stripping and statement splitting
// 2. Lexer: per-statement tokenization and name resolution
// 3. Compiler: statement classification and sub-expression compilation
//
// This package provides a unified API for compiling scripts:
// - Compile: Compiles a source string against the host's registries
// - CompileWithOptions: Compiles with additional options
// - CompileFile: Compiles a file (handles BOM, UTF-16 and Shift-JIS input)
// - CompileScripts: Compiles multiple scripts loaded by script.Loader
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/tinyscript/pkg/compiler/compiler"
	"github.com/zurustar/tinyscript/pkg/logger"
	"github.com/zurustar/tinyscript/pkg/opcode"
	"github.com/zurustar/tinyscript/pkg/registry"
	"github.com/zurustar/tinyscript/pkg/script"
)

// CompileOptions provides configuration options for compilation.
type CompileOptions struct {
	// Logger receives per-statement debug output and warnings.
	// Nil uses the process-wide logger.
	Logger *slog.Logger
}

// Compile compiles source against the given registries.
// The registries are copied; their slots must outlive the returned Program.
// On error no Program is returned.
func Compile(source string, vars registry.Variables, bools registry.Booleans) (*opcode.Program, error) {
	return CompileWithOptions(source, vars, bools, CompileOptions{})
}

// CompileWithOptions compiles source with additional options.
func CompileWithOptions(source string, vars registry.Variables, bools registry.Booleans, opts CompileOptions) (*opcode.Program, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	program, err := compiler.New(vars, bools, log).Compile(source)
	if err != nil {
		return nil, err
	}

	log.Debug("Compiled script",
		"statements", len(program.Statements), "depth", program.Depth)
	return program, nil
}

// CompileFile reads and compiles the script at path.
func CompileFile(path string, vars registry.Variables, bools registry.Booleans) (*opcode.Program, error) {
	s, err := script.NewLoader("").Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return Compile(s.Content, vars, bools)
}

// CompileScripts compiles each loaded script against the same registries,
// stopping at the first script that fails.
func CompileScripts(scripts []script.Script, vars registry.Variables, bools registry.Booleans) ([]*opcode.Program, error) {
	programs := make([]*opcode.Program, 0, len(scripts))
	for _, s := range scripts {
		program, err := Compile(s.Content, vars, bools)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.FileName, err)
		}
		programs = append(programs, program)
	}
	return programs, nil
}
