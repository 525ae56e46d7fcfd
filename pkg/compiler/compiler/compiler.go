// Package compiler provides the statement compiler for tinyscript.
// It turns preprocessed script text into an opcode.Program: a flat statement
// list in which every statement carries the block level it was written at.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/tinyscript/pkg/compiler/boolexpr"
	"github.com/zurustar/tinyscript/pkg/compiler/diag"
	"github.com/zurustar/tinyscript/pkg/compiler/lexer"
	"github.com/zurustar/tinyscript/pkg/compiler/numexpr"
	"github.com/zurustar/tinyscript/pkg/compiler/preprocessor"
	"github.com/zurustar/tinyscript/pkg/compiler/token"
	"github.com/zurustar/tinyscript/pkg/opcode"
	"github.com/zurustar/tinyscript/pkg/registry"
)

// Compiler compiles scripts against a fixed pair of registries.
type Compiler struct {
	vars  registry.Variables
	bools registry.Booleans
	log   *slog.Logger
}

// New creates a new Compiler. The registries are copied, so replacing the
// caller's registries later does not affect compiled indices.
// A nil log falls back to slog.Default.
func New(vars registry.Variables, bools registry.Booleans, log *slog.Logger) *Compiler {
	if log == nil {
		log = slog.Default()
	}
	return &Compiler{
		vars:  vars.Clone(),
		bools: bools.Clone(),
		log:   log,
	}
}

// Compile compiles source into a Program.
// Compilation stops at the first error, and no Program is returned with it.
func (c *Compiler) Compile(source string) (*opcode.Program, error) {
	if err := c.checkNames(); err != nil {
		return nil, err
	}

	var statements []opcode.Statement
	level, depth := 0, 0

	for _, stmt := range preprocessor.Split(source) {
		switch stmt {
		case "{":
			level++
			if level > depth {
				depth = level
			}
			continue
		case "}":
			if level == 0 {
				return nil, diag.At(diag.StructuralError, stmt, 0, "'}' without a matching '{'")
			}
			level--
			continue
		}

		compiled, ok, err := c.compileStatement(stmt, level)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		c.log.Debug("Compiled statement",
			"kind", compiled.Kind, "level", compiled.Level, "source", compiled.Source)
		statements = append(statements, compiled)
	}

	if level != 0 {
		return nil, diag.Newf(diag.StructuralError, "unbalanced braces: %d block(s) not closed", level)
	}

	return &opcode.Program{
		Statements: statements,
		Depth:      depth,
		Vars:       c.vars,
		Bools:      c.bools,
	}, nil
}

// checkNames rejects a name bound in both registries.
func (c *Compiler) checkNames() error {
	for _, name := range c.bools.Names() {
		if c.vars.Contains(name) {
			return diag.Newf(diag.NameResolutionError,
				"%q is bound as both a float variable and a boolean", name)
		}
	}
	return nil
}

// compileStatement compiles one statement at the given block level.
// It reports false for statements that produce nothing (else).
func (c *Compiler) compileStatement(stmt string, level int) (opcode.Statement, bool, error) {
	l := lexer.New(stmt, c.vars, c.bools)
	tok := l.NextToken()

	switch tok.Type {
	case token.IF:
		s, err := c.compileIf(stmt, l)
		s.Level = level
		return s, err == nil, err

	case token.ELSE:
		c.log.Warn("else is not supported; statement ignored", "statement", stmt)
		return opcode.Statement{}, false, nil

	case token.FLOAT_IDENT:
		s, err := c.compileFloatAssign(stmt, tok, l)
		s.Level = level
		return s, err == nil, err

	case token.BOOL_IDENT:
		s, err := c.compileBoolAssign(stmt, tok, l)
		s.Level = level
		return s, err == nil, err

	case token.ILLEGAL:
		return opcode.Statement{}, false, diag.At(diag.LexicalError, stmt, tok.Pos,
			fmt.Sprintf("illegal token %q", tok.Literal))

	case token.UNRESOLVED:
		return opcode.Statement{}, false, diag.At(diag.NameResolutionError, stmt, tok.Pos,
			fmt.Sprintf("unknown identifier %q", tok.Literal))

	default:
		return opcode.Statement{}, false, diag.At(diag.StructuralError, stmt, tok.Pos,
			fmt.Sprintf("a statement cannot start with %q", tok.Literal))
	}
}

// compileIf compiles "if (condition)". The condition keeps its brackets, so
// it is compiled one level deep.
func (c *Compiler) compileIf(stmt string, l *lexer.Lexer) (opcode.Statement, error) {
	open := l.NextToken()
	if open.Type != token.LPAREN {
		return opcode.Statement{}, diag.At(diag.StructuralError, stmt, open.Pos,
			"if must be followed by a bracketed condition")
	}

	cond, err := boolexpr.Compile(stmt[open.Pos:], c.vars, c.bools)
	if err != nil {
		return opcode.Statement{}, relocate(err, stmt, open.Pos)
	}

	return opcode.Statement{
		Kind:   opcode.If,
		Dest:   -1,
		Cond:   cond,
		Cell:   new(bool),
		Source: stmt,
	}, nil
}

// compileFloatAssign compiles "name = numeric expression".
func (c *Compiler) compileFloatAssign(stmt string, dest token.Token, l *lexer.Lexer) (opcode.Statement, error) {
	if dest.Index < 0 || dest.Index >= c.vars.Len() {
		return opcode.Statement{}, diag.At(diag.AssignmentTargetError, stmt, dest.Pos,
			fmt.Sprintf("variable index %d out of range", dest.Index))
	}
	if err := expectAssign(stmt, l); err != nil {
		return opcode.Statement{}, err
	}

	offset := l.Position()
	num, err := numexpr.Compile(stmt[offset:], c.vars)
	if err != nil {
		return opcode.Statement{}, relocate(err, stmt, offset)
	}

	return opcode.Statement{
		Kind:   opcode.FloatAssign,
		Dest:   dest.Index,
		Num:    num,
		Source: stmt,
	}, nil
}

// compileBoolAssign compiles "name = boolean expression".
func (c *Compiler) compileBoolAssign(stmt string, dest token.Token, l *lexer.Lexer) (opcode.Statement, error) {
	if dest.Index < 0 || dest.Index >= c.bools.Len() {
		return opcode.Statement{}, diag.At(diag.AssignmentTargetError, stmt, dest.Pos,
			fmt.Sprintf("boolean index %d out of range", dest.Index))
	}
	if err := expectAssign(stmt, l); err != nil {
		return opcode.Statement{}, err
	}

	offset := l.Position()
	cond, err := boolexpr.Compile(stmt[offset:], c.vars, c.bools)
	if err != nil {
		return opcode.Statement{}, relocate(err, stmt, offset)
	}

	return opcode.Statement{
		Kind:   opcode.BoolAssign,
		Dest:   dest.Index,
		Cond:   cond,
		Source: stmt,
	}, nil
}

func expectAssign(stmt string, l *lexer.Lexer) error {
	tok := l.NextToken()
	switch tok.Type {
	case token.ASSIGN:
		return nil
	case token.ILLEGAL:
		return diag.At(diag.LexicalError, stmt, tok.Pos, fmt.Sprintf("illegal token %q", tok.Literal))
	default:
		return diag.At(diag.StructuralError, stmt, tok.Pos, "expected '=' after assignment target")
	}
}

// relocate reports a sub-expression error against the whole statement.
func relocate(err error, stmt string, offset int) error {
	if ce, ok := err.(*diag.CompileError); ok {
		return ce.InStatement(stmt, offset)
	}
	return err
}
