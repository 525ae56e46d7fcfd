// Package diag defines the compile error type shared by every compilation phase.
package diag

import (
	"errors"
	"fmt"
)

// Kind classifies a compile error.
type Kind string

const (
	// LexicalError reports an unrecognised character, operator or malformed number.
	LexicalError Kind = "LEXICAL"
	// NameResolutionError reports an identifier that no registry binds,
	// or a name bound more than once.
	NameResolutionError Kind = "NAME_RESOLUTION"
	// StructuralError reports unbalanced braces or brackets, a malformed if,
	// or a token that cannot appear where it was found.
	StructuralError Kind = "STRUCTURAL"
	// CollaboratorError reports a numeric expression the expression engine rejected.
	CollaboratorError Kind = "COLLABORATOR"
	// AssignmentTargetError reports a destination index outside its registry.
	AssignmentTargetError Kind = "ASSIGNMENT_TARGET"
)

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrLexical          = errors.New("lexical error")
	ErrNameResolution   = errors.New("name resolution error")
	ErrStructural       = errors.New("structural error")
	ErrCollaborator     = errors.New("numeric expression error")
	ErrAssignmentTarget = errors.New("assignment target error")
)

var sentinels = map[Kind]error{
	LexicalError:          ErrLexical,
	NameResolutionError:   ErrNameResolution,
	StructuralError:       ErrStructural,
	CollaboratorError:     ErrCollaborator,
	AssignmentTargetError: ErrAssignmentTarget,
}

// CompileError is the single error a failed compilation produces.
type CompileError struct {
	// Kind classifies the failure.
	Kind Kind

	// Message is the human-readable error description.
	Message string

	// Statement is the preprocessed statement text the error was found in.
	// Empty for errors that concern the script as a whole.
	Statement string

	// Position is the 0-indexed byte offset inside Statement, or -1 if unknown.
	// For CollaboratorError it is the position reported by the expression engine.
	Position int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	switch {
	case e.Statement != "" && e.Position >= 0:
		return fmt.Sprintf("%s error at position %d in %q: %s", e.Kind, e.Position, e.Statement, e.Message)
	case e.Statement != "":
		return fmt.Sprintf("%s error in %q: %s", e.Kind, e.Statement, e.Message)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

// Is matches the sentinel error of the same Kind.
func (e *CompileError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// New creates a CompileError without a known position.
func New(kind Kind, message string) *CompileError {
	return &CompileError{Kind: kind, Message: message, Position: -1}
}

// Newf creates a CompileError with a formatted message.
func Newf(kind Kind, format string, args ...any) *CompileError {
	return New(kind, fmt.Sprintf(format, args...))
}

// At creates a CompileError located inside statement.
func At(kind Kind, statement string, position int, message string) *CompileError {
	return &CompileError{Kind: kind, Message: message, Statement: statement, Position: position}
}

// InStatement relocates an error raised while compiling a sub-expression
// that starts at offset within statement: the statement replaces the
// sub-expression text and a known position is shifted by offset.
func (e *CompileError) InStatement(statement string, offset int) *CompileError {
	e.Statement = statement
	if e.Position >= 0 {
		e.Position += offset
	}
	return e
}

// KindOf returns the Kind of err, or "" if err is not a CompileError.
func KindOf(err error) Kind {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
