// Package compiler provides the compilation pipeline for tinyscript.
// This file formats compile errors for display.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/tinyscript/pkg/compiler/diag"
)

// FormatError renders err for a terminal. A located CompileError gets the
// offending statement and a pointer (^) under the error position; any other
// error is rendered with Error(). Text added by wrapping the CompileError
// is kept in front of the first line.
//
// Example output:
//
//	STRUCTURAL error: if must be followed by a bracketed condition
//	  | if a
//	  |    ^
func FormatError(err error) string {
	var ce *diag.CompileError
	if !errors.As(err, &ce) {
		return err.Error()
	}

	header := fmt.Sprintf("%s error: %s", ce.Kind, ce.Message)
	// keep context added by wrapping, e.g. "main.tiny: "
	if prefix, ok := strings.CutSuffix(err.Error(), ce.Error()); ok {
		header = prefix + header
	}

	var buf strings.Builder
	buf.WriteString(header + "\n")
	buf.WriteString(GenerateErrorContext(ce.Statement, ce.Position))
	return buf.String()
}

// GenerateErrorContext shows statement with a pointer under position.
// An empty statement yields "", and an unknown position omits the pointer.
func GenerateErrorContext(statement string, position int) string {
	if statement == "" {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("  | %s\n", statement))
	if position >= 0 {
		if position > len(statement) {
			position = len(statement)
		}
		buf.WriteString(fmt.Sprintf("  | %s^\n", strings.Repeat(" ", position)))
	}
	return buf.String()
}
