// Package preprocessor turns raw script text into the flat statement list the
// statement compiler walks.
//
// The output contains one entry per statement plus a standalone "{" or "}"
// entry for every brace, in source order, so block nesting can be tracked
// without building a tree.
package preprocessor

import (
	"strings"
)

// Split runs the whole preprocessing pipeline over src.
func Split(src string) []string {
	text := RemoveControlChars(StripComments(src))

	var out []string
	for _, stmt := range splitStatements(text) {
		out = expand(stmt, out)
	}
	return out
}

// StripComments removes // line comments and /* */ block comments.
// The newline that ends a line comment is kept. An unterminated block comment
// runs to the end of the input.
func StripComments(src string) string {
	var result strings.Builder
	result.Grow(len(src))

	for i := 0; i < len(src); i++ {
		ch := src[i]
		var next byte
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch {
		case ch == '/' && next == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				result.WriteByte('\n')
			}
		case ch == '/' && next == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				i++
			}
			i++ // land on '/', the loop increment moves past it
		default:
			result.WriteByte(ch)
		}
	}

	return result.String()
}

// RemoveControlChars deletes line endings, tabs, vertical tabs, form feeds and
// NUL bytes. Plain spaces are kept.
func RemoveControlChars(src string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '\t', '\v', '\f', 0:
			return -1
		}
		return r
	}, src)
}

// splitStatements splits on ';'. A closing brace also ends a statement.
func splitStatements(text string) []string {
	var stmts []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ';':
			stmts = append(stmts, text[start:i])
			start = i + 1
		case '}':
			stmts = append(stmts, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		stmts = append(stmts, text[start:])
	}
	return stmts
}

// expand appends stmt to out, wrapping a brace-less one-line if and emitting
// every brace as its own entry.
func expand(stmt string, out []string) []string {
	stmt = strings.Trim(stmt, " ")
	if stmt == "" {
		return out
	}

	if wrapped, ok := WrapOneLineIf(stmt); ok {
		stmt = wrapped
	}

	start := 0
	for i := 0; i < len(stmt); i++ {
		if stmt[i] != '{' && stmt[i] != '}' {
			continue
		}
		out = appendPiece(out, stmt[start:i])
		out = append(out, stmt[i:i+1])
		start = i + 1
	}
	return appendPiece(out, stmt[start:])
}

func appendPiece(out []string, piece string) []string {
	piece = strings.Trim(piece, " ")
	if piece == "" {
		return out
	}
	if _, ok := WrapOneLineIf(piece); ok {
		// an if nested in a one-line body, e.g. "if (a) if (b) x = 1"
		return expand(piece, out)
	}
	return append(out, piece)
}

// WrapOneLineIf rewrites "if (cond) body" as "if (cond){ body}" when the
// statement has a body after its condition and no braces of its own.
// It reports false when stmt is not such a statement.
func WrapOneLineIf(stmt string) (string, bool) {
	if !startsWithIf(stmt) || strings.ContainsAny(stmt, "{}") {
		return stmt, false
	}

	end := conditionEnd(stmt)
	if end < 0 || strings.Trim(stmt[end:], " ") == "" {
		return stmt, false
	}

	return stmt[:end] + "{" + stmt[end:] + "}", true
}

// startsWithIf reports whether stmt begins with the keyword if rather than
// an identifier that merely starts with those letters.
func startsWithIf(stmt string) bool {
	if !strings.HasPrefix(stmt, "if") {
		return false
	}
	if len(stmt) == 2 {
		return true
	}
	ch := stmt[2]
	return !('a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || '0' <= ch && ch <= '9' || ch == '_')
}

// conditionEnd returns the offset just past the ')' that closes the
// condition of an if statement, or -1 if the condition is not bracketed.
func conditionEnd(stmt string) int {
	i := 2
	for i < len(stmt) && stmt[i] == ' ' {
		i++
	}
	if i >= len(stmt) || stmt[i] != '(' {
		return -1
	}

	depth := 0
	for ; i < len(stmt); i++ {
		switch stmt[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
