// Package lexer provides lexical analysis for single tinyscript statements.
//
// Identifiers are resolved while they are scanned: a name bound in the
// boolean registry becomes BOOL_IDENT, a name bound in the variable registry
// becomes FLOAT_IDENT, and the keywords if, else, true and false are only
// recognised when neither registry binds the name.
package lexer

import (
	"strconv"

	"github.com/zurustar/tinyscript/pkg/compiler/token"
	"github.com/zurustar/tinyscript/pkg/registry"
)

// Lexer tokenizes one statement.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	done         bool // END or an error token has been produced

	vars  registry.Variables
	bools registry.Booleans
}

// New creates a new Lexer over input, resolving names against vars and bools.
func New(input string, vars registry.Variables, bools registry.Booleans) *Lexer {
	l := &Lexer{
		input: input,
		vars:  vars,
		bools: bools,
	}
	l.readChar()
	return l
}

// NextToken returns the next token.
// END and the error tokens are terminal: once one has been returned, every
// further call returns END.
func (l *Lexer) NextToken() token.Token {
	if l.done {
		return token.Token{Type: token.END, Pos: len(l.input)}
	}

	l.skipWhitespace()

	tok := token.Token{Pos: l.position}

	switch l.ch {
	case '=':
		tok = l.twoCharToken('=', token.EQ, token.ASSIGN)
	case '!':
		tok = l.twoCharToken('=', token.NOT_EQ, token.ILLEGAL)
	case '<':
		tok = l.twoCharToken('=', token.LTE, token.LT)
	case '>':
		tok = l.twoCharToken('=', token.GTE, token.GT)
	case '&':
		// bitwise operators are not part of the language
		tok = l.twoCharToken('&', token.AND, token.ILLEGAL)
	case '|':
		tok = l.twoCharToken('|', token.OR, token.ILLEGAL)
	case '(':
		tok = l.newToken(token.LPAREN)
	case ')':
		tok = l.newToken(token.RPAREN)
	case '{':
		tok = l.newToken(token.LBRACE)
	case '}':
		tok = l.newToken(token.RBRACE)
	case 0:
		if l.position >= len(l.input) {
			tok.Type = token.END
			l.done = true
			return tok
		}
		tok = l.newToken(token.ILLEGAL)
	default:
		if registry.IsLetter(l.ch) {
			return l.readIdentifier()
		} else if registry.IsDigit(l.ch) || l.ch == '.' {
			return l.readNumber()
		}
		tok = l.newToken(token.ILLEGAL)
	}

	l.readChar()
	if tok.Type.IsError() {
		l.done = true
	}
	return tok
}

// Position returns the offset of the next unconsumed character.
func (l *Lexer) Position() int {
	return l.position
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// twoCharToken emits two when the current char is followed by second,
// otherwise one. The current char is left for NextToken to consume.
func (l *Lexer) twoCharToken(second byte, two, one token.TokenType) token.Token {
	if l.peekChar() == second {
		pos := l.position
		l.readChar()
		return token.Token{Type: two, Literal: l.input[pos : l.position+1], Pos: pos}
	}
	return l.newToken(one)
}

// readIdentifier reads an identifier and resolves it.
func (l *Lexer) readIdentifier() token.Token {
	position := l.position
	for registry.IsLetter(l.ch) || registry.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	name := l.input[position:l.position]
	tok := token.Token{Literal: name, Pos: position, Index: -1}

	if i := l.bools.Index(name); i >= 0 {
		tok.Type = token.BOOL_IDENT
		tok.Index = i
		return tok
	}
	if i := l.vars.Index(name); i >= 0 {
		tok.Type = token.FLOAT_IDENT
		tok.Index = i
		return tok
	}
	if kw, ok := token.LookupKeyword(name); ok {
		tok.Type = kw
		return tok
	}

	tok.Type = token.UNRESOLVED
	l.done = true
	return tok
}

// readNumber reads a decimal number with an optional exponent.
// Digits and dots are consumed greedily so that text such as 1.2.3 is
// reported as one malformed literal.
func (l *Lexer) readNumber() token.Token {
	position := l.position

	for registry.IsDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}

	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if registry.IsDigit(next) || next == '+' || next == '-' {
			l.readChar() // consume 'e'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for registry.IsDigit(l.ch) {
				l.readChar()
			}
		}
	}

	literal := l.input[position:l.position]
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		l.done = true
		return token.Token{Type: token.ILLEGAL, Literal: literal, Pos: position}
	}
	return token.Token{Type: token.NUMBER, Literal: literal, Pos: position, Number: value}
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// newToken creates a single-character token at the current position.
func (l *Lexer) newToken(tokenType token.TokenType) token.Token {
	literal := ""
	if l.position < len(l.input) {
		literal = l.input[l.position : l.position+1]
	}
	return token.Token{Type: tokenType, Literal: literal, Pos: l.position}
}
