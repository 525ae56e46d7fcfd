package token

type TokenType string

// Token is a single lexical unit of a statement.
// Index is the resolved registry position for FLOAT_IDENT and BOOL_IDENT;
// Number is the parsed value of a NUMBER.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
	Index   int
	Number  float64
}

const (
	ILLEGAL    = "ILLEGAL"    // unrecognised character, lone & or |, malformed number
	UNRESOLVED = "UNRESOLVED" // identifier bound in neither registry
	END        = "END"

	// Identifiers + Literals
	NUMBER      = "NUMBER"      // 1, 2.5, .5, 1e3
	FLOAT_IDENT = "FLOAT_IDENT" // name from the variable registry
	BOOL_IDENT  = "BOOL_IDENT"  // name from the boolean registry

	// Operators and Delimiters
	ASSIGN = "="
	LPAREN = "("
	RPAREN = ")"
	LBRACE = "{"
	RBRACE = "}"

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LTE    = "<="
	GTE    = ">="
	AND    = "&&"
	OR     = "||"

	// Keywords
	IF    = "IF"
	ELSE  = "ELSE"
	TRUE  = "TRUE"
	FALSE = "FALSE"
)

func LookupKeyword(ident string) (TokenType, bool) {
	switch ident {
	case "if":
		return IF, true
	case "else":
		return ELSE, true
	case "true":
		return TRUE, true
	case "false":
		return FALSE, true
	}
	return UNRESOLVED, false
}

// IsComparison reports whether t compares two numeric operands.
func (t TokenType) IsComparison() bool {
	switch t {
	case EQ, NOT_EQ, LT, GT, LTE, GTE:
		return true
	}
	return false
}

// IsLogical reports whether t combines two boolean operands.
func (t TokenType) IsLogical() bool {
	return t == AND || t == OR
}

// IsOperator reports whether t is a comparison or logical operator.
func (t TokenType) IsOperator() bool {
	return t.IsComparison() || t.IsLogical()
}

// IsError reports whether t terminates tokenisation with a failure.
func (t TokenType) IsError() bool {
	return t == ILLEGAL || t == UNRESOLVED
}
