// Package token defines the lexical tokens of the plan text format.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Line structure. Newlines are significant: operator nesting is
	// carried by the column of the first token on each line.
	NEWLINE

	// Literals
	IDENT  // operator heads, binding ids, collection names
	NUMBER // integer literal

	// Operators and punctuation
	MINUS  // - (row marker and numeric sign)
	HASH   // #
	EQ     // =
	NE     // !=
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=
	COMMA  // ,
	LPAREN // (
	RPAREN // )
	EMPTY  // <empty>

	// Structure keywords. Operator heads stay IDENT so unknown
	// operators can round-trip as opaque nodes.
	RETURN
	WITH
	MUTUALLY
	RECURSIVE
	CTE
	AND
)

// Token is a lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",
	NEWLINE: "NEWLINE",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",

	MINUS:  "-",
	HASH:   "#",
	EQ:     "=",
	NE:     "!=",
	LT:     "<",
	GT:     ">",
	LE:     "<=",
	GE:     ">=",
	COMMA:  ",",
	LPAREN: "(",
	RPAREN: ")",
	EMPTY:  "<empty>",

	RETURN:    "Return",
	WITH:      "With",
	MUTUALLY:  "Mutually",
	RECURSIVE: "Recursive",
	CTE:       "cte",
	AND:       "AND",
}

// keywords maps the case-sensitive structure words to their token types.
var keywords = map[string]TokenType{
	"Return":    RETURN,
	"With":      WITH,
	"Mutually":  MUTUALLY,
	"Recursive": RECURSIVE,
	"cte":       CTE,
	"AND":       AND,
}

// LookupIdent returns the keyword token type for ident, or IDENT if it
// is not a structure keyword. Matching is case-sensitive: the plan text
// format has a fixed spelling for each keyword.
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}
