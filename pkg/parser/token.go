// Package parser parses the textual plan format into expression trees.
// This file provides token type aliases over pkg/token.
package parser

import "github.com/leapstack-labs/leapplan/pkg/token"

// TokenType is an alias for token.TokenType.
type TokenType = token.TokenType

// Token is an alias for token.Token.
type Token = token.Token

// Position is an alias for token.Position.
type Position = token.Position

// LookupIdent is re-exported from the token package.
var LookupIdent = token.LookupIdent

//nolint:revive // TOKEN_* names are intentionally ALL_CAPS for token conventions
const (
	// Special tokens
	TOKEN_EOF     = token.EOF
	TOKEN_ILLEGAL = token.ILLEGAL
	TOKEN_NEWLINE = token.NEWLINE

	// Literals
	TOKEN_IDENT  = token.IDENT
	TOKEN_NUMBER = token.NUMBER

	// Operators and punctuation
	TOKEN_MINUS  = token.MINUS
	TOKEN_HASH   = token.HASH
	TOKEN_EQ     = token.EQ
	TOKEN_NE     = token.NE
	TOKEN_LT     = token.LT
	TOKEN_GT     = token.GT
	TOKEN_LE     = token.LE
	TOKEN_GE     = token.GE
	TOKEN_COMMA  = token.COMMA
	TOKEN_LPAREN = token.LPAREN
	TOKEN_RPAREN = token.RPAREN
	TOKEN_EMPTY  = token.EMPTY

	// Keywords
	TOKEN_RETURN    = token.RETURN
	TOKEN_WITH      = token.WITH
	TOKEN_MUTUALLY  = token.MUTUALLY
	TOKEN_RECURSIVE = token.RECURSIVE
	TOKEN_CTE       = token.CTE
	TOKEN_AND       = token.AND
)
