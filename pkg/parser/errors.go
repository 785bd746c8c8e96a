package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken     = "unexpected token %s, expected %s"
	ErrUnexpectedTrailing  = "unexpected %s after end of statement"
	ErrUnexpectedExpr      = "unexpected %s in expression"
	ErrUnterminatedString  = "unterminated quoted literal"
	ErrUnterminatedComment = "unterminated block comment"
)
