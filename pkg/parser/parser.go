// Package parser turns SQL text into the syntax tree of pkg/ast.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT a, b FROM t")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the query subset
// that matters for lineage:
//
//	statement     → [WITH cte_list] select_body [";"]
//	select_body   → select_operand [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_operand→ select_core | "(" statement ")"
//	select_core   → SELECT [DISTINCT|ALL] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	prevEnd token.Position
	errors  []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{lexer: NewLexer(sql)}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single SQL query and returns its syntax tree.
// The first lexical or syntax error is returned.
func Parse(sql string) (*ast.Select, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()

	p.match(token.SEMICOLON)
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrUnexpectedTrailing, describe(p.token)))
	}

	if errs := p.lexer.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.token.End
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t token.TokenType) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// span builds a span from start to the end of the last consumed token.
func (p *Parser) span(start token.Position) token.Span {
	return token.Span{Start: start, End: p.prevEnd}
}

// failed reports whether parsing has already gone wrong; loops use it to
// stop instead of producing cascades of errors.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// ---------- Keyword Helpers ----------

// softKeywords are keywords that may still name columns, tables and aliases.
var softKeywords = map[token.TokenType]bool{
	token.CURRENT:   true,
	token.FILTER:    true,
	token.FIRST:     true,
	token.FOLLOWING: true,
	token.LAST:      true,
	token.NULLS:     true,
	token.PRECEDING: true,
	token.RANGE:     true,
	token.ROW:       true,
	token.ROWS:      true,
	token.UNBOUNDED: true,
}

// isIdent returns true if the token can be used as an identifier.
func isIdent(tok token.Token) bool {
	return tok.Type == token.IDENT || softKeywords[tok.Type]
}

// isJoinKeyword returns true if token starts a JOIN.
func isJoinKeyword(tok token.Token) bool {
	switch tok.Type {
	case token.JOIN, token.LEFT, token.RIGHT, token.INNER, token.FULL,
		token.CROSS, token.NATURAL:
		return true
	}
	return false
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	if tok.Literal != "" {
		return fmt.Sprintf("%q", tok.Literal)
	}
	return tok.Type.String()
}
