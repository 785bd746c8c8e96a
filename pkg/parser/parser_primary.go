package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Primary expression parsing: literals, identifiers, column references and
// function calls.
//
// Grammar:
//
//	primary     → literal | column_ref | func_call | case_expr | cast_expr
//	            | exists_expr | "(" statement ")" | "(" expr_list ")"
//	column_ref  → identifier ["." identifier ["." identifier]]
//	func_call   → identifier ["." identifier] "(" [DISTINCT|ALL] ["*" | expr_list] ")"
//	              [FILTER "(" WHERE expr ")"] [OVER window_spec]
//
// CASE, CAST, EXISTS, parenthesised forms and windows are in parser_special.go.

// aggregateFuncs lists the function names treated as aggregates.
var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"ARRAY_AGG": true, "STRING_AGG": true, "LISTAGG": true, "GROUP_CONCAT": true,
	"STDDEV": true, "STDDEV_POP": true, "STDDEV_SAMP": true,
	"VARIANCE": true, "VAR_POP": true, "VAR_SAMP": true,
	"ANY_VALUE": true, "BOOL_AND": true, "BOOL_OR": true, "MEDIAN": true,
}

// typedLiterals are type names that may prefix a string literal (DATE '2024-01-01').
var typedLiterals = map[string]bool{
	"DATE": true, "TIME": true, "TIMESTAMP": true, "INTERVAL": true,
}

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() ast.Expr {
	start := p.token.Pos

	switch p.token.Type {
	case token.NUMBER:
		lit := &ast.Literal{Kind: ast.LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		lit.Span = p.span(start)
		return lit

	case token.STRING:
		lit := &ast.Literal{Kind: ast.LiteralString, Value: p.token.Literal}
		p.nextToken()
		lit.Span = p.span(start)
		return lit

	case token.TRUE, token.FALSE:
		lit := &ast.Literal{Kind: ast.LiteralBool, Value: strings.ToLower(p.token.Type.String())}
		p.nextToken()
		lit.Span = p.span(start)
		return lit

	case token.NULL:
		p.nextToken()
		return &ast.Literal{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Kind: ast.LiteralNull, Value: "NULL"}

	case token.STAR:
		p.nextToken()
		return &ast.Star{NodeInfo: ast.NodeInfo{Span: p.span(start)}}

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.EXISTS:
		return p.parseExistsExpr(false, start)

	case token.LPAREN:
		return p.parseParenExpr()

	case token.LEFT, token.RIGHT:
		// LEFT(s, n) / RIGHT(s, n)
		if p.checkPeek(token.LPAREN) {
			name := p.token.Type.String()
			p.nextToken()
			return p.parseFuncCall(name, start)
		}
	}

	if isIdent(p.token) {
		return p.parseIdentifierExpr()
	}

	p.addError(fmt.Sprintf(ErrUnexpectedExpr, describe(p.token)))
	return nil
}

// parseIdentifierExpr parses column references, qualified names, typed
// literals and function calls that start with an identifier.
func (p *Parser) parseIdentifierExpr() ast.Expr {
	start := p.token.Pos
	first := p.token.Literal
	p.nextToken()

	upper := strings.ToUpper(first)
	if typedLiterals[upper] && p.check(token.STRING) {
		value := p.token.Literal
		p.nextToken()
		if upper == "INTERVAL" {
			return &ast.RawExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Kind: "interval"}
		}
		lit := &ast.Literal{Kind: ast.LiteralString, Value: value}
		return &ast.CastExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Expr: lit, Type: upper}
	}

	if p.check(token.LPAREN) {
		return p.parseFuncCall(first, start)
	}

	parts := []string{first}
	for p.check(token.DOT) {
		p.nextToken()
		switch {
		case p.check(token.STAR):
			p.nextToken()
			return &ast.Star{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Table: parts[len(parts)-1]}
		case isIdent(p.token):
			parts = append(parts, p.token.Literal)
			p.nextToken()
		default:
			p.addError("expected identifier after '.'")
			return nil
		}
		if p.check(token.LPAREN) {
			return p.parseFuncCall(strings.Join(parts, "."), start)
		}
	}

	ref := &ast.ColumnRef{Column: parts[len(parts)-1]}
	if len(parts) > 1 {
		ref.Table = parts[len(parts)-2]
	}
	ref.Span = p.span(start)
	return ref
}

// parseFuncCall parses the argument list and modifiers of a function call.
// The current token is the opening parenthesis.
func (p *Parser) parseFuncCall(name string, start token.Position) ast.Expr {
	fn := &ast.FuncCall{Name: strings.ToUpper(name)}
	fn.Aggregate = aggregateFuncs[fn.Name]

	p.expect(token.LPAREN)
	switch {
	case p.check(token.STAR):
		p.nextToken()
		fn.Star = true
	case p.check(token.RPAREN):
	default:
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}
		fn.Args = p.parseExpressionList()
		// ORDER BY inside aggregates (STRING_AGG(x, ',' ORDER BY y))
		if p.check(token.ORDER) {
			p.nextToken()
			p.expect(token.BY)
			p.parseOrderByList()
		}
	}
	p.expect(token.RPAREN)

	if p.check(token.FILTER) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		p.expect(token.WHERE)
		fn.Filter = p.parseExpression()
		p.expect(token.RPAREN)
	}

	if p.match(token.OVER) {
		fn.Over = p.parseWindowSpec()
	}

	fn.Span = p.span(start)
	return fn
}
