package parser

import (
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Special expression forms.
//
// Grammar:
//
//	case_expr   → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr   → CAST "(" expr AS type_name ")"
//	exists_expr → EXISTS "(" statement ")"
//	paren_expr  → "(" statement ")" | "(" expr ")" | "(" expr_list ")"
//	window_spec → identifier | "(" [PARTITION BY expr_list] [ORDER BY order_list] [frame] ")"

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() ast.Expr {
	start := p.token.Pos
	p.expect(token.CASE)
	c := &ast.CaseExpr{}

	if !p.check(token.WHEN) {
		c.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		when := &ast.WhenClause{Cond: p.parseExpression()}
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		c.Whens = append(c.Whens, when)
		if p.failed() {
			return c
		}
	}
	if len(c.Whens) == 0 {
		p.addError("expected WHEN in CASE expression")
	}

	if p.match(token.ELSE) {
		c.Else = p.parseExpression()
	}
	p.expect(token.END)

	c.Span = p.span(start)
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() ast.Expr {
	start := p.token.Pos
	p.expect(token.CAST)
	p.expect(token.LPAREN)
	cast := &ast.CastExpr{Expr: p.parseExpression()}
	p.expect(token.AS)
	cast.Type = p.parseTypeName(true)
	p.expect(token.RPAREN)
	cast.Span = p.span(start)
	return cast
}

// parseTypeName parses a type name such as INT, VARCHAR(20) or, when
// multiword is set, DOUBLE PRECISION.
func (p *Parser) parseTypeName(multiword bool) string {
	if !isIdent(p.token) {
		p.addError("expected type name")
		return ""
	}
	words := []string{strings.ToUpper(p.token.Literal)}
	p.nextToken()
	for multiword && isIdent(p.token) {
		words = append(words, strings.ToUpper(p.token.Literal))
		p.nextToken()
	}
	name := strings.Join(words, " ")

	if p.match(token.LPAREN) {
		var args []string
		for p.check(token.NUMBER) || isIdent(p.token) {
			args = append(args, p.token.Literal)
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		name += "(" + strings.Join(args, ",") + ")"
	}
	return name
}

// parseExistsExpr parses EXISTS (subquery).
func (p *Parser) parseExistsExpr(not bool, start token.Position) ast.Expr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	exists := &ast.ExistsExpr{Not: not, Subquery: p.parseStatement()}
	p.expect(token.RPAREN)
	exists.Span = p.span(start)
	return exists
}

// parseParenExpr parses a parenthesised subquery, expression or list.
func (p *Parser) parseParenExpr() ast.Expr {
	start := p.token.Pos
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) {
		sub := p.parseStatement()
		p.expect(token.RPAREN)
		return &ast.SubqueryExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Select: sub}
	}

	exprs := p.parseExpressionList()
	p.expect(token.RPAREN)

	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.ListExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Items: exprs}
}

// parseWindowSpec parses the OVER clause of a window function. Frame
// clauses are skipped.
func (p *Parser) parseWindowSpec() *ast.WindowSpec {
	w := &ast.WindowSpec{}

	if isIdent(p.token) {
		w.Name = p.token.Literal
		p.nextToken()
		return w
	}

	p.expect(token.LPAREN)
	if p.check(token.IDENT) {
		w.Name = p.token.Literal
		p.nextToken()
	}
	if p.match(token.PARTITION) {
		p.expect(token.BY)
		w.PartitionBy = p.parseExpressionList()
	}
	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		w.OrderBy = p.parseOrderByList()
	}
	if p.check(token.ROWS) || p.check(token.RANGE) {
		p.skipToCloseParen()
	}
	p.expect(token.RPAREN)
	return w
}

// skipToCloseParen advances to the parenthesis closing the current group
// without consuming it.
func (p *Parser) skipToCloseParen() {
	depth := 0
	for !p.check(token.EOF) {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				return
			}
			depth--
		}
		p.nextToken()
	}
}
