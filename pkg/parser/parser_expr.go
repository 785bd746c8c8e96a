package parser

import (
	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precedenceOr         = 1
//	precedenceAnd        = 2
//	precedenceNot        = 3
//	precedenceComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precedenceAddition   = 5  (+, -, ||)
//	precedenceMultiply   = 6  (*, /, %)
//	precedenceUnary      = 7  (-, +)
//	precedencePostfix    = 8  (::)
const (
	precedenceNone = iota
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceAddition
	precedenceMultiply
	precedenceUnary
	precedencePostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() ast.Expr {
	return p.parseExpressionWithPrecedence(precedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) ast.Expr {
	start := p.token.Pos

	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := infixPrecedence(p.token.Type)
		if prec == precedenceNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec, start)
		if left == nil || p.failed() {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() ast.Expr {
	start := p.token.Pos

	switch p.token.Type {
	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			return p.parseExistsExpr(true, start)
		}
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceNot)
		return &ast.UnaryExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Op: "NOT", Expr: expr}

	case token.MINUS, token.PLUS:
		op := p.token.Literal
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceUnary)
		return &ast.UnaryExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Op: op, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of t as an infix operator, or
// precedenceNone if t is not one.
func infixPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return precedenceOr
	case token.AND:
		return precedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.ILIKE, token.NOT:
		return precedenceComparison
	case token.PLUS, token.MINUS, token.DPIPE:
		return precedenceAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precedenceMultiply
	case token.DCOLON:
		return precedencePostfix
	default:
		return precedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left ast.Expr, prec int, start token.Position) ast.Expr {
	switch p.token.Type {
	case token.NOT:
		return p.parseNotInfixExpr(left, start)
	case token.IS:
		return p.parseIsExpr(left, start)
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, false, start)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false, start)
	case token.LIKE, token.ILIKE:
		op := p.token.Type.String()
		p.nextToken()
		return p.parseLikeExpr(left, false, op, start)
	case token.DCOLON:
		p.nextToken()
		typ := p.parseTypeName(false)
		return &ast.CastExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Expr: left, Type: typ}
	}

	op := p.token.Type.String()
	p.nextToken()

	// Right operand binds tighter (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)
	return &ast.BinaryExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Op: op, Left: left, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left ast.Expr, start token.Position) ast.Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, true, start)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true, start)
	case token.LIKE, token.ILIKE:
		op := p.token.Type.String()
		p.nextToken()
		return p.parseLikeExpr(left, true, op, start)
	default:
		p.addError("expected IN, BETWEEN, LIKE, or ILIKE after NOT")
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE.
func (p *Parser) parseIsExpr(left ast.Expr, start token.Position) ast.Expr {
	p.nextToken() // consume IS
	not := p.match(token.NOT)

	switch p.token.Type {
	case token.NULL, token.TRUE, token.FALSE:
		value := p.token.Type.String()
		p.nextToken()
		return &ast.IsExpr{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Expr: left, Not: not, Value: value}
	default:
		p.addError("expected NULL, TRUE, or FALSE after IS")
		return left
	}
}

// parseInExpr parses the list or subquery of an IN expression.
func (p *Parser) parseInExpr(left ast.Expr, not bool, start token.Position) ast.Expr {
	in := &ast.InExpr{Expr: left, Not: not}

	p.expect(token.LPAREN)
	if p.check(token.SELECT) || p.check(token.WITH) {
		in.Subquery = p.parseStatement()
	} else if !p.check(token.RPAREN) {
		in.List = p.parseExpressionList()
	}
	p.expect(token.RPAREN)

	in.Span = p.span(start)
	return in
}

// parseBetweenExpr parses a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left ast.Expr, not bool, start token.Position) ast.Expr {
	between := &ast.BetweenExpr{Expr: left, Not: not}
	// Bounds are parsed at addition precedence so the AND is not captured
	between.Low = p.parseExpressionWithPrecedence(precedenceAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(precedenceAddition)
	between.Span = p.span(start)
	return between
}

// parseLikeExpr parses a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left ast.Expr, not bool, op string, start token.Position) ast.Expr {
	like := &ast.LikeExpr{Expr: left, Not: not, Op: op}
	like.Pattern = p.parseExpressionWithPrecedence(precedenceAddition)
	like.Span = p.span(start)
	return like
}
