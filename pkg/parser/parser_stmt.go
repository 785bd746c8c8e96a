package parser

import (
	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Statement parsing: WITH clause, CTEs, SELECT body, SELECT list, ORDER BY.
//
// Grammar:
//
//	statement     → [WITH [RECURSIVE] cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS "(" statement ")"
//	select_body   → select_operand [set_op select_body]
//	set_op        → (UNION|INTERSECT|EXCEPT) [ALL|DISTINCT]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]
//
// A set-operation chain is returned as its head statement with the
// remaining branches linked through Next.

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() *ast.Select {
	start := p.token.Pos

	var with []*ast.CTE
	if p.match(token.WITH) {
		p.match(token.RECURSIVE)
		for {
			with = append(with, p.parseCTE())
			if p.failed() || !p.match(token.COMMA) {
				break
			}
		}
	}

	stmt := p.parseSelectBody()
	if stmt == nil {
		return nil
	}
	if len(with) > 0 {
		stmt.With = append(with, stmt.With...)
		stmt.Span.Start = start
	}
	return stmt
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *ast.CTE {
	start := p.token.Pos
	cte := &ast.CTE{}

	if !isIdent(p.token) {
		p.addError("expected CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	if p.match(token.LPAREN) {
		cte.Columns = p.parseIdentList()
		p.expect(token.RPAREN)
	}

	p.expect(token.AS)
	p.expect(token.LPAREN)
	cte.Body = p.parseStatement()
	p.expect(token.RPAREN)

	cte.Span = p.span(start)
	return cte
}

// parseSelectBody parses a select operand followed by any set operations.
func (p *Parser) parseSelectBody() *ast.Select {
	head := p.parseSelectOperand()
	if head == nil {
		return nil
	}

	// A parenthesised operand may itself be a chain; continue from its tail.
	tail := head
	for tail.Next != nil {
		tail = tail.Next
	}

	var op ast.SetOp
	switch p.token.Type {
	case token.UNION:
		p.nextToken()
		if p.match(token.ALL) {
			op = ast.SetOpUnionAll
		} else {
			p.match(token.DISTINCT)
			op = ast.SetOpUnion
		}
	case token.INTERSECT:
		p.nextToken()
		if !p.match(token.ALL) {
			p.match(token.DISTINCT)
		}
		op = ast.SetOpIntersect
	case token.EXCEPT:
		p.nextToken()
		if !p.match(token.ALL) {
			p.match(token.DISTINCT)
		}
		op = ast.SetOpExcept
	default:
		return head
	}

	tail.SetOp = op
	tail.Next = p.parseSelectBody()
	return head
}

// parseSelectOperand parses one branch of a select body.
func (p *Parser) parseSelectOperand() *ast.Select {
	if p.check(token.LPAREN) && (p.checkPeek(token.SELECT) || p.checkPeek(token.WITH) || p.checkPeek(token.LPAREN)) {
		p.nextToken()
		stmt := p.parseStatement()
		p.expect(token.RPAREN)
		return stmt
	}
	return p.parseSelectCore()
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *ast.Select {
	start := p.token.Pos
	if !p.expect(token.SELECT) {
		return nil
	}
	stmt := &ast.Select{}

	if p.match(token.DISTINCT) {
		stmt.Distinct = true
	} else {
		p.match(token.ALL)
	}

	stmt.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		stmt.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}

	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		stmt.GroupBy = p.parseExpressionList()
	}

	if p.match(token.HAVING) {
		stmt.Having = p.parseExpression()
	}

	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		stmt.OrderBy = p.parseOrderByList()
	}

	if p.match(token.LIMIT) {
		stmt.Limit = p.parseExpression()
	}
	if p.match(token.OFFSET) {
		stmt.Offset = p.parseExpression()
		if !p.match(token.ROWS) {
			p.match(token.ROW)
		}
	}

	stmt.Span = p.span(start)
	return stmt
}

// parseSelectList parses the list of SELECT items.
func (p *Parser) parseSelectList() []*ast.SelectItem {
	var items []*ast.SelectItem

	for {
		items = append(items, p.parseSelectItem())
		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() *ast.SelectItem {
	start := p.token.Pos
	item := &ast.SelectItem{}

	if p.check(token.STAR) {
		p.nextToken()
		item.Expr = &ast.Star{NodeInfo: ast.NodeInfo{Span: p.span(start)}}
		item.Span = p.span(start)
		return item
	}

	// table.* using 3-token lookahead
	if isIdent(p.token) && p.checkPeek(token.DOT) && p.checkPeek2(token.STAR) {
		table := p.token.Literal
		p.nextToken()
		p.nextToken()
		p.nextToken()
		item.Expr = &ast.Star{NodeInfo: ast.NodeInfo{Span: p.span(start)}, Table: table}
		item.Span = p.span(start)
		return item
	}

	item.Expr = p.parseExpression()

	if p.match(token.AS) {
		if isIdent(p.token) || p.check(token.STRING) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError("expected alias after AS")
		}
	} else if p.check(token.IDENT) {
		item.Alias = p.token.Literal
		p.nextToken()
	}

	item.Span = p.span(start)
	return item
}

// parseOrderByList parses a list of ORDER BY items.
func (p *Parser) parseOrderByList() []*ast.OrderItem {
	var items []*ast.OrderItem

	for {
		item := &ast.OrderItem{Expr: p.parseExpression()}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		if p.match(token.NULLS) {
			if !p.match(token.FIRST) {
				p.expect(token.LAST)
			}
		}
		items = append(items, item)

		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}

	return items
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []ast.Expr {
	var exprs []ast.Expr

	for {
		if expr := p.parseExpression(); expr != nil {
			exprs = append(exprs, expr)
		}
		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}

	return exprs
}

// parseIdentList parses a comma-separated list of identifiers.
func (p *Parser) parseIdentList() []string {
	var names []string
	for {
		if !isIdent(p.token) {
			p.addError("expected identifier")
			return names
		}
		names = append(names, p.token.Literal)
		p.nextToken()
		if !p.match(token.COMMA) {
			return names
		}
	}
}
