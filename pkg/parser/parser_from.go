package parser

import (
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// FROM clause parsing: table references, derived tables, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join | "," table_ref)*
//	table_ref     → table_name | derived_table
//	table_name    → [catalog "."] [schema "."] identifier [[AS] identifier]
//	derived_table → [LATERAL] "(" statement ")" [[AS] identifier ["(" ident_list ")"]]
//	join          → join_type JOIN table_ref [ON expr | USING "(" ident_list ")"]
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS | NATURAL ...
//
// Joined items are flattened into one list; each item records how it was
// attached to the ones before it.

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() []*ast.FromItem {
	items := []*ast.FromItem{p.parseTableRef()}

	for !p.failed() {
		if p.match(token.COMMA) {
			item := p.parseTableRef()
			item.Join = ast.JoinComma
			items = append(items, item)
			continue
		}
		if !isJoinKeyword(p.token) {
			break
		}
		items = append(items, p.parseJoin())
	}

	return items
}

// parseJoin parses one JOIN and its condition.
func (p *Parser) parseJoin() *ast.FromItem {
	kind := ast.JoinInner
	natural := p.match(token.NATURAL)

	switch p.token.Type {
	case token.LEFT:
		p.nextToken()
		p.match(token.OUTER)
		kind = ast.JoinLeft
	case token.RIGHT:
		p.nextToken()
		p.match(token.OUTER)
		kind = ast.JoinRight
	case token.FULL:
		p.nextToken()
		p.match(token.OUTER)
		kind = ast.JoinFull
	case token.CROSS:
		p.nextToken()
		kind = ast.JoinCross
	case token.INNER:
		p.nextToken()
	}
	if natural {
		kind = ast.JoinNatural
	}
	p.expect(token.JOIN)

	item := p.parseTableRef()
	item.Join = kind

	switch {
	case p.match(token.ON):
		item.On = p.parseExpression()
	case p.match(token.USING):
		p.expect(token.LPAREN)
		item.Using = p.parseIdentList()
		p.expect(token.RPAREN)
	}
	return item
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() *ast.FromItem {
	start := p.token.Pos
	item := &ast.FromItem{}

	if p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "lateral") && p.checkPeek(token.LPAREN) {
		p.nextToken()
	}

	if p.check(token.LPAREN) {
		p.nextToken()
		item.Subquery = p.parseStatement()
		p.expect(token.RPAREN)
	} else {
		p.parseTableName(item)
	}

	p.parseTableAlias(item)
	item.Span = p.span(start)
	return item
}

// parseTableName parses a table name with optional schema/catalog.
func (p *Parser) parseTableName(item *ast.FromItem) {
	if !isIdent(p.token) {
		p.addError("expected table name")
		return
	}

	parts := []string{p.token.Literal}
	p.nextToken()
	for p.match(token.DOT) {
		if !isIdent(p.token) {
			p.addError("expected identifier after '.'")
			return
		}
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	item.Table = parts[len(parts)-1]
	if len(parts) > 1 {
		item.DB = strings.Join(parts[:len(parts)-1], ".")
	}
}

// parseTableAlias parses an optional [AS] alias and column alias list.
func (p *Parser) parseTableAlias(item *ast.FromItem) {
	switch {
	case p.match(token.AS):
		if !isIdent(p.token) {
			p.addError("expected alias after AS")
			return
		}
	case p.check(token.IDENT):
		if strings.EqualFold(p.token.Literal, "lateral") {
			return
		}
	default:
		return
	}

	item.Alias = p.token.Literal
	p.nextToken()

	// Column aliases are accepted but not tracked.
	if p.check(token.LPAREN) && isIdent(p.peek) {
		p.nextToken()
		p.parseIdentList()
		p.expect(token.RPAREN)
	}
}
