// Package highlight maps lineage column ids back to the SQL text that
// produces them, so an editor can highlight the source of a column.
package highlight

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Map returns the text ranges backing each column id of stmt.
//
// Column references map to <table>_<column>, their qualifier resolved
// through the aliases declared by the enclosing statements, innermost first. Projected columns of the
// root select, of CTE bodies and of derived tables in the root FROM map to
// the corresponding output column. Ranges come from the tree's spans; a
// tree without spans falls back to searching sql for qualified references.
// When g is not nil only ids present in g.ColumnNodes are kept.
func Map(sql string, stmt *ast.Select, g *lineage.Graph) map[string][]token.Span {
	m := &mapper{
		sql:    sql,
		ranges: make(map[string][]token.Span),
	}
	if stmt == nil {
		return m.ranges
	}

	m.hasSpans = hasSpans(stmt)
	m.references(stmt)
	m.outputs(stmt)

	if g != nil {
		for id := range m.ranges {
			if _, ok := g.ColumnNodes[id]; !ok {
				delete(m.ranges, id)
			}
		}
	}
	for id, spans := range m.ranges {
		if len(spans) == 0 {
			delete(m.ranges, id)
			continue
		}
		m.ranges[id] = normalize(spans)
	}
	return m.ranges
}

type mapper struct {
	sql      string
	ranges   map[string][]token.Span
	scopes   []map[string]string // alias -> real name, innermost last
	hasSpans bool
}

func (m *mapper) push(id string, spans ...token.Span) {
	m.ranges[id] = append(m.ranges[id], spans...)
}

// bindings returns the FROM aliases s declares. A derived table is bound
// under its own alias.
func bindings(s *ast.Select) map[string]string {
	b := make(map[string]string)
	for _, item := range s.From {
		switch {
		case item.IsSubquery() && item.Alias != "":
			b[item.Alias] = item.Alias
		case item.Table != "" && item.Alias != "":
			b[item.Alias] = item.Table
		}
	}
	return b
}

func (m *mapper) resolve(name string) string {
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if real, ok := m.scopes[i][name]; ok {
			return real
		}
	}
	return name
}

// defaultTable is the table unqualified references in s resolve to: its
// sole FROM source.
func (m *mapper) defaultTable(s *ast.Select) string {
	if len(s.From) != 1 {
		return ""
	}
	return m.resolve(s.From[0].Name())
}

// references maps the column references of s. Each nested statement opens
// its own scope, so aliases it declares are not seen by its siblings.
func (m *mapper) references(s *ast.Select) {
	m.scopes = append(m.scopes, bindings(s))
	defer func() { m.scopes = m.scopes[:len(m.scopes)-1] }()

	def := m.defaultTable(s)
	ast.Inspect(s, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Select:
			if n != s {
				m.references(n)
				return false
			}
		case *ast.ColumnRef:
			m.reference(n, def)
		}
		return true
	})
}

func (m *mapper) reference(ref *ast.ColumnRef, def string) {
	table := def
	if ref.Table != "" {
		table = m.resolve(ref.Table)
	}
	if table == "" {
		return
	}
	id := lineage.ColumnID(table, ref.Column)

	if m.hasSpans && ref.Span.IsValid() {
		m.push(id, ref.Span)
		return
	}
	m.push(id, m.search(m.qualifiers(table), ref.Column)...)
}

// qualifiers returns every name table can be referenced by in the current
// scope.
func (m *mapper) qualifiers(table string) []string {
	quals := []string{table}
	for _, scope := range m.scopes {
		for alias, real := range scope {
			if real == table && m.resolve(alias) == table && !slices.Contains(quals, alias) {
				quals = append(quals, alias)
			}
		}
	}
	sort.Strings(quals[1:])
	return quals
}

func (m *mapper) outputs(stmt *ast.Select) {
	m.outputColumns(stmt, lineage.DefaultResultName)
	for _, cte := range stmt.With {
		if cte.Body != nil {
			m.outputColumns(cte.Body, cte.Name)
		}
	}
	for _, item := range stmt.From {
		if item.IsSubquery() && item.Alias != "" {
			m.outputColumns(item.Subquery, item.Alias)
		}
	}
}

func (m *mapper) outputColumns(s *ast.Select, table string) {
	for _, item := range s.Columns {
		if item.IsStar() {
			continue
		}
		name := item.Alias
		if name == "" {
			ref, ok := item.Expr.(*ast.ColumnRef)
			if !ok {
				continue
			}
			name = ref.Column
		}

		span := item.Span
		if !span.IsValid() && item.Expr != nil {
			span = item.Expr.GetSpan()
		}
		if span.IsValid() {
			m.push(lineage.ColumnID(table, name), span)
		}
	}
}

// search finds qualified references to column in the SQL text.
func (m *mapper) search(qualifiers []string, column string) []token.Span {
	quoted := make([]string, 0, len(qualifiers))
	for _, q := range qualifiers {
		quoted = append(quoted, `\b`+regexp.QuoteMeta(q)+`\b\s*\.\s*`)
	}
	pattern := `(?i)(?:` + strings.Join(quoted, "|") + `)\b` + regexp.QuoteMeta(column) + `\b`

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}

	lines := lineStarts(m.sql)
	var spans []token.Span
	for _, loc := range re.FindAllStringIndex(m.sql, -1) {
		spans = append(spans, token.Span{
			Start: position(loc[0], lines),
			End:   position(loc[1], lines),
		})
	}
	return spans
}

func lineStarts(s string) []int {
	starts := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func position(offset int, lines []int) token.Position {
	line := sort.Search(len(lines), func(i int) bool { return lines[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return token.Position{Line: line + 1, Column: offset - lines[line] + 1, Offset: offset}
}

func hasSpans(stmt *ast.Select) bool {
	found := false
	ast.Inspect(stmt, func(n ast.Node) bool {
		if found {
			return false
		}
		if n.GetSpan().IsValid() {
			found = true
		}
		return !found
	})
	return found
}

// normalize sorts spans by offset and drops duplicates.
func normalize(spans []token.Span) []token.Span {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start.Offset != spans[j].Start.Offset {
			return spans[i].Start.Offset < spans[j].Start.Offset
		}
		return spans[i].End.Offset < spans[j].End.Offset
	})
	out := spans[:0]
	for i, s := range spans {
		if i > 0 && s.Start.Offset == out[len(out)-1].Start.Offset && s.End.Offset == out[len(out)-1].End.Offset {
			continue
		}
		out = append(out, s)
	}
	return out
}
