// Package lineage builds column-level lineage graphs from parsed SELECT
// statements.
//
// A build walks the statement tree once. Every table, CTE, derived table and
// result set becomes a table node; every projected or referenced column
// becomes a column node owned by one of them. Column mapping edges record
// which source columns feed each derived column, and table edges record the
// coarse flow between rowsets.
package lineage

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
)

// DefaultResultName names the top-level result set.
const DefaultResultName = "Result"

// Options configures a build.
type Options struct {
	// ResultName names the top-level result set. Nested unnamed results are
	// called ResultName_1, ResultName_2 and so on.
	ResultName string

	// Conditions adds condition edges for columns referenced in WHERE,
	// HAVING and JOIN ON clauses.
	Conditions bool

	Logger *slog.Logger
}

// Build constructs the lineage graph of stmt. Each call owns its own store
// and scope, so concurrent builds never share state.
func Build(stmt *ast.Select, opts Options) (*Graph, error) {
	if stmt == nil {
		return nil, fmt.Errorf("build lineage: %w", ErrInvalidRoot)
	}
	if opts.ResultName == "" {
		opts.ResultName = DefaultResultName
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	w := &walker{
		store: NewStore(),
		scope: NewScope(),
		opts:  opts,
		log:   opts.Logger,
	}
	w.statement(stmt, "", false, nil)
	return w.store.Graph(), nil
}

type walker struct {
	store *Store
	scope *Scope
	opts  Options
	log   *slog.Logger

	// session counters for synthetic names
	results    int
	subqueries int
	exprs      int
}

// colRef is a source column by table name.
type colRef struct {
	table  string
	column string
}

// result describes the rowset produced by one statement.
type result struct {
	id      string
	name    string
	columns []string

	// sources are the table nodes linked into this result while it was
	// built. Two or more mark the result as an aggregation point.
	sources []string

	// lineage maps each output column to the columns mapped into it.
	lineage map[string][]colRef
}

func (r *result) addColumn(name string) {
	if !contains(r.columns, name) {
		r.columns = append(r.columns, name)
	}
}

// absorb takes over the provenance of a derived table that shares this
// result's node.
func (r *result) absorb(sub *result) {
	for _, src := range sub.sources {
		if src != r.id && !contains(r.sources, src) {
			r.sources = append(r.sources, src)
		}
	}
	for col, refs := range sub.lineage {
		r.lineage[col] = append(r.lineage[col], refs...)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// statement processes one statement and returns the rowset it produces.
// name is pre-assigned by callers that know what the output is called.
// rename holds a CTE column list, applied to output columns by position.
func (w *walker) statement(stmt *ast.Select, name string, nested bool, rename []string) *result {
	if name == "" {
		name = collapsedName(stmt)
	}
	if name == "" {
		if nested {
			w.results++
			name = fmt.Sprintf("%s_%d", w.opts.ResultName, w.results)
		} else {
			name = w.opts.ResultName
		}
	}

	res := &result{
		id:      w.store.EnsureTable(name, KindTable, TableExtras{}),
		name:    name,
		lineage: make(map[string][]colRef),
	}

	for _, cte := range stmt.With {
		w.cte(cte)
	}

	if stmt.IsSetOpChain() {
		w.setOps(res, stmt, rename)
		return res
	}

	fromNames := w.from(res, stmt.From)
	w.selectList(res, stmt.Columns, fromNames, rename)

	if w.opts.Conditions {
		w.conditions(res, stmt, fromNames)
	}

	return res
}

// collapsedName returns the alias of the single derived table in FROM, so
// that a passthrough SELECT over it shares its node.
func collapsedName(stmt *ast.Select) string {
	if stmt.IsSetOpChain() || len(stmt.From) != 1 {
		return ""
	}
	item := stmt.From[0]
	if !item.IsSubquery() {
		return ""
	}
	return item.Alias
}

func (w *walker) cte(cte *ast.CTE) {
	cteID := w.store.EnsureTable(cte.Name, KindCTE, TableExtras{})
	if cte.Body == nil {
		return
	}

	w.scope.Push()
	body := w.statement(cte.Body, cte.Name, true, cte.Columns)
	w.scope.Pop()

	if body.id != cteID {
		w.store.LinkTables(body.id, cteID, EdgeTableToTable, "")
	}
}

func (w *walker) setOps(res *result, stmt *ast.Select, rename []string) {
	chain := CollectSetOps(stmt)
	w.store.SetOperation(res.id, chain.Operator)

	for i, branch := range chain.Branches {
		if i == 0 {
			// WITH bindings belong to the whole chain and were processed
			// already.
			head := *branch
			head.With = nil
			branch = &head
		}

		w.scope.Push()
		br := w.statement(branch, "", true, nil)
		w.scope.Pop()

		w.mergeBranch(res, br, rename)
	}
}

// mergeBranch maps a branch's columns onto the chain result by name. A direct
// branch also lifts its sources and column provenance into the chain result;
// a branch that already aggregates several sources is linked as a unit.
func (w *walker) mergeBranch(res *result, br *result, rename []string) {
	direct := len(br.sources) < 2

	for i, col := range br.columns {
		out := col
		if i < len(rename) {
			out = rename[i]
		}
		w.store.EnsureColumn(res.name, out)
		res.addColumn(out)
		w.linkColumn(res, br.name, col, out, EdgeColumnMapping)

		if direct {
			for _, src := range br.lineage[col] {
				w.linkColumn(res, src.table, src.column, out, EdgeColumnMapping)
			}
		}
	}

	w.feed(res, br.id)
	if direct {
		for _, src := range br.sources {
			w.feed(res, src)
		}
	}
}

// from links every FROM item into res and returns the names the items are
// visible under, in order.
func (w *walker) from(res *result, items []*ast.FromItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsSubquery() {
			alias := item.Alias
			if alias == "" {
				w.subqueries++
				alias = fmt.Sprintf("subq_%d", w.subqueries)
			}
			w.store.EnsureTable(alias, KindTable, TableExtras{})

			w.scope.Push()
			sub := w.statement(item.Subquery, alias, true, nil)
			w.scope.Pop()

			if sub.id == res.id {
				res.absorb(sub)
			} else {
				w.feed(res, sub.id)
			}
			names = append(names, alias)
			continue
		}

		if item.Table == "" {
			continue
		}
		w.scope.Register(item.Alias, item.Table)
		id := w.store.EnsureTable(item.Table, KindTable, TableExtras{Alias: item.Alias, DB: item.DB})
		w.feed(res, id)
		names = append(names, item.Table)
	}
	return names
}

func (w *walker) selectList(res *result, items []*ast.SelectItem, fromNames []string, rename []string) {
	for i, item := range items {
		if item.IsStar() {
			continue
		}

		out := w.outputName(item, i, rename)
		w.store.EnsureColumn(res.name, out)
		res.addColumn(out)

		if sq, ok := item.Expr.(*ast.SubqueryExpr); ok && sq.Select != nil {
			w.scope.Push()
			sub := w.statement(sq.Select, "Table_"+out, true, nil)
			w.scope.Pop()

			w.feed(res, sub.id)
			for _, col := range sub.columns {
				w.linkColumn(res, sub.name, col, out, EdgeColumnMapping)
			}
			continue
		}

		for _, ref := range columnRefs(item.Expr) {
			w.linkRef(res, ref, fromNames, out, EdgeColumnMapping)
		}
	}
}

func (w *walker) outputName(item *ast.SelectItem, pos int, rename []string) string {
	if pos < len(rename) {
		return rename[pos]
	}
	if item.Alias != "" {
		return item.Alias
	}
	if ref, ok := item.Expr.(*ast.ColumnRef); ok {
		return ref.Column
	}
	w.exprs++
	return fmt.Sprintf("expr_%d", w.exprs)
}

func (w *walker) conditions(res *result, stmt *ast.Select, fromNames []string) {
	exprs := []ast.Expr{stmt.Where, stmt.Having}
	for _, item := range stmt.From {
		exprs = append(exprs, item.On)
	}

	for _, e := range exprs {
		for _, ref := range columnRefs(e) {
			w.linkRef(res, ref, fromNames, ConditionColumn, EdgeCondition)
		}
	}
}

// linkRef resolves a column reference and maps it onto out. References whose
// table cannot be resolved to a known node are skipped.
func (w *walker) linkRef(res *result, ref *ast.ColumnRef, fromNames []string, out string, kind EdgeKind) {
	table := ref.Table
	switch {
	case table == "":
		if len(fromNames) != 1 {
			w.log.Debug("unqualified column not traced", "column", ref.Column, "sources", len(fromNames))
			return
		}
		table = fromNames[0]
	default:
		if real, ok := w.scope.Resolve(table); ok {
			table = real
		}
	}

	if !w.store.HasTable(table) {
		w.log.Debug("unresolved table reference", "table", table, "column", ref.Column)
		return
	}

	if kind == EdgeCondition {
		w.store.EnsureColumn(res.name, out)
	}
	w.linkColumn(res, table, ref.Column, out, kind)
}

func (w *walker) linkColumn(res *result, srcTable, srcCol, out string, kind EdgeKind) {
	w.store.EnsureColumn(srcTable, srcCol)
	w.store.LinkColumns(srcTable, srcCol, res.id, out, kind)

	if kind != EdgeColumnMapping || (srcTable == res.name && srcCol == out) {
		return
	}
	for _, r := range res.lineage[out] {
		if r.table == srcTable && r.column == srcCol {
			return
		}
	}
	res.lineage[out] = append(res.lineage[out], colRef{table: srcTable, column: srcCol})
}

// feed links a table node into res and records it as a source.
func (w *walker) feed(res *result, sourceID string) {
	if sourceID == res.id {
		return
	}
	w.store.LinkTables(sourceID, res.id, EdgeTableToTable, "")
	if !contains(res.sources, sourceID) {
		res.sources = append(res.sources, sourceID)
	}
}
