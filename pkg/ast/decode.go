package ast

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// ErrNotStatement is returned when a decoded tree does not have a select
// statement at its root.
var ErrNotStatement = errors.New("root is not a select statement")

// DecodeJSON decodes a syntax tree in the JSON layout emitted by
// node-sql-parser (astify output, or the {tableList, columnList, ast}
// envelope). Arrays of statements decode to their first element.
func DecodeJSON(data []byte) (*Select, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding syntax tree: %w", err)
	}

	root := unwrapStatement(raw)
	m, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotStatement, root)
	}
	if msg := str(m, "message"); msg != "" && str(m, "type") == "" {
		return nil, fmt.Errorf("%w: parser error: %s", ErrNotStatement, msg)
	}
	if t := strings.ToLower(str(m, "type")); t != "select" {
		return nil, fmt.Errorf("%w: type %q", ErrNotStatement, t)
	}

	var d decoder
	return d.selectStmt(m), nil
}

// unwrapStatement strips the envelope and statement-list wrappers.
func unwrapStatement(v any) any {
	for {
		switch t := v.(type) {
		case []any:
			if len(t) == 0 {
				return nil
			}
			v = t[0]
		case map[string]any:
			inner, ok := t["ast"]
			if !ok || t["type"] != nil {
				return t
			}
			v = inner
		default:
			return v
		}
	}
}

type decoder struct{}

func (d *decoder) selectStmt(m map[string]any) *Select {
	s := &Select{NodeInfo: NodeInfo{Span: loc(m)}}

	for _, w := range withList(m["with"]) {
		if cte := d.cte(asMap(w)); cte != nil {
			s.With = append(s.With, cte)
		}
	}

	if distinct := m["distinct"]; distinct != nil {
		switch v := distinct.(type) {
		case string:
			s.Distinct = strings.EqualFold(v, "distinct")
		case map[string]any:
			s.Distinct = strings.EqualFold(str(v, "type"), "distinct")
		}
	}

	switch cols := m["columns"].(type) {
	case string:
		if cols == "*" {
			s.Columns = append(s.Columns, &SelectItem{Expr: &Star{}})
		}
	case []any:
		for _, c := range cols {
			if item := d.selectItem(asMap(c)); item != nil {
				s.Columns = append(s.Columns, item)
			}
		}
	}

	for i, f := range arr(m, "from") {
		if item := d.fromItem(asMap(f), i); item != nil {
			s.From = append(s.From, item)
		}
	}

	s.Where = d.expr(m["where"])
	s.Having = d.expr(m["having"])

	switch g := m["groupby"].(type) {
	case []any:
		s.GroupBy = d.exprList(g)
	case map[string]any:
		s.GroupBy = d.exprList(arr(g, "columns"))
	}

	for _, o := range arr(m, "orderby") {
		om := asMap(o)
		if om == nil {
			continue
		}
		s.OrderBy = append(s.OrderBy, &OrderItem{
			Expr: d.expr(om["expr"]),
			Desc: strings.EqualFold(str(om, "type"), "desc"),
		})
	}

	s.SetOp = ParseSetOp(str(m, "set_op"))
	if next := asMap(m["_next"]); next != nil {
		s.Next = d.selectStmt(next)
	}
	return s
}

func (d *decoder) cte(m map[string]any) *CTE {
	if m == nil {
		return nil
	}
	cte := &CTE{NodeInfo: NodeInfo{Span: loc(m)}, Name: nameValue(m["name"])}
	for _, c := range arr(m, "columns") {
		if name := nameValue(c); name != "" {
			cte.Columns = append(cte.Columns, name)
		}
	}
	if body := selectMap(m["stmt"]); body != nil {
		cte.Body = d.selectStmt(body)
	}
	return cte
}

func (d *decoder) selectItem(m map[string]any) *SelectItem {
	if m == nil {
		return nil
	}
	item := &SelectItem{NodeInfo: NodeInfo{Span: loc(m)}, Alias: nameValue(m["as"])}
	if sub := selectMap(m["expr"]); sub != nil {
		item.Expr = &SubqueryExpr{NodeInfo: NodeInfo{Span: loc(asMap(m["expr"]))}, Select: d.selectStmt(sub)}
	} else {
		item.Expr = d.expr(m["expr"])
	}
	if item.Expr == nil {
		item.Expr = &RawExpr{Kind: "unknown"}
	}
	if !item.Span.IsValid() {
		item.Span = item.Expr.GetSpan()
	}
	return item
}

func (d *decoder) fromItem(m map[string]any, idx int) *FromItem {
	if m == nil {
		return nil
	}
	item := &FromItem{
		NodeInfo: NodeInfo{Span: loc(m)},
		DB:       str(m, "db"),
		Table:    str(m, "table"),
		Alias:    nameValue(m["as"]),
		On:       d.expr(m["on"]),
	}
	if sub := selectMap(m["expr"]); sub != nil {
		item.Subquery = d.selectStmt(sub)
		item.Table = ""
	}
	for _, u := range arr(m, "using") {
		if name := nameValue(u); name != "" {
			item.Using = append(item.Using, name)
		}
	}
	if join := str(m, "join"); join != "" {
		item.Join = joinKind(join)
	} else if idx > 0 {
		item.Join = JoinComma
	}
	return item
}

func joinKind(s string) JoinKind {
	u := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch {
	case strings.HasPrefix(u, "LEFT"):
		return JoinLeft
	case strings.HasPrefix(u, "RIGHT"):
		return JoinRight
	case strings.HasPrefix(u, "FULL"):
		return JoinFull
	case strings.HasPrefix(u, "CROSS"):
		return JoinCross
	case strings.HasPrefix(u, "NATURAL"):
		return JoinNatural
	}
	return JoinInner
}

func (d *decoder) exprList(list []any) []Expr {
	var out []Expr
	for _, v := range list {
		if e := d.expr(v); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// expr decodes one expression node. Unsupported shapes decode to RawExpr so
// the enclosing item survives without contributing references.
func (d *decoder) expr(v any) Expr {
	m := asMap(v)
	if m == nil {
		return nil
	}
	info := NodeInfo{Span: loc(m)}

	if sub := selectMap(m); sub != nil {
		return &SubqueryExpr{NodeInfo: info, Select: d.selectStmt(sub)}
	}

	switch t := strings.ToLower(str(m, "type")); t {
	case "column_ref":
		column := nameValue(m["column"])
		if column == "*" {
			return &Star{NodeInfo: info, Table: str(m, "table")}
		}
		return &ColumnRef{NodeInfo: info, Table: str(m, "table"), Column: column}
	case "star":
		return &Star{NodeInfo: info}
	case "number":
		return &Literal{NodeInfo: info, Kind: LiteralNumber, Value: fmt.Sprint(m["value"])}
	case "string", "single_quote_string", "double_quote_string", "natural_string", "hex_string", "full_hex_string", "bit_string":
		return &Literal{NodeInfo: info, Kind: LiteralString, Value: fmt.Sprint(m["value"])}
	case "bool", "boolean":
		return &Literal{NodeInfo: info, Kind: LiteralBool, Value: fmt.Sprint(m["value"])}
	case "null":
		return &Literal{NodeInfo: info, Kind: LiteralNull, Value: "NULL"}
	case "binary_expr":
		return d.binary(m, info)
	case "unary_expr":
		return &UnaryExpr{NodeInfo: info, Op: strings.ToUpper(str(m, "operator")), Expr: d.expr(m["expr"])}
	case "function":
		fn := &FuncCall{NodeInfo: info, Name: strings.ToUpper(funcName(m["name"]))}
		args := asMap(m["args"])
		if args != nil {
			fn.Args = d.exprList(arr(args, "value"))
		}
		fn.Over = d.window(m["over"])
		return fn
	case "aggr_func":
		fn := &FuncCall{NodeInfo: info, Name: strings.ToUpper(funcName(m["name"])), Aggregate: true}
		if args := asMap(m["args"]); args != nil {
			if inner := asMap(args["expr"]); inner != nil && strings.EqualFold(str(inner, "type"), "star") {
				fn.Star = true
			} else if e := d.expr(args["expr"]); e != nil {
				fn.Args = append(fn.Args, e)
			}
			fn.Distinct = strings.EqualFold(str(args, "distinct"), "distinct")
		}
		fn.Over = d.window(m["over"])
		return fn
	case "case":
		c := &CaseExpr{NodeInfo: info, Operand: d.expr(m["expr"])}
		for _, a := range arr(m, "args") {
			am := asMap(a)
			if am == nil {
				continue
			}
			switch strings.ToLower(str(am, "type")) {
			case "when":
				c.Whens = append(c.Whens, &WhenClause{Cond: d.expr(am["cond"]), Result: d.expr(am["result"])})
			case "else":
				c.Else = d.expr(am["result"])
			}
		}
		return c
	case "cast":
		return &CastExpr{NodeInfo: info, Expr: d.expr(m["expr"]), Type: castTarget(m["target"])}
	case "expr_list":
		return &ListExpr{NodeInfo: info, Items: d.exprList(arr(m, "value"))}
	case "":
		return nil
	default:
		return &RawExpr{NodeInfo: info, Kind: t}
	}
}

func (d *decoder) binary(m map[string]any, info NodeInfo) Expr {
	op := strings.ToUpper(strings.Join(strings.Fields(str(m, "operator")), " "))
	left := d.expr(m["left"])

	switch op {
	case "IN", "NOT IN":
		in := &InExpr{NodeInfo: info, Expr: left, Not: op == "NOT IN"}
		right := d.expr(m["right"])
		switch r := right.(type) {
		case *ListExpr:
			if len(r.Items) == 1 {
				if sq, ok := r.Items[0].(*SubqueryExpr); ok {
					in.Subquery = sq.Select
					return in
				}
			}
			in.List = r.Items
		case *SubqueryExpr:
			in.Subquery = r.Select
		case nil:
		default:
			in.List = []Expr{r}
		}
		return in
	case "BETWEEN", "NOT BETWEEN":
		b := &BetweenExpr{NodeInfo: info, Expr: left, Not: op == "NOT BETWEEN"}
		if list, ok := d.expr(m["right"]).(*ListExpr); ok && len(list.Items) == 2 {
			b.Low, b.High = list.Items[0], list.Items[1]
		}
		return b
	case "IS", "IS NOT":
		is := &IsExpr{NodeInfo: info, Expr: left, Not: op == "IS NOT", Value: "NULL"}
		if lit, ok := d.expr(m["right"]).(*Literal); ok && lit.Kind == LiteralBool {
			is.Value = strings.ToUpper(lit.Value)
		}
		return is
	case "LIKE", "NOT LIKE", "ILIKE", "NOT ILIKE":
		return &LikeExpr{
			NodeInfo: info,
			Expr:     left,
			Not:      strings.HasPrefix(op, "NOT "),
			Op:       strings.TrimPrefix(op, "NOT "),
			Pattern:  d.expr(m["right"]),
		}
	}
	return &BinaryExpr{NodeInfo: info, Op: op, Left: left, Right: d.expr(m["right"])}
}

func (d *decoder) window(v any) *WindowSpec {
	m := asMap(v)
	if m == nil {
		return nil
	}
	spec := asMap(m["as_window_specification"])
	if spec == nil {
		if name := str(m, "as_window_specification"); name != "" {
			return &WindowSpec{Name: name}
		}
		spec = m
	}
	if inner := asMap(spec["window_specification"]); inner != nil {
		spec = inner
	}
	w := &WindowSpec{}
	for _, p := range arr(spec, "partitionby") {
		pm := asMap(p)
		if pm != nil && pm["expr"] != nil {
			if e := d.expr(pm["expr"]); e != nil {
				w.PartitionBy = append(w.PartitionBy, e)
			}
			continue
		}
		if e := d.expr(p); e != nil {
			w.PartitionBy = append(w.PartitionBy, e)
		}
	}
	for _, o := range arr(spec, "orderby") {
		om := asMap(o)
		if om == nil {
			continue
		}
		w.OrderBy = append(w.OrderBy, &OrderItem{
			Expr: d.expr(om["expr"]),
			Desc: strings.EqualFold(str(om, "type"), "desc"),
		})
	}
	return w
}

// selectMap returns the select statement held by v, accepting both a bare
// statement and the {ast: ...} wrapper used for subqueries.
func selectMap(v any) map[string]any {
	m := asMap(v)
	if m == nil {
		return nil
	}
	if inner := asMap(m["ast"]); inner != nil {
		m = inner
	}
	if strings.EqualFold(str(m, "type"), "select") {
		return m
	}
	return nil
}

// nameValue reads identifiers that are either plain strings or
// {type, value} / {expr: {value}} objects.
func nameValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["value"].(string); ok {
			return s
		}
		if inner, ok := t["expr"]; ok {
			return nameValue(inner)
		}
	}
	return ""
}

func funcName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		var parts []string
		for _, p := range arr(t, "name") {
			if s := nameValue(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ".")
	}
	return ""
}

func castTarget(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return str(t, "dataType")
	case []any:
		if len(t) > 0 {
			return castTarget(t[0])
		}
	}
	return ""
}

// loc reads a node-sql-parser "loc" object. Columns are 1-based and offsets
// 0-based in that layout, matching token.Position.
func loc(m map[string]any) token.Span {
	l := asMap(m["loc"])
	if l == nil {
		return token.Span{}
	}
	return token.Span{Start: position(asMap(l["start"])), End: position(asMap(l["end"]))}
}

func position(m map[string]any) token.Position {
	if m == nil {
		return token.Position{}
	}
	return token.Position{Line: num(m, "line"), Column: num(m, "column"), Offset: num(m, "offset")}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// withList returns the CTE list of a with clause, given either as a list or
// as an object wrapping one under "with".
func withList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		return arr(t, "with")
	}
	return nil
}

func arr(m map[string]any, key string) []any {
	a, _ := m[key].([]any)
	return a
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}
