package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false, the children of that node are skipped.
// Nested statements (CTE bodies, derived tables, subqueries and set-operation
// branches) are visited too.
func Inspect(n Node, f func(Node) bool) {
	if isNilNode(n) || !f(n) {
		return
	}

	switch n := n.(type) {
	case *Select:
		for _, cte := range n.With {
			Inspect(cte, f)
		}
		for _, item := range n.Columns {
			Inspect(item, f)
		}
		for _, from := range n.From {
			Inspect(from, f)
		}
		inspectExpr(n.Where, f)
		inspectExprs(n.GroupBy, f)
		inspectExpr(n.Having, f)
		for _, o := range n.OrderBy {
			inspectExpr(o.Expr, f)
		}
		inspectExpr(n.Limit, f)
		inspectExpr(n.Offset, f)
		if n.Next != nil {
			Inspect(n.Next, f)
		}
	case *CTE:
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *SelectItem:
		inspectExpr(n.Expr, f)
	case *FromItem:
		if n.Subquery != nil {
			Inspect(n.Subquery, f)
		}
		inspectExpr(n.On, f)
	case *BinaryExpr:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *UnaryExpr:
		inspectExpr(n.Expr, f)
	case *FuncCall:
		inspectExprs(n.Args, f)
		inspectExpr(n.Filter, f)
		if n.Over != nil {
			inspectExprs(n.Over.PartitionBy, f)
			for _, o := range n.Over.OrderBy {
				inspectExpr(o.Expr, f)
			}
		}
	case *CaseExpr:
		inspectExpr(n.Operand, f)
		for _, w := range n.Whens {
			inspectExpr(w.Cond, f)
			inspectExpr(w.Result, f)
		}
		inspectExpr(n.Else, f)
	case *CastExpr:
		inspectExpr(n.Expr, f)
	case *SubqueryExpr:
		if n.Select != nil {
			Inspect(n.Select, f)
		}
	case *InExpr:
		inspectExpr(n.Expr, f)
		inspectExprs(n.List, f)
		if n.Subquery != nil {
			Inspect(n.Subquery, f)
		}
	case *BetweenExpr:
		inspectExpr(n.Expr, f)
		inspectExpr(n.Low, f)
		inspectExpr(n.High, f)
	case *LikeExpr:
		inspectExpr(n.Expr, f)
		inspectExpr(n.Pattern, f)
	case *IsExpr:
		inspectExpr(n.Expr, f)
	case *ExistsExpr:
		if n.Subquery != nil {
			Inspect(n.Subquery, f)
		}
	case *ListExpr:
		inspectExprs(n.Items, f)
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectExprs(list []Expr, f func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, f)
	}
}

// isNilNode catches typed nil pointers stored in the interface.
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Select:
		return v == nil
	case *CTE:
		return v == nil
	case *SelectItem:
		return v == nil
	case *FromItem:
		return v == nil
	}
	return false
}

// ColumnRefs returns every column reference reachable from n, including
// those inside nested subqueries, in source order.
func ColumnRefs(n Node) []*ColumnRef {
	var refs []*ColumnRef
	Inspect(n, func(n Node) bool {
		if ref, ok := n.(*ColumnRef); ok {
			refs = append(refs, ref)
		}
		return true
	})
	return refs
}
