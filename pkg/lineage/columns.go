package lineage

import "github.com/leapstack-labs/sqlgraph/pkg/ast"

// columnRefs collects the column references an expression's value is computed
// from. Nested statements are not entered; window specifications and
// aggregate filters do not contribute.
func columnRefs(e ast.Expr) []*ast.ColumnRef {
	var refs []*ast.ColumnRef
	var collect func(ast.Expr)
	collect = func(e ast.Expr) {
		switch e := e.(type) {
		case nil:
		case *ast.ColumnRef:
			if e != nil {
				refs = append(refs, e)
			}
		case *ast.BinaryExpr:
			collect(e.Left)
			collect(e.Right)
		case *ast.UnaryExpr:
			collect(e.Expr)
		case *ast.FuncCall:
			for _, arg := range e.Args {
				collect(arg)
			}
		case *ast.CaseExpr:
			collect(e.Operand)
			for _, when := range e.Whens {
				collect(when.Cond)
				collect(when.Result)
			}
			collect(e.Else)
		case *ast.CastExpr:
			collect(e.Expr)
		case *ast.InExpr:
			collect(e.Expr)
			for _, item := range e.List {
				collect(item)
			}
		case *ast.BetweenExpr:
			collect(e.Expr)
			collect(e.Low)
			collect(e.High)
		case *ast.LikeExpr:
			collect(e.Expr)
			collect(e.Pattern)
		case *ast.IsExpr:
			collect(e.Expr)
		case *ast.ListExpr:
			for _, item := range e.Items {
				collect(item)
			}
		}
	}
	collect(e)
	return refs
}
