package ast

import "strings"

// SetOp is the operator that joins a statement to the next one in a chain.
type SetOp string

// Set operators.
const (
	SetOpNone      SetOp = ""
	SetOpUnion     SetOp = "union"
	SetOpUnionAll  SetOp = "union all"
	SetOpIntersect SetOp = "intersect"
	SetOpExcept    SetOp = "except"
)

// ParseSetOp normalises an operator spelling ("UNION ALL", "union  all",
// "EXCEPT DISTINCT") to a SetOp. Unknown spellings return SetOpNone.
func ParseSetOp(s string) SetOp {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return SetOpNone
	}
	switch fields[0] {
	case "union":
		if len(fields) > 1 && fields[1] == "all" {
			return SetOpUnionAll
		}
		return SetOpUnion
	case "intersect":
		return SetOpIntersect
	case "except", "minus":
		return SetOpExcept
	}
	return SetOpNone
}

// Select is a single SELECT statement. A chain of statements combined with
// set operators is linked through Next, with SetOp holding the operator that
// joins this statement to Next.
type Select struct {
	NodeInfo
	With     []*CTE
	Distinct bool
	Columns  []*SelectItem
	From     []*FromItem
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []*OrderItem
	Limit    Expr
	Offset   Expr

	SetOp SetOp
	Next  *Select
}

// IsSetOpChain reports whether the statement heads a set-operation chain.
func (s *Select) IsSetOpChain() bool {
	return s != nil && s.Next != nil
}

// CTE is a single WITH binding.
type CTE struct {
	NodeInfo
	Name    string
	Columns []string
	Body    *Select
}

// SelectItem is one projected item of a select list.
type SelectItem struct {
	NodeInfo
	Expr  Expr
	Alias string
}

// IsStar reports whether the item is "*" or "t.*".
func (s *SelectItem) IsStar() bool {
	_, ok := s.Expr.(*Star)
	return ok
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr Expr
	Desc bool
}
