package ast

// ColumnRef is a possibly qualified column reference.
type ColumnRef struct {
	NodeInfo
	Table  string // qualifier, "" when unqualified
	Column string
}

// Star is "*" or "t.*".
type Star struct {
	NodeInfo
	Table string
}

// LiteralKind classifies literals.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal is a constant value.
type Literal struct {
	NodeInfo
	Kind  LiteralKind
	Value string
}

// BinaryExpr is a binary operation such as a + b, a = b or a AND b.
type BinaryExpr struct {
	NodeInfo
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpr is a prefix operation such as -a or NOT a.
type UnaryExpr struct {
	NodeInfo
	Op   string
	Expr Expr
}

// FuncCall is a scalar, aggregate or window function call.
type FuncCall struct {
	NodeInfo
	Name      string // upper-cased
	Args      []Expr
	Star      bool // COUNT(*)
	Distinct  bool
	Aggregate bool
	Filter    Expr
	Over      *WindowSpec
}

// WindowSpec is the OVER clause of a window function.
type WindowSpec struct {
	Name        string
	PartitionBy []Expr
	OrderBy     []*OrderItem
}

// CaseExpr is a searched or simple CASE expression.
type CaseExpr struct {
	NodeInfo
	Operand Expr // nil for a searched CASE
	Whens   []*WhenClause
	Else    Expr
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	Cond   Expr
	Result Expr
}

// CastExpr is CAST(expr AS type) or expr::type.
type CastExpr struct {
	NodeInfo
	Expr Expr
	Type string
}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	NodeInfo
	Select *Select
}

// InExpr is expr [NOT] IN (list | subquery).
type InExpr struct {
	NodeInfo
	Expr     Expr
	Not      bool
	List     []Expr
	Subquery *Select
}

// BetweenExpr is expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	NodeInfo
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// LikeExpr is expr [NOT] LIKE|ILIKE pattern.
type LikeExpr struct {
	NodeInfo
	Expr    Expr
	Not     bool
	Op      string
	Pattern Expr
}

// IsExpr is expr IS [NOT] NULL|TRUE|FALSE.
type IsExpr struct {
	NodeInfo
	Expr  Expr
	Not   bool
	Value string
}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	NodeInfo
	Not      bool
	Subquery *Select
}

// ListExpr is a parenthesised expression list.
type ListExpr struct {
	NodeInfo
	Items []Expr
}

// RawExpr stands for an expression shape the tree does not model
// (INTERVAL, EXTRACT, array constructors and the like). It contributes no
// column references.
type RawExpr struct {
	NodeInfo
	Kind string
}

func (*ColumnRef) exprNode()    {}
func (*Star) exprNode()         {}
func (*Literal) exprNode()      {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*FuncCall) exprNode()     {}
func (*CaseExpr) exprNode()     {}
func (*CastExpr) exprNode()     {}
func (*SubqueryExpr) exprNode() {}
func (*InExpr) exprNode()       {}
func (*BetweenExpr) exprNode()  {}
func (*LikeExpr) exprNode()     {}
func (*IsExpr) exprNode()       {}
func (*ExistsExpr) exprNode()   {}
func (*ListExpr) exprNode()     {}
func (*RawExpr) exprNode()      {}
