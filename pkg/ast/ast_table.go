package ast

// JoinKind is the join that attaches a FROM item to the items before it.
// The first FROM item has JoinNone; comma-separated items use JoinComma.
type JoinKind string

// Join kinds.
const (
	JoinNone    JoinKind = ""
	JoinComma   JoinKind = ","
	JoinInner   JoinKind = "INNER JOIN"
	JoinLeft    JoinKind = "LEFT JOIN"
	JoinRight   JoinKind = "RIGHT JOIN"
	JoinFull    JoinKind = "FULL JOIN"
	JoinCross   JoinKind = "CROSS JOIN"
	JoinNatural JoinKind = "NATURAL JOIN"
)

// FromItem is a table or derived table in the FROM list.
type FromItem struct {
	NodeInfo
	DB       string // schema/catalog qualifier, "" when absent
	Table    string // "" for derived tables
	Alias    string
	Subquery *Select

	Join  JoinKind
	On    Expr
	Using []string
}

// IsSubquery reports whether the item is a derived table.
func (f *FromItem) IsSubquery() bool {
	return f.Subquery != nil
}

// Name returns the name the item is visible under: its alias, or the table
// name for an unaliased table.
func (f *FromItem) Name() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Table
}
