package lineage

import (
	"encoding/json"
	"strings"

	"github.com/leapstack-labs/sqlgraph/pkg/ast"
)

// NodeKind distinguishes table-level nodes from column nodes.
type NodeKind string

// Node kinds.
const (
	KindTable  NodeKind = "table"
	KindCTE    NodeKind = "cte"
	KindColumn NodeKind = "column"
)

// EdgeKind is the type of a lineage edge.
type EdgeKind string

// Edge kinds.
const (
	EdgeTableToTable  EdgeKind = "table_TO_table"
	EdgeColumnMapping EdgeKind = "column_mapping"
	EdgeCondition     EdgeKind = "condition"
)

// ConditionColumn is the pseudo-column that condition edges point at.
const ConditionColumn = "_condition"

const (
	tablePrefix        = "table_"
	sourceHandlePrefix = "source-"
	targetHandlePrefix = "target-"
)

// Node is a table, CTE, result set or column in the lineage graph.
type Node struct {
	ID   string   `json:"id"`
	Type NodeKind `json:"type"`
	Name string   `json:"name"`

	// Table and CTE nodes
	Alias        string    `json:"alias,omitempty"`
	DB           string    `json:"db,omitempty"`
	IsCTE        bool      `json:"isCTE,omitempty"`
	SetOperation ast.SetOp `json:"setOperation,omitempty"`

	// Column nodes
	TableID     string `json:"tableId,omitempty"`
	IsCTEColumn bool   `json:"isCteColumn,omitempty"`
}

// IsTable reports whether the node is a table-level node (table, CTE or
// result set).
func (n *Node) IsTable() bool {
	return n.Type != KindColumn
}

// Edge is a lineage edge. Column edges carry both handles; table edges
// carry neither.
type Edge struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Type         EdgeKind `json:"type"`
	SourceHandle string   `json:"sourceHandle,omitempty"`
	TargetHandle string   `json:"targetHandle,omitempty"`
	Label        string   `json:"label,omitempty"`
}

// HasHandles reports whether both column handles are set.
func (e *Edge) HasHandles() bool {
	return e.SourceHandle != "" && e.TargetHandle != ""
}

// SourceColumn returns the id of the column the edge starts at, or "" for
// table edges.
func (e *Edge) SourceColumn() string {
	return strings.TrimPrefix(e.SourceHandle, sourceHandlePrefix)
}

// TargetColumn returns the id of the column the edge ends at, or "" for
// table edges.
func (e *Edge) TargetColumn() string {
	return strings.TrimPrefix(e.TargetHandle, targetHandlePrefix)
}

// Graph is the lineage graph of one statement. Nodes and Edges keep creation
// order. TableNodes is keyed by table name and ColumnNodes by column id.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	TableNodes  map[string]*Node `json:"-"`
	ColumnNodes map[string]*Node `json:"-"`

	byID map[string]*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:       []*Node{},
		Edges:       []*Edge{},
		TableNodes:  make(map[string]*Node),
		ColumnNodes: make(map[string]*Node),
		byID:        make(map[string]*Node),
	}
}

// Reindex rebuilds the lookup indices from Nodes.
func (g *Graph) Reindex() {
	g.TableNodes = make(map[string]*Node)
	g.ColumnNodes = make(map[string]*Node)
	g.byID = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.index(n)
	}
}

func (g *Graph) index(n *Node) {
	g.byID[n.ID] = n
	if n.IsTable() {
		g.TableNodes[n.Name] = n
	} else {
		g.ColumnNodes[n.ID] = n
	}
}

// UnmarshalJSON decodes a graph and rebuilds its indices.
func (g *Graph) UnmarshalJSON(data []byte) error {
	type plain Graph
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*g = Graph(p)
	if g.Nodes == nil {
		g.Nodes = []*Node{}
	}
	if g.Edges == nil {
		g.Edges = []*Edge{}
	}
	g.Reindex()
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g.byID == nil {
		g.Reindex()
	}
	n, ok := g.byID[id]
	return n, ok
}

// Tables returns the table-level nodes in creation order.
func (g *Graph) Tables() []*Node {
	var tables []*Node
	for _, n := range g.Nodes {
		if n.IsTable() {
			tables = append(tables, n)
		}
	}
	return tables
}

// ColumnsOf returns the column nodes owned by tableID in creation order.
func (g *Graph) ColumnsOf(tableID string) []*Node {
	var cols []*Node
	for _, n := range g.Nodes {
		if n.Type == KindColumn && n.TableID == tableID {
			cols = append(cols, n)
		}
	}
	return cols
}

// EdgesOfKind returns the edges of one kind in creation order.
func (g *Graph) EdgesOfKind(kind EdgeKind) []*Edge {
	var edges []*Edge
	for _, e := range g.Edges {
		if e.Type == kind {
			edges = append(edges, e)
		}
	}
	return edges
}

// TableID derives a table node id from a table name.
func TableID(name string) string {
	return tablePrefix + name
}

// TableName strips the table id prefix.
func TableName(id string) string {
	return strings.TrimPrefix(id, tablePrefix)
}

// ColumnID derives a column node id from its owning table name and column
// name.
func ColumnID(table, column string) string {
	return table + "_" + column
}

// SourceHandle is the connector id of a column on the source side of an edge.
func SourceHandle(table, column string) string {
	return sourceHandlePrefix + ColumnID(table, column)
}

// TargetHandle is the connector id of a column on the target side of an
// edge, given the target table's node id.
func TargetHandle(tableID, column string) string {
	return targetHandlePrefix + ColumnID(TableName(tableID), column)
}
