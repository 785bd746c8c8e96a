package lineage

import "github.com/leapstack-labs/sqlgraph/pkg/ast"

// TableExtras is metadata attached to a table node when it is first created.
type TableExtras struct {
	Alias        string
	DB           string
	SetOperation ast.SetOp
}

// Store accumulates the nodes and edges of one build session. Every
// operation is idempotent: re-deriving a node or edge returns the existing
// one.
type Store struct {
	graph *Graph
	edges map[string]bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		graph: NewGraph(),
		edges: make(map[string]bool),
	}
}

// EnsureTable returns the id of the table node called name, creating it on
// first use. kind and extras only apply on creation.
func (s *Store) EnsureTable(name string, kind NodeKind, extras TableExtras) string {
	id := TableID(name)
	if _, ok := s.graph.byID[id]; ok {
		return id
	}

	node := &Node{
		ID:           id,
		Type:         KindTable,
		Name:         name,
		Alias:        extras.Alias,
		DB:           extras.DB,
		SetOperation: extras.SetOperation,
	}
	if kind == KindCTE {
		node.Type = KindCTE
		node.IsCTE = true
	}
	s.add(node)
	return id
}

// HasTable reports whether a table node called name exists.
func (s *Store) HasTable(name string) bool {
	_, ok := s.graph.byID[TableID(name)]
	return ok
}

// SetOperation records the set operator that produced a table node. It is
// the only mutation applied to an existing node.
func (s *Store) SetOperation(tableID string, op ast.SetOp) {
	if n, ok := s.graph.byID[tableID]; ok && n.IsTable() {
		n.SetOperation = op
	}
}

// EnsureColumn returns the id of column on table, creating it on first use.
func (s *Store) EnsureColumn(table, column string) string {
	id := ColumnID(table, column)
	if _, ok := s.graph.byID[id]; ok {
		return id
	}

	node := &Node{
		ID:      id,
		Type:    KindColumn,
		Name:    column,
		TableID: TableID(table),
	}
	if owner, ok := s.graph.byID[node.TableID]; ok && owner.IsCTE {
		node.IsCTEColumn = true
	}
	s.add(node)
	return id
}

// LinkTables adds a table-level edge. Self-loops and duplicates are dropped.
func (s *Store) LinkTables(sourceID, targetID string, kind EdgeKind, label string) {
	if kind == EdgeTableToTable && sourceID == targetID {
		return
	}
	s.addEdge(&Edge{
		ID:     "edge_" + sourceID + "_to_" + targetID + "_" + string(kind),
		Source: sourceID,
		Target: targetID,
		Type:   kind,
		Label:  label,
	})
}

// LinkColumns adds a column edge from srcTable.srcCol to dstCol on the table
// node dstTableID. An edge from a column to itself and duplicates are
// dropped.
func (s *Store) LinkColumns(srcTable, srcCol, dstTableID, dstCol string, kind EdgeKind) {
	sourceHandle := SourceHandle(srcTable, srcCol)
	targetHandle := TargetHandle(dstTableID, dstCol)
	if ColumnID(srcTable, srcCol) == ColumnID(TableName(dstTableID), dstCol) {
		return
	}
	s.addEdge(&Edge{
		ID:           "edge_" + sourceHandle + "_to_" + targetHandle + "_" + string(kind),
		Source:       TableID(srcTable),
		Target:       dstTableID,
		Type:         kind,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	})
}

// Graph returns the accumulated graph. Callers must not modify it while the
// session is still building.
func (s *Store) Graph() *Graph {
	return s.graph
}

func (s *Store) add(n *Node) {
	s.graph.Nodes = append(s.graph.Nodes, n)
	s.graph.index(n)
}

func (s *Store) addEdge(e *Edge) {
	if s.edges[e.ID] {
		return
	}
	s.edges[e.ID] = true
	s.graph.Edges = append(s.graph.Edges, e)
}
