package lineage

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlgraph/internal/dag"
)

// ErrUnknownColumn is returned when tracing a column id that is not in the
// graph.
var ErrUnknownColumn = errors.New("unknown column")

// Trace is the lineage of one column: everything it derives from, everything
// derived from it, and the mapping edges on those paths. Origins are the
// upstream columns that derive from nothing else; Sinks are the downstream
// columns nothing else derives from.
type Trace struct {
	Column     string   `json:"column"`
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
	Origins    []string `json:"origins"`
	Sinks      []string `json:"sinks"`
	Edges      []string `json:"edges"`
}

// ColumnDAG builds a graph of column ids linked by column mapping edges.
// Edges whose endpoints are not column nodes are ignored.
func ColumnDAG(g *Graph) *dag.Graph {
	d := dag.NewGraph()
	for _, n := range g.Nodes {
		if n.Type == KindColumn {
			d.AddNode(n.ID)
		}
	}
	for _, e := range g.Edges {
		if e.Type != EdgeColumnMapping || !e.HasHandles() {
			continue
		}
		_ = d.AddEdge(e.SourceColumn(), e.TargetColumn())
	}
	return d
}

// Upstream returns the ids of every column columnID derives from.
func Upstream(g *Graph, columnID string) []string {
	return ColumnDAG(g).GetUpstreamNodes(columnID)
}

// Downstream returns the ids of every column derived from columnID.
func Downstream(g *Graph, columnID string) []string {
	return ColumnDAG(g).GetDownstreamNodes(columnID)
}

// Related traces columnID in both directions.
func Related(g *Graph, columnID string) (*Trace, error) {
	if _, ok := g.ColumnNodes[columnID]; !ok {
		return nil, fmt.Errorf("trace %q: %w", columnID, ErrUnknownColumn)
	}

	d := ColumnDAG(g)
	t := &Trace{
		Column:     columnID,
		Upstream:   d.GetUpstreamNodes(columnID),
		Downstream: d.GetDownstreamNodes(columnID),
		Edges:      []string{},
	}
	t.Origins = filter(t.Upstream, setOf(d.GetRoots()))
	t.Sinks = filter(t.Downstream, setOf(d.GetLeaves()))

	up := setOf(t.Upstream)
	down := setOf(t.Downstream)
	for _, e := range g.Edges {
		if e.Type != EdgeColumnMapping || !e.HasHandles() {
			continue
		}
		src, dst := e.SourceColumn(), e.TargetColumn()
		onUp := up[src] && (up[dst] || dst == columnID)
		onDown := down[dst] && (down[src] || src == columnID)
		if onUp || onDown {
			t.Edges = append(t.Edges, e.ID)
		}
	}
	return t, nil
}

// filter keeps the ids in keep, preserving order.
func filter(ids []string, keep map[string]bool) []string {
	out := []string{}
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func setOf(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
