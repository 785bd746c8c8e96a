// Package layout positions lineage display tables for diagramming.
//
// Tables are ranked into layers by topological position: tables that
// nothing flows into sit in layer 0 and every other table sits one layer past
// its deepest source, so data flows in one horizontal direction. Layers are
// stacked vertically and centred on the origin.
package layout

import (
	"sort"

	"github.com/leapstack-labs/sqlgraph/internal/dag"
	"github.com/leapstack-labs/sqlgraph/pkg/lineage"
)

// Direction is the horizontal direction data flows in.
type Direction string

// Directions.
const (
	LeftToRight Direction = "left_to_right"
	RightToLeft Direction = "right_to_left"
)

// Options are the layout constants.
type Options struct {
	HorizontalSpacing float64
	BaseNodeHeight    float64
	HeightPerColumn   float64
	VerticalPadding   float64
	Direction         Direction
}

// DefaultOptions returns the standard diagram constants.
func DefaultOptions() Options {
	return Options{
		HorizontalSpacing: 400,
		BaseNodeHeight:    50,
		HeightPerColumn:   30,
		VerticalPadding:   70,
		Direction:         LeftToRight,
	}
}

// NodeHeight is the rendered height of a table.
func (o Options) NodeHeight(t lineage.DisplayTable) float64 {
	return o.BaseNodeHeight + o.HeightPerColumn*float64(len(t.Data.Columns))
}

// Graph projects g and lays it out.
func Graph(g *lineage.Graph, opts Options) ([]lineage.DisplayTable, []lineage.FlowEdge) {
	edges := lineage.FlowEdges(g)
	return Apply(lineage.DisplayTables(g), edges, opts), edges
}

// tableDAG links tables by the flow edges between them. Edges naming unknown
// tables and edges within one table are ignored.
func tableDAG(tables []lineage.DisplayTable, edges []lineage.FlowEdge) *dag.Graph {
	d := dag.NewGraph()
	for _, t := range tables {
		d.AddNode(t.ID)
	}
	for _, e := range edges {
		if e.SourceHandle == "" || e.TargetHandle == "" || e.Source == e.Target {
			continue
		}
		_ = d.AddEdge(e.Source, e.Target)
	}
	return d
}

// Layers ranks tables by the flow edges between them. Every table gets a
// layer, cycles included.
func Layers(tables []lineage.DisplayTable, edges []lineage.FlowEdge) map[string]int {
	return tableDAG(tables, edges).Layers()
}

// Cycle returns the table ids of one cycle among tables, first id repeated
// last, or nil when the tables are acyclic.
func Cycle(tables []lineage.DisplayTable, edges []lineage.FlowEdge) []string {
	_, path := tableDAG(tables, edges).HasCycle()
	return path
}

// Apply returns a copy of tables with positions assigned. Within a layer
// tables are ordered by descending column count, ties keeping input order.
func Apply(tables []lineage.DisplayTable, edges []lineage.FlowEdge, opts Options) []lineage.DisplayTable {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}

	index := make(map[string]int, len(tables))
	for i, t := range tables {
		if _, ok := index[t.ID]; !ok {
			index[t.ID] = i
		}
	}

	out := make([]lineage.DisplayTable, len(tables))
	copy(out, tables)

	for l, ids := range tableDAG(tables, edges).Levels() {
		members := make([]int, 0, len(ids))
		for _, id := range ids {
			members = append(members, index[id])
		}
		sort.SliceStable(members, func(a, b int) bool {
			return len(tables[members[a]].Data.Columns) > len(tables[members[b]].Data.Columns)
		})

		total := 0.0
		for _, i := range members {
			total += opts.NodeHeight(tables[i])
		}
		total += opts.VerticalPadding * float64(len(members)-1)

		x := float64(l) * opts.HorizontalSpacing
		if opts.Direction == RightToLeft {
			x = -x
		}

		y := -total / 2
		for _, i := range members {
			out[i].Position = lineage.Position{X: x, Y: y}
			y += opts.NodeHeight(tables[i]) + opts.VerticalPadding
		}
	}

	return out
}
