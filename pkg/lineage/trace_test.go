package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamDownstream(t *testing.T) {
	g := build(t, "WITH c AS (SELECT x FROM t) SELECT x AS y FROM c", Options{})

	assert.Equal(t, []string{"c_x", "t_x"}, Upstream(g, "Result_y"))
	assert.Equal(t, []string{"Result_y", "c_x"}, Downstream(g, "t_x"))
	assert.Empty(t, Upstream(g, "t_x"))
	assert.Empty(t, Downstream(g, "Result_y"))
}

func TestRelated(t *testing.T) {
	sql := `WITH c AS (SELECT x, z FROM t)
SELECT x AS y, z FROM c`
	g := build(t, sql, Options{})

	tr, err := Related(g, "c_x")
	require.NoError(t, err)
	assert.Equal(t, "c_x", tr.Column)
	assert.Equal(t, []string{"t_x"}, tr.Upstream)
	assert.Equal(t, []string{"Result_y"}, tr.Downstream)
	assert.Equal(t, []string{"t_x"}, tr.Origins)
	assert.Equal(t, []string{"Result_y"}, tr.Sinks)
	assert.ElementsMatch(t, []string{
		"edge_source-t_x_to_target-c_x_column_mapping",
		"edge_source-c_x_to_target-Result_y_column_mapping",
	}, tr.Edges)

	_, err = Related(g, "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestColumnDAG_IgnoresOtherEdges(t *testing.T) {
	g := build(t, "SELECT o.id FROM orders o WHERE o.status = 'open'", Options{Conditions: true})

	assert.Equal(t, []string{"orders_id"}, Upstream(g, "Result_id"))
	assert.Empty(t, Downstream(g, "orders_status"))
	assert.Len(t, ColumnDAG(g).GetRoots(), len(g.ColumnNodes)-1)
}

func TestRelated_OriginsAndSinks(t *testing.T) {
	sql := `WITH c AS (SELECT a.x, a.x AS x2 FROM t AS a)
SELECT x AS y, x2 FROM c`
	g := build(t, sql, Options{})

	tr, err := Related(g, "t_x")
	require.NoError(t, err)
	assert.Empty(t, tr.Upstream)
	assert.Empty(t, tr.Origins)
	assert.Equal(t, []string{"Result_x2", "Result_y", "c_x", "c_x2"}, tr.Downstream)
	assert.Equal(t, []string{"Result_x2", "Result_y"}, tr.Sinks)

	tr, err = Related(g, "Result_y")
	require.NoError(t, err)
	assert.Equal(t, []string{"t_x"}, tr.Origins)
	assert.Empty(t, tr.Sinks)
}

func TestDisplayTables(t *testing.T) {
	g := build(t, "SELECT a.x, a.y AS w FROM t AS a", Options{})

	tables := DisplayTables(g)
	require.Len(t, tables, 2)

	byName := map[string]DisplayTable{}
	for _, tbl := range tables {
		assert.Equal(t, DisplayTableType, tbl.Type)
		assert.Equal(t, Position{}, tbl.Position)
		byName[tbl.Data.TableName] = tbl
	}

	assert.Equal(t, "table_Result", byName["Result"].ID)
	assert.Equal(t, []DisplayColumn{
		{Name: "x", ColumnID: "Result_x"},
		{Name: "w", ColumnID: "Result_w"},
	}, byName["Result"].Data.Columns)
	assert.Equal(t, []DisplayColumn{
		{Name: "x", ColumnID: "t_x"},
		{Name: "y", ColumnID: "t_y"},
	}, byName["t"].Data.Columns)
}

func TestFlowEdges(t *testing.T) {
	g := build(t, "SELECT a.x FROM t AS a WHERE a.y > 0", Options{Conditions: true})

	edges := FlowEdges(g)
	require.Len(t, edges, 1)
	assert.Equal(t, FlowEdge{
		ID:           "edge_source-t_x_to_target-Result_x_column_mapping",
		Source:       "table_t",
		Target:       "table_Result",
		SourceHandle: "source-t_x",
		TargetHandle: "target-Result_x",
	}, edges[0])
}
