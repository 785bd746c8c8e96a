package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T, ids ...string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range ids {
		g.AddNode(id)
	}
	for i := 1; i < len(ids); i++ {
		require.NoError(t, g.AddEdge(ids[i-1], ids[i]))
	}
	return g
}

func TestGraph_AddNode(t *testing.T) {
	g := NewGraph()
	g.AddNode("table_a")
	g.AddNode("table_b")
	g.AddNode("table_a")

	assert.Equal(t, [][]string{{"table_a", "table_b"}}, g.Levels())
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"))
	assert.Equal(t, []string{"b"}, g.GetDownstreamNodes("a"))
	assert.Equal(t, []string{"a"}, g.GetUpstreamNodes("b"))
	assert.Equal(t, [][]string{{"a"}, {"b"}}, g.Levels())

	assert.Error(t, g.AddEdge("a", "missing"))
	assert.Error(t, g.AddEdge("missing", "a"))
	assert.Error(t, g.AddEdge("a", "a"))
}

func TestGraph_HasCycle(t *testing.T) {
	g := chain(t, "a", "b", "c")
	hasCycle, path := g.HasCycle()
	assert.False(t, hasCycle)
	assert.Nil(t, path)

	require.NoError(t, g.AddEdge("c", "a"))
	hasCycle, path = g.HasCycle()
	assert.True(t, hasCycle)
	assert.Equal(t, []string{"a", "b", "c", "a"}, path)
}

func TestGraph_Layers_Diamond(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("b", "d"))
	require.NoError(t, g.AddEdge("c", "d"))

	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}, g.Layers())
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}, {"d"}}, g.Levels())
}

func TestGraph_Layers_LongestPath(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddNode("d")
	require.NoError(t, g.AddEdge("a", "d"))
	require.NoError(t, g.AddEdge("c", "d"))

	assert.Equal(t, 3, g.Layers()["d"])
}

func TestGraph_Layers_Cycle(t *testing.T) {
	g := chain(t, "src", "x", "y")
	require.NoError(t, g.AddEdge("y", "x"))

	layers := g.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, 0, layers["src"])
	// x and y never reach in-degree zero
	assert.Equal(t, 1, layers["x"])
	assert.Equal(t, 2, layers["y"])

	for _, l := range layers {
		assert.GreaterOrEqual(t, l, 0)
	}
}

func TestGraph_Layers_Disconnected(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")
	assert.Equal(t, [][]string{{"a", "b"}}, g.Levels())
	assert.Empty(t, NewGraph().Levels())
}

func TestGraph_UpstreamDownstream(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddNode("d")
	require.NoError(t, g.AddEdge("b", "d"))

	assert.Equal(t, []string{"b", "c", "d"}, g.GetDownstreamNodes("a"))
	assert.Equal(t, []string{"a", "b"}, g.GetUpstreamNodes("c"))
	assert.Empty(t, g.GetUpstreamNodes("a"))
	assert.Empty(t, g.GetDownstreamNodes("missing"))
}

func TestGraph_UpstreamOnCycle(t *testing.T) {
	g := chain(t, "a", "b")
	require.NoError(t, g.AddEdge("b", "a"))
	assert.Equal(t, []string{"a", "b"}, g.GetUpstreamNodes("a"))
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := chain(t, "a", "b", "c")
	g.AddNode("lonely")

	assert.Equal(t, []string{"a", "lonely"}, g.GetRoots())
	assert.Equal(t, []string{"c", "lonely"}, g.GetLeaves())
}

func TestGraph_RootsAndLeavesOnCycle(t *testing.T) {
	g := chain(t, "src", "x", "y")
	require.NoError(t, g.AddEdge("y", "x"))

	assert.Equal(t, []string{"src"}, g.GetRoots())
	assert.Nil(t, g.GetLeaves())
}
