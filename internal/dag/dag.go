// Package dag provides directed graph operations for lineage diagrams:
// cycle detection, cycle-tolerant layering, roots and leaves, and
// upstream/downstream traversal.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph of string ids where an edge parent -> child
// means the child derives from the parent. Cycles are tolerated; operations
// that need an order say how they treat them.
type Graph struct {
	nodes   map[string]struct{}
	order   []string            // insertion order
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]struct{}),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// GetRoots returns the nodes nothing flows into, in insertion order.
func (g *Graph) GetRoots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// GetLeaves returns the nodes nothing derives from, in insertion order.
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// Layers assigns every node a non-negative layer using Kahn's algorithm.
// Nodes without parents sit at layer 0 and every other node sits one layer
// past its deepest parent. Nodes that never reach in-degree zero (members of
// a cycle and anything downstream of one) are placed, in insertion order, one
// layer past the running maximum.
func (g *Graph) Layers() map[string]int {
	inDegree := make(map[string]int, len(g.nodes))
	depth := make(map[string]int, len(g.nodes))
	layer := make(map[string]int, len(g.nodes))

	var queue []string
	for _, id := range g.order {
		inDegree[id] = len(g.parents[id])
		if inDegree[id] == 0 {
			layer[id] = 0
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, childID := range g.edges[id] {
			if d := layer[id] + 1; d > depth[childID] {
				depth[childID] = d
			}
			inDegree[childID]--
			if inDegree[childID] == 0 {
				layer[childID] = depth[childID]
				queue = append(queue, childID)
			}
		}
	}

	maxLayer := -1
	for _, l := range layer {
		if l > maxLayer {
			maxLayer = l
		}
	}
	for _, id := range g.order {
		if _, ok := layer[id]; !ok {
			maxLayer++
			layer[id] = maxLayer
		}
	}

	return layer
}

// Levels groups node IDs by layer, each level in insertion order.
func (g *Graph) Levels() [][]string {
	layers := g.Layers()

	maxLayer := -1
	for _, l := range layers {
		if l > maxLayer {
			maxLayer = l
		}
	}

	levels := make([][]string, maxLayer+1)
	for _, id := range g.order {
		l := layers[id]
		levels[l] = append(levels[l], id)
	}
	return levels
}

// GetDownstreamNodes returns all nodes that derive, directly or
// transitively, from the given nodes. The given nodes are not included
// unless they sit on a cycle.
func (g *Graph) GetDownstreamNodes(ids ...string) []string {
	return g.walk(ids, g.edges)
}

// GetUpstreamNodes returns all nodes the given nodes derive from, directly
// or transitively.
func (g *Graph) GetUpstreamNodes(ids ...string) []string {
	return g.walk(ids, g.parents)
}

func (g *Graph) walk(start []string, next map[string][]string) []string {
	seen := make(map[string]bool)
	stack := make([]string, 0, len(start))
	for _, id := range start {
		if _, exists := g.nodes[id]; exists {
			stack = append(stack, id)
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range next[id] {
			if !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
