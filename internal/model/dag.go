package model

// Graph is a directed graph over dense integer node indices, used both for
// run_after cycle detection (§4.3) and for the scheduler's conflict graph
// (§4.5). Edges point from a node to its successors: edge u -> v means u
// must be ordered strictly before v.
type Graph struct {
	edges [][]int
}

// NewGraph creates an empty graph over n nodes (0..n-1).
func NewGraph(n int) *Graph {
	return &Graph{edges: make([][]int, n)}
}

// AddEdge adds a directed edge u -> v if it does not already exist.
func (g *Graph) AddEdge(u, v int) {
	for _, w := range g.edges[u] {
		if w == v {
			return
		}
	}
	g.edges[u] = append(g.edges[u], v)
}

// Successors returns the out-edges of u.
func (g *Graph) Successors(u int) []int {
	return g.edges[u]
}

// Cycle runs a DFS over the graph and returns the first cycle found as a
// sequence of node indices (v0 -> v1 -> ... -> v0), or nil if the graph is
// acyclic.
func (g *Graph) Cycle() []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.edges))
	parent := make([]int, len(g.edges))
	for i := range parent {
		parent[i] = -1
	}

	var cyclePath []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.edges[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Found a back-edge u -> v; reconstruct the cycle by
				// walking parents from u back to v.
				path := []int{v}
				for n := u; n != v; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, v)
				// path is in reverse discovery order; flip it.
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				cyclePath = path
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.edges {
		if color[i] == white {
			if dfs(i) {
				return cyclePath
			}
		}
	}
	return nil
}

// LongestPathDepths computes, for each node, the number of edges on the
// longest path from any source (in-degree 0 among the reachable set) to that
// node. The graph must be acyclic (callers check Cycle() first). Used by the
// Phase Scheduler (§4.5) to assign group indices: Gi = { S : depth(S) = i }.
//
// Edge u -> v means u must precede v, so depth(v) = 1 + max(depth(u)) over
// every direct predecessor u, computed via Kahn's algorithm so every
// predecessor is resolved before its successors are visited.
func (g *Graph) LongestPathDepths() []int {
	n := len(g.edges)
	indegree := make([]int, n)
	for _, succs := range g.edges {
		for _, v := range succs {
			indegree[v]++
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	depth := make([]int, n)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.edges[u] {
			if d := depth[u] + 1; d > depth[v] {
				depth[v] = d
			}
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	return depth
}
