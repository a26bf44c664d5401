// Package topology holds the overlay's directed graph of node ids and the
// per-destination path cache computed over it. No external graph library
// is pulled in: a minimal directed graph with insert/remove and BFS
// shortest path is small enough that stdlib expresses it cleanly.
package topology

import (
	"sync"

	"github.com/brokenhouse/dronecore/core"
)

// Graph is a directed, unit-weight graph of node ids.
type Graph struct {
	mu    sync.RWMutex
	edges map[core.NodeId]map[core.NodeId]struct{}
}

// NewGraph returns an empty graph containing only self.
func NewGraph(self core.NodeId) *Graph {
	g := &Graph{edges: make(map[core.NodeId]map[core.NodeId]struct{})}
	g.addNodeLocked(self)
	return g
}

func (g *Graph) addNodeLocked(n core.NodeId) {
	if _, ok := g.edges[n]; !ok {
		g.edges[n] = make(map[core.NodeId]struct{})
	}
}

// AddEdge inserts a directed edge from -> to, creating either endpoint if absent.
func (g *Graph) AddEdge(from, to core.NodeId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(from)
	g.addNodeLocked(to)
	g.edges[from][to] = struct{}{}
}

// AddUndirectedEdge inserts edges in both directions.
func (g *Graph) AddUndirectedEdge(a, b core.NodeId) {
	g.AddEdge(a, b)
	g.AddEdge(b, a)
}

// RemoveEdge deletes a single directed edge, if present.
func (g *Graph) RemoveEdge(from, to core.NodeId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if neighbours, ok := g.edges[from]; ok {
		delete(neighbours, to)
	}
}

// RemoveNode deletes a node and every edge touching it.
func (g *Graph) RemoveNode(n core.NodeId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, n)
	for _, neighbours := range g.edges {
		delete(neighbours, n)
	}
}

// HasNode reports whether n is present in the graph.
func (g *Graph) HasNode(n core.NodeId) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[n]
	return ok
}

// ShortestPath returns the hop list from `from` to `to` inclusive (unit
// edge weight, BFS, ties broken by the iteration order of a sorted
// neighbour scan so results are deterministic), or ok=false if no path exists.
func (g *Graph) ShortestPath(from, to core.NodeId) (path []core.NodeId, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if from == to {
		if _, exists := g.edges[from]; exists {
			return []core.NodeId{from}, true
		}
		return nil, false
	}
	if _, exists := g.edges[from]; !exists {
		return nil, false
	}

	prev := map[core.NodeId]core.NodeId{}
	visited := map[core.NodeId]bool{from: true}
	queue := []core.NodeId{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbours := sortedNeighbours(g.edges[cur])
		for _, next := range neighbours {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == to {
				return reconstructPath(prev, from, to), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func sortedNeighbours(m map[core.NodeId]struct{}) []core.NodeId {
	out := make([]core.NodeId, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	// simple insertion sort: neighbour sets are small (bounded by fan-out)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func reconstructPath(prev map[core.NodeId]core.NodeId, from, to core.NodeId) []core.NodeId {
	path := []core.NodeId{to}
	cur := to
	for cur != from {
		cur = prev[cur]
		path = append(path, cur)
	}
	// reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
