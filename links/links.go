// Package links holds the neighbour link table: a mapping from immediate
// neighbour NodeId to an outbound packet channel. Grounded on the
// teacher's transport/interfaces.go and core/contact.ContactManager
// (github.com/kabili207/meshcore-go): a mutex-guarded store whose
// add/remove also drive topology edge changes and the path-cache sweeps.
package links

import (
	"log/slog"
	"sync"

	"github.com/brokenhouse/dronecore/core"
	"github.com/brokenhouse/dronecore/topology"
)

// Table is the neighbour link table. It owns no packet dispatch logic
// itself (that belongs to the router); it only tracks which neighbours
// are currently reachable and keeps the topology graph and path cache in
// sync with link changes.
type Table struct {
	self core.NodeId
	log  *slog.Logger

	mu    sync.RWMutex
	links map[core.NodeId]chan<- *core.Packet
}

// New returns an empty neighbour link table for the given self node id.
func New(self core.NodeId, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{self: self, log: logger.WithGroup("links"), links: make(map[core.NodeId]chan<- *core.Packet)}
}

// Add records a direct neighbour link, inserts the self<->neighbour
// edge in g, and runs the unreachable sweep over c, returning the
// destinations that gained a route as a result (callers drain those
// send queues).
func (t *Table) Add(neighbour core.NodeId, ch chan<- *core.Packet, g *topology.Graph, c *topology.Cache) []core.NodeId {
	t.mu.Lock()
	t.links[neighbour] = ch
	t.mu.Unlock()

	g.AddUndirectedEdge(t.self, neighbour)
	t.log.Info("neighbour link added", "neighbour", neighbour)
	return c.UnreachableSweep(g)
}

// Remove drops a direct neighbour link, removes the self<->neighbour
// edge from g, and runs the reachable sweep over c, returning the
// destinations that lost their route (callers initiate a fresh flood
// for each).
func (t *Table) Remove(neighbour core.NodeId, g *topology.Graph, c *topology.Cache) []core.NodeId {
	t.mu.Lock()
	delete(t.links, neighbour)
	t.mu.Unlock()

	g.RemoveEdge(t.self, neighbour)
	g.RemoveEdge(neighbour, t.self)
	t.log.Info("neighbour link removed", "neighbour", neighbour)
	return c.ReachableSweep(g)
}

// Get returns the outbound channel for neighbour, if a link exists.
func (t *Table) Get(neighbour core.NodeId) (chan<- *core.Packet, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ch, ok := t.links[neighbour]
	return ch, ok
}

// Neighbours lists every currently linked neighbour.
func (t *Table) Neighbours() []core.NodeId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.NodeId, 0, len(t.links))
	for n := range t.links {
		out = append(out, n)
	}
	return out
}
