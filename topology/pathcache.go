package topology

import (
	"log/slog"
	"sync"

	"github.com/brokenhouse/dronecore/core"
)

// Route is the path cache's answer for a destination: either a concrete,
// self-rooted hop list, or "unknown" (no route known right now).
type Route struct {
	Hops    []core.NodeId
	Unknown bool
}

// Cache maps each destination leaf ever discovered to its current best
// route. Every destination ever learned keeps an entry (possibly
// Unknown) for the cache's lifetime; it is never removed outright.
type Cache struct {
	self core.NodeId
	log  *slog.Logger

	mu     sync.RWMutex
	routes map[core.NodeId]Route
}

// NewCache returns an empty path cache for the given self node id.
func NewCache(self core.NodeId, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{self: self, log: logger.WithGroup("pathcache"), routes: make(map[core.NodeId]Route)}
}

// ErrRouteMustStartAtSelf names the condition under which Set rejects a
// path (its first hop is not this node). Set reports that rejection as a
// false return value, not as this error.
var ErrRouteMustStartAtSelf = errNotSelfRooted{}

type errNotSelfRooted struct{}

func (errNotSelfRooted) Error() string { return "route does not start at self" }

// Set installs a concrete route for destination. The route must start at
// self; violating that is a programming error in the caller (the router
// never attempts it), so Set reports it via a boolean rather than
// panicking, keeping the store itself simple to reason about.
func (c *Cache) Set(dest core.NodeId, hops []core.NodeId) bool {
	if len(hops) == 0 || hops[0] != c.self {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[dest] = Route{Hops: append([]core.NodeId(nil), hops...)}
	return true
}

// MarkUnknown records dest as currently unreachable, without forgetting
// that it was ever learned (an entry still exists).
func (c *Cache) MarkUnknown(dest core.NodeId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[dest] = Route{Unknown: true}
}

// Get returns the cached route for dest and whether an entry exists at all.
func (c *Cache) Get(dest core.NodeId) (Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.routes[dest]
	return r, ok
}

// Destinations returns every destination that has ever been learned,
// known or not, in a stable (sorted) order.
func (c *Cache) Destinations() []core.NodeId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.NodeId, 0, len(c.routes))
	for d := range c.routes {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// KnownDestinations returns the destinations currently holding a concrete route.
func (c *Cache) KnownDestinations() []core.NodeId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []core.NodeId
	for d, r := range c.routes {
		if !r.Unknown {
			out = append(out, d)
		}
	}
	return out
}

// UnknownDestinations returns the destinations currently marked unknown.
func (c *Cache) UnknownDestinations() []core.NodeId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []core.NodeId
	for d, r := range c.routes {
		if r.Unknown {
			out = append(out, d)
		}
	}
	return out
}

// ReachableSweep recomputes every destination that currently holds a
// concrete route against g, replacing it if changed or marking it
// unknown if no path exists any more. Returns the destinations that
// transitioned from known to unknown (callers use this to decide which
// destinations need a fresh flood).
func (c *Cache) ReachableSweep(g *Graph) []core.NodeId {
	var lostRoute []core.NodeId

	for _, dest := range c.KnownDestinations() {
		hops, ok := g.ShortestPath(c.self, dest)
		c.mu.Lock()
		if ok {
			c.routes[dest] = Route{Hops: hops}
		} else {
			c.routes[dest] = Route{Unknown: true}
			lostRoute = append(lostRoute, dest)
		}
		c.mu.Unlock()
	}
	return lostRoute
}

// UnreachableSweep attempts to find a path for every destination
// currently marked unknown, installing it if found. Returns the
// destinations that transitioned from unknown to known (callers use this
// to decide which send queues to drain).
func (c *Cache) UnreachableSweep(g *Graph) []core.NodeId {
	var gained []core.NodeId

	for _, dest := range c.UnknownDestinations() {
		hops, ok := g.ShortestPath(c.self, dest)
		if ok {
			c.mu.Lock()
			c.routes[dest] = Route{Hops: hops}
			c.mu.Unlock()
			gained = append(gained, dest)
		}
	}
	return gained
}
