// Package queue holds the per-destination send queue: a backlog of
// fragment packets waiting on a route to drain toward. Grounded on the
// teacher's device/router send-queue idiom (github.com/kabili207/meshcore-go):
// a small map-of-slices guarded by a mutex, with an explicit drain
// operation rather than a background goroutine per destination.
package queue

import (
	"sync"

	"github.com/brokenhouse/dronecore/core"
)

// entry is one destination's backlog: an optional chat peer id carried
// for bookkeeping (surfaced on delivery confirmation) and the ordered
// fragment packets still waiting to go out.
type entry struct {
	peer    core.NodeId
	hasPeer bool
	packets []*core.Packet
}

// Queue holds one backlog per destination NodeId. Only fragment packets
// are ever queued.
type Queue struct {
	mu      sync.Mutex
	entries map[core.NodeId]*entry
}

// New returns an empty send queue.
func New() *Queue {
	return &Queue{entries: make(map[core.NodeId]*entry)}
}

// Enqueue appends a fragment packet to dest's backlog, in order. hasPeer
// distinguishes "no peer" from NodeId zero being a real peer.
func (q *Queue) Enqueue(dest core.NodeId, peer core.NodeId, hasPeer bool, pkt *core.Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[dest]
	if !ok {
		e = &entry{}
		q.entries[dest] = e
	}
	if hasPeer {
		e.peer, e.hasPeer = peer, true
	}
	e.packets = append(e.packets, pkt)
}

// Peer returns the chat peer id associated with dest's backlog, if any.
func (q *Queue) Peer(dest core.NodeId) (core.NodeId, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[dest]
	if !ok {
		return 0, false
	}
	return e.peer, e.hasPeer
}

// Len reports how many fragments are still queued for dest.
func (q *Queue) Len(dest core.NodeId) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[dest]; ok {
		return len(e.packets)
	}
	return 0
}

// Destinations lists every destination currently holding a non-empty backlog.
func (q *Queue) Destinations() []core.NodeId {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []core.NodeId
	for d, e := range q.entries {
		if len(e.packets) > 0 {
			out = append(out, d)
		}
	}
	return out
}

// DrainFunc is invoked once per queued fragment, in order, with the
// packet it should stamp and dispatch. It returns true if the packet was
// handed off successfully (removing it from the backlog) or false if it
// must stay queued (stopping the drain for this destination: a route
// that vanishes partway through a drain leaves the remaining fragments
// in order rather than reordering around the gap).
type DrainFunc func(pkt *core.Packet) bool

// Drain walks dest's backlog in order, calling fn for each packet and
// removing those it accepts. Draining stops at the first rejection so
// ordering within the session is preserved.
func (q *Queue) Drain(dest core.NodeId, fn DrainFunc) {
	q.mu.Lock()
	e, ok := q.entries[dest]
	if !ok || len(e.packets) == 0 {
		q.mu.Unlock()
		return
	}
	pending := e.packets
	q.mu.Unlock()

	accepted := 0
	for _, pkt := range pending {
		if !fn(pkt) {
			break
		}
		accepted++
	}
	if accepted == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[dest]; ok {
		if accepted >= len(e.packets) {
			e.packets = nil
		} else {
			e.packets = e.packets[accepted:]
		}
	}
}
