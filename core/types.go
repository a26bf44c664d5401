// Package core holds the wire-level data model shared by every layer of
// the drone overlay client: node identity, routing headers, packets, and
// application messages. Nothing in this package touches the network,
// goroutines, or the stores that sit above it.
package core

import "fmt"

// NodeId identifies any node in the overlay: a drone router, a client
// leaf, or a server leaf. Matches the coursework's small-integer node
// identity scheme.
type NodeId uint8

// Session is issued by this client and uniquely identifies either an
// outbound user message (and all of its fragments) or a flood epoch.
// Sessions are never reused.
type Session uint64

// FragmentIndex is the zero-based position of a fragment within its
// session. (Session, FragmentIndex) together identify a fragment globally.
type FragmentIndex uint64

// NodeKind classifies a node as seen in a flood path trace.
type NodeKind uint8

const (
	NodeDrone NodeKind = iota
	NodeClient
	NodeServer
)

func (k NodeKind) String() string {
	switch k {
	case NodeDrone:
		return "drone"
	case NodeClient:
		return "client"
	case NodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Routing is an ordered hop list plus a one-based index into it. Index 0
// means the header carries no usable routing information (empty route);
// index i (i>=1) points at hops[i-1] as the "current" hop.
type Routing struct {
	Hops []NodeId
	Idx  uint8 // one-based; 0 == empty
}

// EmptyRouting returns a Routing carrying no hops.
func EmptyRouting() Routing {
	return Routing{}
}

// NewRouting builds a Routing over hops starting at the given one-based index.
func NewRouting(hops []NodeId, idx uint8) Routing {
	return Routing{Hops: append([]NodeId(nil), hops...), Idx: idx}
}

// IsEmpty reports whether the routing header carries no hops.
func (r Routing) IsEmpty() bool {
	return r.Idx == 0 || len(r.Hops) == 0
}

// Current returns the hop the index currently points at.
func (r Routing) Current() (NodeId, bool) {
	if r.Idx == 0 || int(r.Idx) > len(r.Hops) {
		return 0, false
	}
	return r.Hops[r.Idx-1], true
}

// Next returns the hop immediately after the current one, if any.
func (r Routing) Next() (NodeId, bool) {
	if r.Idx == 0 || int(r.Idx) >= len(r.Hops) {
		return 0, false
	}
	return r.Hops[r.Idx], true
}

// Advance returns a copy of the routing header with the index moved
// forward by one hop.
func (r Routing) Advance() Routing {
	return Routing{Hops: r.Hops, Idx: r.Idx + 1}
}

// Reversed returns a copy of the routing header with the hop order
// reversed and the index repositioned at the mirrored offset, so that a
// reply can retrace the path already travelled.
func (r Routing) Reversed() Routing {
	n := len(r.Hops)
	rev := make([]NodeId, n)
	for i, h := range r.Hops {
		rev[n-1-i] = h
	}
	idx := r.Idx
	if idx > 0 && int(idx) <= n {
		idx = uint8(n) - idx + 1
	}
	return Routing{Hops: rev, Idx: idx}
}

// Last returns the final hop of the route (the destination), if any.
func (r Routing) Last() (NodeId, bool) {
	if len(r.Hops) == 0 {
		return 0, false
	}
	return r.Hops[len(r.Hops)-1], true
}

// First returns the first hop of the route (the originator), if any.
func (r Routing) First() (NodeId, bool) {
	if len(r.Hops) == 0 {
		return 0, false
	}
	return r.Hops[0], true
}

func (r Routing) String() string {
	return fmt.Sprintf("Routing{hops=%v, idx=%d}", r.Hops, r.Idx)
}
