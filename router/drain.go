package router

import "github.com/brokenhouse/dronecore/core"

// drainQueue stamps a routing header from the current cached route onto
// each queued fragment for dest that doesn't already have one, looks up
// the first hop in the neighbour table, and dispatches. If no route is
// known the queue is left untouched.
func (r *Router) drainQueue(dest core.NodeId) {
	route, ok := r.cache.Get(dest)
	if !ok || route.Unknown {
		return
	}

	peer, hasPeer := r.sendQ.Peer(dest)

	r.sendQ.Drain(dest, func(pkt *core.Packet) bool {
		stamped := pkt
		if pkt.Routing.IsEmpty() {
			// hop index 1 designates self as the current holder (hops[0]);
			// advancing once lands on the immediate neighbour the packet is
			// about to be handed to, so that neighbour's own routing check
			// (current hop == its id) passes on arrival.
			stamped = pkt.WithRouting(core.NewRouting(route.Hops, 1).Advance())
		}
		firstHop, ok := stamped.Routing.Current()
		if !ok {
			return false
		}
		if _, linked := r.links.Get(firstHop); !linked {
			return false
		}
		r.dispatch(stamped, firstHop, peer, hasPeer)
		return true
	})
}
