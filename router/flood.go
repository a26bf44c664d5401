package router

import (
	"github.com/brokenhouse/dronecore/core"
	"github.com/brokenhouse/dronecore/frontend"
)

// initiateFlood emits one flood-request packet per neighbour, all
// sharing a freshly minted session id as the flood epoch, throttled by
// the configured rate limit so a burst of route losses doesn't turn
// into a flood storm. A flood request that arrives while the limiter is
// empty is deferred, not dropped: it sets floodPending, which the
// router's tick loop retries until a flood actually goes out.
func (r *Router) initiateFlood() {
	if !r.allowFlood() {
		r.floodPending = true
		return
	}
	r.floodPending = false
	floodID := r.nextSession()
	r.currentFloodEpoch = floodID
	floodsInitiatedTotal.Inc()

	for _, neighbour := range r.links.Neighbours() {
		pkt := core.NewFloodRequestPacket(floodID, r.self)
		r.dispatch(pkt, neighbour, 0, false)
	}
}

// retryPendingFlood reattempts a flood deferred by the rate limiter.
func (r *Router) retryPendingFlood() {
	if !r.floodPending {
		return
	}
	r.initiateFlood()
}

// handleFloodRequest answers a flood request by appending itself to the
// trace and routing a flood-response packet back along the reversed path.
func (r *Router) handleFloodRequest(pkt *core.Packet) {
	req := pkt.FloodRequest
	trace := append(append([]core.TraceEntry(nil), req.Trace...), core.TraceEntry{Node: r.self, Kind: core.NodeClient})

	reversedHops := make([]core.NodeId, len(trace))
	for i, e := range trace {
		reversedHops[len(trace)-1-i] = e.Node
	}
	// index 1 designates self (the responder, reversedHops[0]) as the
	// current holder; advance once to address the neighbour that relayed
	// the request, matching drainQueue's stamping convention.
	routing := core.NewRouting(reversedHops, 1).Advance()

	resp := &core.Packet{
		Routing:       routing,
		Session:       req.FloodID,
		Kind:          core.KindFloodResponse,
		FloodResponse: &core.FloodResponse{FloodID: req.FloodID, Trace: trace},
	}

	firstHop, ok := routing.Current()
	if !ok {
		return
	}
	r.dispatch(resp, firstHop, 0, false)
}

// handleFloodResponse discards responses for a stale flood epoch and
// otherwise incorporates the trace into the topology and path cache
// according to the kind of the last hop.
func (r *Router) handleFloodResponse(pkt *core.Packet) {
	resp := pkt.FloodResponse
	if resp.FloodID != r.currentFloodEpoch {
		floodResponsesDiscardedTotal.Inc()
		return
	}
	trace := resp.Trace
	if len(trace) == 0 || trace[0].Node != r.self {
		return
	}

	for i := 0; i+1 < len(trace); i++ {
		if trace[i+1].Kind == core.NodeDrone {
			r.graph.AddUndirectedEdge(trace[i].Node, trace[i+1].Node)
		} else if trace[i+1].Kind == core.NodeServer {
			r.graph.AddEdge(trace[i].Node, trace[i+1].Node)
		}
	}

	last := trace[len(trace)-1]
	switch last.Kind {
	case core.NodeDrone:
		// intermediate edges already installed above; nothing terminal to record
	case core.NodeServer:
		hops := make([]core.NodeId, len(trace))
		for i, e := range trace {
			hops[i] = e.Node
		}
		r.leafTypes.Observe(last.Node)
		gained := r.cache.UnreachableSweep(r.graph)
		r.cache.Set(last.Node, hops)
		r.emitFrontend(frontend.UpdateChatRoom(last.Node, nil, boolPtr(true)))
		r.queryServerType(last.Node)
		r.drainQueue(last.Node)
		for _, dest := range gained {
			r.drainQueue(dest)
		}
	case core.NodeClient:
		// another client as trace terminal: ignored per the resolved open question
	}
}

func boolPtr(b bool) *bool { return &b }

// queryServerType fragments and enqueues a server-type query for server,
// draining immediately since the path was just installed.
func (r *Router) queryServerType(server core.NodeId) {
	r.sendUserMessage(server, 0, false, core.Message{Kind: core.MsgReqServerType})
}
