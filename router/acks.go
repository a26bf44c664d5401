package router

import (
	"github.com/brokenhouse/dronecore/core"
	"github.com/brokenhouse/dronecore/frontend"
)

// handleAck removes the fragment from the session's pending-ack entry;
// if the entry empties, drop the pending message and surface a delivery
// confirmation (and, for a chat registration, an additional
// "registered" update). The message is fetched before Ack runs: Ack
// drops the pending-message entry in the same call that reports the
// session emptied, so reading it after would always miss.
func (r *Router) handleAck(session core.Session, index core.FragmentIndex) {
	entry, existed := r.pending.Entry(session)
	msg, hasMsg := r.pending.Message(session)
	emptied, existed2 := r.pending.Ack(session, index)
	if !existed || !existed2 {
		return
	}
	if !emptied || !hasMsg {
		return
	}

	if entry.HasPeer {
		r.emitFrontend(frontend.UpdateMessageStatus(entry.Server, entry.Peer, uint64(session), frontend.StatusReceivedByServer))
	}
	if msg.Kind == core.MsgReqChatRegistration {
		registered := true
		reachable := true
		r.emitFrontend(frontend.UpdateChatRoom(entry.Server, &registered, &reachable))
	}
}

// handleNack handles a routing-error reason by blacklisting the faulted
// node and triggering a reachable sweep; every reason then requeues the
// affected fragment and retries.
func (r *Router) handleNack(session core.Session, index core.FragmentIndex, reason core.NackReason) {
	nacksReceivedTotal.WithLabelValues(reason.String()).Inc()
	if reason.Kind == core.NackErrorInRouting {
		r.graph.RemoveNode(reason.Node)
		lost := r.cache.ReachableSweep(r.graph)
		for range lost {
			r.initiateFlood()
		}
	}

	pkt, ok := r.pending.Take(session, index)
	if !ok {
		return
	}
	entry, _ := r.pending.Entry(session)

	retry := pkt.Clone()
	retry.Routing = core.EmptyRouting()
	r.sendQ.Enqueue(entry.Server, entry.Peer, entry.HasPeer, retry)
	r.drainQueue(entry.Server)
	r.initiateFlood()
}
