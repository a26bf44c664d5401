package router

import (
	"github.com/brokenhouse/dronecore/controller"
	"github.com/brokenhouse/dronecore/core"
)

// dispatch is the single outbound primitive: attempt to hand pkt to
// neighbour, falling back to onSendFailed when the send cannot complete.
// peer/hasPeer carry chat-peer bookkeeping through to the pending-ack
// store for fragment packets.
func (r *Router) dispatch(pkt *core.Packet, neighbour core.NodeId, peer core.NodeId, hasPeer bool) {
	ch, ok := r.links.Get(neighbour)
	if !ok {
		r.onSendFailed(pkt, peer, hasPeer)
		return
	}

	select {
	case ch <- pkt:
		r.emitController(controller.Event{Kind: controller.EventPacketSent, Packet: pkt})
		packetsSentTotal.WithLabelValues(pkt.Kind.String()).Inc()
		if pkt.Kind == core.KindFragment {
			dest, ok := pkt.Routing.Last()
			if !ok {
				dest = neighbour
			}
			r.pending.Register(pkt.Session, dest, peer, hasPeer, pkt)
		}
	default:
		r.onSendFailed(pkt, peer, hasPeer)
	}
}

// onSendFailed handles a packet that could not be handed to its
// neighbour: fragments go back on the send queue for a later retry,
// flood requests are dropped, everything else is reported upward.
func (r *Router) onSendFailed(pkt *core.Packet, peer core.NodeId, hasPeer bool) {
	switch pkt.Kind {
	case core.KindFragment:
		dest, ok := pkt.Routing.Last()
		if !ok {
			dest, _ = pkt.Routing.First()
		}
		r.sendQ.Enqueue(dest, peer, hasPeer, pkt)
	case core.KindFloodRequest:
		// dropped silently; a fresh flood will follow soon
	default:
		r.emitController(controller.Event{Kind: controller.EventControllerShortcut, Packet: pkt})
	}
}
