package router

import (
	"encoding/json"

	"github.com/brokenhouse/dronecore/controller"
	"github.com/brokenhouse/dronecore/core"
	"github.com/brokenhouse/dronecore/frontend"
)

// chatFromForwardable is the subset of front-end command kinds a
// chat-from delivery's embedded payload is allowed to carry.
var chatFromForwardable = map[frontend.CommandKind]bool{
	frontend.CommandUpdatePeerName:        true,
	frontend.CommandUpdatePeerLastSeen:    true,
	frontend.CommandUpdateMessageStatus:   true,
	frontend.CommandUpdateMessageReaction: true,
	frontend.CommandDeleteMessage:         true,
	frontend.CommandUpdateMessageContent:  true,
}

// handleInbound checks that a packet claiming to have reached this node
// actually names this node as its current hop with no hop left to
// travel, then dispatches by kind.
func (r *Router) handleInbound(pkt *core.Packet) {
	if pkt.Kind == core.KindFloodRequest {
		r.handleFloodRequest(pkt)
		return
	}

	cur, ok := pkt.Routing.Current()
	if !ok || cur != r.self {
		r.rejectUnexpectedRecipient(pkt)
		return
	}
	if next, ok := pkt.Routing.Next(); ok {
		r.rejectErrorInRouting(pkt, next)
		return
	}

	switch pkt.Kind {
	case core.KindFragment:
		r.deliverFragment(pkt)
	case core.KindAck:
		r.handleAck(pkt.Session, pkt.Ack.Index)
	case core.KindNack:
		r.handleNack(pkt.Session, pkt.Nack.Index, pkt.Nack.Reason)
	case core.KindFloodResponse:
		r.handleFloodResponse(pkt)
	}
}

// rejectUnexpectedRecipient handles a packet whose current hop doesn't
// name this node: a nack for fragments, a controller shortcut otherwise.
func (r *Router) rejectUnexpectedRecipient(pkt *core.Packet) {
	if pkt.Kind != core.KindFragment {
		r.controllerShortcut(pkt)
		return
	}
	nack := core.NewNackPacket(pkt.Routing.Reversed(), pkt.Session, pkt.Fragment.Index, core.NackReason{Kind: core.NackUnexpectedRecipient, Node: r.self})
	r.replyAlongReversed(nack)
}

// rejectErrorInRouting handles a packet that still has a next hop to
// travel: this node isn't the final destination and cannot forward it
// itself, so it is treated as a routing error naming the stranded next hop.
func (r *Router) rejectErrorInRouting(pkt *core.Packet, next core.NodeId) {
	if pkt.Kind != core.KindFragment {
		r.controllerShortcut(pkt)
		return
	}
	nack := core.NewNackPacket(pkt.Routing.Reversed(), pkt.Session, pkt.Fragment.Index, core.NackReason{Kind: core.NackErrorInRouting, Node: next})
	r.replyAlongReversed(nack)
}

// replyAlongReversed dispatches reply, whose routing header is some
// packet's Reversed() header (its current hop is the hop the original
// packet named as current: self for a routing error, the mismatched hop
// for an unexpected recipient). Advancing once moves the current hop to
// the hop before it on the original path, i.e. the neighbour that
// forwarded the original packet to us, which is both the dispatch
// target and the position that neighbour's own routing check expects.
func (r *Router) replyAlongReversed(reply *core.Packet) {
	routing := reply.Routing.Advance()
	firstHop, ok := routing.Current()
	if !ok {
		return
	}
	r.dispatch(reply.WithRouting(routing), firstHop, 0, false)
}

func (r *Router) controllerShortcut(pkt *core.Packet) {
	r.emitController(controller.Event{Kind: controller.EventControllerShortcut, Packet: pkt})
	controllerShortcutsTotal.WithLabelValues(pkt.Kind.String()).Inc()
}

// deliverFragment inserts pkt into the reassembly buffer, reconstructs
// the message once complete, and unconditionally acks the fragment back
// toward the hop that forwarded it.
func (r *Router) deliverFragment(pkt *core.Packet) {
	frag := *pkt.Fragment
	complete := r.reasm.Insert(pkt.Session, frag)
	if complete {
		slots, _ := r.reasm.Take(pkt.Session)
		if msg, err := core.FromFragments(slots); err == nil {
			origin, _ := pkt.Routing.First()
			r.handleDeliveredMessage(origin, msg)
		}
		// a malformed payload is silently discarded; the ack below still fires
	}

	ackRouting := pkt.Routing.Reversed().Advance()
	ack := core.NewAckPacket(ackRouting, pkt.Session, pkt.Fragment.Index)
	firstHop, ok := ackRouting.Current()
	if ok {
		r.dispatch(ack, firstHop, 0, false)
	}
}

// handleDeliveredMessage applies per-message-kind local delivery once a
// fragment set has been reassembled. server is the node that originated
// the message, recovered from the
// fragment's own routing header (its first hop) rather than from any
// session correlation: response sessions are numbered by the remote
// server's own counter, not ours, so they cannot be looked up in our
// pending-ack store.
func (r *Router) handleDeliveredMessage(server core.NodeId, msg core.Message) {
	switch msg.Kind {
	case core.MsgRespServerType:
		r.leafTypes.Set(server, msg.ServerType)
		if msg.ServerType == core.ServerTypeChat {
			r.drainQueue(server)
		}
	case core.MsgRespClientList:
		for _, peer := range msg.Peers {
			r.emitFrontend(frontend.UpdatePeerName(server, peer, nil))
		}
	case core.MsgRespChatFrom:
		r.forwardChatFrom(msg)
	default:
		// unknown/error variants ignored
	}
}

// forwardChatFrom parses the front-end command embedded in a chat-from
// delivery's payload and re-emits it verbatim, provided its kind is one
// a chat-from delivery is allowed to carry. A payload that fails to
// parse, or names a kind outside that subset, is dropped with a warning log.
func (r *Router) forwardChatFrom(msg core.Message) {
	var cmd frontend.Command
	if err := json.Unmarshal(msg.ChatFromPayload, &cmd); err != nil {
		r.log.Warn("chat-from payload did not decode as a front-end command", "error", err)
		return
	}
	if !chatFromForwardable[cmd.Kind] {
		r.log.Warn("chat-from payload named a non-forwardable command kind", "kind", cmd.Kind)
		return
	}
	r.emitFrontend(cmd)
}
