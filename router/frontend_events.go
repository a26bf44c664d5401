package router

import (
	"github.com/brokenhouse/dronecore/controller"
	"github.com/brokenhouse/dronecore/core"
	"github.com/brokenhouse/dronecore/frontend"
)

// handleFrontendEvent dispatches one inbound TUI event to the
// appropriate user-message acceptance call.
func (r *Router) handleFrontendEvent(ev frontend.Event) {
	switch ev.Kind {
	case frontend.EventSendMessage:
		r.chatPeers[ev.Server] = ev.Peer
		r.sendUserMessage(ev.Server, ev.Peer, true, core.Message{
			Kind: core.MsgReqChatSend, ChatPeer: ev.Peer, ChatMsgID: ev.MsgID, ChatContent: ev.Content,
		})
	case frontend.EventRegisterToServer:
		r.sendUserMessage(ev.Server, 0, false, core.Message{Kind: core.MsgReqChatRegistration})
	case frontend.EventRequestRoomList:
		r.sendUserMessage(ev.Server, 0, false, core.Message{Kind: core.MsgReqClientList})
	case frontend.EventKill:
		r.handleCommand(controller.Kill())
	default:
		// set-name/read/delete/react events have no wire representation:
		// the message model carries only server-type, client-list,
		// registration, chat-send, and chat-from variants. They mutate
		// only front-end-facing UI state, which the front-end itself owns.
	}
}

// sendUserMessage fragments the message, appends every fragment to the
// destination's send queue, and either drains immediately (route known)
// or initiates a flood and lets the fragments wait.
func (r *Router) sendUserMessage(dest core.NodeId, peer core.NodeId, hasPeer bool, msg core.Message) {
	session := r.nextSession()
	r.pending.SetMessage(session, msg)

	for _, frag := range msg.ToFragments() {
		pkt := core.NewFragmentPacket(core.EmptyRouting(), session, frag)
		r.sendQ.Enqueue(dest, peer, hasPeer, pkt)
	}

	route, ok := r.cache.Get(dest)
	if ok && !route.Unknown {
		r.drainQueue(dest)
		return
	}
	r.initiateFlood()
}
