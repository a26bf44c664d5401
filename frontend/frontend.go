// Package frontend defines the control-channel protocol between the
// router core and the terminal UI adapter: inbound events the TUI
// raises, outbound commands the core raises, and a length-prefixed JSON
// framing for both. Grounded exactly on original_source/client_lib's
// communication.rs (send_message/receive_message: 4-byte big-endian
// length prefix + JSON payload) and its TUIEvent/TUICommand enums,
// narrowed per the rendering non-goal: MessageContent carries only text,
// the Drawing/canvas variant is dropped.
package frontend

import "github.com/brokenhouse/dronecore/core"

// Reaction mirrors the small fixed set of message reactions the TUI supports.
type Reaction int

const (
	ReactionLike Reaction = iota
	ReactionHeart
	ReactionSkull
	ReactionCrying
	ReactionStar
)

// MessageStatus tracks a sent message's lifecycle as observed by this client.
type MessageStatus int

const (
	StatusSentToServer MessageStatus = iota
	StatusReceivedByServer
	StatusReceivedByPeer
	StatusReadByPeer
	StatusMessageFromPeer
)

// EventKind discriminates inbound TUI events.
type EventKind string

const (
	EventSendMessage     EventKind = "send_message"
	EventReadMessage     EventKind = "read_message"
	EventDeleteMessage   EventKind = "delete_message"
	EventReactToMessage  EventKind = "react_to_message"
	EventSetName         EventKind = "set_name"
	EventRegisterToServer EventKind = "register_to_server"
	EventRequestRoomList EventKind = "request_room_list"
	EventKill            EventKind = "kill"
)

// Event is one inbound message from the TUI.
type Event struct {
	Kind     EventKind   `json:"kind"`
	Server   core.NodeId `json:"server,omitempty"`
	Peer     core.NodeId `json:"peer,omitempty"`
	MsgID    uint64      `json:"msg_id,omitempty"`
	Content  string      `json:"content,omitempty"`
	Reaction Reaction    `json:"reaction,omitempty"`
	Name     string      `json:"name,omitempty"`
}

// CommandKind discriminates outbound TUI commands.
type CommandKind string

const (
	CommandUpdateName            CommandKind = "update_name"
	CommandUpdateChatRoom        CommandKind = "update_chat_room"
	CommandUpdatePeerName        CommandKind = "update_peer_name"
	CommandUpdatePeerLastSeen    CommandKind = "update_peer_last_seen"
	CommandUpdatePeerStatus      CommandKind = "update_peer_status"
	CommandUpdateMessageContent  CommandKind = "update_message_content"
	CommandUpdateMessageStatus   CommandKind = "update_message_status"
	CommandUpdateMessageReaction CommandKind = "update_message_reaction"
	CommandDeleteMessage         CommandKind = "delete_message"
	CommandKill                  CommandKind = "kill"
)

// Command is one outbound message to the TUI.
type Command struct {
	Kind       CommandKind    `json:"kind"`
	Server     core.NodeId    `json:"server,omitempty"`
	Peer       core.NodeId    `json:"peer,omitempty"`
	MsgID      uint64         `json:"msg_id,omitempty"`
	Name       *string        `json:"name,omitempty"`
	Registered *bool          `json:"registered,omitempty"`
	Reachable  *bool          `json:"reachable,omitempty"`
	Online     bool           `json:"online,omitempty"`
	Content    string         `json:"content,omitempty"`
	Status     MessageStatus  `json:"status,omitempty"`
	Reaction   *Reaction      `json:"reaction,omitempty"`
}

// UpdateChatRoom builds a command reporting server registration/reachability.
func UpdateChatRoom(server core.NodeId, registered, reachable *bool) Command {
	return Command{Kind: CommandUpdateChatRoom, Server: server, Registered: registered, Reachable: reachable}
}

// UpdatePeerName builds a command reporting a peer's display name.
func UpdatePeerName(server, peer core.NodeId, name *string) Command {
	return Command{Kind: CommandUpdatePeerName, Server: server, Peer: peer, Name: name}
}

// UpdateMessageStatus builds a command reporting a message status transition.
func UpdateMessageStatus(server, peer core.NodeId, msgID uint64, status MessageStatus) Command {
	return Command{Kind: CommandUpdateMessageStatus, Server: server, Peer: peer, MsgID: msgID, Status: status}
}

// UpdateMessageContent builds a command delivering received chat content.
func UpdateMessageContent(server, peer core.NodeId, msgID uint64, content string) Command {
	return Command{Kind: CommandUpdateMessageContent, Server: server, Peer: peer, MsgID: msgID, Content: content}
}

// KillCommand builds the shutdown notification sent to the TUI.
func KillCommand() Command {
	return Command{Kind: CommandKill}
}
