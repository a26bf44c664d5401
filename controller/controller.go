// Package controller defines the supervisory controller channel: the
// event types the router core publishes on every dispatch attempt, and
// the command types the supervisor uses to add/remove neighbour links or
// request shutdown.
package controller

import "github.com/brokenhouse/dronecore/core"

// EventKind discriminates the events the router publishes.
type EventKind int

const (
	// EventPacketSent fires for every packet successfully handed to a neighbour.
	EventPacketSent EventKind = iota
	// EventControllerShortcut fires when a packet could not be delivered
	// over the overlay and the supervisor is asked to deliver it out-of-band.
	EventControllerShortcut
)

func (k EventKind) String() string {
	switch k {
	case EventPacketSent:
		return "packet-sent"
	case EventControllerShortcut:
		return "controller-shortcut"
	default:
		return "unknown"
	}
}

// Event is one observation the router publishes to the supervisor.
type Event struct {
	Kind   EventKind
	Packet *core.Packet
}

// CommandKind discriminates supervisory commands.
type CommandKind int

const (
	CommandAddSender CommandKind = iota
	CommandRemoveSender
	CommandKill
)

func (k CommandKind) String() string {
	switch k {
	case CommandAddSender:
		return "add-sender"
	case CommandRemoveSender:
		return "remove-sender"
	case CommandKill:
		return "kill"
	default:
		return "unknown"
	}
}

// Command is one instruction the supervisor issues to the router.
type Command struct {
	Kind    CommandKind
	Node    core.NodeId
	Channel chan *core.Packet // only set for CommandAddSender
}

// AddSender builds an AddSender command.
func AddSender(node core.NodeId, ch chan *core.Packet) Command {
	return Command{Kind: CommandAddSender, Node: node, Channel: ch}
}

// RemoveSender builds a RemoveSender command.
func RemoveSender(node core.NodeId) Command {
	return Command{Kind: CommandRemoveSender, Node: node}
}

// Kill builds a Kill command.
func Kill() Command {
	return Command{Kind: CommandKill}
}
