package core

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ServerType classifies the service a server leaf offers, learned via a
// ReqServerType/RespServerType round trip.
type ServerType uint8

const (
	ServerTypeChat ServerType = iota
	ServerTypeText
	ServerTypeMedia
)

func (t ServerType) String() string {
	switch t {
	case ServerTypeChat:
		return "chat"
	case ServerTypeText:
		return "text"
	case ServerTypeMedia:
		return "media"
	default:
		return "unknown"
	}
}

// MessageKind discriminates the application-level Message variants.
type MessageKind uint8

const (
	MsgReqServerType MessageKind = iota
	MsgRespServerType
	MsgReqClientList
	MsgRespClientList
	MsgReqChatRegistration
	MsgReqChatSend
	MsgRespChatFrom
	MsgErrUnsupportedRequestType
	MsgErrNotExistentClient
)

func (k MessageKind) String() string {
	names := [...]string{
		"req_server_type", "resp_server_type", "req_client_list", "resp_client_list",
		"req_chat_registration", "req_chat_send", "resp_chat_from",
		"err_unsupported_request_type", "err_not_existent_client",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// ErrMalformedMessage is returned when a fully-reassembled fragment stream
// cannot be decoded into a valid Message. Per spec, the caller still acks
// the fragments; the message itself is silently discarded.
var ErrMalformedMessage = errors.New("malformed message payload")

// Message is the application-level record carried end to end between
// leaves, fragmented for transport and reassembled on arrival.
type Message struct {
	Kind MessageKind

	// RespServerType
	ServerType ServerType

	// RespClientList
	Peers []NodeId

	// ReqChatSend / RespChatFrom
	ChatPeer    NodeId
	ChatMsgID   uint64
	ChatContent string

	// RespChatFrom: the embedded front-end command, forwarded verbatim.
	ChatFromPayload []byte
}

// Encode serializes the message to a flat byte slice: a one-byte kind tag
// followed by kind-specific fields.
func (m Message) Encode() []byte {
	switch m.Kind {
	case MsgReqServerType, MsgReqChatRegistration, MsgErrUnsupportedRequestType, MsgErrNotExistentClient:
		return []byte{byte(m.Kind)}

	case MsgRespServerType:
		return []byte{byte(m.Kind), byte(m.ServerType)}

	case MsgReqClientList:
		return []byte{byte(m.Kind)}

	case MsgRespClientList:
		buf := make([]byte, 1+2+len(m.Peers))
		buf[0] = byte(m.Kind)
		binary.BigEndian.PutUint16(buf[1:3], uint16(len(m.Peers)))
		for i, p := range m.Peers {
			buf[3+i] = byte(p)
		}
		return buf

	case MsgReqChatSend:
		content := []byte(m.ChatContent)
		buf := make([]byte, 1+1+8+2+len(content))
		off := 0
		buf[off] = byte(m.Kind)
		off++
		buf[off] = byte(m.ChatPeer)
		off++
		binary.BigEndian.PutUint64(buf[off:], m.ChatMsgID)
		off += 8
		binary.BigEndian.PutUint16(buf[off:], uint16(len(content)))
		off += 2
		copy(buf[off:], content)
		return buf

	case MsgRespChatFrom:
		buf := make([]byte, 1+1+2+len(m.ChatFromPayload))
		off := 0
		buf[off] = byte(m.Kind)
		off++
		buf[off] = byte(m.ChatPeer)
		off++
		binary.BigEndian.PutUint16(buf[off:], uint16(len(m.ChatFromPayload)))
		off += 2
		copy(buf[off:], m.ChatFromPayload)
		return buf

	default:
		return []byte{byte(m.Kind)}
	}
}

// DecodeMessage parses a flat byte slice produced by Encode back into a Message.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) < 1 {
		return Message{}, fmt.Errorf("%w: empty payload", ErrMalformedMessage)
	}
	kind := MessageKind(data[0])
	body := data[1:]

	switch kind {
	case MsgReqServerType, MsgReqClientList, MsgReqChatRegistration,
		MsgErrUnsupportedRequestType, MsgErrNotExistentClient:
		return Message{Kind: kind}, nil

	case MsgRespServerType:
		if len(body) < 1 {
			return Message{}, fmt.Errorf("%w: RespServerType truncated", ErrMalformedMessage)
		}
		return Message{Kind: kind, ServerType: ServerType(body[0])}, nil

	case MsgRespClientList:
		if len(body) < 2 {
			return Message{}, fmt.Errorf("%w: RespClientList truncated", ErrMalformedMessage)
		}
		n := int(binary.BigEndian.Uint16(body[:2]))
		body = body[2:]
		if len(body) < n {
			return Message{}, fmt.Errorf("%w: RespClientList peer list truncated", ErrMalformedMessage)
		}
		peers := make([]NodeId, n)
		for i := 0; i < n; i++ {
			peers[i] = NodeId(body[i])
		}
		return Message{Kind: kind, Peers: peers}, nil

	case MsgReqChatSend:
		if len(body) < 1+8+2 {
			return Message{}, fmt.Errorf("%w: ReqChatSend truncated", ErrMalformedMessage)
		}
		peer := NodeId(body[0])
		msgID := binary.BigEndian.Uint64(body[1:9])
		contentLen := int(binary.BigEndian.Uint16(body[9:11]))
		rest := body[11:]
		if len(rest) < contentLen {
			return Message{}, fmt.Errorf("%w: ReqChatSend content truncated", ErrMalformedMessage)
		}
		return Message{Kind: kind, ChatPeer: peer, ChatMsgID: msgID, ChatContent: string(rest[:contentLen])}, nil

	case MsgRespChatFrom:
		if len(body) < 1+2 {
			return Message{}, fmt.Errorf("%w: RespChatFrom truncated", ErrMalformedMessage)
		}
		peer := NodeId(body[0])
		payloadLen := int(binary.BigEndian.Uint16(body[1:3]))
		rest := body[3:]
		if len(rest) < payloadLen {
			return Message{}, fmt.Errorf("%w: RespChatFrom payload truncated", ErrMalformedMessage)
		}
		payload := append([]byte(nil), rest[:payloadLen]...)
		return Message{Kind: kind, ChatPeer: peer, ChatFromPayload: payload}, nil

	default:
		return Message{}, fmt.Errorf("%w: unknown kind %d", ErrMalformedMessage, kind)
	}
}

// ChunkBytes splits data into an ordered sequence of fragments no larger
// than MaxFragmentPayload each. An empty (possibly nil) input still
// yields exactly one fragment with a zero-length payload, never zero
// fragments — fragmentation must always produce at least one unit of
// acknowledgeable work.
func ChunkBytes(data []byte) []Fragment {
	if len(data) == 0 {
		return []Fragment{{Index: 0, Total: 1, Payload: []byte{}}}
	}
	total := (len(data) + MaxFragmentPayload - 1) / MaxFragmentPayload
	frags := make([]Fragment, 0, total)
	for i := 0; i < total; i++ {
		start := i * MaxFragmentPayload
		end := start + MaxFragmentPayload
		if end > len(data) {
			end = len(data)
		}
		payload := append([]byte(nil), data[start:end]...)
		frags = append(frags, Fragment{Index: FragmentIndex(i), Total: uint64(total), Payload: payload})
	}
	return frags
}

// ToFragments encodes the message and splits it into an ordered fragment sequence.
func (m Message) ToFragments() []Fragment {
	return ChunkBytes(m.Encode())
}

// FromFragments reassembles a message from a complete, index-ordered
// fragment slice (no absent slots). Returns ErrMalformedMessage if the
// concatenated payload does not decode.
func FromFragments(frags []*Fragment) (Message, error) {
	var buf []byte
	for _, f := range frags {
		if f == nil {
			return Message{}, fmt.Errorf("%w: missing fragment", ErrMalformedMessage)
		}
		buf = append(buf, f.Payload...)
	}
	return DecodeMessage(buf)
}
