package core

import "fmt"

// PacketKind discriminates the payload carried by a Packet.
type PacketKind uint8

const (
	KindFragment PacketKind = iota
	KindAck
	KindNack
	KindFloodRequest
	KindFloodResponse
)

func (k PacketKind) String() string {
	switch k {
	case KindFragment:
		return "fragment"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	case KindFloodRequest:
		return "flood_request"
	case KindFloodResponse:
		return "flood_response"
	default:
		return "unknown"
	}
}

// MaxFragmentPayload bounds the payload a single Fragment may carry.
const MaxFragmentPayload = 128

// NackReason classifies why a fragment could not be delivered.
type NackReason struct {
	// Kind selects the reason variant.
	Kind NackKind
	// Node is populated for ErrorInRouting, naming the faulted hop.
	Node NodeId
}

// NackKind enumerates the reasons a Nack can carry.
type NackKind uint8

const (
	// NackErrorInRouting means a hop named in Node could not forward the
	// packet (e.g. the neighbour link to it is gone).
	NackErrorInRouting NackKind = iota
	// NackUnexpectedRecipient means the packet arrived at a node that is
	// not the current hop named in its routing header.
	NackUnexpectedRecipient
	// NackDestinationUnreachable is a generic forwarding failure with no
	// specific faulted node.
	NackDestinationUnreachable
)

func (r NackReason) String() string {
	switch r.Kind {
	case NackErrorInRouting:
		return fmt.Sprintf("error in routing(%d)", r.Node)
	case NackUnexpectedRecipient:
		return fmt.Sprintf("unexpected recipient(%d)", r.Node)
	default:
		return "destination unreachable"
	}
}

// TraceEntry is one hop of a flood path trace.
type TraceEntry struct {
	Node NodeId
	Kind NodeKind
}

// Fragment is one slice of a fragmented application Message.
type Fragment struct {
	Index   FragmentIndex
	Total   uint64
	Payload []byte
}

// Ack acknowledges a single fragment.
type Ack struct {
	Index FragmentIndex
}

// Nack negatively acknowledges a single fragment, with a reason.
type Nack struct {
	Index  FragmentIndex
	Reason NackReason
}

// FloodRequest seeds topology discovery, recording the path it has
// travelled so far.
type FloodRequest struct {
	FloodID Session
	Trace   []TraceEntry
}

// FloodResponse mirrors a FloodRequest back toward its originator,
// carrying the same (reversed) trace.
type FloodResponse struct {
	FloodID Session
	Trace   []TraceEntry
}

// Packet is the overlay's discriminated wire record: a routing header, a
// session id, and exactly one payload variant selected by Kind.
type Packet struct {
	Routing Routing
	Session Session
	Kind    PacketKind

	Fragment      *Fragment
	Ack           *Ack
	Nack          *Nack
	FloodRequest  *FloodRequest
	FloodResponse *FloodResponse
}

// NewFragmentPacket builds a fragment packet. Routing may be empty; it is
// stamped later, at send-queue drain time.
func NewFragmentPacket(routing Routing, session Session, frag Fragment) *Packet {
	return &Packet{Routing: routing, Session: session, Kind: KindFragment, Fragment: &frag}
}

// NewAckPacket builds an ack packet for the given routing/session/index.
func NewAckPacket(routing Routing, session Session, index FragmentIndex) *Packet {
	return &Packet{Routing: routing, Session: session, Kind: KindAck, Ack: &Ack{Index: index}}
}

// NewNackPacket builds a nack packet for the given routing/session/index/reason.
func NewNackPacket(routing Routing, session Session, index FragmentIndex, reason NackReason) *Packet {
	return &Packet{Routing: routing, Session: session, Kind: KindNack, Nack: &Nack{Index: index, Reason: reason}}
}

// NewFloodRequestPacket seeds a flood with this node as the sole trace entry.
func NewFloodRequestPacket(floodID Session, self NodeId) *Packet {
	return &Packet{
		Routing:      EmptyRouting(),
		Session:      floodID,
		Kind:         KindFloodRequest,
		FloodRequest: &FloodRequest{FloodID: floodID, Trace: []TraceEntry{{Node: self, Kind: NodeClient}}},
	}
}

// Clone returns a deep copy of the packet, safe to mutate independently
// of the original (e.g. before re-stamping its routing header).
func (p *Packet) Clone() *Packet {
	c := &Packet{Routing: Routing{Hops: append([]NodeId(nil), p.Routing.Hops...), Idx: p.Routing.Idx}, Session: p.Session, Kind: p.Kind}
	switch p.Kind {
	case KindFragment:
		f := *p.Fragment
		f.Payload = append([]byte(nil), p.Fragment.Payload...)
		c.Fragment = &f
	case KindAck:
		a := *p.Ack
		c.Ack = &a
	case KindNack:
		n := *p.Nack
		c.Nack = &n
	case KindFloodRequest:
		fr := *p.FloodRequest
		fr.Trace = append([]TraceEntry(nil), p.FloodRequest.Trace...)
		c.FloodRequest = &fr
	case KindFloodResponse:
		fr := *p.FloodResponse
		fr.Trace = append([]TraceEntry(nil), p.FloodResponse.Trace...)
		c.FloodResponse = &fr
	}
	return c
}

// WithRouting returns a copy of the packet stamped with the given routing header.
func (p *Packet) WithRouting(r Routing) *Packet {
	c := p.Clone()
	c.Routing = r
	return c
}

func (p *Packet) String() string {
	return fmt.Sprintf("Packet{kind=%s, session=%d, routing=%s}", p.Kind, p.Session, p.Routing)
}
