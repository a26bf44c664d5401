// Package pendingack holds the per-session registry of fragments
// handed to a neighbour but not yet acknowledged, plus the original
// user message each session belongs to. Retry here is nack-driven only,
// so the store carries no deadlines or timers, only ordered unacked
// lists.
package pendingack

import (
	"sync"

	"github.com/brokenhouse/dronecore/core"
)

// Entry is one session's bookkeeping: the destination server id, an
// optional chat peer id (for surfacing delivery status to the
// front-end), and the fragments still awaiting an ack, in dispatch order.
type Entry struct {
	Server  core.NodeId
	Peer    core.NodeId
	HasPeer bool
	Unacked []*core.Packet
}

// Store is a per-session pending-ack registry plus the pending-message
// store for the original user message each session carries.
type Store struct {
	mu       sync.Mutex
	sessions map[core.Session]*Entry
	messages map[core.Session]core.Message
}

// New returns an empty pending-ack/pending-message store.
func New() *Store {
	return &Store{
		sessions: make(map[core.Session]*Entry),
		messages: make(map[core.Session]core.Message),
	}
}

// Register records that a fragment packet has been handed to a
// neighbour for session, creating the session's entry if needed.
func (s *Store) Register(session core.Session, server core.NodeId, peer core.NodeId, hasPeer bool, pkt *core.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[session]
	if !ok {
		e = &Entry{Server: server}
		s.sessions[session] = e
	}
	if hasPeer {
		e.Peer, e.HasPeer = peer, true
	}
	e.Unacked = append(e.Unacked, pkt)
}

// SetMessage records the original user message for session. Its
// lifetime is at least the lifetime of the session's pending-ack entry.
func (s *Store) SetMessage(session core.Session, msg core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[session] = msg
}

// Message returns the original user message for session, if any.
func (s *Store) Message(session core.Session) (core.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[session]
	return m, ok
}

// Ack removes the fragment at index from session's unacked list.
// Reports whether the session's list became empty (meaning the caller
// should surface delivery completion) and whether the session even
// existed. When the list empties, Ack deletes both the session's entry
// and its pending-message entry.
func (s *Store) Ack(session core.Session, index core.FragmentIndex) (emptied bool, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[session]
	if !ok {
		return false, false
	}
	for i, pkt := range e.Unacked {
		if pkt.Fragment != nil && pkt.Fragment.Index == index {
			e.Unacked = append(e.Unacked[:i], e.Unacked[i+1:]...)
			break
		}
	}
	if len(e.Unacked) == 0 {
		delete(s.sessions, session)
		delete(s.messages, session)
		return true, true
	}
	return false, true
}

// Take removes and returns the still-unacked fragment packet named by
// (session, index). A nack moves a fragment back to the send queue for
// retry, so it must leave pending-ack rather than linger there
// alongside its re-enqueued copy — exactly one authoritative copy of a
// fragment exists at any time, never duplicated across stores.
func (s *Store) Take(session core.Session, index core.FragmentIndex) (*core.Packet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[session]
	if !ok {
		return nil, false
	}
	for i, pkt := range e.Unacked {
		if pkt.Fragment != nil && pkt.Fragment.Index == index {
			e.Unacked = append(e.Unacked[:i], e.Unacked[i+1:]...)
			return pkt, true
		}
	}
	return nil, false
}

// Entry returns the full bookkeeping entry for session.
func (s *Store) Entry(session core.Session) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[session]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Abandon drops a session's pending-ack and pending-message entries
// outright (used when a session is given up on rather than completed).
func (s *Store) Abandon(session core.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
	delete(s.messages, session)
}
