// Package reassembly holds the per-session partial fragment arrays used
// to reconstruct application messages. The buffer is fully sized up
// front from the first fragment's total count, with explicit nil slots
// for fragments not yet seen, rather than a capacity-only slice.
package reassembly

import (
	"sync"

	"github.com/brokenhouse/dronecore/core"
)

type session struct {
	slots []*core.Fragment
	have  int
}

// Buffer holds one partial fragment array per in-flight session.
type Buffer struct {
	mu       sync.Mutex
	sessions map[core.Session]*session
}

// New returns an empty reassembly buffer.
func New() *Buffer {
	return &Buffer{sessions: make(map[core.Session]*session)}
}

// Insert places frag at its index within its session's buffer,
// allocating the buffer to frag.Total on first sight. A slot already
// filled is left untouched (fragments are delivered at most once per
// index in this model; a duplicate is simply ignored). Reports whether
// every slot is now filled.
func (b *Buffer) Insert(sess core.Session, frag core.Fragment) (complete bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[sess]
	if !ok {
		s = &session{slots: make([]*core.Fragment, frag.Total)}
		b.sessions[sess] = s
	}
	if int(frag.Index) >= len(s.slots) {
		return false
	}
	if s.slots[frag.Index] == nil {
		f := frag
		s.slots[frag.Index] = &f
		s.have++
	}
	return s.have == len(s.slots)
}

// Take removes and returns the completed session's fragment slots in
// order. Callers must have already observed Insert returning true.
func (b *Buffer) Take(sess core.Session) ([]*core.Fragment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[sess]
	if !ok {
		return nil, false
	}
	delete(b.sessions, sess)
	return s.slots, true
}

// Discard drops a session's partial buffer outright, used when
// reassembly is abandoned rather than completed.
func (b *Buffer) Discard(sess core.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sess)
}
