// Package leaftype holds the small NodeId -> optional server-type map:
// absent means the server has never been observed, nil means observed
// (and queried) but no answer yet, and a set value means answered.
package leaftype

import (
	"sync"

	"github.com/brokenhouse/dronecore/core"
)

// Store maps server leaf NodeIds to their known type, if answered.
type Store struct {
	mu    sync.RWMutex
	types map[core.NodeId]*core.ServerType
}

// New returns an empty leaf-type store.
func New() *Store {
	return &Store{types: make(map[core.NodeId]*core.ServerType)}
}

// Observe records that a server leaf exists, without yet knowing its
// type. A no-op if the leaf is already known.
func (s *Store) Observe(server core.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[server]; !ok {
		s.types[server] = nil
	}
}

// Set records the answered server type for server.
func (s *Store) Set(server core.NodeId, kind core.ServerType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := kind
	s.types[server] = &k
}

// Get returns the known type for server (nil if queried but
// unanswered) and whether the server has been observed at all.
func (s *Store) Get(server core.NodeId) (*core.ServerType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.types[server]
	return k, ok
}

// IsChat reports whether server is known to be a chat server.
func (s *Store) IsChat(server core.NodeId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.types[server]
	return ok && k != nil && *k == core.ServerTypeChat
}
