// Package session provides the in-memory store backing the admin session
// cookie. Sessions live only for the lifetime of the process.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store tracks active admin sessions by opaque id with a fixed TTL.
// Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	active map[string]time.Time // session id -> expiry
}

// NewStore constructs a Store whose sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, active: make(map[string]time.Time)}
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create registers a new session and returns its id.
func (s *Store) Create() string {
	id := uuid.New().String()
	s.mu.Lock()
	s.active[id] = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return id
}

// Valid reports whether id names a live session. Expired sessions are
// dropped on sight.
func (s *Store) Valid(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.active[id]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.active, id)
		return false
	}
	return true
}

// Destroy removes a session. Unknown ids are a no-op.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}
