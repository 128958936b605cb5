// Package inmem provides the in-memory adapters of the auth daemon: the
// session registry and the per-IP rate limiter.
package inmem

import (
	"sync"
	"time"

	"authcallback/internal/auth"
)

// SessionStore keeps active sessions in memory, keyed by token. Each
// session owns the authorization view (and record) created for it; when
// the session expires or is deleted, that data goes with it.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]sessionEntry
}

type sessionEntry struct {
	session   auth.Session
	expiresAt time.Time
}

// NewSessionStore creates a session store whose sessions live for ttl.
// clock is injectable for deterministic testing.
func NewSessionStore(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      clock,
		sessions: make(map[string]sessionEntry),
	}
}

// Put registers a session, stamping its expiry from the store's TTL.
func (s *SessionStore) Put(session auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = sessionEntry{
		session:   session,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Get returns the session for token. Expired sessions are misses.
func (s *SessionStore) Get(token string) (auth.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[token]
	if !ok || s.now().After(entry.expiresAt) {
		return auth.Session{}, false
	}
	return entry.session, true
}

// Delete removes the session for token, if any.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Cleanup removes expired sessions. Meant to be called periodically.
func (s *SessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for token, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Count returns the number of stored sessions (for testing).
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
