// Package session is the in-memory MCP session store spec §4.13
// describes: `{sessionId, orgId, createdAt, lastAccessedAt}`, keyed by
// the session id the transport negotiates. Single-process, in memory
// -- sessions never survive a restart.
package session

import (
	"sync"
	"time"
)

// Session is one live MCP connection's identity and ownership.
type Session struct {
	ID             string
	OrgID          string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Store is a concurrency-safe map of live sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

// Register records a new session the transport just assigned an id
// to, owned by orgID.
func (s *Store) Register(id, orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.sessions[id] = &Session{ID: id, OrgID: orgID, CreatedAt: now, LastAccessedAt: now}
}

// Get returns the session for id, if any.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Touch refreshes id's LastAccessedAt, extending its idle deadline.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastAccessedAt = time.Now()
	}
}

// Delete removes id, e.g. on an MCP DELETE request.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count reports the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepIdle removes every session whose LastAccessedAt is older than
// idleTimeout, returning the number removed (spec §9 open question 2:
// "a configurable idle timeout ... with documented default").
func (s *Store) SweepIdle(idleTimeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-idleTimeout)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
