// Package memory provides an in-memory session store. Its primary use-case is testing, though
// it also backs deployments that are content losing sessions on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ladeflyt/grunnlag/internal/session"
)

// Store is an in-memory session.Store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	ttl      time.Duration
}

// New creates a Store. Sessions older than ttl are treated as expired.
func New(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]session.Session),
		ttl:      ttl,
	}
}

// Create satisfies session.Store.
func (s *Store) Create(_ context.Context, sess session.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess

	return nil
}

// Get satisfies session.Store.
func (s *Store) Get(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return session.Session{}, session.ErrNotFound
	}

	return sess, nil
}

// Delete satisfies session.Store.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)

	return nil
}

// DeleteExpired satisfies session.Store.
func (s *Store) DeleteExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed, nil
}

// IsHealthy satisfies session.Store.
func (s *Store) IsHealthy(context.Context) bool {
	return true
}

// Close satisfies session.Store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) expired(sess session.Session) bool {
	return time.Since(sess.CreatedAt) >= s.ttl
}
