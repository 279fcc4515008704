package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process session store. Sessions are not persisted;
// a restart logs everyone out, matching the ephemeral session model.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	idle     time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store with the given idle lifetime and
// starts a janitor that sweeps expired sessions.
func NewMemoryStore(idle time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
		idle:     idle,
		done:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create stores a new session
func (s *MemoryStore) Create(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

// Get returns the session for a token, or (nil, nil) when the token is
// unknown or the session has expired.
func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if sess.Expired(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, nil
	}
	return &sess, nil
}

// Touch renews the session's idle deadline. Unknown tokens are a no-op.
func (s *MemoryStore) Touch(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || sess.Expired(time.Now()) {
		return nil
	}
	sess.ExpiresAt = time.Now().Add(s.idle)
	s.sessions[token] = sess
	return nil
}

// SetDocumentType records the active document type on the session
func (s *MemoryStore) SetDocumentType(ctx context.Context, token, documentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || sess.Expired(time.Now()) {
		return nil
	}
	sess.DocumentType = documentType
	s.sessions[token] = sess
	return nil
}

// Delete removes a session; idempotent
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Close stops the janitor
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

// janitor periodically removes expired sessions
func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for token, sess := range s.sessions {
				if sess.Expired(now) {
					delete(s.sessions, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
