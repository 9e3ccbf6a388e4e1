package memory

import (
	"context"
	"sync"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/storage"
)

type entry struct {
	session   backend.Session
	expiresAt time.Time
}

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions map[string]entry
	ttl      time.Duration
	clock    clock.Clock
}

// New creates a new in-memory storage instance. Sessions are forgotten ttl
// after they were last saved; a zero ttl keeps them forever.
func New(ttl time.Duration, clk clock.Clock) *Storage {
	return &Storage{
		sessions: make(map[string]entry),
		ttl:      ttl,
		clock:    clk,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// SaveSession stores a copy of session under key
func (s *Storage) SaveSession(ctx context.Context, key string, session *backend.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{session: *session}
	if s.ttl > 0 {
		e.expiresAt = s.clock.Now().Add(s.ttl)
	}
	s.sessions[key] = e
	return nil
}

// GetSession returns a copy of the session stored under key
func (s *Storage) GetSession(ctx context.Context, key string) (*backend.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok {
		return nil, backend.ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		_ = s.DeleteSession(ctx, key)
		return nil, backend.ErrSessionNotFound
	}
	session := e.session
	return &session, nil
}

// DeleteSession forgets the session stored under key
func (s *Storage) DeleteSession(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}
