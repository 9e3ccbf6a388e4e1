package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/model"
)

// initialCheckTimeout bounds the asynchronous lookup of an existing session
const initialCheckTimeout = 10 * time.Second

// Config holds session manager settings
type Config struct {
	Policy     model.PrivilegePolicy
	Normalizer Normalizer
}

// DefaultConfig returns the default privilege policy and username domain
func DefaultConfig() Config {
	return Config{
		Policy:     model.DefaultPrivilegePolicy(),
		Normalizer: Normalizer{Domain: DefaultDomain},
	}
}

// Manager owns the session stores of every browser session. It mirrors the
// backend's auth state stream into the store each change belongs to.
// Create it at startup, call Start, and Close it at shutdown.
type Manager struct {
	auth   *backend.Auth
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
	sub    *backend.Subscription
}

// NewManager creates a Manager over auth
func NewManager(auth *backend.Auth, cfg Config, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		stores: make(map[string]*Store),
	}
}

// Start subscribes to the backend auth state stream
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub == nil {
		m.sub = m.auth.OnAuthStateChange(m.handleChange)
	}
}

// Close unsubscribes from the auth state stream and drops every store
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
	m.stores = make(map[string]*Store)
}

// Policy returns the privilege policy identities are derived with
func (m *Manager) Policy() model.PrivilegePolicy {
	return m.cfg.Policy
}

// Store returns the store for a browser session key, creating it on first
// use. A new store starts loading and asynchronously asks the backend for an
// existing session.
func (m *Manager) Store(key string) *Store {
	m.mu.Lock()
	s, ok := m.stores[key]
	if !ok {
		s = newStore(key, m)
		m.stores[key] = s
	}
	m.mu.Unlock()

	s.touch(m.clock.Now())
	if !ok {
		go s.initialCheck()
	}
	return s
}

// Lookup returns the store for key without creating it
func (m *Manager) Lookup(key string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[key]
	return s, ok
}

// Len returns the number of live stores
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// Sweep drops stores that have not been used for maxIdle and are not loading.
// Signed-in sessions survive in session storage and are restored on the
// next request. Returns the number of stores dropped.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.clock.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key, s := range m.stores {
		if s.idleSince(cutoff) {
			delete(m.stores, key)
			dropped++
		}
	}
	return dropped
}

// RunSweeper sweeps every interval until ctx is done
func (m *Manager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.logger.Debug("swept idle session stores", "count", n)
			}
		}
	}
}

// handleChange applies an auth state transition to the store it belongs to
func (m *Manager) handleChange(change backend.AuthChange) {
	s, ok := m.Lookup(change.Key)
	if !ok {
		return
	}
	m.logger.Info("auth state changed", "event", string(change.Event))
	s.apply(change.Session)
}

func (m *Manager) identityFor(session *backend.Session) *model.Identity {
	if session == nil {
		return nil
	}
	return model.NewIdentity(
		model.UserID(session.User.ID),
		session.User.Email,
		session.User.RoleClaim(),
		m.cfg.Policy,
	)
}
