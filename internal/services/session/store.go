package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
)

var (
	// ErrMissingCredentials is returned when the identifier or secret is blank
	ErrMissingCredentials = errors.New("email or username and password are required")

	// ErrConfirmationPending is returned by SignUp when the backend wants the
	// address confirmed before the first sign-in
	ErrConfirmationPending = errors.New("account created: check your email to confirm it before signing in")
)

// Snapshot is the state of a store at one instant
type Snapshot struct {
	Identity *model.Identity
	Loading  bool
}

// Store holds the identity of one browser session. Identity only changes
// through the auth state stream; the operations below merely trigger it.
type Store struct {
	key     string
	manager *Manager

	mu       sync.RWMutex
	identity *model.Identity
	session  *backend.Session
	loading  bool
	applied  bool // an auth change arrived, so the initial check is stale
	lastSeen time.Time
	ready    chan struct{}
	once     sync.Once
}

func newStore(key string, m *Manager) *Store {
	return &Store{
		key:     key,
		manager: m,
		loading: true,
		ready:   make(chan struct{}),
	}
}

// Key returns the browser session key of the store
func (s *Store) Key() string {
	return s.key
}

// Snapshot returns the current identity and loading flag
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Identity: s.identity, Loading: s.loading}
}

// Identity returns the signed-in identity, or nil
func (s *Store) Identity() *model.Identity {
	return s.Snapshot().Identity
}

// Loading reports whether the initial session check is still pending
func (s *Store) Loading() bool {
	return s.Snapshot().Loading
}

// Wait blocks until the initial session check has finished or ctx is done
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context returns ctx carrying the session's access token, refreshing the
// session first when it has expired
func (s *Store) Context(ctx context.Context) context.Context {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()

	if session == nil {
		return ctx
	}
	if session.Expired(s.manager.clock.Now()) {
		// Emits TOKEN_REFRESHED or SIGNED_OUT, which updates the store
		refreshed, err := s.manager.auth.GetSession(ctx, s.key)
		if err != nil {
			s.manager.logger.Error("failed to refresh session", "error", err)
			return ctx
		}
		if refreshed == nil {
			return ctx
		}
		session = refreshed
	}
	return backend.WithAccessToken(ctx, session.AccessToken)
}

// SignIn authenticates identifier and secret with the backend. The backend's
// message is preserved in the returned error.
func (s *Store) SignIn(ctx context.Context, identifier, secret string) error {
	creds, err := s.credentials(identifier, secret)
	if err != nil {
		return err
	}
	_, err = s.manager.auth.SignInWithPassword(ctx, s.key, creds)
	return err
}

// SignUp registers identifier and secret with the backend
func (s *Store) SignUp(ctx context.Context, identifier, secret string) error {
	creds, err := s.credentials(identifier, secret)
	if err != nil {
		return err
	}
	session, _, err := s.manager.auth.SignUp(ctx, s.key, creds)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrConfirmationPending
	}
	return nil
}

// SignOut ends the backend session
func (s *Store) SignOut(ctx context.Context) error {
	return s.manager.auth.SignOut(ctx, s.key)
}

func (s *Store) credentials(identifier, secret string) (backend.Credentials, error) {
	if strings.TrimSpace(identifier) == "" || secret == "" {
		return backend.Credentials{}, ErrMissingCredentials
	}
	return backend.Credentials{
		Email:    s.manager.cfg.Normalizer.Email(identifier),
		Password: secret,
	}, nil
}

// initialCheck looks up an existing session for the key
func (s *Store) initialCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), initialCheckTimeout)
	defer cancel()

	session, err := s.manager.auth.GetSession(ctx, s.key)
	if err != nil {
		s.manager.logger.Error("failed to check existing session", "error", err)
	}

	s.mu.Lock()
	if !s.applied {
		s.session = session
		s.identity = s.manager.identityFor(session)
	}
	s.loading = false
	s.mu.Unlock()

	s.markReady()
}

// apply mirrors an auth state change into the store
func (s *Store) apply(session *backend.Session) {
	s.mu.Lock()
	s.session = session
	s.identity = s.manager.identityFor(session)
	s.applied = true
	s.loading = false
	s.mu.Unlock()

	s.markReady()
}

func (s *Store) markReady() {
	s.once.Do(func() { close(s.ready) })
}

func (s *Store) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Store) idleSince(cutoff time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loading && s.lastSeen.Before(cutoff)
}
