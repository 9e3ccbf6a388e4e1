package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quijoterun/tracker/internal/dependencies/clock"
)

// AuthTransport is the wire half of the auth API
type AuthTransport interface {
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	// SignUp returns a nil session when the backend requires email confirmation
	SignUp(ctx context.Context, creds Credentials) (*Session, *User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AuthEvent names an auth state transition
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthChange is delivered to auth state subscribers
type AuthChange struct {
	Event   AuthEvent
	Key     string
	Session *Session // nil for EventSignedOut
}

// Subscription is a registered auth state listener
type Subscription struct {
	auth *Auth
	id   int
}

// Unsubscribe stops delivery to the listener. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.auth == nil {
		return
	}
	s.auth.mu.Lock()
	defer s.auth.mu.Unlock()
	delete(s.auth.listeners, s.id)
}

// Auth is the session-aware auth API. Each browser session has its own key
// under which its backend session is persisted.
type Auth struct {
	transport AuthTransport
	storage   SessionStorage
	clock     clock.Clock
	logger    *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(AuthChange)
	nextID    int
}

// NewAuth creates an Auth over transport, persisting sessions in storage
func NewAuth(transport AuthTransport, storage SessionStorage, clk clock.Clock, logger *slog.Logger) *Auth {
	return &Auth{
		transport: transport,
		storage:   storage,
		clock:     clk,
		logger:    logger,
		listeners: make(map[int]func(AuthChange)),
	}
}

// OnAuthStateChange registers fn for every auth state transition.
// fn is called synchronously from the goroutine causing the transition.
func (a *Auth) OnAuthStateChange(fn func(AuthChange)) *Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.listeners[a.nextID] = fn
	return &Subscription{auth: a, id: a.nextID}
}

func (a *Auth) emit(change AuthChange) {
	a.mu.Lock()
	listeners := make([]func(AuthChange), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}

// GetSession returns the session stored under key, refreshing it when the
// access token has expired. It returns nil without error when there is no
// usable session.
func (a *Auth) GetSession(ctx context.Context, key string) (*Session, error) {
	session, err := a.storage.GetSession(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if !session.Expired(a.clock.Now()) {
		return session, nil
	}

	refreshed, err := a.transport.Refresh(ctx, session.RefreshToken)
	if err != nil {
		a.logger.Info("session refresh failed", "error", err)
		if delErr := a.storage.DeleteSession(ctx, key); delErr != nil {
			a.logger.Error("failed to delete expired session", "error", delErr)
		}
		a.emit(AuthChange{Event: EventSignedOut, Key: key})
		return nil, nil
	}

	if err := a.storage.SaveSession(ctx, key, refreshed); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	a.emit(AuthChange{Event: EventTokenRefreshed, Key: key, Session: refreshed})
	return refreshed, nil
}

// SignInWithPassword authenticates creds and stores the session under key
func (a *Auth) SignInWithPassword(ctx context.Context, key string, creds Credentials) (*Session, error) {
	session, err := a.transport.SignInWithPassword(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := a.storage.SaveSession(ctx, key, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	a.emit(AuthChange{Event: EventSignedIn, Key: key, Session: session})
	return session, nil
}

// SignUp registers creds. When the backend signs the new user in
// immediately the session is stored under key.
func (a *Auth) SignUp(ctx context.Context, key string, creds Credentials) (*Session, *User, error) {
	session, user, err := a.transport.SignUp(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, user, nil
	}
	if err := a.storage.SaveSession(ctx, key, session); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}
	a.emit(AuthChange{Event: EventSignedIn, Key: key, Session: session})
	return session, &session.User, nil
}

// SignOut revokes and forgets the session stored under key
func (a *Auth) SignOut(ctx context.Context, key string) error {
	session, err := a.storage.GetSession(ctx, key)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("load session: %w", err)
	}

	if session != nil {
		if err := a.transport.SignOut(ctx, session.AccessToken); err != nil {
			// The local session is dropped regardless
			a.logger.Warn("backend sign-out failed", "error", err)
		}
	}

	if err := a.storage.DeleteSession(ctx, key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	a.emit(AuthChange{Event: EventSignedOut, Key: key})
	return nil
}

// GetUser asks the backend who owns accessToken
func (a *Auth) GetUser(ctx context.Context, accessToken string) (*User, error) {
	return a.transport.GetUser(ctx, accessToken)
}
