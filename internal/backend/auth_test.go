package backend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quijoterun/tracker/internal/dependencies/mocks"
	"github.com/quijoterun/tracker/internal/testutil"
)

type fakeTransport struct {
	signIn      func(Credentials) (*Session, error)
	refresh     func(string) (*Session, error)
	signOutErr  error
	signOutCall int
}

func (f *fakeTransport) SignInWithPassword(_ context.Context, creds Credentials) (*Session, error) {
	return f.signIn(creds)
}

func (f *fakeTransport) SignUp(_ context.Context, creds Credentials) (*Session, *User, error) {
	if creds.Email == "confirm@quijoterun.com" {
		return nil, &User{ID: "pending", Email: creds.Email}, nil
	}
	s, err := f.signIn(creds)
	if err != nil {
		return nil, nil, err
	}
	return s, &s.User, nil
}

func (f *fakeTransport) Refresh(_ context.Context, token string) (*Session, error) {
	return f.refresh(token)
}

func (f *fakeTransport) GetUser(_ context.Context, _ string) (*User, error) {
	return &User{ID: "user-1"}, nil
}

func (f *fakeTransport) SignOut(_ context.Context, _ string) error {
	f.signOutCall++
	return f.signOutErr
}

type mapStorage struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func (m *mapStorage) SaveSession(_ context.Context, key string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = s
	return nil
}

func (m *mapStorage) GetSession(_ context.Context, key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *mapStorage) DeleteSession(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

type AuthSuite struct {
	suite.Suite
	clock     *mocks.MockClock
	transport *fakeTransport
	storage   *mapStorage
	auth      *Auth
	changes   []AuthChange
	ctx       context.Context
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.transport = &fakeTransport{
		signIn: func(creds Credentials) (*Session, error) {
			if creds.Password != "secret" {
				return nil, &Error{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
			}
			return &Session{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				ExpiresAt:    s.clock.Now().Add(time.Hour).Unix(),
				User:         User{ID: "user-1", Email: creds.Email},
			}, nil
		},
		refresh: func(token string) (*Session, error) {
			if token != "refresh-1" {
				return nil, &Error{Status: 400, Message: "Invalid Refresh Token"}
			}
			return &Session{
				AccessToken:  "access-2",
				RefreshToken: "refresh-2",
				ExpiresAt:    s.clock.Now().Add(time.Hour).Unix(),
				User:         User{ID: "user-1"},
			}, nil
		},
	}
	s.storage = &mapStorage{sessions: make(map[string]*Session)}
	s.auth = NewAuth(s.transport, s.storage, s.clock, testutil.NopLogger())
	s.changes = nil
	s.auth.OnAuthStateChange(func(c AuthChange) {
		s.changes = append(s.changes, c)
	})
	s.ctx = context.Background()
}

func (s *AuthSuite) creds(password string) Credentials {
	return Credentials{Email: "runner1@quijoterun.com", Password: password}
}

func (s *AuthSuite) TestSignInStoresSessionAndEmits() {
	session, err := s.auth.SignInWithPassword(s.ctx, "k1", s.creds("secret"))
	s.Require().NoError(err)
	s.Equal("access-1", session.AccessToken)

	stored, err := s.auth.GetSession(s.ctx, "k1")
	s.Require().NoError(err)
	s.Equal("access-1", stored.AccessToken)

	s.Require().Len(s.changes, 1)
	s.Equal(EventSignedIn, s.changes[0].Event)
	s.Equal("k1", s.changes[0].Key)
}

func (s *AuthSuite) TestSignInFailurePropagatesBackendError() {
	_, err := s.auth.SignInWithPassword(s.ctx, "k1", s.creds("wrong"))
	s.Require().Error(err)
	s.Equal("Invalid login credentials", Message(err))
	s.Empty(s.changes)

	session, err := s.auth.GetSession(s.ctx, "k1")
	s.NoError(err)
	s.Nil(session)
}

func (s *AuthSuite) TestSignUpWithConfirmationDoesNotSignIn() {
	session, user, err := s.auth.SignUp(s.ctx, "k1", Credentials{Email: "confirm@quijoterun.com", Password: "secret"})
	s.Require().NoError(err)
	s.Nil(session)
	s.Equal("pending", user.ID)
	s.Empty(s.changes)
}

func (s *AuthSuite) TestExpiredSessionIsRefreshed() {
	_, err := s.auth.SignInWithPassword(s.ctx, "k1", s.creds("secret"))
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Hour)

	session, err := s.auth.GetSession(s.ctx, "k1")
	s.Require().NoError(err)
	s.Equal("access-2", session.AccessToken)
	s.Equal(EventTokenRefreshed, s.changes[len(s.changes)-1].Event)
}

func (s *AuthSuite) TestFailedRefreshSignsOut() {
	s.Require().NoError(s.storage.SaveSession(s.ctx, "k1", &Session{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    s.clock.Now().Add(-time.Minute).Unix(),
	}))

	session, err := s.auth.GetSession(s.ctx, "k1")
	s.NoError(err)
	s.Nil(session)
	s.Require().Len(s.changes, 1)
	s.Equal(EventSignedOut, s.changes[0].Event)

	_, err = s.storage.GetSession(s.ctx, "k1")
	s.True(errors.Is(err, ErrSessionNotFound))
}

func (s *AuthSuite) TestSignOutDropsSessionEvenIfBackendFails() {
	_, err := s.auth.SignInWithPassword(s.ctx, "k1", s.creds("secret"))
	s.Require().NoError(err)
	s.transport.signOutErr = errors.New("network down")

	s.Require().NoError(s.auth.SignOut(s.ctx, "k1"))
	s.Equal(1, s.transport.signOutCall)

	session, err := s.auth.GetSession(s.ctx, "k1")
	s.NoError(err)
	s.Nil(session)
	s.Equal(EventSignedOut, s.changes[len(s.changes)-1].Event)
}

func (s *AuthSuite) TestUnsubscribeStopsDelivery() {
	var count int
	sub := s.auth.OnAuthStateChange(func(AuthChange) { count++ })

	_, err := s.auth.SignInWithPassword(s.ctx, "k1", s.creds("secret"))
	s.Require().NoError(err)
	s.Equal(1, count)

	sub.Unsubscribe()
	sub.Unsubscribe()

	s.Require().NoError(s.auth.SignOut(s.ctx, "k1"))
	s.Equal(1, count)
}
