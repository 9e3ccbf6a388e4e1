package memory

import (
	"net/http"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
)

func (s *BackendSuite) TestSignUpCreatesProfileAndSession() {
	s.random.QueueUUID("user-1")

	session, user, err := s.backend.SignUp(s.ctx, backend.Credentials{Email: "Runner1@QuijoteRun.com", Password: "secret1"})
	s.Require().NoError(err)

	s.Equal("user-1", user.ID)
	s.Equal("runner1@quijoterun.com", user.Email)
	s.NotEmpty(session.AccessToken)
	s.Equal(s.clock.Now().Add(time.Hour).Unix(), session.ExpiresAt)

	profiles, err := backend.SelectAll[model.Profile](s.ctx, s.backend, model.TableProfiles, backend.Query{})
	s.Require().NoError(err)
	s.Require().Len(profiles, 1)
	s.Equal(model.UserID("user-1"), profiles[0].ID)
}

func (s *BackendSuite) TestSignUpRejectsDuplicatesAndWeakPasswords() {
	creds := backend.Credentials{Email: "runner1@quijoterun.com", Password: "secret1"}
	_, _, err := s.backend.SignUp(s.ctx, creds)
	s.Require().NoError(err)

	_, _, err = s.backend.SignUp(s.ctx, creds)
	s.Require().Error(err)
	s.Equal("User already registered", backend.Message(err))

	_, _, err = s.backend.SignUp(s.ctx, backend.Credentials{Email: "runner2@quijoterun.com", Password: "123"})
	s.Require().Error(err)
	s.Equal(http.StatusUnprocessableEntity, backend.StatusOf(err))
}

func (s *BackendSuite) TestSignInChecksPassword() {
	_, err := s.backend.CreateUser(s.ctx, backend.Credentials{Email: "admin@quijoterun.com", Password: "operator-pass"}, "admin")
	s.Require().NoError(err)

	_, err = s.backend.SignInWithPassword(s.ctx, backend.Credentials{Email: "admin@quijoterun.com", Password: "wrong"})
	s.Require().Error(err)
	s.Equal("Invalid login credentials", backend.Message(err))

	_, err = s.backend.SignInWithPassword(s.ctx, backend.Credentials{Email: "nobody@quijoterun.com", Password: "operator-pass"})
	s.Require().Error(err)
	s.Equal("Invalid login credentials", backend.Message(err))

	session, err := s.backend.SignInWithPassword(s.ctx, backend.Credentials{Email: "admin@quijoterun.com", Password: "operator-pass"})
	s.Require().NoError(err)
	s.Equal("admin", session.User.RoleClaim())

	claims, err := backend.ParseAccessTokenAt(session.AccessToken, s.backend.Secret(), s.clock.Now())
	s.Require().NoError(err)
	s.Equal(session.User.ID, claims.Subject)
	s.Equal("admin", claims.RoleClaim())
}

func (s *BackendSuite) TestGetUserVerifiesToken() {
	session, _, err := s.backend.SignUp(s.ctx, backend.Credentials{Email: "runner1@quijoterun.com", Password: "secret1"})
	s.Require().NoError(err)

	user, err := s.backend.GetUser(s.ctx, session.AccessToken)
	s.Require().NoError(err)
	s.Equal(session.User.ID, user.ID)

	s.clock.Advance(2 * time.Hour)
	_, err = s.backend.GetUser(s.ctx, session.AccessToken)
	s.Require().Error(err)
	s.Equal(http.StatusUnauthorized, backend.StatusOf(err))
}

func (s *BackendSuite) TestRefreshRotatesToken() {
	session, _, err := s.backend.SignUp(s.ctx, backend.Credentials{Email: "runner1@quijoterun.com", Password: "secret1"})
	s.Require().NoError(err)

	refreshed, err := s.backend.Refresh(s.ctx, session.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(session.RefreshToken, refreshed.RefreshToken)

	_, err = s.backend.Refresh(s.ctx, session.RefreshToken)
	s.Error(err)
}

func (s *BackendSuite) TestSignOutRevokesRefreshTokens() {
	session, _, err := s.backend.SignUp(s.ctx, backend.Credentials{Email: "runner1@quijoterun.com", Password: "secret1"})
	s.Require().NoError(err)

	s.Require().NoError(s.backend.SignOut(s.ctx, session.AccessToken))

	_, err = s.backend.Refresh(s.ctx, session.RefreshToken)
	s.Error(err)
}
