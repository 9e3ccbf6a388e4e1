package backend

import (
	"context"
	"time"
)

// User is the auth record of a backend user
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
}

// RoleClaim returns the application role attached to the user, if any
func (u *User) RoleClaim() string {
	if u == nil {
		return ""
	}
	return roleFromMetadata(u.UserMetadata, u.AppMetadata)
}

// Session is an authenticated session issued by the backend
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns when the access token stops being accepted
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return ExpiryOf(s.AccessToken)
}

// Expired reports whether the access token has expired at now
func (s *Session) Expired(now time.Time) bool {
	exp := s.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}

// Credentials are the email and password used for password sign-in and sign-up
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionStorage persists sessions between requests, keyed by browser session
type SessionStorage interface {
	SaveSession(ctx context.Context, key string, session *Session) error
	GetSession(ctx context.Context, key string) (*Session, error)
	DeleteSession(ctx context.Context, key string) error
}
