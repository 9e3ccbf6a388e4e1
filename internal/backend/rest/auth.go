package rest

import (
	"context"
	"net/http"
	"net/url"

	"github.com/quijoterun/tracker/internal/backend"
)

// signUpResponse is either a full session or, when email confirmation is
// enabled, just the user record
type signUpResponse struct {
	backend.Session
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignInWithPassword exchanges email and password for a session
func (c *Client) SignInWithPassword(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	var session backend.Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   creds,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new user
func (c *Client) SignUp(ctx context.Context, creds backend.Credentials) (*backend.Session, *backend.User, error) {
	var resp signUpResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   creds,
	}, &resp)
	if err != nil {
		return nil, nil, err
	}
	if resp.AccessToken == "" {
		return nil, &backend.User{ID: resp.ID, Email: resp.Email}, nil
	}
	session := resp.Session
	return &session, &session.User, nil
}

// Refresh exchanges a refresh token for a new session
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	var session backend.Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser returns the user owning accessToken
func (c *Client) GetUser(ctx context.Context, accessToken string) (*backend.User, error) {
	var user backend.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session owning accessToken
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	}, nil)
}
