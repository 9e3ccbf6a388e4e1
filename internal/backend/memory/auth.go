package memory

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
)

const minPasswordLength = 6

type account struct {
	user         backend.User
	passwordHash []byte
}

var errInvalidCredentials = &backend.Error{
	Status:  http.StatusBadRequest,
	Code:    "invalid_credentials",
	Message: "Invalid login credentials",
}

var errInvalidRefreshToken = &backend.Error{
	Status:  http.StatusBadRequest,
	Code:    "refresh_token_not_found",
	Message: "Invalid Refresh Token: Refresh Token Not Found",
}

// CreateUser registers an account directly, bypassing sign-up. role is stored
// as the app_metadata role claim when non-empty.
func (b *Backend) CreateUser(ctx context.Context, creds backend.Credentials, role string) (*backend.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, err := b.createAccount(creds, role)
	if err != nil {
		return nil, err
	}
	user := acct.user
	return &user, nil
}

// createAccount adds an account and its profile row. Caller holds the lock.
func (b *Backend) createAccount(creds backend.Credentials, role string) (*account, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &backend.Error{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
	}
	if len(creds.Password) < minPasswordLength {
		return nil, &backend.Error{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password should be at least 6 characters."}
	}
	if _, exists := b.accounts[email]; exists {
		return nil, &backend.Error{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := b.clock.Now().UTC()
	acct := &account{
		user: backend.User{
			ID:           b.random.UUID(),
			Email:        email,
			UserMetadata: map[string]any{},
			AppMetadata:  map[string]any{"provider": "email"},
			CreatedAt:    &now,
		},
		passwordHash: hash,
	}
	if role != "" {
		acct.user.AppMetadata["role"] = role
	}
	b.accounts[email] = acct

	// What a database trigger on the hosted service does for new users
	b.tables[model.TableProfiles] = append(b.tables[model.TableProfiles], row{
		"id":         acct.user.ID,
		"email":      email,
		"role":       role,
		"created_at": now.Format(time.RFC3339Nano),
	})
	return acct, nil
}

// SignInWithPassword checks creds against the stored bcrypt hash
func (b *Backend) SignInWithPassword(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(creds.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	return b.issueSession(acct)
}

// SignUp creates an account and signs it in immediately
func (b *Backend) SignUp(ctx context.Context, creds backend.Credentials) (*backend.Session, *backend.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, err := b.createAccount(creds, "")
	if err != nil {
		return nil, nil, err
	}
	session, err := b.issueSession(acct)
	if err != nil {
		return nil, nil, err
	}
	return session, &session.User, nil
}

// Refresh rotates a refresh token
func (b *Backend) Refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.refresh[refreshToken]
	if !ok {
		return nil, errInvalidRefreshToken
	}
	delete(b.refresh, refreshToken)

	acct := b.accountByID(userID)
	if acct == nil {
		return nil, errInvalidRefreshToken
	}
	return b.issueSession(acct)
}

// GetUser verifies accessToken and returns its owner
func (b *Backend) GetUser(ctx context.Context, accessToken string) (*backend.User, error) {
	claims, err := backend.ParseAccessTokenAt(accessToken, b.cfg.JWTSecret, b.clock.Now())
	if err != nil {
		return nil, &backend.Error{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT: unable to parse or verify signature"}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	acct := b.accountByID(claims.Subject)
	if acct == nil {
		return nil, &backend.Error{Status: http.StatusNotFound, Code: "user_not_found", Message: "User from sub claim in JWT does not exist"}
	}
	user := acct.user
	return &user, nil
}

// SignOut revokes every refresh token of the token's owner
func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	claims, err := backend.ParseAccessTokenAt(accessToken, b.cfg.JWTSecret, b.clock.Now())
	if err != nil {
		// Already unusable; nothing to revoke
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for token, userID := range b.refresh {
		if userID == claims.Subject {
			delete(b.refresh, token)
		}
	}
	return nil
}

// accountByID finds an account by user id. Caller holds the lock.
func (b *Backend) accountByID(id string) *account {
	for _, acct := range b.accounts {
		if acct.user.ID == id {
			return acct
		}
	}
	return nil
}

// issueSession signs an access token and records a refresh token.
// Caller holds the lock.
func (b *Backend) issueSession(acct *account) (*backend.Session, error) {
	now := b.clock.Now()
	expiresAt := now.Add(b.cfg.TokenTTL)

	token, err := backend.SignAccessToken(backend.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:        acct.user.Email,
		Role:         "authenticated",
		UserMetadata: acct.user.UserMetadata,
		AppMetadata:  acct.user.AppMetadata,
	}, b.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshToken := b.random.Token(32)
	b.refresh[refreshToken] = acct.user.ID

	return &backend.Session{
		AccessToken:  token,
		TokenType:    "bearer",
		ExpiresIn:    int64(b.cfg.TokenTTL.Seconds()),
		ExpiresAt:    expiresAt.Unix(),
		RefreshToken: refreshToken,
		User:         acct.user,
	}, nil
}
