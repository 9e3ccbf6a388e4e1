package backend

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of a backend access token
type AccessClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
}

// RoleClaim returns the application role carried in the token metadata.
// The top level role claim is the database role and is ignored.
func (c *AccessClaims) RoleClaim() string {
	return roleFromMetadata(c.UserMetadata, c.AppMetadata)
}

// SignAccessToken issues an HS256 token for claims
func SignAccessToken(claims AccessClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken reads the claims of an access token. When secret is set
// the signature and expiry are verified; otherwise the token is decoded
// without verification, which is only good enough to learn its expiry.
func ParseAccessToken(token, secret string) (*AccessClaims, error) {
	return ParseAccessTokenAt(token, secret, time.Now())
}

// ParseAccessTokenAt is ParseAccessToken with expiry checked against now
func ParseAccessTokenAt(token, secret string, now time.Time) (*AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &AccessClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return claims, nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExpiryOf returns the expiry of an access token without verifying it,
// or the zero time when the token carries none.
func ExpiryOf(token string) time.Time {
	claims, err := ParseAccessToken(token, "")
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func roleFromMetadata(userMeta, appMeta map[string]any) string {
	if role, ok := userMeta["role"].(string); ok && role != "" {
		return role
	}
	if role, ok := appMeta["role"].(string); ok {
		return role
	}
	return ""
}
