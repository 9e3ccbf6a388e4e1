package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quijoterun/tracker/internal/api/apierr"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/session"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	storeContextKey    contextKey = "store"
)

// DefaultSessionWait bounds how long a request waits for a token's session check
const DefaultSessionWait = 5 * time.Second

// Auth creates authentication middleware. The bearer token is the session
// key handed out by POST /session; the backend access token it maps to is
// attached to the request context.
func Auth(manager *session.Manager, wait time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if _, err := uuid.Parse(token); err != nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			store := manager.Store(token)
			waitCtx, cancel := context.WithTimeout(r.Context(), wait)
			err := store.Wait(waitCtx)
			cancel()
			if err != nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := store.Context(r.Context())
			identity := store.Identity()
			if identity == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx = context.WithValue(ctx, storeContextKey, store)
			ctx = context.WithValue(ctx, identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrivileged rejects callers that may not use the operator console
func RequirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if identity == nil || !identity.Privileged {
			apierr.WriteError(w, apierr.NewForbiddenError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the session token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// GetIdentity returns the authenticated identity from the request context
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// GetStore returns the session store of the request's token
func GetStore(ctx context.Context) *session.Store {
	store, _ := ctx.Value(storeContextKey).(*session.Store)
	return store
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) *model.Identity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
