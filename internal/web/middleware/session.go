package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/quijoterun/tracker/internal/dependencies/random"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/session"
)

type contextKey string

const (
	sessionCookieName  = "session"
	sessionCookieAge   = 30 * 24 * 60 * 60
	storeContextKey    = contextKey("store")
	identityContextKey = contextKey("identity")
)

// GetStore retrieves the browser session's store from the request context
func GetStore(ctx context.Context) *session.Store {
	store, _ := ctx.Value(storeContextKey).(*session.Store)
	return store
}

// GetIdentity retrieves the signed-in identity from the request context.
// Returns nil if nobody is signed in.
func GetIdentity(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// WithIdentity returns ctx carrying identity
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// Session returns middleware that attaches the browser session's store to
// the request, issuing a session cookie on first visit
func Session(manager *session.Manager, rnd random.Random, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					key = cookie.Value
				}
			}
			if key == "" {
				key = rnd.UUID()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookieName,
					Value:    key,
					Path:     "/",
					MaxAge:   sessionCookieAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			store := manager.Store(key)
			ctx := context.WithValue(r.Context(), storeContextKey, store)
			ctx = WithIdentity(ctx, store.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
