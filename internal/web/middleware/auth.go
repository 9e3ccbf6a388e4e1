package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/quijoterun/tracker/internal/web/templates/layout"
	"github.com/quijoterun/tracker/internal/web/templates/pages"
)

// DefaultSessionWait is how long a request waits for a pending session check
// before the waiting page is shown
const DefaultSessionWait = 300 * time.Millisecond

// RequireIdentity returns middleware that requires a signed-in identity.
// While the session check is pending the waiting page is rendered; once it
// has finished without an identity the request is redirected to /login.
// The access token is attached to the request context for backend calls.
func RequireIdentity(wait time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := GetStore(r.Context())
			if store == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			waitCtx, cancel := context.WithTimeout(r.Context(), wait)
			_ = store.Wait(waitCtx)
			cancel()

			snapshot := store.Snapshot()
			if snapshot.Loading {
				renderWaiting(w, r)
				return
			}
			if snapshot.Identity == nil {
				redirect(w, r, "/login")
				return
			}

			ctx := store.Context(r.Context())
			// The refresh above may have signed the session out
			identity := store.Identity()
			if identity == nil {
				redirect(w, r, "/login")
				return
			}
			ctx = WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrivileged returns middleware that lets only operators through.
// Everyone else is sent to the plan page.
func RequirePrivileged() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil || !identity.Privileged {
				redirect(w, r, "/")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalIdentity returns middleware that waits briefly for the session
// check so public pages know whether someone is signed in
func OptionalIdentity(wait time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := GetStore(r.Context())
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			waitCtx, cancel := context.WithTimeout(r.Context(), wait)
			_ = store.Wait(waitCtx)
			cancel()

			ctx := WithIdentity(r.Context(), store.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redirect sends the browser to url, using HX-Redirect for htmx requests
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func renderWaiting(w http.ResponseWriter, r *http.Request) {
	data := pages.WaitingData{
		PageData:       layout.PageData{Title: "Loading"},
		RefreshSeconds: 1,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pages.Waiting(data).Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
