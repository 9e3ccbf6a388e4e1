package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/backend"
	membackend "github.com/quijoterun/tracker/internal/backend/memory"
	"github.com/quijoterun/tracker/internal/dependencies/mocks"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/session"
	"github.com/quijoterun/tracker/internal/storage/memory"
	"github.com/quijoterun/tracker/internal/testutil"
	"github.com/quijoterun/tracker/internal/web/templates/layout"
)

// gatedStorage holds every session lookup until release is closed
type gatedStorage struct {
	*memory.Storage
	release chan struct{}
}

func (g *gatedStorage) GetSession(ctx context.Context, key string) (*backend.Session, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Storage.GetSession(ctx, key)
}

func newManager(t *testing.T, storage backend.SessionStorage) *session.Manager {
	t.Helper()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mem := membackend.New(membackend.Config{JWTSecret: "middleware-test-secret"}, clk, mocks.NewMockRandom())
	auth := backend.NewAuth(mem, storage, clk, testutil.NopLogger())
	manager := session.NewManager(auth, session.DefaultConfig(), clk, testutil.NopLogger())
	manager.Start()
	t.Cleanup(manager.Close)
	return manager
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestSessionIssuesCookie(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueUUID("6f1c2d1e-6a57-4f7c-9a3e-1d2b3c4d5e6f")
	manager := newManager(t, memory.New(0, mocks.NewMockClock(time.Now())))

	var store *session.Store
	h := Session(manager, rnd, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store = GetStore(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "6f1c2d1e-6a57-4f7c-9a3e-1d2b3c4d5e6f", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	require.NotNil(t, store)
	assert.Equal(t, cookies[0].Value, store.Key())

	// A valid cookie is reused as is
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Result().Cookies())
}

func TestRequireIdentityShowsWaitingPage(t *testing.T) {
	gate := &gatedStorage{
		Storage: memory.New(0, mocks.NewMockClock(time.Now())),
		release: make(chan struct{}),
	}
	manager := newManager(t, gate)
	h := Session(manager, mocks.NewMockRandom(), false)(RequireIdentity(10 * time.Millisecond)(http.HandlerFunc(okHandler)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Body.String(), "Loading your session")
	assert.Contains(t, rr.Body.String(), `http-equiv="refresh"`)

	// Once the check finishes without a session the visitor is sent to sign in
	close(gate.release)
	cookie := rr.Result().Cookies()[0]
	store, ok := manager.Lookup(cookie.Value)
	require.True(t, ok)
	require.NoError(t, store.Wait(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestRequirePrivileged(t *testing.T) {
	policy := model.DefaultPrivilegePolicy()
	h := RequirePrivileged()(http.HandlerFunc(okHandler))

	tests := []struct {
		name     string
		identity *model.Identity
		htmx     bool
		code     int
		location string
		hx       string
	}{
		{"operator", model.NewIdentity("u1", "admin@quijoterun.com", "", policy), false, http.StatusOK, "", ""},
		{"admin role", model.NewIdentity("u2", "coach@example.com", "admin", policy), false, http.StatusOK, "", ""},
		{"runner", model.NewIdentity("u3", "runner1@quijoterun.com", "", policy), false, http.StatusSeeOther, "/", ""},
		{"runner htmx", model.NewIdentity("u3", "runner1@quijoterun.com", "", policy), true, http.StatusOK, "", "/"},
		{"nobody", nil, false, http.StatusSeeOther, "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			req = req.WithContext(WithIdentity(req.Context(), tt.identity))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
			assert.Equal(t, tt.hx, rr.Header().Get("HX-Redirect"))
		})
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	SetFlash(rr, FlashError, `Could not save; "retry" ¡pronto!`)
	cookie := rr.Result().Cookies()[0]

	var got *layout.FlashMessage
	h := Flash()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetFlash(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.NotNil(t, got)
	assert.Equal(t, FlashError, got.Type)
	assert.Equal(t, "Could not save   retry  pronto!", got.Message)

	// The cookie is cleared once read
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestParseFlashWithoutType(t *testing.T) {
	f := parseFlash("just a message")
	assert.Equal(t, FlashInfo, f.Type)
	assert.Equal(t, "just a message", f.Message)
}
