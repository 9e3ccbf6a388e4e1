package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/config"
	"github.com/quijoterun/tracker/internal/factory"
	"github.com/quijoterun/tracker/internal/testutil"
)

func TestNewRouterRejectsBadCSRFKey(t *testing.T) {
	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	r, err := newRouter(config.Config{CSRFKey: "abcd"}, app.App, true, testutil.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSRF_KEY")
	assert.Nil(t, r)
}

func TestNewRouterServesAPIAndMetrics(t *testing.T) {
	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	cfg := config.Config{CSRFKey: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"}
	r, err := newRouter(cfg, app.App, true, testutil.NopLogger())
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
