package web_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/factory"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/web"
	"github.com/quijoterun/tracker/internal/web/sse"
)

// testTickInterval keeps countdown streams fast enough to observe in tests
const testTickInterval = 20 * time.Millisecond

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	hubs    *sse.HubManager
	cookies *cookieJar
}

type serverOption func(*web.RouterConfig)

func withCSRFKey(key []byte) serverOption {
	return func(cfg *web.RouterConfig) {
		cfg.CSRFKey = key
	}
}

func unconfigured() serverOption {
	return func(cfg *web.RouterConfig) {
		cfg.Configured = false
	}
}

// newWebTestServer creates a new test server over a seeded in-process backend
func newWebTestServer(t *testing.T, opts ...serverOption) *webTestServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := factory.NewTestApp()
	require.NoError(t, app.Seed())
	t.Cleanup(func() { _ = app.Close() })

	hubManager := sse.NewHubManager(app.MockClock, testTickInterval, logger)
	t.Cleanup(hubManager.Close)

	cfg := web.RouterConfig{
		Logger:     logger,
		Clock:      app.MockClock,
		Random:     app.MockRandom,
		Sessions:   app.Sessions,
		Catalog:    app.Catalog,
		Plans:      app.Plans,
		Console:    app.Console,
		HubManager: hubManager,
		Configured: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &webTestServer{
		t:       t,
		handler: web.NewRouter(cfg),
		app:     app,
		hubs:    hubManager,
		cookies: newCookieJar(),
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, false)
}

// getHTMX makes a GET request as an HTMX request
func (ts *webTestServer) getHTMX(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, true)
}

// post makes a POST request with form data (non-HTMX)
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form, false)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// hasSession returns true if the session cookie is set
func (j *cookieJar) hasSession() bool {
	_, ok := j.cookies["session"]
	return ok
}

// Helper functions for common test operations

// login signs in through the form and expects to land on the plan
func (ts *webTestServer) login(identifier, password string) {
	ts.t.Helper()
	form := url.Values{"identifier": {identifier}, "password": {password}}
	rr := ts.post("/login", form)
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after sign in")
	require.Equal(ts.t, "/", rr.Header().Get("Location"))
	require.True(ts.t, ts.cookies.hasSession(), "Expected session cookie to be set")
}

// loginRunner signs in as the seeded runner
func (ts *webTestServer) loginRunner() {
	ts.t.Helper()
	ts.login(factory.TestRunnerEmail, factory.TestRunnerPassword)
}

// loginOperator signs in as the seeded operator
func (ts *webTestServer) loginOperator() {
	ts.t.Helper()
	ts.login("admin", factory.TestOperatorPassword)
}

// browser returns a second client of the same server with its own cookies
func (ts *webTestServer) browser() *webTestServer {
	return &webTestServer{t: ts.t, handler: ts.handler, app: ts.app, hubs: ts.hubs, cookies: newCookieJar()}
}

// firstEvent returns the nearest seeded event
func (ts *webTestServer) firstEvent() model.Event {
	ts.t.Helper()
	events, err := ts.app.Events()
	require.NoError(ts.t, err)
	require.NotEmpty(ts.t, events)
	return events[0]
}

// workouts returns the workouts of an event in plan order
func (ts *webTestServer) workouts(eventID model.EventID) []model.Workout {
	ts.t.Helper()
	workouts, err := ts.app.Catalog.Workouts(ts.t.Context(), eventID)
	require.NoError(ts.t, err)
	return workouts
}

// followRedirect follows a redirect and returns the response
// Works with both traditional Location headers and HTMX HX-Redirect headers
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	// Check for HTMX redirect first
	location := rr.Header().Get("HX-Redirect")
	if location == "" {
		// Fall back to traditional redirect
		location = rr.Header().Get("Location")
	}
	require.NotEmpty(ts.t, location, "Expected Location or HX-Redirect header for redirect")
	return ts.get(location)
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
