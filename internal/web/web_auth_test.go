package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/factory"
)

func TestLoginPage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/login")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, ts.cookies.hasSession(), "Expected a session cookie on first visit")

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "h1", "Sign in")
	assertContainsElement(t, doc, "form[action='/login'] input[name='identifier']")
	assertContainsElement(t, doc, "form[action='/login'] input[name='password']")
	assertContainsElement(t, doc, "a[href='/register']")
	assertNotContainsElement(t, doc, ".setup-warning")
	assertNotContainsElement(t, doc, "nav")
}

func TestLoginWithUsername(t *testing.T) {
	ts := newWebTestServer(t)

	// A bare username gets the default domain appended
	form := url.Values{"identifier": {"runner1"}, "password": {factory.TestRunnerPassword}}
	rr := ts.post("/login", form)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .who", factory.TestRunnerEmail)
	assertNotContainsElement(t, doc, "nav a[href='/admin']")
}

func TestLoginShowsBackendError(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"identifier": {factory.TestRunnerEmail}, "password": {"wrong-password"}}
	rr := ts.post("/login", form)

	// Re-rendered inline so htmx swaps it in
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "Invalid login credentials")
	// The identifier is kept, the password is not
	val, _ := doc.Find("input[name='identifier']").Attr("value")
	assert.Equal(t, factory.TestRunnerEmail, val)
	pw, _ := doc.Find("input[name='password']").Attr("value")
	assert.Empty(t, pw)
}

func TestLoginRequiresBothFields(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/login", url.Values{"identifier": {"runner1"}})
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "password are required")
}

func TestLoginPageRedirectsWhenSignedIn(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginRunner()

	rr := ts.get("/login")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestSetupWarningWhenUnconfigured(t *testing.T) {
	ts := newWebTestServer(t, unconfigured())

	for _, path := range []string{"/login", "/register"} {
		rr := ts.get(path)
		require.Equal(t, http.StatusOK, rr.Code)
		doc := parseHTML(rr.Body)
		assertContainsText(t, doc, ".setup-warning", "SUPABASE_URL")
	}
}

func TestRegister(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"identifier": {"Runner2"}, "password": {"secret123"}}
	rr := ts.post("/register", form)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .who", "runner2@quijoterun.com")
	assertContainsText(t, doc, "#flash", "Welcome to QuijoteRun!")
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"identifier": {"runner1"}, "password": {"secret123"}}
	rr := ts.post("/register", form)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "h1", "Create your account")
	assertContainsText(t, doc, ".form-error", "User already registered")
}

func TestRegisterWeakPassword(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"identifier": {"runner3"}, "password": {"abc"}}
	rr := ts.post("/register", form)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "at least 6 characters")
}

func TestLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginRunner()

	rr := ts.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#flash", "signed out")
	assertNotContainsElement(t, doc, "nav")

	// The plan is no longer reachable
	rr = ts.get("/")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestProtectedPageRedirectsToLogin(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestProtectedPageHTMXRedirect(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.getHTMX("/")
	assert.Equal(t, "/login", rr.Header().Get("HX-Redirect"))
}
