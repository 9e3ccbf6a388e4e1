package web_test

import (
	"bytes"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/factory"
)

func TestUnknownPathRedirectsHome(t *testing.T) {
	ts := newWebTestServer(t)

	for _, path := range []string{"/nope", "/plan", "/workouts/1"} {
		rr := ts.get(path)
		assert.Equal(t, http.StatusSeeOther, rr.Code, path)
		assert.Equal(t, "/", rr.Header().Get("Location"), path)
	}
}

func TestUnknownPathSignedOutEndsAtLogin(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/somewhere")
	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestInvalidSessionCookieIsReplaced(t *testing.T) {
	ts := newWebTestServer(t)
	ts.cookies.cookies["session"] = &http.Cookie{Name: "session", Value: "not-a-uuid"}

	rr := ts.get("/login")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, "not-a-uuid", ts.cookies.cookies["session"].Value)
}

func TestFlashShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginRunner()

	rr := ts.post("/logout", nil)
	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#flash.flash-info")

	rr = ts.get("/login")
	doc = parseHTML(rr.Body)
	assertNotContainsElement(t, doc, "#flash")
}

func TestCSRFRejectsFormWithoutToken(t *testing.T) {
	ts := newWebTestServer(t, withCSRFKey(bytes.Repeat([]byte("k"), 32)))

	rr := ts.get("/login")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	token, ok := doc.Find("form[action='/login'] input[name='gorilla.csrf.Token']").Attr("value")
	require.True(t, ok, "Expected the form to carry a CSRF token")
	require.NotEmpty(t, token)

	form := url.Values{"identifier": {"runner1"}, "password": {factory.TestRunnerPassword}}
	rr = ts.post("/login", form)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	form.Set("gorilla.csrf.Token", token)
	rr = ts.post("/login", form)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}
