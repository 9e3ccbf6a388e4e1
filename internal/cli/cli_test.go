package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/api"
	"github.com/quijoterun/tracker/internal/factory"
	"github.com/quijoterun/tracker/internal/testutil"
	"github.com/quijoterun/tracker/internal/web"
	"github.com/quijoterun/tracker/internal/web/sse"
)

// cliHarness runs commands against a seeded server
type cliHarness struct {
	t         *testing.T
	url       string
	tokenFile string
	app       *factory.TestApp
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	t.Setenv("QRUN_TOKEN", "")

	app := factory.NewTestApp()
	require.NoError(t, app.Seed())
	t.Cleanup(func() { _ = app.Close() })

	logger := testutil.NopLogger()
	hubManager := sse.NewHubManager(app.MockClock, 20*time.Millisecond, logger)
	t.Cleanup(hubManager.Close)

	router := mux.NewRouter()
	api.Mount(router, api.RouterConfig{
		Logger:     logger,
		Clock:      app.MockClock,
		Random:     app.MockRandom,
		Sessions:   app.Sessions,
		Catalog:    app.Catalog,
		Plans:      app.Plans,
		Console:    app.Console,
		HubManager: hubManager,
		Configured: true,
	})
	router.PathPrefix("/").Handler(web.NewRouter(web.RouterConfig{
		Logger:     logger,
		Clock:      app.MockClock,
		Random:     app.MockRandom,
		Sessions:   app.Sessions,
		Catalog:    app.Catalog,
		Plans:      app.Plans,
		Console:    app.Console,
		HubManager: hubManager,
		Configured: true,
	}))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &cliHarness{
		t:         t,
		url:       srv.URL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
		app:       app,
	}
}

func (h *cliHarness) runContext(ctx context.Context, format string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--server", h.url,
		"--token-file", h.tokenFile,
		"--output", format,
	}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (h *cliHarness) text(args ...string) (string, error) {
	return h.runContext(context.Background(), "text", args...)
}

func (h *cliHarness) json(result any, args ...string) {
	h.t.Helper()
	out, err := h.runContext(context.Background(), "json", args...)
	require.NoError(h.t, err, out)
	require.NoError(h.t, json.Unmarshal([]byte(out), result), out)
}

func (h *cliHarness) loginRunner() {
	h.t.Helper()
	out, err := h.text("login", "runner1", "--pass", factory.TestRunnerPassword)
	require.NoError(h.t, err, out)
}

func (h *cliHarness) loginOperator() {
	h.t.Helper()
	out, err := h.text("login", "admin", "--pass", factory.TestOperatorPassword)
	require.NoError(h.t, err, out)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	out, err := h.text("health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server: "+h.url)
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "Backend configured: yes")
}

func TestLoginSavesToken(t *testing.T) {
	h := newHarness(t)

	var result SessionResult
	h.json(&result, "login", "runner1", "--pass", factory.TestRunnerPassword)
	assert.Equal(t, factory.TestRunnerEmail, result.Identity.Email)

	saved, err := os.ReadFile(h.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, result.SessionToken, string(saved))

	out, err := h.text("me")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as: "+factory.TestRunnerEmail)
	assert.Contains(t, out, "Role: runner")
}

func TestLoginFailureKeepsBackendMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.text("login", "runner1", "--pass", "wrong-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.NoFileExists(t, h.tokenFile)
}

func TestRegisterAndLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.text("register", "runner2", "--pass", "secret-pass")
	require.NoError(t, err, out)
	assert.Contains(t, out, "runner2@quijoterun.com")

	out, err = h.text("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.NoFileExists(t, h.tokenFile)

	_, err = h.text("me")
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
}

func TestEventsAndPlan(t *testing.T) {
	h := newHarness(t)
	h.loginRunner()

	var events []Event
	h.json(&events, "events")
	require.Len(t, events, 2)
	assert.Equal(t, "Valencia Marathon", events[0].Name)

	out, err := h.text("plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Valencia Marathon")
	assert.Contains(t, out, "Weeks remaining: 10")
	assert.Contains(t, out, "Countdown: 69d 20h 00m 00s")
	assert.Contains(t, out, "Week 4")
	assert.Contains(t, out, "[ ] Easy run")

	var plan Plan
	h.json(&plan, "plan", "--event", events[1].ID)
	assert.Equal(t, "Seville Marathon", plan.Event.Name)
}

func TestToggleAndNotes(t *testing.T) {
	h := newHarness(t)
	h.loginRunner()

	var plan Plan
	h.json(&plan, "plan")
	workout := plan.Weeks[0].Workouts[0].Workout

	out, err := h.text("toggle", workout.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.NotContains(t, out, "not completed")

	out, err = h.text("notes", workout.ID, "Smooth and easy")
	require.NoError(t, err)
	assert.Contains(t, out, "Sensations: Smooth and easy")

	out, err = h.text("discomfort", workout.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Discomfort: Discomfort in...")

	out, err = h.text("plan")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] "+workout.Title)
	assert.Contains(t, out, "Sensations: Smooth and easy")

	_, err = h.text("notes", workout.ID, "x", "--field", "mood")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_NOTE_FIELD")
}

func TestCountdown(t *testing.T) {
	h := newHarness(t)
	h.loginRunner()

	out, err := h.text("countdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Valencia Marathon: 69d 20h 00m 00s")
	assert.Contains(t, out, "Weeks remaining: 10")
}

func TestCountdownFollow(t *testing.T) {
	h := newHarness(t)
	h.loginRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := h.runContext(ctx, "text", "countdown", "--follow")
	require.NoError(t, err)
	assert.Contains(t, out, "Counting down to Valencia Marathon")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "countdown: 69d 20h 00m 00s")
	assert.Contains(t, out, "Disconnected")
}

func TestCountdownFollowRequiresSession(t *testing.T) {
	h := newHarness(t)
	h.loginRunner()
	events, err := h.app.Events()
	require.NoError(t, err)

	// A token for a session nobody signed in to
	cfg = DefaultConfig()
	cfg.ServerURL = h.url
	cfg.Token = "00000000-0000-4000-8000-999999999999"

	err = streamCountdown(context.Background(), &bytes.Buffer{}, Event{ID: string(events[0].ID)}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in again")
}

func TestWorkoutsLifecycle(t *testing.T) {
	h := newHarness(t)
	h.loginOperator()
	events, err := h.app.Events()
	require.NoError(t, err)
	eventID := string(events[0].ID)

	var workouts []Workout
	h.json(&workouts, "workouts", "create", "--event", eventID, "--week", "5", "--title", "Taper", "--description", "Short and *sharp*.")
	require.Len(t, workouts, 9)
	created := workouts[len(workouts)-1]
	assert.Equal(t, "Taper", created.Title)

	h.json(&workouts, "workouts", "update", created.ID, "--week", "6", "--title", "Taper week", "--description", "Easy.")
	assert.Equal(t, "Taper week", workouts[len(workouts)-1].Title)

	out, err := h.text("workouts", "list", eventID)
	require.NoError(t, err)
	assert.Contains(t, out, "Taper week")
	assert.Contains(t, out, created.ID)

	_, err = h.text("workouts", "delete", created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIRMATION_REQUIRED")

	out, err = h.text("workouts", "delete", created.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Workout deleted")

	out, err = h.text("workouts", "list", eventID)
	require.NoError(t, err)
	assert.NotContains(t, out, created.ID)
}

func TestWorkoutsCreateRequiresEvent(t *testing.T) {
	h := newHarness(t)
	h.loginOperator()

	_, err := h.text("workouts", "create", "--title", "Taper", "--description", "Easy.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--event is required")
}

func TestRunners(t *testing.T) {
	h := newHarness(t)
	h.loginRunner()

	var plan Plan
	h.json(&plan, "plan")
	_, err := h.text("toggle", plan.Weeks[0].Workouts[0].Workout.ID)
	require.NoError(t, err)

	// Runners may not see the summary
	_, err = h.text("runners")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORBIDDEN")

	h.loginOperator()
	out, err := h.text("runners")
	require.NoError(t, err)
	assert.Contains(t, out, factory.TestRunnerEmail)
	assert.Contains(t, out, "1 / 8")
	assert.Contains(t, out, "12%")
}

func TestVerboseTracesRequests(t *testing.T) {
	h := newHarness(t)

	out, err := h.text("--verbose", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "msg=\"api request\"")
	assert.Contains(t, out, "path=/api/v1/health")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "authenticated=false")
}
