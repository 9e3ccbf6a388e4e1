package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quijoterun/tracker/internal/api"
	"github.com/quijoterun/tracker/internal/api/apierr"
	"github.com/quijoterun/tracker/internal/api/response"
	"github.com/quijoterun/tracker/internal/factory"
	"github.com/quijoterun/tracker/internal/services/plan"
	"github.com/quijoterun/tracker/internal/testutil"
)

// testServer creates a test server over a seeded in-process backend
type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	require.NoError(t, app.Seed())
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:     testutil.NopLogger(),
		Clock:      app.MockClock,
		Random:     app.MockRandom,
		Sessions:   app.Sessions,
		Catalog:    app.Catalog,
		Plans:      app.Plans,
		Console:    app.Console,
		HubManager: app.HubManager,
		Configured: true,
	})

	return &testServer{t: t, handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) login(identifier, password string) response.SessionResponse {
	ts.t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/session", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, "")
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.SessionResponse
	require.NoError(ts.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(ts.t, resp.SessionToken)
	return resp
}

func (ts *testServer) runnerToken() string {
	return ts.login("runner1", factory.TestRunnerPassword).SessionToken
}

func (ts *testServer) operatorToken() string {
	return ts.login("admin", factory.TestOperatorPassword).SessionToken
}

func (ts *testServer) plan(token string) response.Plan {
	ts.t.Helper()
	rr := ts.request(http.MethodGet, "/api/v1/plan", nil, token)
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())
	var p response.Plan
	require.NoError(ts.t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","configured":true}`, rr.Body.String())
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.login("runner1", factory.TestRunnerPassword)
	assert.Equal(t, factory.TestRunnerEmail, resp.Identity.Email)
	assert.False(t, resp.Identity.Privileged)

	operator := ts.login(factory.TestOperatorEmail, factory.TestOperatorPassword)
	assert.True(t, operator.Identity.Privileged)
	assert.NotEqual(t, resp.SessionToken, operator.SessionToken)
}

func TestLoginErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		body    any
		status  int
		code    string
		message string
	}{
		{"wrong password", map[string]string{"identifier": "runner1", "password": "nope-nope"}, http.StatusUnauthorized, apierr.CodeInvalidCredentials, "Invalid login credentials"},
		{"missing password", map[string]string{"identifier": "runner1"}, http.StatusBadRequest, apierr.CodeInvalidRequest, "password are required"},
		{"not json", "identifier=runner1", http.StatusBadRequest, apierr.CodeInvalidRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/session", tt.body, "")
			assert.Equal(t, tt.status, rr.Code)
			apiErr := decodeError(t, rr)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Contains(t, apiErr.Message, tt.message)
		})
	}
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"identifier": "Runner2",
		"password":   "secret-pass",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "runner2@quijoterun.com", resp.Identity.Email)

	// The new token works straight away
	rr = ts.request(http.MethodGet, "/api/v1/me", nil, resp.SessionToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Registering again is a conflict with the backend's message
	rr = ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"identifier": "runner2",
		"password":   "secret-pass",
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeAccountExists, apiErr.Code)
	assert.Equal(t, "User already registered", apiErr.Message)
}

func TestRegisterWeakPassword(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/register", map[string]string{
		"identifier": "runner3",
		"password":   "123",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeBackendRejected, apiErr.Code)
	assert.Equal(t, "Password should be at least 6 characters.", apiErr.Message)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	for _, token := range []string{"", "not-a-uuid", "00000000-0000-4000-8000-999999999999"} {
		rr := ts.request(http.MethodGet, "/api/v1/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, token)
		assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)
	}
}

func TestMeAndLogout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.runnerToken()

	rr := ts.request(http.MethodGet, "/api/v1/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var me response.Identity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, factory.TestRunnerEmail, me.Email)

	rr = ts.request(http.MethodDelete, "/api/v1/session", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	token := ts.runnerToken()

	rr := ts.request(http.MethodGet, "/api/v1/events", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var events []response.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "Valencia Marathon", events[0].Name)
	assert.Equal(t, "Seville Marathon", events[1].Name)
	assert.True(t, events[0].Date.Before(events[1].Date))
}

func TestPlanOfNearestEvent(t *testing.T) {
	ts := newTestServer(t)
	p := ts.plan(ts.runnerToken())

	assert.Equal(t, "Valencia Marathon", p.Event.Name)
	assert.Equal(t, 10, p.WeeksRemaining)
	assert.Equal(t, 69, p.Countdown.Days)
	assert.Equal(t, 20, p.Countdown.Hours)
	assert.False(t, p.Countdown.Done)

	require.Len(t, p.Weeks, 4)
	for i, week := range p.Weeks {
		assert.Equal(t, i+1, week.Number)
		assert.Len(t, week.Workouts, 2)
	}
	assert.False(t, p.Weeks[0].Workouts[0].Progress.Completed)
}

func TestEventPlan(t *testing.T) {
	ts := newTestServer(t)
	token := ts.runnerToken()
	events, err := ts.app.Events()
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/events/"+string(events[1].ID)+"/plan", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var p response.Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Seville Marathon", p.Event.Name)

	rr = ts.request(http.MethodGet, "/api/v1/events/missing/plan", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeEventNotFound, decodeError(t, rr).Code)
}

func TestToggleAndNotes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.runnerToken()
	workout := ts.plan(token).Weeks[0].Workouts[0].Workout
	base := "/api/v1/workouts/" + workout.ID

	// Notes need a record, which only the first toggle creates
	rr := ts.request(http.MethodPut, base+"/notes", map[string]string{"field": "sensations", "value": "early"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var progress response.Progress
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progress))
	assert.Empty(t, progress.Sensations)

	rr = ts.request(http.MethodPost, base+"/toggle", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progress))
	assert.True(t, progress.Completed)

	rr = ts.request(http.MethodPut, base+"/notes", map[string]string{"field": "sensations", "value": "Legs felt fresh"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progress))
	assert.Equal(t, "Legs felt fresh", progress.Sensations)
	assert.True(t, progress.Completed)

	rr = ts.request(http.MethodPut, base+"/discomfort", map[string]bool{"checked": true}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progress))
	assert.Equal(t, plan.DiscomfortPlaceholder, progress.Discomfort)

	rr = ts.request(http.MethodPost, base+"/toggle", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &progress))
	assert.False(t, progress.Completed)
	assert.Equal(t, "Legs felt fresh", progress.Sensations)

	// The plan reflects the stored record
	p := ts.plan(token)
	assert.Equal(t, "Legs felt fresh", p.Weeks[0].Workouts[0].Progress.Sensations)
}

func TestNotesUnknownField(t *testing.T) {
	ts := newTestServer(t)
	token := ts.runnerToken()
	workout := ts.plan(token).Weeks[0].Workouts[0].Workout

	rr := ts.request(http.MethodPut, "/api/v1/workouts/"+workout.ID+"/notes", map[string]string{"field": "completed", "value": "true"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnknownNoteField, decodeError(t, rr).Code)
}

func TestToggleMissingWorkout(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/workouts/missing/toggle", nil, ts.runnerToken())
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeWorkoutNotFound, decodeError(t, rr).Code)
}

func TestAdminRequiresOperator(t *testing.T) {
	ts := newTestServer(t)
	token := ts.runnerToken()

	rr := ts.request(http.MethodGet, "/api/v1/admin/runners", nil, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeForbidden, decodeError(t, rr).Code)

	rr = ts.request(http.MethodGet, "/api/v1/admin/runners", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminWorkoutLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.operatorToken()
	events, err := ts.app.Events()
	require.NoError(t, err)
	eventID := string(events[0].ID)

	// Create
	rr := ts.request(http.MethodPost, "/api/v1/admin/workouts", map[string]any{
		"event_id":    eventID,
		"week":        5,
		"title":       "Taper",
		"description": "Short and *sharp*.",
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var workouts []response.Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &workouts))
	require.Len(t, workouts, 9)
	created := workouts[len(workouts)-1]
	assert.Equal(t, "Taper", created.Title)
	assert.Equal(t, 5, created.Week)

	// Update keeps the event
	rr = ts.request(http.MethodPut, "/api/v1/admin/workouts/"+created.ID, map[string]any{
		"week":        6,
		"title":       "Taper week",
		"description": "Short and *sharp*.",
	}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/admin/events/"+eventID+"/workouts", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &workouts))
	last := workouts[len(workouts)-1]
	assert.Equal(t, created.ID, last.ID)
	assert.Equal(t, "Taper week", last.Title)
	assert.Equal(t, 6, last.Week)
	assert.Equal(t, eventID, last.EventID)

	// Delete needs confirmation
	rr = ts.request(http.MethodDelete, "/api/v1/admin/workouts/"+created.ID, nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeConfirmationRequired, decodeError(t, rr).Code)

	rr = ts.request(http.MethodDelete, "/api/v1/admin/workouts/"+created.ID+"?confirm=true", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/admin/workouts/"+created.ID+"?confirm=true", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeWorkoutNotFound, decodeError(t, rr).Code)
}

func TestAdminInvalidWorkout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.operatorToken()
	events, err := ts.app.Events()
	require.NoError(t, err)

	rr := ts.request(http.MethodPost, "/api/v1/admin/workouts", map[string]any{
		"event_id":    string(events[0].ID),
		"week":        0,
		"title":       "Bad week",
		"description": "Nothing",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeInvalidWorkout, apiErr.Code)
	assert.Contains(t, apiErr.Message, "week must be at least 1")

	rr = ts.request(http.MethodPost, "/api/v1/admin/workouts", map[string]any{
		"event_id":    "missing",
		"week":        1,
		"title":       "Lost",
		"description": "Nowhere",
	}, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeEventNotFound, decodeError(t, rr).Code)
}

func TestAdminRunners(t *testing.T) {
	ts := newTestServer(t)
	runner := ts.runnerToken()
	p := ts.plan(runner)
	for _, w := range p.Weeks[0].Workouts {
		rr := ts.request(http.MethodPost, "/api/v1/workouts/"+w.Workout.ID+"/toggle", nil, runner)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/admin/runners", nil, ts.operatorToken())
	require.Equal(t, http.StatusOK, rr.Code)

	var summaries []response.RunnerSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	// Ordered by email
	assert.Equal(t, factory.TestOperatorEmail, summaries[0].Email)
	assert.Equal(t, factory.TestRunnerEmail, summaries[1].Email)
	assert.Equal(t, 2, summaries[1].Completed)
	assert.Equal(t, 8, summaries[1].Total)
	assert.Equal(t, 25, summaries[1].Percentage)
	assert.Equal(t, 0, summaries[0].Percentage)
}
