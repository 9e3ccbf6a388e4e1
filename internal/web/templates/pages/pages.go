package pages

import (
	"net/url"
	"time"

	"github.com/a-h/templ"

	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/web/templates/components"
	"github.com/quijoterun/tracker/internal/web/templates/layout"
)

// AuthData is the data for the sign-in and registration forms
type AuthData struct {
	layout.PageData
	Identifier string
	Error      string
	// Configured is false when the backend settings are missing
	Configured bool
}

// WaitingData is the data for the session check page
type WaitingData struct {
	layout.PageData
	RefreshSeconds int
}

// page returns the layout data with the reload set, at least one second
func (d WaitingData) page() layout.PageData {
	page := d.PageData
	page.Refresh = max(d.RefreshSeconds, 1)
	return page
}

// WeekData is one week of the plan
type WeekData struct {
	Number   int
	Workouts []components.WorkoutCardData
}

// PlanData is the data for the runner's plan page
type PlanData struct {
	layout.PageData
	Events         []model.Event
	Selected       *model.Event
	SelectedID     model.EventID
	WeeksRemaining int
	Countdown      components.CountdownData
	Weeks          []WeekData
}

// ConsoleData is the data for the operator console
type ConsoleData struct {
	layout.PageData
	Events     []model.Event
	Selected   *model.Event
	SelectedID model.EventID
	Workouts   []model.Workout
	ShowDraft  bool
	Draft      console.Draft
	FormError  string
	Summary    components.RunnerSummaryData
}

// DeleteConfirmData is the data for the delete confirmation page
type DeleteConfirmData struct {
	layout.PageData
	Event   model.Event
	Workout model.Workout
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Monday 2 January 2006")
}

func passwordAutocomplete(action string) string {
	if action == "/register" {
		return "new-password"
	}
	return "current-password"
}

// consoleURL links to the console filtered to eventID, with one extra
// parameter when key is set
func consoleURL(eventID model.EventID, key, value string) templ.SafeURL {
	u := "/admin?event=" + url.QueryEscape(string(eventID))
	if key != "" {
		u += "&" + key + "=" + url.QueryEscape(value)
	}
	return templ.URL(u)
}

func deleteURL(workoutID model.WorkoutID) templ.SafeURL {
	return templ.URL("/admin/workouts/" + url.PathEscape(string(workoutID)) + "/delete")
}
