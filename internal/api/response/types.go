package response

import (
	"time"

	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/services/countdown"
	"github.com/quijoterun/tracker/internal/services/plan"
)

// Identity represents the signed-in user in API responses
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role,omitempty"`
	Privileged bool   `json:"privileged"`
}

// IdentityFromModel converts a model.Identity
func IdentityFromModel(i *model.Identity) Identity {
	return Identity{
		ID:         string(i.ID),
		Email:      i.Email,
		Role:       i.Role,
		Privileged: i.Privileged,
	}
}

// SessionResponse is the response for sign-in and registration
type SessionResponse struct {
	Identity     Identity `json:"identity"`
	SessionToken string   `json:"session_token"`
}

// PendingResponse is returned when an account awaits email confirmation
type PendingResponse struct {
	Message string `json:"message"`
}

// Event represents an event in API responses
type Event struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// EventFromModel converts a model.Event
func EventFromModel(e model.Event) Event {
	return Event{
		ID:   string(e.ID),
		Name: e.Name,
		Date: e.Date,
	}
}

// EventsFromModel converts a list of events
func EventsFromModel(events []model.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, EventFromModel(e))
	}
	return out
}

// Workout represents a workout in API responses
type Workout struct {
	ID          string `json:"id"`
	EventID     string `json:"event_id"`
	Week        int    `json:"week"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// WorkoutFromModel converts a model.Workout
func WorkoutFromModel(w model.Workout) Workout {
	return Workout{
		ID:          string(w.ID),
		EventID:     string(w.EventID),
		Week:        w.Week,
		Title:       w.Title,
		Description: w.Description,
	}
}

// WorkoutsFromModel converts a list of workouts
func WorkoutsFromModel(workouts []model.Workout) []Workout {
	out := make([]Workout, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, WorkoutFromModel(w))
	}
	return out
}

// Progress represents a runner's record for one workout
type Progress struct {
	WorkoutID  string     `json:"workout_id"`
	Completed  bool       `json:"completed"`
	Sensations string     `json:"sensations"`
	Discomfort string     `json:"discomfort"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// ProgressFromModel converts a model.Progress. A nil record is reported as
// not completed.
func ProgressFromModel(workoutID model.WorkoutID, p *model.Progress) Progress {
	if p == nil {
		return Progress{WorkoutID: string(workoutID)}
	}
	return Progress{
		WorkoutID:  string(p.WorkoutID),
		Completed:  p.Completed,
		Sensations: p.Sensations,
		Discomfort: p.Discomfort,
		UpdatedAt:  p.UpdatedAt,
	}
}

// PlanWorkout is a workout together with the caller's progress on it
type PlanWorkout struct {
	Workout  Workout  `json:"workout"`
	Progress Progress `json:"progress"`
}

// PlanWeek is one numbered week of a plan
type PlanWeek struct {
	Number   int           `json:"number"`
	Workouts []PlanWorkout `json:"workouts"`
}

// Plan is the caller's plan for one event
type Plan struct {
	Event          Event               `json:"event"`
	WeeksRemaining int                 `json:"weeks_remaining"`
	Countdown      countdown.Remaining `json:"countdown"`
	Weeks          []PlanWeek          `json:"weeks"`
}

// PlanFromState converts the state of a plan view
func PlanFromState(state plan.State, now time.Time) Plan {
	event := *state.Selected
	out := Plan{
		Event:          EventFromModel(event),
		WeeksRemaining: countdown.WeeksRemaining(now, event.Date),
		Countdown:      countdown.Until(now, event.Date),
		Weeks:          make([]PlanWeek, 0, len(state.Weeks)),
	}
	for _, week := range state.Weeks {
		pw := PlanWeek{Number: week.Number}
		for _, w := range week.Workouts {
			pw.Workouts = append(pw.Workouts, PlanWorkout{
				Workout:  WorkoutFromModel(w),
				Progress: ProgressFromModel(w.ID, state.ProgressFor(w.ID)),
			})
		}
		out.Weeks = append(out.Weeks, pw)
	}
	return out
}

// RunnerSummary is one runner's completion count in API responses
type RunnerSummary struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// RunnerSummariesFromService converts console summaries
func RunnerSummariesFromService(summaries []console.RunnerSummary) []RunnerSummary {
	out := make([]RunnerSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, RunnerSummary{
			UserID:     string(s.UserID),
			Email:      s.Email,
			Completed:  s.Completed,
			Total:      s.Total,
			Percentage: s.Percentage(),
		})
	}
	return out
}
