package components

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/services/countdown"
)

// CountdownData is the live countdown to an event
type CountdownData struct {
	EventID   model.EventID
	Remaining countdown.Remaining
}

// WorkoutCardData is one workout with the runner's progress on it
type WorkoutCardData struct {
	EventID       model.EventID
	Workout       model.Workout
	Completed     bool
	Sensations    string
	Discomfort    string
	HasDiscomfort bool
	CSRFToken     string
}

// NewWorkoutCardData combines a workout with its progress, which may be nil
func NewWorkoutCardData(eventID model.EventID, w model.Workout, p *model.Progress, csrfToken string) WorkoutCardData {
	data := WorkoutCardData{
		EventID:   eventID,
		Workout:   w,
		CSRFToken: csrfToken,
	}
	if p != nil {
		data.Completed = p.Completed
		data.Sensations = p.Sensations
		data.Discomfort = p.Discomfort
		data.HasDiscomfort = p.HasDiscomfort()
	}
	return data
}

// action is the URL of one of the workout's progress forms
func (d WorkoutCardData) action(kind string) templ.SafeURL {
	return templ.URL("/plan/workouts/" + string(d.Workout.ID) + "/" + kind)
}

// RunnerSummaryData is the per-runner completion table
type RunnerSummaryData struct {
	Runners []console.RunnerSummary
}

func pad2(n int) string {
	return fmt.Sprintf("%02d", n)
}

func percent(n int) string {
	return strconv.Itoa(n) + "%"
}
