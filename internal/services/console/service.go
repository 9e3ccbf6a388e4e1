package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
)

// Draft is a workout being created or edited
type Draft struct {
	ID          model.WorkoutID
	Week        int
	Title       string
	Description string
}

// NewDraft returns the defaults for a new workout
func NewDraft() Draft {
	return Draft{Week: 1}
}

// DraftFrom seeds a draft with an existing workout
func DraftFrom(w model.Workout) Draft {
	return Draft{
		ID:          w.ID,
		Week:        w.Week,
		Title:       w.Title,
		Description: w.Description,
	}
}

// Editing reports whether the draft edits an existing workout
func (d Draft) Editing() bool {
	return d.ID != ""
}

// Validate checks the required fields
func (d Draft) Validate() error {
	switch {
	case d.Week < 1:
		return fmt.Errorf("%w: week must be at least 1", model.ErrInvalidWorkout)
	case strings.TrimSpace(d.Title) == "":
		return fmt.Errorf("%w: title is required", model.ErrInvalidWorkout)
	case strings.TrimSpace(d.Description) == "":
		return fmt.Errorf("%w: description is required", model.ErrInvalidWorkout)
	}
	return nil
}

// RunnerSummary is one runner's completion count
type RunnerSummary struct {
	UserID    model.UserID
	Email     string
	Completed int
	Total     int
}

// Percentage is completed over the workouts currently loaded, treating an
// empty list as one workout and capping at 100
func (r RunnerSummary) Percentage() int {
	return Percentage(r.Completed, r.Total)
}

// Percentage returns completed as a share of total, in whole percent
func Percentage(completed, total int) int {
	if total < 1 {
		total = 1
	}
	pct := completed * 100 / total
	if pct > 100 {
		return 100
	}
	return pct
}

// Service manages workouts and reports runner progress
type Service struct {
	tables  backend.Tables
	catalog *catalog.Service
	logger  *slog.Logger
}

// New creates a new console service
func New(tables backend.Tables, catalog *catalog.Service, logger *slog.Logger) *Service {
	return &Service{
		tables:  tables,
		catalog: catalog,
		logger:  logger,
	}
}

// Events lists the events available for filtering
func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	return s.catalog.Events(ctx)
}

// Workouts lists an event's workouts by week
func (s *Service) Workouts(ctx context.Context, eventID model.EventID) ([]model.Workout, error) {
	return s.catalog.Workouts(ctx, eventID)
}

// Draft returns a draft for the given workout, or a new draft when id is empty
func (s *Service) Draft(ctx context.Context, id model.WorkoutID) (Draft, error) {
	if id == "" {
		return NewDraft(), nil
	}
	w, err := s.catalog.Workout(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	return DraftFrom(*w), nil
}

// Save updates the draft's workout when it has an id and otherwise inserts a
// new workout into eventID. An update with an empty eventID keeps the
// workout in its current event. It returns the event's reloaded workout list.
func (s *Service) Save(ctx context.Context, eventID model.EventID, d Draft) ([]model.Workout, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Editing() && eventID == "" {
		existing, err := s.catalog.Workout(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		eventID = existing.EventID
	}
	if eventID == "" {
		return nil, fmt.Errorf("%w: event is required", model.ErrInvalidWorkout)
	}

	row := model.Workout{
		EventID:     eventID,
		Week:        d.Week,
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
	}

	if d.Editing() {
		_, err := backend.UpdateOne[model.Workout](ctx, s.tables, model.TableWorkouts, backend.Where("id", d.ID), row)
		if err != nil {
			return nil, err
		}
		s.logger.Info("workout updated", "workout_id", string(d.ID), "event_id", string(eventID))
	} else {
		created, err := backend.InsertOne(ctx, s.tables, model.TableWorkouts, row)
		if err != nil {
			return nil, err
		}
		s.logger.Info("workout created", "workout_id", string(created.ID), "event_id", string(eventID))
	}

	return s.Workouts(ctx, eventID)
}

// Delete removes a workout once confirmed. Without confirmation it returns
// model.ErrConfirmationRequired and issues no call.
func (s *Service) Delete(ctx context.Context, eventID model.EventID, id model.WorkoutID, confirmed bool) ([]model.Workout, error) {
	if !confirmed {
		return nil, model.ErrConfirmationRequired
	}

	if err := s.tables.Delete(ctx, model.TableWorkouts, backend.Where("id", id)); err != nil {
		return nil, fmt.Errorf("delete workout: %w", err)
	}
	s.logger.Info("workout deleted", "workout_id", string(id), "event_id", string(eventID))

	return s.Workouts(ctx, eventID)
}

// Summary reports, for every known runner, how many progress records they
// have completed across all events. Total is loadedWorkouts, the size of the
// list currently shown.
func (s *Service) Summary(ctx context.Context, loadedWorkouts int) ([]RunnerSummary, error) {
	profiles, err := backend.SelectAll[model.Profile](ctx, s.tables, model.TableProfiles, backend.Query{}.OrderBy("email"))
	if err != nil {
		return nil, err
	}
	progress, err := backend.SelectAll[model.Progress](ctx, s.tables, model.TableProgress, backend.Query{})
	if err != nil {
		return nil, err
	}

	completed := make(map[model.UserID]int)
	for _, p := range progress {
		if p.Completed {
			completed[p.UserID]++
		}
	}

	summaries := make([]RunnerSummary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, RunnerSummary{
			UserID:    p.ID,
			Email:     p.Email,
			Completed: completed[p.ID],
			Total:     loadedWorkouts,
		})
	}
	return summaries, nil
}
