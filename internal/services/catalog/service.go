package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
)

// Service reads events and their workouts
type Service struct {
	tables backend.Tables
}

// New creates a new catalog service
func New(tables backend.Tables) *Service {
	return &Service{tables: tables}
}

// Events returns every event ordered by date ascending
func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	return backend.SelectAll[model.Event](ctx, s.tables, model.TableEvents, backend.Query{}.OrderBy("date"))
}

// Event returns a single event by id
func (s *Service) Event(ctx context.Context, id model.EventID) (*model.Event, error) {
	event, err := backend.SelectFirst[model.Event](ctx, s.tables, model.TableEvents, backend.Where("id", id))
	if errors.Is(err, backend.ErrNoRows) {
		return nil, model.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Workouts returns the workouts of an event ordered by week ascending
func (s *Service) Workouts(ctx context.Context, eventID model.EventID) ([]model.Workout, error) {
	q := backend.Where("marathon_id", eventID).OrderBy("week_number")
	workouts, err := backend.SelectAll[model.Workout](ctx, s.tables, model.TableWorkouts, q)
	if err != nil {
		return nil, fmt.Errorf("load workouts of %s: %w", eventID, err)
	}
	return workouts, nil
}

// Workout returns a single workout by id
func (s *Service) Workout(ctx context.Context, id model.WorkoutID) (*model.Workout, error) {
	workout, err := backend.SelectFirst[model.Workout](ctx, s.tables, model.TableWorkouts, backend.Where("id", id))
	if errors.Is(err, backend.ErrNoRows) {
		return nil, model.ErrWorkoutNotFound
	}
	if err != nil {
		return nil, err
	}
	return workout, nil
}
