package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
)

// DiscomfortPlaceholder is written when the discomfort box is ticked
const DiscomfortPlaceholder = "Discomfort in..."

// NoteField names a free-text field of a progress record
type NoteField string

const (
	FieldSensations NoteField = "sensations"
	FieldDiscomfort NoteField = "discomfort"
)

// ErrUnknownField is returned for a note field other than sensations or discomfort
var ErrUnknownField = errors.New("unknown note field")

// ParseNoteField validates a note field name
func ParseNoteField(s string) (NoteField, error) {
	switch NoteField(s) {
	case FieldSensations, FieldDiscomfort:
		return NoteField(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Service reads and writes a runner's progress through their plan
type Service struct {
	tables  backend.Tables
	catalog *catalog.Service
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new plan service
func New(tables backend.Tables, catalog *catalog.Service, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		tables:  tables,
		catalog: catalog,
		clock:   clk,
		logger:  logger,
	}
}

// Progress returns every progress record owned by user, keyed by workout.
// Records are not filtered by event; callers match them by workout id.
func (s *Service) Progress(ctx context.Context, user model.UserID) (map[model.WorkoutID]model.Progress, error) {
	rows, err := backend.SelectAll[model.Progress](ctx, s.tables, model.TableProgress, backend.Where("user_id", user))
	if err != nil {
		return nil, err
	}
	byWorkout := make(map[model.WorkoutID]model.Progress, len(rows))
	for _, p := range rows {
		byWorkout[p.WorkoutID] = p
	}
	return byWorkout, nil
}

// Find returns the progress record of user for workout, or nil when the
// workout has never been toggled
func (s *Service) Find(ctx context.Context, user model.UserID, workout model.WorkoutID) (*model.Progress, error) {
	q := backend.Where("user_id", user).Eq("workout_id", workout)
	p, err := backend.SelectFirst[model.Progress](ctx, s.tables, model.TableProgress, q)
	if errors.Is(err, backend.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// Toggle flips the completed flag of user's progress on workout. The first
// toggle creates the record as completed; later toggles update that same
// record.
func (s *Service) Toggle(ctx context.Context, user model.UserID, workout model.WorkoutID) (*model.Progress, error) {
	if _, err := s.catalog.Workout(ctx, workout); err != nil {
		return nil, err
	}

	current, err := s.Find(ctx, user, workout)
	if err != nil {
		return nil, err
	}

	if !current.Persisted() {
		created, err := backend.InsertOne(ctx, s.tables, model.TableProgress, model.Progress{
			UserID:    user,
			WorkoutID: workout,
			Completed: true,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("progress created", "workout_id", string(workout))
		return created, nil
	}

	return backend.UpdateOne[model.Progress](ctx, s.tables, model.TableProgress, backend.Where("id", current.ID), map[string]any{
		"completed":  !current.Completed,
		"updated_at": s.now(),
	})
}

// UpdateNotes sets a free-text field on the existing progress record. It
// does nothing and returns nil when no record exists yet: notes can only be
// attached to a workout that has been toggled at least once.
func (s *Service) UpdateNotes(ctx context.Context, user model.UserID, workout model.WorkoutID, field NoteField, value string) (*model.Progress, error) {
	if _, err := ParseNoteField(string(field)); err != nil {
		return nil, err
	}

	current, err := s.Find(ctx, user, workout)
	if err != nil {
		return nil, err
	}
	if !current.Persisted() {
		return nil, nil
	}

	return backend.UpdateOne[model.Progress](ctx, s.tables, model.TableProgress, backend.Where("id", current.ID), map[string]any{
		string(field): value,
		"updated_at":  s.now(),
	})
}

// SetDiscomfort handles the discomfort checkbox: ticking it writes the
// placeholder text, clearing it empties the field
func (s *Service) SetDiscomfort(ctx context.Context, user model.UserID, workout model.WorkoutID, checked bool) (*model.Progress, error) {
	value := ""
	if checked {
		value = DiscomfortPlaceholder
	}
	return s.UpdateNotes(ctx, user, workout, FieldDiscomfort, value)
}

func (s *Service) now() string {
	return s.clock.Now().UTC().Format(time.RFC3339Nano)
}
