package plan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/backend/memory"
	"github.com/quijoterun/tracker/internal/dependencies/mocks"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	backend *memory.Backend
	service *Service
	ctx     context.Context

	workout model.WorkoutID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.backend = memory.New(memory.DefaultConfig(), s.clock, mocks.NewMockRandom())
	s.service = New(s.backend, catalog.New(s.backend), s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	w, err := backend.InsertOne(s.ctx, s.backend, model.TableWorkouts, model.Workout{EventID: "m1", Week: 1, Title: "Easy"})
	s.Require().NoError(err)
	s.workout = w.ID
}

func (s *ServiceSuite) allProgress() []model.Progress {
	rows, err := backend.SelectAll[model.Progress](s.ctx, s.backend, model.TableProgress, backend.Query{})
	s.Require().NoError(err)
	return rows
}

func (s *ServiceSuite) TestFirstToggleCreatesCompletedRecord() {
	p, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)

	s.True(p.Persisted())
	s.True(p.Completed)
	s.Empty(p.Sensations)
	s.Empty(p.Discomfort)
	s.Len(s.allProgress(), 1)
}

func (s *ServiceSuite) TestSecondToggleUpdatesSameRecord() {
	first, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	second, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.False(second.Completed)
	s.Require().NotNil(second.UpdatedAt)
	s.True(second.UpdatedAt.Equal(s.clock.Now()))
	s.Len(s.allProgress(), 1)

	third, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)
	s.Equal(first.ID, third.ID)
	s.True(third.Completed)
}

func (s *ServiceSuite) TestToggleIsPerUser() {
	_, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)
	_, err = s.service.Toggle(s.ctx, "u2", s.workout)
	s.Require().NoError(err)

	s.Len(s.allProgress(), 2)
}

func (s *ServiceSuite) TestToggleUnknownWorkout() {
	_, err := s.service.Toggle(s.ctx, "u1", "missing")
	s.ErrorIs(err, model.ErrWorkoutNotFound)
	s.Empty(s.allProgress())
}

func (s *ServiceSuite) TestNotesWithoutRecordAreIgnored() {
	p, err := s.service.UpdateNotes(s.ctx, "u1", s.workout, FieldSensations, "felt great")
	s.NoError(err)
	s.Nil(p)
	s.Empty(s.allProgress())
}

func (s *ServiceSuite) TestUpdateSensations() {
	_, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)

	p, err := s.service.UpdateNotes(s.ctx, "u1", s.workout, FieldSensations, "felt great")
	s.Require().NoError(err)
	s.Equal("felt great", p.Sensations)
	s.True(p.Completed)
}

func (s *ServiceSuite) TestUnknownNoteField() {
	_, err := s.service.UpdateNotes(s.ctx, "u1", s.workout, NoteField("completed"), "x")
	s.ErrorIs(err, ErrUnknownField)
}

func (s *ServiceSuite) TestDiscomfortCheckbox() {
	_, err := s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)

	p, err := s.service.SetDiscomfort(s.ctx, "u1", s.workout, true)
	s.Require().NoError(err)
	s.Equal(DiscomfortPlaceholder, p.Discomfort)
	s.True(p.HasDiscomfort())

	p, err = s.service.UpdateNotes(s.ctx, "u1", s.workout, FieldDiscomfort, "left calf")
	s.Require().NoError(err)
	s.Equal("left calf", p.Discomfort)

	p, err = s.service.SetDiscomfort(s.ctx, "u1", s.workout, false)
	s.Require().NoError(err)
	s.Equal("", p.Discomfort)
	s.False(p.HasDiscomfort())
}

func (s *ServiceSuite) TestProgressIsKeyedByWorkout() {
	other, err := backend.InsertOne(s.ctx, s.backend, model.TableWorkouts, model.Workout{EventID: "m2", Week: 1, Title: "Other"})
	s.Require().NoError(err)

	_, err = s.service.Toggle(s.ctx, "u1", s.workout)
	s.Require().NoError(err)
	_, err = s.service.Toggle(s.ctx, "u1", other.ID)
	s.Require().NoError(err)
	_, err = s.service.Toggle(s.ctx, "u2", other.ID)
	s.Require().NoError(err)

	progress, err := s.service.Progress(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(progress, 2)
	s.Contains(progress, s.workout)
	s.Contains(progress, other.ID)
}
