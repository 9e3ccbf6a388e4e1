package plan

import (
	"context"
	"sync"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/testutil"
)

// gatedTables holds workout selects for one event until released
type gatedTables struct {
	backend.Tables
	event   model.EventID
	blocked chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedTables) Select(ctx context.Context, table string, q backend.Query, dest any) error {
	if table == model.TableWorkouts {
		for _, f := range q.Filters {
			if f.Column == "marathon_id" && f.Value == string(g.event) {
				g.once.Do(func() { close(g.blocked) })
				<-g.release
			}
		}
	}
	return g.Tables.Select(ctx, table, q, dest)
}

func (s *ServiceSuite) seedEvents() (model.EventID, model.EventID) {
	a, err := backend.InsertOne(s.ctx, s.backend, model.TableEvents, model.Event{Name: "A", Date: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)})
	s.Require().NoError(err)
	b, err := backend.InsertOne(s.ctx, s.backend, model.TableEvents, model.Event{Name: "B", Date: time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)})
	s.Require().NoError(err)

	for _, w := range []model.Workout{
		{EventID: a.ID, Week: 2, Title: "A week 2"},
		{EventID: a.ID, Week: 1, Title: "A week 1"},
		{EventID: b.ID, Week: 1, Title: "B week 1"},
	} {
		_, err := backend.InsertOne(s.ctx, s.backend, model.TableWorkouts, w)
		s.Require().NoError(err)
	}
	return a.ID, b.ID
}

func (s *ServiceSuite) TestActivateSelectsFirstEvent() {
	a, _ := s.seedEvents()
	view := s.service.NewView(&model.Identity{ID: "u1"})

	s.Require().NoError(view.Activate(s.ctx, ""))

	state := view.Snapshot()
	s.Len(state.Events, 2)
	s.Require().NotNil(state.Selected)
	s.Equal(a, state.Selected.ID)
	s.Require().Len(state.Weeks, 2)
	s.Equal("A week 1", state.Weeks[0].Workouts[0].Title)
}

func (s *ServiceSuite) TestActivatePrefersRequestedEvent() {
	_, b := s.seedEvents()
	view := s.service.NewView(&model.Identity{ID: "u1"})

	s.Require().NoError(view.Activate(s.ctx, b))

	s.Equal(b, view.Snapshot().Selected.ID)
}

func (s *ServiceSuite) TestActivateWithNoEvents() {
	view := s.service.NewView(&model.Identity{ID: "u1"})

	s.Require().NoError(view.Activate(s.ctx, ""))

	state := view.Snapshot()
	s.Empty(state.Events)
	s.Nil(state.Selected)
}

func (s *ServiceSuite) TestSelectUnknownEvent() {
	s.seedEvents()
	view := s.service.NewView(&model.Identity{ID: "u1"})
	s.Require().NoError(view.Activate(s.ctx, ""))

	s.ErrorIs(view.Select(s.ctx, "missing"), model.ErrEventNotFound)
}

func (s *ServiceSuite) TestSelectionIncludesProgressFromOtherEvents() {
	a, b := s.seedEvents()
	view := s.service.NewView(&model.Identity{ID: "u1"})
	s.Require().NoError(view.Activate(s.ctx, a))

	bWorkouts, err := s.service.catalog.Workouts(s.ctx, b)
	s.Require().NoError(err)
	_, err = s.service.Toggle(s.ctx, "u1", bWorkouts[0].ID)
	s.Require().NoError(err)

	s.Require().NoError(view.Select(s.ctx, b))
	state := view.Snapshot()
	p := state.ProgressFor(bWorkouts[0].ID)
	s.Require().NotNil(p)
	s.True(p.Completed)
}

func (s *ServiceSuite) TestLaterSelectionWinsRegardlessOfArrivalOrder() {
	a, b := s.seedEvents()

	gated := &gatedTables{
		Tables:  s.backend,
		event:   a,
		blocked: make(chan struct{}),
		release: make(chan struct{}),
	}
	cat := catalog.New(gated)
	svc := New(gated, cat, s.clock, testutil.NopLogger())
	view := svc.NewView(&model.Identity{ID: "u1"})

	// Load the event list without selecting the gated event first
	s.Require().NoError(view.Activate(s.ctx, b))

	done := make(chan error, 1)
	go func() { done <- view.Select(s.ctx, a) }()
	<-gated.blocked

	s.Require().NoError(view.Select(s.ctx, b))
	close(gated.release)
	s.Require().NoError(<-done)

	state := view.Snapshot()
	s.Equal(b, state.Selected.ID)
	s.Require().Len(state.Workouts, 1)
	s.Equal("B week 1", state.Workouts[0].Title)
}
