package plan

import (
	"context"
	"sync"

	"github.com/quijoterun/tracker/internal/model"
)

// State is what the plan page renders
type State struct {
	Events     []model.Event
	Selected   *model.Event
	Workouts   []model.Workout
	Weeks      []Week
	Progress   map[model.WorkoutID]model.Progress
	Generation uint64
}

// ProgressFor returns the progress of a workout, or nil if never toggled
func (s State) ProgressFor(id model.WorkoutID) *model.Progress {
	p, ok := s.Progress[id]
	if !ok {
		return nil
	}
	return &p
}

// View is the page-scoped state of one runner's plan. Selections are stamped
// with a generation so a slow load for an earlier selection never overwrites
// a later one.
type View struct {
	service *Service
	user    model.UserID

	mu         sync.Mutex
	state      State
	generation uint64
}

// NewView creates a View for identity
func (s *Service) NewView(identity *model.Identity) *View {
	return &View{
		service: s,
		user:    identity.ID,
		state:   State{Progress: map[model.WorkoutID]model.Progress{}},
	}
}

// Activate loads the events and selects the first one, or preferred when it
// names one of them
func (v *View) Activate(ctx context.Context, preferred model.EventID) error {
	events, err := v.service.catalog.Events(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.state.Events = events
	v.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	target := events[0].ID
	for _, e := range events {
		if e.ID == preferred {
			target = e.ID
			break
		}
	}
	return v.Select(ctx, target)
}

// Select changes the selected event and loads its workouts together with
// all of the runner's progress. If another Select starts before this one
// finishes, this one's results are discarded.
func (v *View) Select(ctx context.Context, id model.EventID) error {
	v.mu.Lock()
	var selected *model.Event
	for i := range v.state.Events {
		if v.state.Events[i].ID == id {
			e := v.state.Events[i]
			selected = &e
			break
		}
	}
	if selected == nil {
		v.mu.Unlock()
		return model.ErrEventNotFound
	}
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	workouts, err := v.service.catalog.Workouts(ctx, id)
	if err != nil {
		return err
	}
	progress, err := v.service.Progress(ctx, v.user)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return nil
	}
	v.state.Selected = selected
	v.state.Workouts = workouts
	v.state.Weeks = GroupByWeek(workouts)
	v.state.Progress = progress
	v.state.Generation = gen
	return nil
}

// Snapshot returns the current state
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
