package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/countdown"
	"github.com/quijoterun/tracker/internal/services/plan"
	"github.com/quijoterun/tracker/internal/web/middleware"
	"github.com/quijoterun/tracker/internal/web/sse"
	"github.com/quijoterun/tracker/internal/web/templates/components"
	"github.com/quijoterun/tracker/internal/web/templates/layout"
	"github.com/quijoterun/tracker/internal/web/templates/pages"
)

// PlanHandler handles the runner's plan page and progress actions
type PlanHandler struct {
	plans      *plan.Service
	catalog    *catalog.Service
	hubManager *sse.HubManager
	clock      clock.Clock
	logger     *slog.Logger
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans *plan.Service, catalog *catalog.Service, hubManager *sse.HubManager, clk clock.Clock, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:      plans,
		catalog:    catalog,
		hubManager: hubManager,
		clock:      clk,
		logger:     logger,
	}
}

// View renders the plan for the event named by ?event=, or the first event
func (h *PlanHandler) View(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	data := pages.PlanData{PageData: pageData(r, "My plan")}

	view := h.plans.NewView(identity)
	preferred := model.EventID(r.URL.Query().Get("event"))
	if err := view.Activate(r.Context(), preferred); err != nil {
		h.logger.Error("failed to load plan",
			slog.String("user_id", string(identity.ID)),
			slog.String("event", string(preferred)),
			slog.Any("error", err))
		data.Flash = &layout.FlashMessage{Type: middleware.FlashError, Message: "Could not load your plan. Please try again."}
	}

	state := view.Snapshot()
	data.Events = state.Events
	if state.Selected != nil {
		now := h.clock.Now()
		data.Selected = state.Selected
		data.SelectedID = state.Selected.ID
		data.WeeksRemaining = countdown.WeeksRemaining(now, state.Selected.Date)
		data.Countdown = components.CountdownData{
			EventID:   state.Selected.ID,
			Remaining: countdown.Until(now, state.Selected.Date),
		}
		for _, week := range state.Weeks {
			wd := pages.WeekData{Number: week.Number}
			for _, wo := range week.Workouts {
				wd.Workouts = append(wd.Workouts,
					components.NewWorkoutCardData(state.Selected.ID, wo, state.ProgressFor(wo.ID), data.CSRFToken))
			}
			data.Weeks = append(data.Weeks, wd)
		}
	}

	render(w, r, h.logger, http.StatusOK, pages.Plan(data))
}

// Toggle flips the completion of a workout
func (h *PlanHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	workoutID := model.WorkoutID(mux.Vars(r)["id"])
	eventID := model.EventID(r.FormValue("event"))

	if _, err := h.plans.Toggle(r.Context(), identity.ID, workoutID); err != nil {
		h.fail(w, r, "toggle workout", workoutID, err)
	}
	http.Redirect(w, r, withEvent("/", eventID), http.StatusSeeOther)
}

// Notes saves the sensations or discomfort text of a workout
func (h *PlanHandler) Notes(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	workoutID := model.WorkoutID(mux.Vars(r)["id"])
	eventID := model.EventID(r.FormValue("event"))

	field, err := plan.ParseNoteField(r.FormValue("field"))
	if err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Unknown note field")
		http.Redirect(w, r, withEvent("/", eventID), http.StatusSeeOther)
		return
	}

	if _, err := h.plans.UpdateNotes(r.Context(), identity.ID, workoutID, field, r.FormValue("value")); err != nil {
		h.fail(w, r, "update notes", workoutID, err)
	}
	http.Redirect(w, r, withEvent("/", eventID), http.StatusSeeOther)
}

// Discomfort sets or clears the discomfort flag of a workout
func (h *PlanHandler) Discomfort(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	workoutID := model.WorkoutID(mux.Vars(r)["id"])
	eventID := model.EventID(r.FormValue("event"))
	checked := r.FormValue("checked") != ""

	if _, err := h.plans.SetDiscomfort(r.Context(), identity.ID, workoutID, checked); err != nil {
		h.fail(w, r, "set discomfort", workoutID, err)
	}
	http.Redirect(w, r, withEvent("/", eventID), http.StatusSeeOther)
}

// Countdown streams the live countdown to an event over SSE
func (h *PlanHandler) Countdown(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	eventID := model.EventID(mux.Vars(r)["id"])

	event, err := h.catalog.Event(r.Context(), eventID)
	if errors.Is(err, model.ErrEventNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("failed to load event for countdown",
			slog.String("event", string(eventID)),
			slog.Any("error", err))
		http.Error(w, "Event unavailable", http.StatusBadGateway)
		return
	}

	hub := h.hubManager.GetOrCreateHub(event.ID, event.Date)
	sse.ServeSSE(w, r, hub, identity.ID)
}

// fail logs a data failure and leaves a flash notice for the next page
func (h *PlanHandler) fail(w http.ResponseWriter, r *http.Request, op string, workoutID model.WorkoutID, err error) {
	h.logger.Error("failed to "+op,
		slog.String("user_id", string(middleware.GetIdentity(r.Context()).ID)),
		slog.String("workout_id", string(workoutID)),
		slog.Any("error", err))

	message := "Could not save your progress. Please try again."
	if errors.Is(err, model.ErrWorkoutNotFound) {
		message = "That workout no longer exists."
	}
	middleware.SetFlash(w, middleware.FlashError, message)
}
