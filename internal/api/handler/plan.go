package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/api/middleware"
	"github.com/quijoterun/tracker/internal/api/request"
	"github.com/quijoterun/tracker/internal/api/response"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/plan"
)

// PlanHandler handles events, plans and the caller's progress
type PlanHandler struct {
	plans   *plan.Service
	catalog *catalog.Service
	clock   clock.Clock
	logger  *slog.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans *plan.Service, catalog *catalog.Service, clk clock.Clock, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:   plans,
		catalog: catalog,
		clock:   clk,
		logger:  logger,
	}
}

// Events handles GET /api/v1/events
func (h *PlanHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.catalog.Events(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.EventsFromModel(events))
}

// Plan handles GET /api/v1/plan, the plan of the nearest event or of ?event=
// when it names one
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	view := h.plans.NewView(middleware.MustGetIdentity(r.Context()))
	if err := view.Activate(r.Context(), model.EventID(r.URL.Query().Get("event"))); err != nil {
		WriteError(w, err)
		return
	}
	h.writePlan(w, view.Snapshot())
}

// EventPlan handles GET /api/v1/events/{id}/plan
func (h *PlanHandler) EventPlan(w http.ResponseWriter, r *http.Request) {
	view := h.plans.NewView(middleware.MustGetIdentity(r.Context()))
	if err := view.Activate(r.Context(), ""); err != nil {
		WriteError(w, err)
		return
	}
	if err := view.Select(r.Context(), model.EventID(mux.Vars(r)["id"])); err != nil {
		WriteError(w, err)
		return
	}
	h.writePlan(w, view.Snapshot())
}

// Toggle handles POST /api/v1/workouts/{id}/toggle
func (h *PlanHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	workoutID := model.WorkoutID(mux.Vars(r)["id"])

	progress, err := h.plans.Toggle(r.Context(), identity.ID, workoutID)
	if err != nil {
		h.logFailure("toggle workout", identity, workoutID, err)
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProgressFromModel(workoutID, progress))
}

// Notes handles PUT /api/v1/workouts/{id}/notes. A workout that was never
// toggled has no record to attach notes to and is reported unchanged.
func (h *PlanHandler) Notes(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	workoutID := model.WorkoutID(mux.Vars(r)["id"])

	var req request.NotesRequest
	if !decode(w, r, &req) {
		return
	}
	field, err := plan.ParseNoteField(req.Field)
	if err != nil {
		WriteError(w, err)
		return
	}

	progress, err := h.plans.UpdateNotes(r.Context(), identity.ID, workoutID, field, req.Value)
	if err != nil {
		h.logFailure("update notes", identity, workoutID, err)
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProgressFromModel(workoutID, progress))
}

// Discomfort handles PUT /api/v1/workouts/{id}/discomfort
func (h *PlanHandler) Discomfort(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	workoutID := model.WorkoutID(mux.Vars(r)["id"])

	var req request.DiscomfortRequest
	if !decode(w, r, &req) {
		return
	}

	progress, err := h.plans.SetDiscomfort(r.Context(), identity.ID, workoutID, req.Checked)
	if err != nil {
		h.logFailure("set discomfort", identity, workoutID, err)
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProgressFromModel(workoutID, progress))
}

func (h *PlanHandler) writePlan(w http.ResponseWriter, state plan.State) {
	if state.Selected == nil {
		WriteError(w, model.ErrNoEvents)
		return
	}
	response.JSON(w, http.StatusOK, response.PlanFromState(state, h.clock.Now()))
}

func (h *PlanHandler) logFailure(op string, identity *model.Identity, workoutID model.WorkoutID, err error) {
	h.logger.Warn("failed to "+op,
		slog.String("user_id", string(identity.ID)),
		slog.String("workout_id", string(workoutID)),
		slog.Any("error", err))
}
