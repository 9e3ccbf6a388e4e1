package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/api/request"
	"github.com/quijoterun/tracker/internal/api/response"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/web/sse"
)

// ConsoleHandler handles the operator endpoints
type ConsoleHandler struct {
	console     *console.Service
	catalog     *catalog.Service
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewConsoleHandler creates a new console handler. Plan changes are pushed to
// open plan pages when hubManager is set.
func NewConsoleHandler(consoleService *console.Service, catalog *catalog.Service, hubManager *sse.HubManager, logger *slog.Logger) *ConsoleHandler {
	h := &ConsoleHandler{
		console: consoleService,
		catalog: catalog,
		logger:  logger,
	}
	if hubManager != nil {
		h.broadcaster = sse.NewBroadcaster(hubManager, logger)
	}
	return h
}

// Workouts handles GET /api/v1/events/{id}/workouts
func (h *ConsoleHandler) Workouts(w http.ResponseWriter, r *http.Request) {
	event, err := h.catalog.Event(r.Context(), model.EventID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	workouts, err := h.console.Workouts(r.Context(), event.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.WorkoutsFromModel(workouts))
}

// Create handles POST /api/v1/admin/workouts
func (h *ConsoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.WorkoutRequest
	if !decode(w, r, &req) {
		return
	}
	event, err := h.catalog.Event(r.Context(), model.EventID(req.EventID))
	if err != nil {
		WriteError(w, err)
		return
	}

	h.save(w, r, http.StatusCreated, event.ID, console.Draft{
		Week:        req.Week,
		Title:       req.Title,
		Description: req.Description,
	})
}

// Update handles PUT /api/v1/admin/workouts/{id}. The workout stays in its
// event unless event_id names another one.
func (h *ConsoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.WorkoutRequest
	if !decode(w, r, &req) {
		return
	}
	existing, err := h.catalog.Workout(r.Context(), model.WorkoutID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	eventID := existing.EventID
	if req.EventID != "" {
		event, err := h.catalog.Event(r.Context(), model.EventID(req.EventID))
		if err != nil {
			WriteError(w, err)
			return
		}
		eventID = event.ID
	}

	h.save(w, r, http.StatusOK, eventID, console.Draft{
		ID:          existing.ID,
		Week:        req.Week,
		Title:       req.Title,
		Description: req.Description,
	})
}

// Delete handles DELETE /api/v1/admin/workouts/{id}?confirm=true
func (h *ConsoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.catalog.Workout(r.Context(), model.WorkoutID(mux.Vars(r)["id"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if _, err := h.console.Delete(r.Context(), existing.EventID, existing.ID, confirmed); err != nil {
		WriteError(w, err)
		return
	}

	h.planChanged(existing.EventID)
	response.NoContent(w)
}

// Runners handles GET /api/v1/admin/runners?event=. Percentages are taken
// over the workouts of the named event, or of the nearest one.
func (h *ConsoleHandler) Runners(w http.ResponseWriter, r *http.Request) {
	eventID := model.EventID(r.URL.Query().Get("event"))
	if eventID == "" {
		events, err := h.console.Events(r.Context())
		if err != nil {
			WriteError(w, err)
			return
		}
		if len(events) > 0 {
			eventID = events[0].ID
		}
	}

	loaded := 0
	if eventID != "" {
		workouts, err := h.console.Workouts(r.Context(), eventID)
		if err != nil {
			WriteError(w, err)
			return
		}
		loaded = len(workouts)
	}

	summaries, err := h.console.Summary(r.Context(), loaded)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RunnerSummariesFromService(summaries))
}

func (h *ConsoleHandler) save(w http.ResponseWriter, r *http.Request, status int, eventID model.EventID, draft console.Draft) {
	workouts, err := h.console.Save(r.Context(), eventID, draft)
	if err != nil {
		h.logger.Warn("failed to save workout",
			slog.String("workout_id", string(draft.ID)),
			slog.String("event_id", string(eventID)),
			slog.Any("error", err))
		WriteError(w, err)
		return
	}

	h.planChanged(eventID)
	response.JSON(w, status, response.WorkoutsFromModel(workouts))
}

func (h *ConsoleHandler) planChanged(eventID model.EventID) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastPlanChanged(eventID)
	}
}
