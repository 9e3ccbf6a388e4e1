package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/catalog"
	"github.com/quijoterun/tracker/internal/services/console"
	"github.com/quijoterun/tracker/internal/web/middleware"
	"github.com/quijoterun/tracker/internal/web/sse"
	"github.com/quijoterun/tracker/internal/web/templates/components"
	"github.com/quijoterun/tracker/internal/web/templates/layout"
	"github.com/quijoterun/tracker/internal/web/templates/pages"
)

// ConsoleHandler handles the operator console
type ConsoleHandler struct {
	console     *console.Service
	catalog     *catalog.Service
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewConsoleHandler creates a new ConsoleHandler
func NewConsoleHandler(consoleService *console.Service, catalog *catalog.Service, hubManager *sse.HubManager, logger *slog.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		console:     consoleService,
		catalog:     catalog,
		broadcaster: sse.NewBroadcaster(hubManager, logger),
		logger:      logger,
	}
}

// View renders the console for ?event=. ?new=1 opens an empty draft and
// ?edit={id} opens the named workout for editing.
func (h *ConsoleHandler) View(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pages.ConsoleData{PageData: pageData(r, "Console")}
	eventID := model.EventID(q.Get("event"))

	switch {
	case q.Get("edit") != "":
		workout, err := h.catalog.Workout(r.Context(), model.WorkoutID(q.Get("edit")))
		if err != nil {
			h.logger.Error("failed to load workout draft", slog.String("workout_id", q.Get("edit")), slog.Any("error", err))
			data.Flash = &layout.FlashMessage{Type: middleware.FlashError, Message: "Could not load that workout."}
			break
		}
		// The draft is saved into the event the workout belongs to
		eventID = workout.EventID
		data.ShowDraft = true
		data.Draft = console.DraftFrom(*workout)
	case q.Get("new") != "":
		data.ShowDraft = true
		data.Draft = console.NewDraft()
	}

	h.renderConsole(w, r, http.StatusOK, eventID, data)
}

// Save creates or updates a workout from the draft form
func (h *ConsoleHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, middleware.FlashError, "Invalid form data")
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	eventID := model.EventID(r.FormValue("event"))
	draft := console.Draft{
		ID:          model.WorkoutID(r.FormValue("id")),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if week, err := strconv.Atoi(strings.TrimSpace(r.FormValue("week"))); err == nil {
		draft.Week = week
	}
	if draft.Editing() && eventID == "" {
		// Edits stay in the workout's own event
		if existing, err := h.catalog.Workout(r.Context(), draft.ID); err == nil {
			eventID = existing.EventID
		}
	}

	_, err := h.console.Save(r.Context(), eventID, draft)
	switch {
	case errors.Is(err, model.ErrInvalidWorkout):
		data := pages.ConsoleData{
			PageData:  pageData(r, "Console"),
			ShowDraft: true,
			Draft:     draft,
			FormError: err.Error(),
		}
		h.renderConsole(w, r, http.StatusOK, eventID, data)
		return
	case err != nil:
		h.logger.Error("failed to save workout",
			slog.String("event", string(eventID)),
			slog.String("workout_id", string(draft.ID)),
			slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Could not save the workout. Please try again.")
		http.Redirect(w, r, withEvent("/admin", eventID), http.StatusSeeOther)
		return
	}

	h.broadcaster.BroadcastPlanChanged(eventID)
	middleware.SetFlash(w, middleware.FlashSuccess, "Workout saved")
	http.Redirect(w, r, withEvent("/admin", eventID), http.StatusSeeOther)
}

// ConfirmDelete renders the confirmation step for deleting a workout
func (h *ConsoleHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	workoutID := model.WorkoutID(mux.Vars(r)["id"])

	workout, err := h.catalog.Workout(r.Context(), workoutID)
	if err != nil {
		h.missing(w, r, workoutID, model.EventID(r.URL.Query().Get("event")), err)
		return
	}
	event, err := h.catalog.Event(r.Context(), workout.EventID)
	if err != nil {
		h.missing(w, r, workoutID, workout.EventID, err)
		return
	}

	data := pages.DeleteConfirmData{
		PageData: pageData(r, "Delete workout"),
		Event:    *event,
		Workout:  *workout,
	}
	render(w, r, h.logger, http.StatusOK, pages.DeleteConfirm(data))
}

// Delete removes a workout once the confirmation form has been submitted
func (h *ConsoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workoutID := model.WorkoutID(mux.Vars(r)["id"])
	confirmed := r.FormValue("confirm") == "yes"

	existing, err := h.catalog.Workout(r.Context(), workoutID)
	if err != nil {
		h.missing(w, r, workoutID, model.EventID(r.FormValue("event")), err)
		return
	}
	eventID := existing.EventID

	_, err = h.console.Delete(r.Context(), eventID, workoutID, confirmed)
	switch {
	case errors.Is(err, model.ErrConfirmationRequired):
		http.Redirect(w, r, withEvent("/admin/workouts/"+string(workoutID)+"/delete", eventID), http.StatusSeeOther)
		return
	case err != nil:
		h.logger.Error("failed to delete workout",
			slog.String("event", string(eventID)),
			slog.String("workout_id", string(workoutID)),
			slog.Any("error", err))
		middleware.SetFlash(w, middleware.FlashError, "Could not delete the workout. Please try again.")
		http.Redirect(w, r, withEvent("/admin", eventID), http.StatusSeeOther)
		return
	}

	h.broadcaster.BroadcastPlanChanged(eventID)
	middleware.SetFlash(w, middleware.FlashSuccess, "Workout deleted")
	http.Redirect(w, r, withEvent("/admin", eventID), http.StatusSeeOther)
}

// renderConsole loads the events, the selected event's workouts and the
// runner summary into data and renders the console. Load failures are
// logged and shown as a notice; whatever did load is still rendered.
func (h *ConsoleHandler) renderConsole(w http.ResponseWriter, r *http.Request, status int, preferred model.EventID, data pages.ConsoleData) {
	ctx := r.Context()
	failed := false

	events, err := h.console.Events(ctx)
	if err != nil {
		h.logger.Error("failed to load events", slog.Any("error", err))
		failed = true
	}
	data.Events = events

	for i := range events {
		if events[i].ID == preferred || (data.Selected == nil && i == 0) {
			e := events[i]
			data.Selected = &e
		}
	}

	if data.Selected != nil {
		data.SelectedID = data.Selected.ID
		workouts, err := h.console.Workouts(ctx, data.Selected.ID)
		if err != nil {
			h.logger.Error("failed to load workouts", slog.String("event", string(data.Selected.ID)), slog.Any("error", err))
			failed = true
		}
		data.Workouts = workouts
	}

	summary, err := h.console.Summary(ctx, len(data.Workouts))
	if err != nil {
		h.logger.Error("failed to load runner summary", slog.Any("error", err))
		failed = true
	}
	data.Summary = components.RunnerSummaryData{Runners: summary}

	if failed && data.Flash == nil {
		data.Flash = &layout.FlashMessage{Type: middleware.FlashError, Message: "Some console data could not be loaded."}
	}
	if data.ShowDraft && data.Selected == nil {
		data.ShowDraft = false
	}

	render(w, r, h.logger, status, pages.Console(data))
}

func (h *ConsoleHandler) missing(w http.ResponseWriter, r *http.Request, workoutID model.WorkoutID, eventID model.EventID, err error) {
	h.logger.Error("failed to load workout for deletion",
		slog.String("workout_id", string(workoutID)),
		slog.Any("error", err))
	message := "Could not load that workout."
	if errors.Is(err, model.ErrWorkoutNotFound) || errors.Is(err, model.ErrEventNotFound) {
		message = "That workout no longer exists."
	}
	middleware.SetFlash(w, middleware.FlashError, message)
	http.Redirect(w, r, withEvent("/admin", eventID), http.StatusSeeOther)
}
