package sse

import (
	"log/slog"

	"github.com/quijoterun/tracker/internal/model"
)

// Broadcaster tells viewers of an event about changes made elsewhere
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// BroadcastPlanChanged tells the event's viewers that its workouts changed.
// HTMX refetches the plan via hx-trigger="sse:plan-changed".
func (b *Broadcaster) BroadcastPlanChanged(eventID model.EventID) {
	hub := b.hubManager.GetHub(eventID)
	if hub == nil {
		return
	}
	b.logger.Debug("broadcasting plan change",
		slog.String("event", string(eventID)),
		slog.Int("clients", hub.ClientCount()))
	hub.BroadcastEvent(EventPlanChanged, string(eventID))
}
