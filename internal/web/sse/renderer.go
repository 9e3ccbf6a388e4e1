package sse

import (
	"bytes"
	"context"

	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/countdown"
	"github.com/quijoterun/tracker/internal/web/templates/components"
)

// Event names sent on the stream
const (
	EventConnected   = "connected"
	EventCountdown   = "countdown"
	EventPlanChanged = "plan-changed"
)

// Renderer converts countdowns to HTML fragments for SSE
type Renderer struct{}

// NewRenderer creates a new Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderCountdown renders the countdown component as HTML
func (r *Renderer) RenderCountdown(ctx context.Context, eventID model.EventID, remaining countdown.Remaining) (string, error) {
	var buf bytes.Buffer
	err := components.Countdown(components.CountdownData{
		EventID:   eventID,
		Remaining: remaining,
	}).Render(ctx, &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
