package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/web/middleware"
	"github.com/quijoterun/tracker/internal/web/templates/layout"
)

// pageData builds the layout data shared by every page
func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title:     title,
		Identity:  middleware.GetIdentity(r.Context()),
		Flash:     middleware.GetFlash(r.Context()),
		CSRFToken: middleware.CSRFToken(r),
	}
}

// render writes c with the given status. The component is rendered into a
// buffer first so a template failure still produces a clean 500.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		logger.Error("failed to render page",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// withEvent appends the event query parameter to path
func withEvent(path string, eventID model.EventID) string {
	if eventID == "" {
		return path
	}
	return path + "?event=" + url.QueryEscape(string(eventID))
}
