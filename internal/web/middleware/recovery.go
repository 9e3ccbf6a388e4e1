package middleware

import (
	"log/slog"
	"net/http"

	"github.com/quijoterun/tracker/internal/middleware"
)

// Recovery creates panic recovery middleware for the web interface
// Returns an HTML error page on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Something went wrong · QuijoteRun</title></head>
<body>
<h1>Something went wrong</h1>
<p>The page could not be loaded. Your training data is safe; please try again.</p>
<p><a href="/">Back to my plan</a></p>
</body>
</html>`))
}
