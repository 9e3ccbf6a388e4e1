package handler

import (
	"net/http"
)

// NotFound sends unknown paths to the plan page, which in turn sends
// signed-out visitors to /login
func NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
