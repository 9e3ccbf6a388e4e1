package handler

import (
	"encoding/json"
	"net/http"

	"github.com/quijoterun/tracker/internal/api/apierr"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// decode reads a JSON request body into dst, writing a 400 when it cannot
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return false
	}
	return true
}
