package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/plan"
	"github.com/quijoterun/tracker/internal/services/session"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidWorkout       = "INVALID_WORKOUT"
	CodeUnknownNoteField     = "UNKNOWN_NOTE_FIELD"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeAccountExists        = "ACCOUNT_EXISTS"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeEventNotFound        = "EVENT_NOT_FOUND"
	CodeWorkoutNotFound      = "WORKOUT_NOT_FOUND"
	CodeNoEvents             = "NO_EVENTS"
	CodeBackendRejected      = "BACKEND_REJECTED"
	CodeBackendUnavailable   = "BACKEND_UNAVAILABLE"
	CodeNotConfigured        = "NOT_CONFIGURED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Model errors
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
	case errors.Is(err, model.ErrNotPrivileged):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Operator access required"}}
	case errors.Is(err, model.ErrEventNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeEventNotFound, "Event not found"}}
	case errors.Is(err, model.ErrWorkoutNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeWorkoutNotFound, "Workout not found"}}
	case errors.Is(err, model.ErrNoEvents):
		return &httpError{http.StatusNotFound, APIError{CodeNoEvents, "No events available"}}
	case errors.Is(err, model.ErrInvalidWorkout):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidWorkout, err.Error()}}
	case errors.Is(err, model.ErrConfirmationRequired):
		return &httpError{http.StatusConflict, APIError{CodeConfirmationRequired, "Deleting a workout must be confirmed"}}
	case errors.Is(err, plan.ErrUnknownField):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownNoteField, "Field must be sensations or discomfort"}}

	// Session errors
	case errors.Is(err, session.ErrMissingCredentials):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	// Backend errors
	case errors.Is(err, backend.ErrNotConfigured):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeNotConfigured, err.Error()}}
	}

	return fromBackend(err)
}

// fromBackend keeps the backend's own message for the failures it reports
func fromBackend(err error) *httpError {
	var be *backend.Error
	if !errors.As(err, &be) {
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}

	switch {
	case be.Code == "invalid_credentials":
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, be.Message}}
	case be.Code == "user_already_exists":
		return &httpError{http.StatusConflict, APIError{CodeAccountExists, be.Message}}
	case be.Status >= 400 && be.Status < 500:
		return &httpError{be.Status, APIError{CodeBackendRejected, be.Message}}
	default:
		return &httpError{http.StatusBadGateway, APIError{CodeBackendUnavailable, be.Message}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates an error for signed-in callers without operator access
func NewForbiddenError() error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Operator access required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
