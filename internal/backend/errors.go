package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by every call made through the placeholder client
	ErrNotConfigured = errors.New("backend is not configured: set SUPABASE_URL and SUPABASE_ANON_KEY")

	// ErrNoRows is returned by single-row helpers when nothing matched
	ErrNoRows = errors.New("no rows returned")

	// ErrSessionNotFound is returned by SessionStorage when a key has no session
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidToken is returned when an access token cannot be parsed or verified
	ErrInvalidToken = errors.New("invalid access token")

	// ErrUnsafeQuery is returned when an update or delete carries no filter
	ErrUnsafeQuery = errors.New("update and delete require at least one filter")
)

// Error is a failure reported by the backend. Message is the backend's own
// text and is shown to the user unchanged.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// Message extracts the user-facing text from err
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

// StatusOf returns the backend HTTP status carried by err, or 0
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}
