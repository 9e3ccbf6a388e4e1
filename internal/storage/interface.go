package storage

import (
	"github.com/quijoterun/tracker/internal/backend"
)

// Storage persists backend sessions between requests, keyed by the browser
// session cookie. Implementations return backend.ErrSessionNotFound for
// unknown or expired keys.
type Storage interface {
	backend.SessionStorage

	// Close releases any connections held by the storage
	Close() error
}
