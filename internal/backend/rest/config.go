package rest

import (
	"strings"
	"time"
)

// PlaceholderURL is used when no backend URL is configured so the client can
// still be constructed
const PlaceholderURL = "https://placeholder.supabase.co"

// templateProjectID appears in the URL of an unedited example environment file
const templateProjectID = "your-project-id"

// Config holds the backend connection settings
type Config struct {
	// URL is the project URL, e.g. https://abcd.supabase.co
	URL string

	// APIKey is the public (anon) key
	APIKey string

	// Timeout bounds every HTTP request
	Timeout time.Duration
}

// DefaultConfig returns a Config with the default timeout and no project
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// IsConfigured reports whether both settings are present and the URL is not
// the template placeholder
func (c Config) IsConfigured() bool {
	return c.URL != "" && c.APIKey != "" && !strings.Contains(c.URL, templateProjectID)
}
