// Package clock supplies the current time to countdowns, session expiry and
// progress timestamps.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// System reads the host clock in UTC
type System struct{}

// New returns the host clock
func New() System {
	return System{}
}

// Now returns the current UTC time
func (System) Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
