package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventID identifies a marathon
type EventID string

// Event is a dated target race around which a training plan is organised
type Event struct {
	ID   EventID   `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// UnmarshalJSON accepts both plain dates (2026-04-26) and RFC 3339 timestamps
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   EventID `json:"id"`
		Name string  `json:"name"`
		Date string  `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := ParseEventDate(raw.Date)
	if err != nil {
		return err
	}

	e.ID = raw.ID
	e.Name = raw.Name
	e.Date = date
	return nil
}

// ParseEventDate parses the date formats the backend uses for event dates.
// Plain dates are interpreted as midnight UTC.
func ParseEventDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid event date %q", s)
}
