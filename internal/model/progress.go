package model

import "time"

// ProgressID identifies a progress record
type ProgressID string

// Progress records one user's completion of one workout and their notes about it
type Progress struct {
	ID         ProgressID `json:"id,omitempty"`
	UserID     UserID     `json:"user_id"`
	WorkoutID  WorkoutID  `json:"workout_id"`
	Completed  bool       `json:"completed"`
	Sensations string     `json:"sensations"`
	Discomfort string     `json:"discomfort"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Persisted reports whether the record exists in the backend
func (p *Progress) Persisted() bool {
	return p != nil && p.ID != ""
}

// HasDiscomfort reports whether the discomfort detail field should be shown
func (p *Progress) HasDiscomfort() bool {
	return p != nil && p.Discomfort != ""
}
