package model

// WorkoutID identifies a workout
type WorkoutID string

// Workout is a single prescribed session in a numbered week of an event's plan
type Workout struct {
	ID          WorkoutID `json:"id,omitempty"`
	EventID     EventID   `json:"marathon_id"`
	Week        int       `json:"week_number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}
