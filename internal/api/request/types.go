package request

// CredentialsRequest is the request body for signing in and registering.
// Identifier is an email address or a bare username.
type CredentialsRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// NotesRequest is the request body for saving a workout note
type NotesRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// DiscomfortRequest is the request body for the discomfort flag
type DiscomfortRequest struct {
	Checked bool `json:"checked"`
}

// WorkoutRequest is the request body for creating or updating a workout
type WorkoutRequest struct {
	EventID     string `json:"event_id"`
	Week        int    `json:"week"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
