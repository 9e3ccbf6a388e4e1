package model

// Profile is a row of the identity/roles collection
type Profile struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}
