package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNotPrivileged    = errors.New("operator access required")

	// Plan errors
	ErrEventNotFound   = errors.New("event not found")
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrNoEvents        = errors.New("no events available")

	// Console errors
	ErrInvalidWorkout       = errors.New("invalid workout")
	ErrConfirmationRequired = errors.New("confirmation required")
)
