package model

// Backend collection names
const (
	TableEvents   = "marathons"
	TableWorkouts = "workouts"
	TableProgress = "user_progress"
	TableProfiles = "profiles"
)
