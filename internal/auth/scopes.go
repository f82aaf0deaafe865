package auth

// Known OAuth scopes used by the backend.
const (
	ScopeWorkoutsWrite = "workouts:write"
	ScopeWorkoutsRead  = "workouts:read"
	ScopeGoalsWrite    = "goals:write"
)
