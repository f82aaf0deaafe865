// Package domain defines the data model shared by the anotashape backend.
package domain

import "time"

// SetEntry records a single performed set inside an exercise log.
type SetEntry struct {
	Set    int     `json:"set"`
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// ExerciseLog groups the sets performed for one exercise during a session.
type ExerciseLog struct {
	ID           string
	CompletionID string
	ExerciseID   string
	Sets         []SetEntry
}

// CompletionRecord is one finished workout session. Records are immutable
// once written; every derived view is recomputed from them on demand.
type CompletionRecord struct {
	ID          string
	UserID      string
	WorkoutID   string
	CompletedAt time.Time
	DurationSec int
	Exercises   []ExerciseLog
	CreatedAt   time.Time
}

// Goals holds the per-user daily activity targets.
type Goals struct {
	EnergyKcal    int `json:"energy_kcal"`
	ActiveMinutes int `json:"active_minutes"`
	Sessions      int `json:"sessions"`
}

// Default activity targets applied when a user never configured goals.
const (
	DefaultEnergyGoal  = 600
	DefaultMinutesGoal = 30
	DefaultSessionGoal = 12
)

// Upper bounds accepted by UpdateGoals. Values outside are rejected, never clamped.
const (
	MaxEnergyGoal  = 2000
	MaxMinutesGoal = 120
	MaxSessionGoal = 24
)

// DefaultGoals returns the targets used for users without a stored goal row.
func DefaultGoals() Goals {
	return Goals{
		EnergyKcal:    DefaultEnergyGoal,
		ActiveMinutes: DefaultMinutesGoal,
		Sessions:      DefaultSessionGoal,
	}
}

// GoalsPatch carries a partial goal update; nil fields are left untouched.
type GoalsPatch struct {
	EnergyKcal    *int
	ActiveMinutes *int
	Sessions      *int
}

// AchievementCategory tags which lifetime counter drives an achievement.
type AchievementCategory string

const (
	CategorySessionsCompleted  AchievementCategory = "sessions_completed"
	CategoryExercisesCompleted AchievementCategory = "exercises_completed"
	CategoryStreak             AchievementCategory = "streak"
	CategoryWeightLifted       AchievementCategory = "weight_lifted"
)

// AchievementDefinition is static reference data describing one unlockable badge.
type AchievementDefinition struct {
	ID            string
	Name          string
	Description   string
	Icon          string
	Category      AchievementCategory
	RequiredCount int
	Points        int
}

// UnlockedAchievement pairs a user with a definition they have unlocked.
// At most one row exists per (user, achievement); unlocking never reverses.
type UnlockedAchievement struct {
	UserID        string
	AchievementID string
	UnlockedAt    time.Time
}

// LifetimeCounters aggregates a user's whole history, independent of any window.
type LifetimeCounters struct {
	TotalSessions        int
	TotalExercisesLogged int
	CurrentStreak        int
	TotalWeightLifted    float64
}

// Cursor models the keyset pagination token for completion listings.
type Cursor struct {
	CompletedAt time.Time
	ID          string
}
