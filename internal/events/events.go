// Package events defines the payloads published through the outbox.
package events

import "time"

// WorkoutCompleted is emitted when a completion record is accepted.
type WorkoutCompleted struct {
	CompletionID  string    `json:"completion_id"`
	UserID        string    `json:"user_id"`
	WorkoutID     string    `json:"workout_id,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationSec   int       `json:"duration_sec"`
	ExerciseCount int       `json:"exercise_count"`
	Version       string    `json:"version"`
}

// AchievementUnlocked is emitted when the unlock writer fires the ratchet.
type AchievementUnlocked struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	Category      string    `json:"category"`
	Points        int       `json:"points"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
