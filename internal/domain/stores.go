package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotentReplay indicates an existing completion was found for the provided idempotency key.
	ErrIdempotentReplay = errors.New("completion already exists for idempotency key")
	// ErrCompletionNotFound is returned when a completion record cannot be located.
	ErrCompletionNotFound = errors.New("completion record not found")
	// ErrInvalidWindow is returned when a history request asks for a day count outside [1,365].
	ErrInvalidWindow = errors.New("history window must be between 1 and 365 days")
	// ErrInvalidGoal is returned when a goal update carries an out-of-bounds target.
	ErrInvalidGoal = errors.New("goal target out of bounds")
)

// CompletionStore is the event source: append-only workout completions with
// range queries and lifetime aggregates.
type CompletionStore interface {
	Create(ctx context.Context, rec CompletionRecord, idempotencyKey string) error
	FindByIdempotency(ctx context.Context, userID, idempotencyKey string) (*CompletionRecord, error)
	Get(ctx context.Context, userID, completionID string) (*CompletionRecord, error)
	ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]CompletionRecord, *Cursor, error)
	// QueryWindow returns every completion whose timestamp falls in [start, end).
	QueryWindow(ctx context.Context, userID string, start, end time.Time) ([]CompletionRecord, error)
	LifetimeCounters(ctx context.Context, userID string) (LifetimeCounters, error)
	// CountSessions is the degraded fallback used when LifetimeCounters is unavailable.
	CountSessions(ctx context.Context, userID string) (int, error)
	CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// GoalStore reads and mutates per-user activity targets.
type GoalStore interface {
	// GetGoals substitutes defaults when the user has no stored goals.
	GetGoals(ctx context.Context, userID string) (Goals, error)
	UpdateGoals(ctx context.Context, userID string, patch GoalsPatch) (Goals, error)
}

// AchievementStore serves achievement reference data and the unlock set.
type AchievementStore interface {
	// Definitions returns all achievements ordered by (category, required_count).
	Definitions(ctx context.Context) ([]AchievementDefinition, error)
	UnlockedByUser(ctx context.Context, userID string) ([]UnlockedAchievement, error)
	// RecordUnlock inserts the unlock if absent and reports whether a row was
	// written. Repeated calls for the same pair are no-ops.
	RecordUnlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) (bool, error)
}

// Validate rejects patches whose targets fall outside the accepted bounds.
func (p GoalsPatch) Validate() error {
	if p.EnergyKcal != nil && (*p.EnergyKcal < 0 || *p.EnergyKcal > MaxEnergyGoal) {
		return ErrInvalidGoal
	}
	if p.ActiveMinutes != nil && (*p.ActiveMinutes < 0 || *p.ActiveMinutes > MaxMinutesGoal) {
		return ErrInvalidGoal
	}
	if p.Sessions != nil && (*p.Sessions < 0 || *p.Sessions > MaxSessionGoal) {
		return ErrInvalidGoal
	}
	return nil
}
