package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adesaogympass/anotashape/internal/domain"
)

// Service composes the pure aggregation core with the injected stores. All
// derived views are recomputed per call from the event log; the service keeps
// no state between requests.
type Service struct {
	completions  domain.CompletionStore
	goals        domain.GoalStore
	achievements domain.AchievementStore
	calc         Calculator
	now          func() time.Time
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithCalculator overrides the metric calculator.
func WithCalculator(calc Calculator) Option {
	return func(s *Service) { s.calc = calc }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(completions domain.CompletionStore, goals domain.GoalStore, achievements domain.AchievementStore, opts ...Option) *Service {
	s := &Service{
		completions:  completions,
		goals:        goals,
		achievements: achievements,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeDailyActivity builds the activity-ring view for the given calendar day.
func (s *Service) ComputeDailyActivity(ctx context.Context, userID string, date time.Time) (DailyActivity, error) {
	goals, err := s.goals.GetGoals(ctx, userID)
	if err != nil {
		return DailyActivity{}, err
	}

	start, end := WindowBounds(date, 1)
	records, err := s.completions.QueryWindow(ctx, userID, start, end)
	if err != nil {
		return DailyActivity{}, err
	}

	return Classify(date, goals, records, s.calc), nil
}

// ComputeActivityHistory returns the sparse day-by-day rollup for the trailing
// window. A zero day count selects the default window; out-of-range counts are
// rejected with ErrInvalidWindow.
func (s *Service) ComputeActivityHistory(ctx context.Context, userID string, days int) ([]DayBucket, error) {
	if days == 0 {
		days = DefaultWindowDays
	}
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}

	goals, err := s.goals.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := WindowBounds(s.now(), days)
	records, err := s.completions.QueryWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	return DailyBuckets(records, goals, s.calc), nil
}

// ComputeAchievementProgress builds the progress view for every achievement
// definition. When the lifetime aggregate cannot be computed the engine
// degrades to the bare session count instead of failing the request.
func (s *Service) ComputeAchievementProgress(ctx context.Context, userID string) ([]AchievementProgress, error) {
	defs, err := s.achievements.Definitions(ctx)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.achievements.UnlockedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counters := s.lifetimeCounters(ctx, userID)
	return AchievementProgressAll(defs, unlocked, counters), nil
}

func (s *Service) lifetimeCounters(ctx context.Context, userID string) CounterSet {
	full, err := s.completions.LifetimeCounters(ctx, userID)
	if err == nil {
		return FullCounters(full)
	}

	sessions, countErr := s.completions.CountSessions(ctx, userID)
	if countErr != nil {
		sessions = 0
	}
	return PartialCounters(sessions)
}

// ExerciseInput is one logged exercise within a completion payload.
type ExerciseInput struct {
	ExerciseID string
	Sets       []domain.SetEntry
}

// CompletionInput captures the payload from the API layer.
type CompletionInput struct {
	UserID         string
	WorkoutID      string
	CompletedAt    time.Time
	DurationSec    int
	Exercises      []ExerciseInput
	IdempotencyKey string
}

// RecordCompletion appends a completion record to the event log with
// idempotent create semantics: replays of the same idempotency key return the
// stored record instead of writing a duplicate.
func (s *Service) RecordCompletion(ctx context.Context, input CompletionInput) (*domain.CompletionRecord, bool, error) {
	if existing, err := s.completions.FindByIdempotency(ctx, input.UserID, input.IdempotencyKey); err == nil && existing != nil {
		return existing, true, nil
	}

	now := s.now()
	completedAt := input.CompletedAt
	if completedAt.IsZero() {
		completedAt = now
	}

	rec := domain.CompletionRecord{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		WorkoutID:   input.WorkoutID,
		CompletedAt: completedAt.UTC(),
		DurationSec: input.DurationSec,
		CreatedAt:   now,
	}
	for _, ex := range input.Exercises {
		rec.Exercises = append(rec.Exercises, domain.ExerciseLog{
			ID:           uuid.NewString(),
			CompletionID: rec.ID,
			ExerciseID:   ex.ExerciseID,
			Sets:         ex.Sets,
		})
	}

	if err := s.completions.Create(ctx, rec, input.IdempotencyKey); err != nil {
		return nil, false, err
	}
	return &rec, false, nil
}

// GetCompletion fetches one record scoped to its owner.
func (s *Service) GetCompletion(ctx context.Context, userID, completionID string) (*domain.CompletionRecord, error) {
	rec, err := s.completions.Get(ctx, userID, completionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrCompletionNotFound
	}
	return rec, nil
}

// ListCompletions pages through a user's history, newest first.
func (s *Service) ListCompletions(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.CompletionRecord, *domain.Cursor, error) {
	return s.completions.ListByUser(ctx, userID, cursor, limit)
}

// Goals returns the user's targets with defaults substituted.
func (s *Service) Goals(ctx context.Context, userID string) (domain.Goals, error) {
	return s.goals.GetGoals(ctx, userID)
}

// UpdateGoals applies a bounds-checked partial goal update.
func (s *Service) UpdateGoals(ctx context.Context, userID string, patch domain.GoalsPatch) (domain.Goals, error) {
	if err := patch.Validate(); err != nil {
		return domain.Goals{}, err
	}
	return s.goals.UpdateGoals(ctx, userID, patch)
}

// LifetimeStats summarises a user's whole history for the evolution page.
type LifetimeStats struct {
	TotalSessions int
	Last30Days    int
}

// Stats returns lifetime session totals alongside the trailing 30-day count.
func (s *Service) Stats(ctx context.Context, userID string) (LifetimeStats, error) {
	total, err := s.completions.CountSessions(ctx, userID)
	if err != nil {
		return LifetimeStats{}, err
	}

	since, _ := WindowBounds(s.now(), DefaultWindowDays)
	recent, err := s.completions.CountSessionsSince(ctx, userID, since)
	if err != nil {
		return LifetimeStats{}, err
	}

	return LifetimeStats{TotalSessions: total, Last30Days: recent}, nil
}
