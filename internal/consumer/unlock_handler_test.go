package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adesaogympass/anotashape/internal/domain"
)

type unlockCompletionStore struct {
	counters    domain.LifetimeCounters
	countersErr error
	sessions    int
	sessionsErr error
}

func (s *unlockCompletionStore) Create(context.Context, domain.CompletionRecord, string) error {
	return errors.New("not implemented")
}

func (s *unlockCompletionStore) FindByIdempotency(context.Context, string, string) (*domain.CompletionRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *unlockCompletionStore) Get(context.Context, string, string) (*domain.CompletionRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *unlockCompletionStore) ListByUser(context.Context, string, *domain.Cursor, int) ([]domain.CompletionRecord, *domain.Cursor, error) {
	return nil, nil, errors.New("not implemented")
}

func (s *unlockCompletionStore) QueryWindow(context.Context, string, time.Time, time.Time) ([]domain.CompletionRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *unlockCompletionStore) LifetimeCounters(context.Context, string) (domain.LifetimeCounters, error) {
	return s.counters, s.countersErr
}

func (s *unlockCompletionStore) CountSessions(context.Context, string) (int, error) {
	return s.sessions, s.sessionsErr
}

func (s *unlockCompletionStore) CountSessionsSince(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("not implemented")
}

type unlockAchievementStore struct {
	defs     []domain.AchievementDefinition
	unlocked []domain.UnlockedAchievement
	recorded []string
	err      error
}

func (s *unlockAchievementStore) Definitions(context.Context) ([]domain.AchievementDefinition, error) {
	return s.defs, nil
}

func (s *unlockAchievementStore) UnlockedByUser(context.Context, string) ([]domain.UnlockedAchievement, error) {
	return s.unlocked, nil
}

func (s *unlockAchievementStore) RecordUnlock(_ context.Context, _, achievementID string, _ time.Time) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.recorded = append(s.recorded, achievementID)
	return true, nil
}

func unlockDefs() []domain.AchievementDefinition {
	return []domain.AchievementDefinition{
		{ID: "ach-sessions-10", Category: domain.CategorySessionsCompleted, RequiredCount: 10, Points: 50},
		{ID: "ach-exercises-100", Category: domain.CategoryExercisesCompleted, RequiredCount: 100, Points: 75},
		{ID: "ach-streak-7", Category: domain.CategoryStreak, RequiredCount: 7, Points: 100},
	}
}

func completedMessage(t *testing.T, userID string) Message {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"completion_id": "comp-1",
		"user_id":       userID,
		"workout_id":    "workout-1",
	})
	require.NoError(t, err)
	return Message{
		Topic:     "workout_events",
		EventType: "workout.completed",
		Payload:   payload,
	}
}

func TestUnlockHandlerRecordsDueUnlocks(t *testing.T) {
	completions := &unlockCompletionStore{
		counters: domain.LifetimeCounters{TotalSessions: 12, TotalExercisesLogged: 40, CurrentStreak: 2},
	}
	achievements := &unlockAchievementStore{defs: unlockDefs()}

	handler := NewUnlockHandler(completions, achievements, log.New(testWriter{t}, "", 0))

	err := handler.Handle(context.Background(), completedMessage(t, "user-1"))
	require.NoError(t, err)
	require.Equal(t, []string{"ach-sessions-10"}, achievements.recorded)
}

func TestUnlockHandlerSkipsAlreadyUnlocked(t *testing.T) {
	completions := &unlockCompletionStore{
		counters: domain.LifetimeCounters{TotalSessions: 12, TotalExercisesLogged: 150, CurrentStreak: 9},
	}
	achievements := &unlockAchievementStore{
		defs: unlockDefs(),
		unlocked: []domain.UnlockedAchievement{
			{UserID: "user-1", AchievementID: "ach-sessions-10", UnlockedAt: time.Now().UTC()},
		},
	}

	handler := NewUnlockHandler(completions, achievements, log.New(testWriter{t}, "", 0))

	err := handler.Handle(context.Background(), completedMessage(t, "user-1"))
	require.NoError(t, err)
	require.Equal(t, []string{"ach-exercises-100", "ach-streak-7"}, achievements.recorded)
}

func TestUnlockHandlerPartialCountersOnlyEvaluateSessions(t *testing.T) {
	completions := &unlockCompletionStore{
		countersErr: errors.New("aggregate query timeout"),
		sessions:    15,
	}
	achievements := &unlockAchievementStore{defs: unlockDefs()}

	handler := NewUnlockHandler(completions, achievements, log.New(testWriter{t}, "", 0))

	err := handler.Handle(context.Background(), completedMessage(t, "user-1"))
	require.NoError(t, err)
	// Partial counters carry sessions only; the other categories stay untouched.
	require.Equal(t, []string{"ach-sessions-10"}, achievements.recorded)
}

func TestUnlockHandlerRetriesWhenCountersUnavailable(t *testing.T) {
	completions := &unlockCompletionStore{
		countersErr: errors.New("aggregate query timeout"),
		sessionsErr: errors.New("connection refused"),
	}
	achievements := &unlockAchievementStore{defs: unlockDefs()}

	handler := NewUnlockHandler(completions, achievements, log.New(testWriter{t}, "", 0))

	err := handler.Handle(context.Background(), completedMessage(t, "user-1"))
	require.Error(t, err)
	require.Empty(t, achievements.recorded)
}

func TestUnlockHandlerIgnoresOtherEventTypes(t *testing.T) {
	completions := &unlockCompletionStore{}
	achievements := &unlockAchievementStore{defs: unlockDefs()}

	handler := NewUnlockHandler(completions, achievements, log.New(testWriter{t}, "", 0))

	err := handler.Handle(context.Background(), Message{
		Topic:     "achievement_events",
		EventType: "achievement.unlocked",
		Payload:   json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	require.Empty(t, achievements.recorded)
}

func TestUnlockHandlerRejectsMissingUserID(t *testing.T) {
	completions := &unlockCompletionStore{}
	achievements := &unlockAchievementStore{defs: unlockDefs()}

	handler := NewUnlockHandler(completions, achievements, log.New(testWriter{t}, "", 0))

	err := handler.Handle(context.Background(), Message{
		Topic:     "workout_events",
		EventType: "workout.completed",
		Payload:   json.RawMessage(`{"completion_id":"comp-1"}`),
	})
	require.Error(t, err)
	require.Empty(t, achievements.recorded)
}
