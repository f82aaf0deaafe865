package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/adesaogympass/anotashape/internal/domain"
	"github.com/adesaogympass/anotashape/internal/events"
	"github.com/adesaogympass/anotashape/internal/progress"
)

// UnlockHandler is the achievement unlock writer. On every completed workout
// it recomputes the user's lifetime counters and persists an unlock for each
// achievement whose threshold is now met. Unlocks are recorded exactly once;
// counters dropping back below a threshold never revokes one.
type UnlockHandler struct {
	completions  domain.CompletionStore
	achievements domain.AchievementStore
	logger       *log.Logger
	now          func() time.Time
}

// NewUnlockHandler constructs an UnlockHandler backed by the provided stores.
func NewUnlockHandler(completions domain.CompletionStore, achievements domain.AchievementStore, logger *log.Logger) *UnlockHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[unlocker] ", log.LstdFlags|log.Lshortfile)
	}
	return &UnlockHandler{
		completions:  completions,
		achievements: achievements,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle inspects the event type and processes workout completions. Unknown
// event types are acknowledged without action so the topic can carry new
// event kinds before this service learns about them.
func (h *UnlockHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != "workout.completed" {
		return nil
	}

	var event events.WorkoutCompleted
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("unmarshal workout.completed: %w", err)
	}
	if event.UserID == "" {
		return fmt.Errorf("workout.completed missing user_id (completion_id=%s)", event.CompletionID)
	}

	return h.evaluate(ctx, event.UserID)
}

func (h *UnlockHandler) evaluate(ctx context.Context, userID string) error {
	counters, err := h.lifetimeCounters(ctx, userID)
	if err != nil {
		return err
	}

	defs, err := h.achievements.Definitions(ctx)
	if err != nil {
		return fmt.Errorf("load achievement definitions: %w", err)
	}
	unlocked, err := h.achievements.UnlockedByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load unlocked achievements: %w", err)
	}

	unlockedAt := h.now()
	for _, def := range progress.DueUnlocks(defs, unlocked, counters) {
		inserted, err := h.achievements.RecordUnlock(ctx, userID, def.ID, unlockedAt)
		if err != nil {
			return fmt.Errorf("record unlock %s: %w", def.ID, err)
		}
		if inserted {
			h.logger.Printf("unlocked achievement %s (%s) for user %s", def.ID, def.Category, userID)
		}
	}
	return nil
}

// lifetimeCounters mirrors the read side's degradation ladder: full counters
// when available, sessions-only otherwise. Unlike the read side, a total
// failure is returned so the message is retried rather than evaluated
// against empty counters.
func (h *UnlockHandler) lifetimeCounters(ctx context.Context, userID string) (progress.CounterSet, error) {
	counters, err := h.completions.LifetimeCounters(ctx, userID)
	if err == nil {
		return progress.FullCounters(counters), nil
	}
	h.logger.Printf("lifetime counters failed for user %s, falling back to session count: %v", userID, err)

	sessions, countErr := h.completions.CountSessions(ctx, userID)
	if countErr != nil {
		return progress.CounterSet{}, fmt.Errorf("count sessions: %w", countErr)
	}
	return progress.PartialCounters(sessions), nil
}
