package progress

import (
	"time"

	"github.com/adesaogympass/anotashape/internal/domain"
)

// CounterSet tags lifetime counters with their provenance. When the full
// aggregate query is unavailable the engine degrades to whatever counters
// could still be computed instead of failing the request.
type CounterSet struct {
	Counters domain.LifetimeCounters
	Complete bool
}

// FullCounters wraps a complete lifetime aggregate.
func FullCounters(c domain.LifetimeCounters) CounterSet {
	return CounterSet{Counters: c, Complete: true}
}

// PartialCounters builds the degraded set carrying only the session count.
// Categories backed by missing counters report zero progress.
func PartialCounters(totalSessions int) CounterSet {
	return CounterSet{Counters: domain.LifetimeCounters{TotalSessions: totalSessions}}
}

// AchievementProgress is the per-definition view combining the persisted
// unlock state with the live counter.
type AchievementProgress struct {
	Definition domain.AchievementDefinition
	Unlocked   bool
	UnlockedAt *time.Time
	Progress   int
	Percentage float64
}

// AchievementProgressAll computes the progress view for every definition,
// preserving definition order. Unlock state comes solely from the persisted
// unlock set: the view never unlocks on its own, and an unlocked achievement
// stays unlocked even when the counter has since dropped below threshold.
func AchievementProgressAll(defs []domain.AchievementDefinition, unlocked []domain.UnlockedAchievement, counters CounterSet) []AchievementProgress {
	unlockedAt := make(map[string]time.Time, len(unlocked))
	for _, ua := range unlocked {
		unlockedAt[ua.AchievementID] = ua.UnlockedAt
	}

	out := make([]AchievementProgress, 0, len(defs))
	for _, def := range defs {
		counter := counterFor(def.Category, counters.Counters)

		view := AchievementProgress{
			Definition: def,
			Progress:   minInt(counter, def.RequiredCount),
			Percentage: thresholdPercentage(counter, def.RequiredCount),
		}
		if at, ok := unlockedAt[def.ID]; ok {
			view.Unlocked = true
			ts := at
			view.UnlockedAt = &ts
		}
		out = append(out, view)
	}
	return out
}

// DueUnlocks lists the definitions whose threshold the counters now meet but
// which are not yet in the unlock set. Used by the unlock writer; the read
// side never calls this.
func DueUnlocks(defs []domain.AchievementDefinition, unlocked []domain.UnlockedAchievement, counters CounterSet) []domain.AchievementDefinition {
	have := make(map[string]struct{}, len(unlocked))
	for _, ua := range unlocked {
		have[ua.AchievementID] = struct{}{}
	}

	due := make([]domain.AchievementDefinition, 0)
	for _, def := range defs {
		if _, ok := have[def.ID]; ok {
			continue
		}
		if def.RequiredCount <= 0 {
			// Zero-threshold rows are configuration errors; never auto-unlock them.
			continue
		}
		if counterFor(def.Category, counters.Counters) >= def.RequiredCount {
			due = append(due, def)
		}
	}
	return due
}

func counterFor(category domain.AchievementCategory, c domain.LifetimeCounters) int {
	switch category {
	case domain.CategorySessionsCompleted:
		return c.TotalSessions
	case domain.CategoryExercisesCompleted:
		return c.TotalExercisesLogged
	case domain.CategoryStreak:
		return c.CurrentStreak
	case domain.CategoryWeightLifted:
		return int(c.TotalWeightLifted)
	default:
		return 0
	}
}

// thresholdPercentage caps at 100 and treats a zero threshold as already
// complete rather than dividing by zero.
func thresholdPercentage(counter, required int) float64 {
	if required <= 0 {
		return 100
	}
	pct := float64(counter) / float64(required) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
