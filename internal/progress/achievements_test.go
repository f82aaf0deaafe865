package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adesaogympass/anotashape/internal/domain"
)

var achievementDefs = []domain.AchievementDefinition{
	{ID: "ach-sessions-10", Category: domain.CategorySessionsCompleted, RequiredCount: 10, Points: 50},
	{ID: "ach-exercises-100", Category: domain.CategoryExercisesCompleted, RequiredCount: 100, Points: 100},
	{ID: "ach-streak-7", Category: domain.CategoryStreak, RequiredCount: 7, Points: 75},
	{ID: "ach-weight-1000", Category: domain.CategoryWeightLifted, RequiredCount: 1000, Points: 150},
}

func TestAchievementProgressNeverUnlocksUnilaterally(t *testing.T) {
	counters := FullCounters(domain.LifetimeCounters{TotalSessions: 12})

	views := AchievementProgressAll(achievementDefs[:1], nil, counters)
	require.Len(t, views, 1)

	view := views[0]
	require.False(t, view.Unlocked, "the read side must wait for the unlock writer")
	require.Nil(t, view.UnlockedAt)
	require.Equal(t, 10, view.Progress, "progress caps at the required count")
	require.InDelta(t, 100.0, view.Percentage, 0.0001)
}

func TestAchievementProgressUnlockRatchet(t *testing.T) {
	unlockedAt := time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)
	unlocked := []domain.UnlockedAchievement{{UserID: "user-1", AchievementID: "ach-sessions-10", UnlockedAt: unlockedAt}}

	// Counter has since dropped below threshold; the unlock must stand.
	counters := FullCounters(domain.LifetimeCounters{TotalSessions: 3})

	views := AchievementProgressAll(achievementDefs[:1], unlocked, counters)
	require.True(t, views[0].Unlocked)
	require.NotNil(t, views[0].UnlockedAt)
	require.True(t, views[0].UnlockedAt.Equal(unlockedAt))
	require.Equal(t, 3, views[0].Progress)
}

func TestAchievementProgressCategoryMapping(t *testing.T) {
	counters := FullCounters(domain.LifetimeCounters{
		TotalSessions:        4,
		TotalExercisesLogged: 40,
		CurrentStreak:        7,
		TotalWeightLifted:    2500,
	})

	views := AchievementProgressAll(achievementDefs, nil, counters)
	require.Len(t, views, 4)

	require.Equal(t, 4, views[0].Progress)
	require.InDelta(t, 40.0, views[0].Percentage, 0.0001)

	require.Equal(t, 40, views[1].Progress)
	require.InDelta(t, 40.0, views[1].Percentage, 0.0001)

	require.Equal(t, 7, views[2].Progress)
	require.InDelta(t, 100.0, views[2].Percentage, 0.0001)

	require.Equal(t, 1000, views[3].Progress)
	require.InDelta(t, 100.0, views[3].Percentage, 0.0001)
}

func TestAchievementProgressUnknownCategory(t *testing.T) {
	defs := []domain.AchievementDefinition{{ID: "ach-mystery", Category: "perfect_week", RequiredCount: 5}}
	counters := FullCounters(domain.LifetimeCounters{TotalSessions: 50})

	views := AchievementProgressAll(defs, nil, counters)
	require.Zero(t, views[0].Progress)
	require.Zero(t, views[0].Percentage)
}

func TestAchievementProgressZeroThreshold(t *testing.T) {
	defs := []domain.AchievementDefinition{{ID: "ach-broken", Category: domain.CategorySessionsCompleted, RequiredCount: 0}}

	views := AchievementProgressAll(defs, nil, FullCounters(domain.LifetimeCounters{}))
	require.InDelta(t, 100.0, views[0].Percentage, 0.0001)
}

func TestAchievementProgressPartialCounters(t *testing.T) {
	counters := PartialCounters(15)

	views := AchievementProgressAll(achievementDefs, nil, counters)
	require.Equal(t, 10, views[0].Progress, "session category still served from partial counters")
	require.Zero(t, views[1].Progress, "missing counters degrade to zero progress")
	require.Zero(t, views[2].Progress)
	require.Zero(t, views[3].Progress)
}

func TestAchievementProgressPreservesDefinitionOrder(t *testing.T) {
	views := AchievementProgressAll(achievementDefs, nil, FullCounters(domain.LifetimeCounters{}))
	require.Len(t, views, len(achievementDefs))
	for i, def := range achievementDefs {
		require.Equal(t, def.ID, views[i].Definition.ID)
	}
}

func TestDueUnlocks(t *testing.T) {
	counters := FullCounters(domain.LifetimeCounters{TotalSessions: 10, CurrentStreak: 7})
	unlocked := []domain.UnlockedAchievement{{AchievementID: "ach-streak-7"}}

	due := DueUnlocks(achievementDefs, unlocked, counters)
	require.Len(t, due, 1)
	require.Equal(t, "ach-sessions-10", due[0].ID)
}

func TestDueUnlocksSkipsZeroThreshold(t *testing.T) {
	defs := []domain.AchievementDefinition{{ID: "ach-broken", Category: domain.CategorySessionsCompleted, RequiredCount: 0}}
	due := DueUnlocks(defs, nil, FullCounters(domain.LifetimeCounters{TotalSessions: 1}))
	require.Empty(t, due)
}
