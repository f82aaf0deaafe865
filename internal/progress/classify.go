package progress

import (
	"time"

	"github.com/adesaogympass/anotashape/internal/domain"
)

// RingProgress reports one activity ring: how far the current total is from
// its goal. Percentage is always in [0,100].
type RingProgress struct {
	Current    int     `json:"current"`
	Goal       int     `json:"goal"`
	Percentage float64 `json:"percentage"`
}

// DailyActivity is the "today" view backing the activity rings.
type DailyActivity struct {
	Energy        RingProgress `json:"energy"`
	Minutes       RingProgress `json:"minutes"`
	Sessions      RingProgress `json:"sessions"`
	SessionsToday int          `json:"sessions_today"`
	Date          string       `json:"date"`
}

// Classify folds one day of completions into the ring view. Records outside
// the given calendar day are ignored so callers may pass an unfiltered set.
func Classify(date time.Time, goals domain.Goals, records []domain.CompletionRecord, calc Calculator) DailyActivity {
	day := date.Format(DateLayout)

	var energy, durationSec, sessions int
	for _, rec := range records {
		if rec.CompletedAt.Format(DateLayout) != day {
			continue
		}
		metrics := calc.Session(rec)
		energy += metrics.EstimatedEnergy
		if rec.DurationSec > 0 {
			durationSec += rec.DurationSec
		}
		sessions++
	}

	minutes := durationSec / 60
	return DailyActivity{
		Energy:        RingProgress{Current: energy, Goal: goals.EnergyKcal, Percentage: ringPercentage(energy, goals.EnergyKcal)},
		Minutes:       RingProgress{Current: minutes, Goal: goals.ActiveMinutes, Percentage: ringPercentage(minutes, goals.ActiveMinutes)},
		Sessions:      RingProgress{Current: sessions, Goal: goals.Sessions, Percentage: ringPercentage(sessions, goals.Sessions)},
		SessionsToday: sessions,
		Date:          day,
	}
}

// ringPercentage caps at 100 and guards the zero-goal case: a ring with no
// target reads 0%, never NaN or Inf.
func ringPercentage(current, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	pct := float64(current) / float64(goal) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
