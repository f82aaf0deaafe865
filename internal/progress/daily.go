package progress

import (
	"sort"
	"time"

	"github.com/adesaogympass/anotashape/internal/domain"
)

// Bounds accepted for history windows, in calendar days.
const (
	MinWindowDays     = 1
	MaxWindowDays     = 365
	DefaultWindowDays = 30
)

// DateLayout is the calendar-day key format used across all derived views.
const DateLayout = "2006-01-02"

// GoalFlags marks which targets a day reached.
type GoalFlags struct {
	Energy   bool `json:"energy"`
	Minutes  bool `json:"minutes"`
	Sessions bool `json:"sessions"`
}

// DayBucket is the derived rollup for one calendar day. Buckets are never
// persisted; only days with at least one session are emitted.
type DayBucket struct {
	Date        string    `json:"date"`
	Sessions    int       `json:"sessions"`
	DurationSec int       `json:"duration_sec"`
	EnergyKcal  int       `json:"energy_kcal"`
	GoalsMet    GoalFlags `json:"goals_met"`
	AllGoalsMet bool      `json:"all_goals_met"`
}

// ValidateWindow rejects day counts outside [MinWindowDays, MaxWindowDays].
func ValidateWindow(days int) error {
	if days < MinWindowDays || days > MaxWindowDays {
		return domain.ErrInvalidWindow
	}
	return nil
}

// DailyBuckets folds completion records into per-day buckets and marks goal
// attainment against the supplied targets. The fold is associative and
// commutative: record order never changes the result. Days without records
// produce no bucket, and an empty input yields an empty slice.
func DailyBuckets(records []domain.CompletionRecord, goals domain.Goals, calc Calculator) []DayBucket {
	byDate := make(map[string]*DayBucket)

	for _, rec := range records {
		key := rec.CompletedAt.Format(DateLayout)
		bucket, ok := byDate[key]
		if !ok {
			bucket = &DayBucket{Date: key}
			byDate[key] = bucket
		}

		metrics := calc.Session(rec)
		bucket.Sessions++
		if rec.DurationSec > 0 {
			bucket.DurationSec += rec.DurationSec
		}
		bucket.EnergyKcal += metrics.EstimatedEnergy
	}

	out := make([]DayBucket, 0, len(byDate))
	for _, bucket := range byDate {
		bucket.GoalsMet = GoalFlags{
			Energy:   bucket.EnergyKcal >= goals.EnergyKcal,
			Minutes:  bucket.DurationSec/60 >= goals.ActiveMinutes,
			Sessions: bucket.Sessions >= goals.Sessions,
		}
		bucket.AllGoalsMet = bucket.GoalsMet.Energy && bucket.GoalsMet.Minutes && bucket.GoalsMet.Sessions
		out = append(out, *bucket)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// WindowBounds converts a trailing day count into the [start, end) range that
// covers the last N calendar days including today.
func WindowBounds(today time.Time, days int) (time.Time, time.Time) {
	year, month, day := today.Date()
	end := time.Date(year, month, day, 0, 0, 0, 0, today.Location()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	return start, end
}
