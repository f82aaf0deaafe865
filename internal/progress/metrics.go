// Package progress implements the aggregation core of the anotashape backend:
// pure folds that turn completion records into daily buckets, activity rings,
// and achievement progress, plus the service that feeds them from the stores.
package progress

import (
	"math"

	"github.com/adesaogympass/anotashape/internal/domain"
)

// DefaultKcalPerMinute is the flat energy estimate applied to every training
// minute. The value is intentionally crude; changing it rewrites every
// historical percentage, so treat it as frozen output format.
const DefaultKcalPerMinute = 5.0

// SessionMetrics are the scalars derived from a single completion record.
type SessionMetrics struct {
	DurationMinutes int
	EstimatedEnergy int
}

// Calculator derives per-session metrics. The zero value uses the default
// energy rate.
type Calculator struct {
	KcalPerMinute float64
}

// Session computes the derived metrics for one completion. Absent or negative
// durations count as zero, so the function is total over its inputs.
func (c Calculator) Session(rec domain.CompletionRecord) SessionMetrics {
	rate := c.KcalPerMinute
	if rate <= 0 {
		rate = DefaultKcalPerMinute
	}

	seconds := rec.DurationSec
	if seconds < 0 {
		seconds = 0
	}

	minutes := seconds / 60
	return SessionMetrics{
		DurationMinutes: minutes,
		EstimatedEnergy: int(math.Round(float64(minutes) * rate)),
	}
}
