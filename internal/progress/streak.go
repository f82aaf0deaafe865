package progress

import "time"

// CurrentStreak counts the consecutive calendar days with at least one
// session, walking back from today. A streak survives the current day having
// no session yet, but breaks once a full day was skipped.
func CurrentStreak(sessionDays []time.Time, today time.Time) int {
	seen := make(map[string]struct{}, len(sessionDays))
	for _, d := range sessionDays {
		seen[d.Format(DateLayout)] = struct{}{}
	}

	year, month, day := today.Date()
	cursor := time.Date(year, month, day, 0, 0, 0, 0, today.Location())

	if _, ok := seen[cursor.Format(DateLayout)]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := seen[cursor.Format(DateLayout)]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}
