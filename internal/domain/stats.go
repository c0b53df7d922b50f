// internal/domain/stats.go
package domain

import "time"

// RecentWindowDays is the trailing window of CheckInStats.RecentCheckIns.
const RecentWindowDays = 30

// ComputeCheckInStats aggregates a user's check-ins relative to today.
// Several check-ins on one date count once toward the streak.
func ComputeCheckInStats(rows []CheckInSummary, today time.Time) CheckInStats {
	today = CivilDate(today)
	recentFrom := today.AddDate(0, 0, -RecentWindowDays)
	// Monday-based week
	offset := (int(today.Weekday()) + 6) % 7
	weekFrom := today.AddDate(0, 0, -offset)
	weekTo := weekFrom.AddDate(0, 0, 6)
	monthFrom := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthTo := monthFrom.AddDate(0, 1, -1)

	var stats CheckInStats
	days := make(map[time.Time]struct{}, len(rows))
	for _, r := range rows {
		d := CivilDate(r.CheckInDate)
		days[d] = struct{}{}

		stats.TotalCheckIns++
		stats.TotalDuration += int64(r.Duration)
		stats.TotalCalories += int64(r.Calories)
		if !d.Before(recentFrom) {
			stats.RecentCheckIns++
		}
		if inRange(d, weekFrom, weekTo) {
			stats.WeeklyCheckIns++
		}
		if inRange(d, monthFrom, monthTo) {
			stats.MonthlyCheckIns++
			stats.MonthlyDuration += int64(r.Duration)
		}
	}

	for d := today; ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d]; !ok {
			break
		}
		stats.ConsecutiveDays++
	}
	return stats
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}
