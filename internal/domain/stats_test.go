package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCheckInStats(t *testing.T) {
	// Sunday
	today := day(2026, 3, 8)
	rows := []CheckInSummary{
		{CheckInDate: day(2026, 3, 8), Duration: 30, Calories: 200},
		{CheckInDate: day(2026, 3, 8), Duration: 10, Calories: 50}, // second enrollment, same day
		{CheckInDate: day(2026, 3, 7), Duration: 20, Calories: 100},
		{CheckInDate: day(2026, 3, 2), Duration: 15, Calories: 80}, // Monday of this week
		{CheckInDate: day(2026, 3, 1), Duration: 25, Calories: 90}, // previous week, same month
		{CheckInDate: day(2026, 2, 6), Duration: 40, Calories: 300}, // exactly 30 days back
		{CheckInDate: day(2026, 2, 5), Duration: 5, Calories: 10},
	}

	stats := ComputeCheckInStats(rows, today)
	assert.EqualValues(t, 7, stats.TotalCheckIns)
	assert.EqualValues(t, 6, stats.RecentCheckIns)
	assert.EqualValues(t, 4, stats.WeeklyCheckIns)
	assert.EqualValues(t, 5, stats.MonthlyCheckIns)
	assert.EqualValues(t, 100, stats.MonthlyDuration)
	assert.EqualValues(t, 145, stats.TotalDuration)
	assert.EqualValues(t, 830, stats.TotalCalories)
	assert.Equal(t, 2, stats.ConsecutiveDays)
}

func TestComputeCheckInStats_NoCheckInToday(t *testing.T) {
	today := day(2026, 3, 8)
	rows := []CheckInSummary{{CheckInDate: day(2026, 3, 7)}}

	stats := ComputeCheckInStats(rows, today)
	assert.Equal(t, 0, stats.ConsecutiveDays)
	assert.EqualValues(t, 1, stats.WeeklyCheckIns)
}

func TestComputeCheckInStats_Empty(t *testing.T) {
	assert.Equal(t, CheckInStats{}, ComputeCheckInStats(nil, day(2026, 3, 8)))
}
