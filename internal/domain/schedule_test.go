package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendarSlot(t *testing.T) {
	plan := &WorkoutPlan{DurationWeeks: 2, SessionsPerWeek: 3}
	start := day(2026, 3, 1)

	tests := []struct {
		name  string
		today time.Time
		want  Slot
	}{
		{"before start", day(2026, 2, 20), Slot{1, 1}},
		{"start", start, Slot{1, 1}},
		{"day 3", day(2026, 3, 3), Slot{1, 3}},
		{"rolls into week 2", day(2026, 3, 4), Slot{2, 1}},
		{"last slot", day(2026, 3, 6), Slot{2, 3}},
		{"clamped past end", day(2026, 4, 30), Slot{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalendarSlot(plan, start, tt.today))
		})
	}
}

func TestCalendarSlot_TenDaysIntoThreeSlots(t *testing.T) {
	plan := &WorkoutPlan{DurationWeeks: 1, SessionsPerWeek: 3}
	start := day(2026, 3, 1)
	assert.Equal(t, Slot{Week: 1, Day: 3}, CalendarSlot(plan, start, start.AddDate(0, 0, 10)))
}

func TestNextSlot(t *testing.T) {
	plan := &WorkoutPlan{DurationWeeks: 2, SessionsPerWeek: 3}

	next, finished := NextSlot(plan, Slot{1, 2})
	assert.False(t, finished)
	assert.Equal(t, Slot{1, 3}, next)

	next, finished = NextSlot(plan, Slot{1, 3})
	assert.False(t, finished)
	assert.Equal(t, Slot{2, 1}, next)

	next, finished = NextSlot(plan, Slot{2, 3})
	assert.True(t, finished)
	assert.Equal(t, Slot{2, 3}, next)
}

func TestSlotOrdering(t *testing.T) {
	assert.Equal(t, 1, FirstSlot.Ordinal(3))
	assert.Equal(t, 5, Slot{2, 2}.Ordinal(3))
	assert.True(t, Slot{2, 1}.After(Slot{1, 3}))
	assert.True(t, Slot{1, 2}.After(Slot{1, 1}))
	assert.False(t, Slot{1, 1}.After(Slot{1, 1}))
	assert.False(t, Slot{1, 3}.After(Slot{2, 1}))
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{1, 6, 0.17},
		{5, 6, 0.83},
		{1, 8, 0.13}, // 0.125 rounds half up
		{3, 8, 0.38},
		{6, 6, 1},
		{0, 6, 0},
		{1, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompletionRate(tt.done, tt.total), "%d/%d", tt.done, tt.total)
	}
}

func TestNewEnrollment(t *testing.T) {
	plan := &WorkoutPlan{DurationWeeks: 4, SessionsPerWeek: 3}
	e := NewEnrollment([12]byte{1}, plan, time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC))

	assert.Equal(t, day(2026, 3, 4), e.StartDate)
	assert.Equal(t, day(2026, 4, 1), e.EndDate)
	assert.Equal(t, FirstSlot, e.Cursor())
	assert.True(t, e.IsActive())
	assert.Equal(t, "0%", e.ProgressPercent())

	e.CompletionRate = 0.83
	assert.Equal(t, "83%", e.ProgressPercent())
}

func TestDateIn(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	instant := time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, day(2026, 3, 4), DateIn(instant, time.UTC))
	assert.Equal(t, day(2026, 3, 5), DateIn(instant, shanghai))
	assert.Equal(t, 1, DaysBetween(day(2026, 3, 4), day(2026, 3, 5)))
	assert.Equal(t, -3, DaysBetween(day(2026, 3, 4), day(2026, 3, 1)))

	d, err := ParseDate("2026-02-28")
	assert.NoError(t, err)
	assert.Equal(t, day(2026, 2, 28), d)
	_, err = ParseDate("28/02/2026")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "in progress", EnrollmentActive.Label())
	assert.Equal(t, "abandoned", EnrollmentAbandoned.Label())
	assert.Equal(t, "unknown", EnrollmentStatus("paused").Label())
	assert.Equal(t, "lose fat", GoalLoseFat.Label())
	assert.Equal(t, "unknown", FitnessGoal(9).Label())
	assert.Equal(t, "advanced", DifficultyAdvanced.Label())
	assert.Equal(t, "tired", FeelingTired.Label())
	assert.False(t, Feeling(0).Valid())

	_, err := ParseEnrollmentStatus("paused")
	assert.Error(t, err)
	s, err := ParseEnrollmentStatus("completed")
	assert.NoError(t, err)
	assert.Equal(t, EnrollmentCompleted, s)
}
