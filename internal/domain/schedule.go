// internal/domain/schedule.go
package domain

import "time"

// Slot is a 1-based (week, day) coordinate in a plan's schedule.
type Slot struct {
	Week int `json:"week"`
	Day  int `json:"day"`
}

// FirstSlot is where every enrollment starts.
var FirstSlot = Slot{Week: 1, Day: 1}

// Ordinal is the 1-based absolute position of the slot in a plan with
// sessionsPerWeek sessions per week.
func (s Slot) Ordinal(sessionsPerWeek int) int {
	return (s.Week-1)*sessionsPerWeek + s.Day
}

// After reports whether s is strictly ahead of o.
func (s Slot) After(o Slot) bool {
	if s.Week != o.Week {
		return s.Week > o.Week
	}
	return s.Day > o.Day
}

// SlotAt maps a zero-based slot index onto a (week, day) coordinate.
func SlotAt(index, sessionsPerWeek int) Slot {
	return Slot{
		Week: index/sessionsPerWeek + 1,
		Day:  index%sessionsPerWeek + 1,
	}
}

// CalendarSlot projects elapsed calendar days since start onto the plan's
// schedule, one slot per day. Dates before start pin to the first slot and
// dates past the plan length pin to the final slot. It ignores the stored cursor.
func CalendarSlot(plan *WorkoutPlan, start, today time.Time) Slot {
	elapsed := DaysBetween(start, today)
	if elapsed < 0 {
		elapsed = 0
	}
	if last := plan.TotalSlots() - 1; elapsed > last {
		elapsed = last
	}
	return SlotAt(elapsed, plan.SessionsPerWeek)
}

// NextSlot advances cur by one session. finished is true when cur was the
// last slot of the plan, in which case next is cur unchanged.
func NextSlot(plan *WorkoutPlan, cur Slot) (next Slot, finished bool) {
	next = Slot{Week: cur.Week, Day: cur.Day + 1}
	if next.Day > plan.SessionsPerWeek {
		next = Slot{Week: cur.Week + 1, Day: 1}
	}
	if next.Week > plan.DurationWeeks {
		return cur, true
	}
	return next, false
}

// CompletionRate returns done/total rounded half-up to two decimals.
func CompletionRate(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	hundredths := (done*200 + total) / (2 * total)
	return float64(hundredths) / 100
}
