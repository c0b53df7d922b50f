// internal/domain/date.go
package domain

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CivilDate drops the clock part of t and returns its calendar date as UTC midnight.
// The date is taken in t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of instant t as observed in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDate(t.In(loc))
}

// DaysBetween counts whole calendar days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)) / (24 * time.Hour))
}

// ParseDate parses a DateLayout string into a calendar date.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	return CivilDate(t), nil
}
