// internal/domain/enrollment.go
package domain

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollmentStatus is the lifecycle state of a user's enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentAbandoned EnrollmentStatus = "abandoned"
)

// Label returns the display text for the status.
func (s EnrollmentStatus) Label() string {
	switch s {
	case EnrollmentActive:
		return "in progress"
	case EnrollmentCompleted:
		return "completed"
	case EnrollmentAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentCompleted, EnrollmentAbandoned:
		return true
	}
	return false
}

// ParseEnrollmentStatus parses a status filter value.
func ParseEnrollmentStatus(v string) (EnrollmentStatus, error) {
	s := EnrollmentStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown enrollment status %q", v)
	}
	return s, nil
}

// Enrollment is one user's adoption of one workout plan.
// A user has at most one active enrollment; finished ones are kept as history.
type Enrollment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID         primitive.ObjectID `bson:"planId" json:"planId"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"` // calendar date, UTC midnight
	EndDate        time.Time          `bson:"endDate" json:"endDate"`
	CurrentWeek    int                `bson:"currentWeek" json:"currentWeek"`
	CurrentDay     int                `bson:"currentDay" json:"currentDay"`
	CompletionRate float64            `bson:"completionRate" json:"completionRate"`
	Status         EnrollmentStatus   `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewEnrollment builds a fresh active enrollment starting on today.
func NewEnrollment(userID primitive.ObjectID, plan *WorkoutPlan, today time.Time) *Enrollment {
	start := CivilDate(today)
	return &Enrollment{
		UserID:         userID,
		PlanID:         plan.ID,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, plan.DurationWeeks*7),
		CurrentWeek:    1,
		CurrentDay:     1,
		CompletionRate: 0,
		Status:         EnrollmentActive,
	}
}

func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}

// Cursor is the stored progress position.
func (e *Enrollment) Cursor() Slot {
	return Slot{Week: e.CurrentWeek, Day: e.CurrentDay}
}

// ProgressPercent renders the completion rate as a whole percentage, e.g. "83%".
func (e *Enrollment) ProgressPercent() string {
	return fmt.Sprintf("%d%%", int(math.Round(e.CompletionRate*100)))
}
