// internal/domain/checkin.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feeling is the user's qualitative rating of a session.
type Feeling int

const (
	FeelingEasy     Feeling = 1
	FeelingModerate Feeling = 2
	FeelingTired    Feeling = 3
)

func (f Feeling) Label() string {
	switch f {
	case FeelingEasy:
		return "easy"
	case FeelingModerate:
		return "moderate"
	case FeelingTired:
		return "tired"
	default:
		return "unknown"
	}
}

func (f Feeling) Valid() bool {
	return f >= FeelingEasy && f <= FeelingTired
}

// CheckIn records one training session reported by a user.
// At most one check-in exists per (UserID, EnrollmentID, CheckInDate);
// a nil EnrollmentID is a value of its own in that tuple.
type CheckIn struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"`
	EnrollmentID *primitive.ObjectID `bson:"enrollmentId" json:"enrollmentId,omitempty"` // stored as null when absent, part of the unique key
	CourseID     *primitive.ObjectID `bson:"courseId,omitempty" json:"courseId,omitempty"`
	CheckInDate  time.Time           `bson:"checkInDate" json:"checkInDate"` // calendar date, UTC midnight
	Duration     int                 `bson:"duration" json:"duration"`       // minutes
	Calories     int                 `bson:"calories" json:"calories"`
	Feeling      Feeling             `bson:"feeling,omitempty" json:"feeling,omitempty"`
	Content      string              `bson:"content,omitempty" json:"content,omitempty"`
	Images       []string            `bson:"images,omitempty" json:"images,omitempty"` // object storage keys
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CheckInSummary is the projection of a check-in used for statistics.
type CheckInSummary struct {
	CheckInDate time.Time `bson:"checkInDate"`
	Duration    int       `bson:"duration"`
	Calories    int       `bson:"calories"`
}

// CheckInStats is a read-only report derived from a user's check-ins.
type CheckInStats struct {
	TotalCheckIns   int64 `json:"totalCheckIns"`
	RecentCheckIns  int64 `json:"recentCheckIns"` // last 30 days
	WeeklyCheckIns  int64 `json:"weeklyCheckIns"` // Monday..Sunday of the current week
	MonthlyCheckIns int64 `json:"monthlyCheckIns"`
	ConsecutiveDays int   `json:"consecutiveDays"`
	TotalDuration   int64 `json:"totalDuration"`
	TotalCalories   int64 `json:"totalCalories"`
	MonthlyDuration int64 `json:"monthlyDuration"`
}
