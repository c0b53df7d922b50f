package repository

import (
	"context"
	"time"

	"eat2fit/fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	// ErrConflict means a guarded update matched nothing because the row
	// changed since it was read.
	ErrConflict = RepositoryError("concurrent update conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int64 {
	return int64((p.Number - 1) * p.Size)
}

// Transactor runs fn as one all-or-nothing unit. Repository calls made with
// the ctx handed to fn take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PlanRepository reads the workout plan catalog.
type PlanRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	// GetDetails returns the plan's schedule ordered by week, then day.
	GetDetails(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDetail, error)
	// GetDetail returns ErrNotFound for a schedule gap.
	GetDetail(ctx context.Context, planID primitive.ObjectID, slot domain.Slot) (*domain.PlanDetail, error)
}

// CourseRepository reads training units.
type CourseRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error)
}

// EnrollmentFilter narrows an enrollment listing.
type EnrollmentFilter struct {
	UserID primitive.ObjectID
	Status *domain.EnrollmentStatus
}

// EnrollmentRepository persists user enrollments.
type EnrollmentRepository interface {
	// Create returns ErrDuplicateKey if the user already has an active enrollment.
	Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Enrollment, error)
	// List returns one page, newest first, and the total match count.
	List(ctx context.Context, filter EnrollmentFilter, page Page) ([]domain.Enrollment, int64, error)
	// UpdateProgress stores a new cursor, rate and status, provided the enrollment
	// is still active with its cursor at from. Otherwise it returns ErrConflict.
	UpdateProgress(ctx context.Context, id primitive.ObjectID, from, to domain.Slot, rate float64, status domain.EnrollmentStatus) error
	// TransitionStatus moves the enrollment from one status to another and
	// reports whether it did. A non-nil rate overwrites the completion rate.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to domain.EnrollmentStatus, rate *float64) (bool, error)
}

// CheckInKey is the uniqueness tuple of a check-in.
type CheckInKey struct {
	UserID       primitive.ObjectID
	EnrollmentID *primitive.ObjectID
	Date         time.Time
}

// CheckInFilter narrows a check-in listing. Bounds are inclusive calendar dates.
type CheckInFilter struct {
	UserID primitive.ObjectID
	From   *time.Time
	To     *time.Time
}

// CheckInRepository persists check-ins.
type CheckInRepository interface {
	// Create returns ErrDuplicateKey if a check-in with the same key exists.
	Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	// Exists matches the exact key, a nil EnrollmentID only matches check-ins without one.
	Exists(ctx context.Context, key CheckInKey) (bool, error)
	// ExistsOnDate matches any check-in of the user on date.
	ExistsOnDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (bool, error)
	// List returns one page, latest date first, and the total match count.
	List(ctx context.Context, filter CheckInFilter, page Page) ([]domain.CheckIn, int64, error)
	Summaries(ctx context.Context, userID primitive.ObjectID) ([]domain.CheckInSummary, error)
}
