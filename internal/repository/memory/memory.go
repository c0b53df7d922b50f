// Package memory implements in-memory repositories for development and testing.
// It enforces the same uniqueness constraints as the MongoDB indexes.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB implements an in-memory database storage.
type DB struct {
	// txMu serializes writers and transactions, mu guards the data itself.
	txMu sync.Mutex
	mu   sync.RWMutex

	plans       map[primitive.ObjectID]domain.WorkoutPlan
	details     map[primitive.ObjectID][]domain.PlanDetail
	courses     map[primitive.ObjectID]domain.Course
	enrollments map[primitive.ObjectID]domain.Enrollment
	checkIns    map[primitive.ObjectID]domain.CheckIn
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		plans:       make(map[primitive.ObjectID]domain.WorkoutPlan),
		details:     make(map[primitive.ObjectID][]domain.PlanDetail),
		courses:     make(map[primitive.ObjectID]domain.Course),
		enrollments: make(map[primitive.ObjectID]domain.Enrollment),
		checkIns:    make(map[primitive.ObjectID]domain.CheckIn),
	}
}

// Ensure interfaces are met.
var _ repository.PlanRepository = (*PlanRepo)(nil)
var _ repository.CourseRepository = (*CourseRepo)(nil)
var _ repository.EnrollmentRepository = (*EnrollmentRepo)(nil)
var _ repository.CheckInRepository = (*CheckInRepo)(nil)
var _ repository.Transactor = (*DB)(nil)

type txKey struct{}

// WithinTransaction runs fn with exclusive write access and restores the
// previous state if fn fails.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs a mutation, taking the writer lock unless ctx is already inside a transaction.
func (db *DB) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}

type snapshot struct {
	enrollments map[primitive.ObjectID]domain.Enrollment
	checkIns    map[primitive.ObjectID]domain.CheckIn
}

// snapshot copies the mutable collections, the catalog is read-only.
func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s := snapshot{
		enrollments: make(map[primitive.ObjectID]domain.Enrollment, len(db.enrollments)),
		checkIns:    make(map[primitive.ObjectID]domain.CheckIn, len(db.checkIns)),
	}
	for k, v := range db.enrollments {
		s.enrollments[k] = v
	}
	for k, v := range db.checkIns {
		s.checkIns[k] = v
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.enrollments = s.enrollments
	db.checkIns = s.checkIns
}

// --- Catalog seeding ---

// AddPlan stores a plan and its schedule. It returns an error if two details share a slot.
func (db *DB) AddPlan(plan domain.WorkoutPlan, details []domain.PlanDetail) (primitive.ObjectID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if plan.ID == primitive.NilObjectID {
		plan.ID = primitive.NewObjectID()
	}
	seen := make(map[domain.Slot]bool, len(details))
	stored := make([]domain.PlanDetail, 0, len(details))
	for _, d := range details {
		if seen[d.Slot()] {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		seen[d.Slot()] = true
		if d.ID == primitive.NilObjectID {
			d.ID = primitive.NewObjectID()
		}
		d.PlanID = plan.ID
		stored = append(stored, d)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[j].Slot().After(stored[i].Slot())
	})
	db.plans[plan.ID] = plan
	db.details[plan.ID] = stored
	return plan.ID, nil
}

// AddCourse stores a training unit.
func (db *DB) AddCourse(course domain.Course) primitive.ObjectID {
	db.mu.Lock()
	defer db.mu.Unlock()
	if course.ID == primitive.NilObjectID {
		course.ID = primitive.NewObjectID()
	}
	db.courses[course.ID] = course
	return course.ID
}

// --- PlanRepository ---

type PlanRepo struct{ db *DB }

func NewPlanRepo(db *DB) *PlanRepo { return &PlanRepo{db: db} }

func (r *PlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	plan, ok := r.db.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &plan, nil
}

func (r *PlanRepo) GetDetails(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.PlanDetail, len(r.db.details[planID]))
	copy(out, r.db.details[planID])
	return out, nil
}

func (r *PlanRepo) GetDetail(ctx context.Context, planID primitive.ObjectID, slot domain.Slot) (*domain.PlanDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, d := range r.db.details[planID] {
		if d.Slot() == slot {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- CourseRepository ---

type CourseRepo struct{ db *DB }

func NewCourseRepo(db *DB) *CourseRepo { return &CourseRepo{db: db} }

func (r *CourseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	course, ok := r.db.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &course, nil
}

// --- EnrollmentRepository ---

type EnrollmentRepo struct{ db *DB }

func NewEnrollmentRepo(db *DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

func (r *EnrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	if enrollment.UserID == primitive.NilObjectID || enrollment.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires userId and planId")
	}
	err := r.db.write(ctx, func() error {
		if enrollment.Status == domain.EnrollmentActive {
			for _, e := range r.db.enrollments {
				if e.UserID == enrollment.UserID && e.Status == domain.EnrollmentActive {
					return repository.ErrDuplicateKey
				}
			}
		}
		enrollment.ID = primitive.NewObjectID()
		now := time.Now().UTC()
		enrollment.CreatedAt = now
		enrollment.UpdatedAt = now
		r.db.enrollments[enrollment.ID] = *enrollment
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return enrollment.ID, nil
}

func (r *EnrollmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	e, ok := r.db.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *EnrollmentRepo) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Enrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, e := range r.db.enrollments {
		if e.UserID == userID && e.Status == domain.EnrollmentActive {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *EnrollmentRepo) List(ctx context.Context, filter repository.EnrollmentFilter, page repository.Page) ([]domain.Enrollment, int64, error) {
	page = page.Normalize()
	r.db.mu.RLock()
	var matched []domain.Enrollment
	for _, e := range r.db.enrollments {
		if e.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		matched = append(matched, e)
	}
	r.db.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (r *EnrollmentRepo) UpdateProgress(ctx context.Context, id primitive.ObjectID, from, to domain.Slot, rate float64, status domain.EnrollmentStatus) error {
	return r.db.write(ctx, func() error {
		e, ok := r.db.enrollments[id]
		if !ok || e.Status != domain.EnrollmentActive || e.Cursor() != from {
			return repository.ErrConflict
		}
		e.CurrentWeek = to.Week
		e.CurrentDay = to.Day
		e.CompletionRate = rate
		e.Status = status
		e.UpdatedAt = time.Now().UTC()
		r.db.enrollments[id] = e
		return nil
	})
}

func (r *EnrollmentRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to domain.EnrollmentStatus, rate *float64) (bool, error) {
	changed := false
	err := r.db.write(ctx, func() error {
		e, ok := r.db.enrollments[id]
		if !ok || e.Status != from {
			return nil
		}
		if to == domain.EnrollmentActive {
			for otherID, other := range r.db.enrollments {
				if otherID != id && other.UserID == e.UserID && other.Status == domain.EnrollmentActive {
					return repository.ErrDuplicateKey
				}
			}
		}
		e.Status = to
		if rate != nil {
			e.CompletionRate = *rate
		}
		e.UpdatedAt = time.Now().UTC()
		r.db.enrollments[id] = e
		changed = true
		return nil
	})
	return changed, err
}

// --- CheckInRepository ---

type CheckInRepo struct{ db *DB }

func NewCheckInRepo(db *DB) *CheckInRepo { return &CheckInRepo{db: db} }

func (r *CheckInRepo) Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.UserID == primitive.NilObjectID || checkIn.CheckInDate.IsZero() {
		return primitive.NilObjectID, errors.New("check-in requires userId and checkInDate")
	}
	checkIn.CheckInDate = domain.CivilDate(checkIn.CheckInDate)
	key := keyOf(checkIn)
	err := r.db.write(ctx, func() error {
		for _, c := range r.db.checkIns {
			if sameKey(keyOf(&c), key) {
				return repository.ErrDuplicateKey
			}
		}
		checkIn.ID = primitive.NewObjectID()
		now := time.Now().UTC()
		checkIn.CreatedAt = now
		checkIn.UpdatedAt = now
		stored := *checkIn
		stored.Images = append([]string(nil), checkIn.Images...)
		r.db.checkIns[checkIn.ID] = stored
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return checkIn.ID, nil
}

func (r *CheckInRepo) Exists(ctx context.Context, key repository.CheckInKey) (bool, error) {
	key.Date = domain.CivilDate(key.Date)
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, c := range r.db.checkIns {
		if sameKey(keyOf(&c), key) {
			return true, nil
		}
	}
	return false, nil
}

func (r *CheckInRepo) ExistsOnDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (bool, error) {
	date = domain.CivilDate(date)
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, c := range r.db.checkIns {
		if c.UserID == userID && c.CheckInDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *CheckInRepo) List(ctx context.Context, filter repository.CheckInFilter, page repository.Page) ([]domain.CheckIn, int64, error) {
	page = page.Normalize()
	r.db.mu.RLock()
	var matched []domain.CheckIn
	for _, c := range r.db.checkIns {
		if c.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && c.CheckInDate.Before(domain.CivilDate(*filter.From)) {
			continue
		}
		if filter.To != nil && c.CheckInDate.After(domain.CivilDate(*filter.To)) {
			continue
		}
		matched = append(matched, c)
	}
	r.db.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CheckInDate.Equal(matched[j].CheckInDate) {
			return matched[i].CheckInDate.After(matched[j].CheckInDate)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (r *CheckInRepo) Summaries(ctx context.Context, userID primitive.ObjectID) ([]domain.CheckInSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rows := []domain.CheckInSummary{}
	for _, c := range r.db.checkIns {
		if c.UserID == userID {
			rows = append(rows, domain.CheckInSummary{
				CheckInDate: c.CheckInDate,
				Duration:    c.Duration,
				Calories:    c.Calories,
			})
		}
	}
	return rows, nil
}

func keyOf(c *domain.CheckIn) repository.CheckInKey {
	return repository.CheckInKey{UserID: c.UserID, EnrollmentID: c.EnrollmentID, Date: c.CheckInDate}
}

func sameKey(a, b repository.CheckInKey) bool {
	if a.UserID != b.UserID || !a.Date.Equal(b.Date) {
		return false
	}
	if a.EnrollmentID == nil || b.EnrollmentID == nil {
		return a.EnrollmentID == nil && b.EnrollmentID == nil
	}
	return *a.EnrollmentID == *b.EnrollmentID
}

func paginate[T any](rows []T, page repository.Page) []T {
	start := int(page.Offset())
	if start >= len(rows) {
		return []T{}
	}
	end := start + page.Size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
