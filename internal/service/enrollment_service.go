package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/metrics"
	"eat2fit/fitness/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxProgressAttempts bounds retries of the guarded cursor write.
const maxProgressAttempts = 5

// EnrollmentView is an enrollment decorated with its plan (nil if the plan is gone).
type EnrollmentView struct {
	domain.Enrollment
	Plan *domain.WorkoutPlan
}

// EnrollmentPage is one page of a user's enrollments.
type EnrollmentPage struct {
	Items []EnrollmentView
	Total int64
	Page  repository.Page
}

// CurrentPlan is the active enrollment with its plan and full schedule.
type CurrentPlan struct {
	Enrollment domain.Enrollment
	Plan       *domain.WorkoutPlan
	Details    []domain.PlanDetail
}

// TodayWorkout is the calendar-implied slot and what is scheduled there.
// Detail is nil for a schedule gap and Course is nil when none is linked.
type TodayWorkout struct {
	Slot   domain.Slot
	Detail *domain.PlanDetail
	Course *domain.Course
}

// EnrollmentService manages plan enrollments, resolves today's workout and advances progress.
// Every operation takes the calling user and re-verifies ownership.
type EnrollmentService interface {
	ChoosePlan(ctx context.Context, userID, planID primitive.ObjectID) (primitive.ObjectID, error)
	ListMyEnrollments(ctx context.Context, userID primitive.ObjectID, status *domain.EnrollmentStatus, page repository.Page) (*EnrollmentPage, error)
	// GetCurrentPlan returns nil without error when the user has no active enrollment.
	GetCurrentPlan(ctx context.Context, userID primitive.ObjectID) (*CurrentPlan, error)
	GetTodayWorkout(ctx context.Context, userID, enrollmentID primitive.ObjectID) (*TodayWorkout, error)
	UpdateProgress(ctx context.Context, userID, enrollmentID primitive.ObjectID, completed bool) (*domain.Enrollment, error)
	// AbandonPlan and CompletePlan report false when the enrollment was no longer active.
	AbandonPlan(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error)
	CompletePlan(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error)
	IsWorkoutCompletedToday(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error)
}

// enrollmentService implements the EnrollmentService interface.
type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	planRepo       repository.PlanRepository
	courseRepo     repository.CourseRepository
	clock          Clock
	loc            *time.Location
	metrics        metrics.Recorder
}

// NewEnrollmentService creates a new instance of enrollmentService.
// loc is the timezone that decides the calendar date of "today".
func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	planRepo repository.PlanRepository,
	courseRepo repository.CourseRepository,
	clock Clock,
	loc *time.Location,
	recorder metrics.Recorder,
) EnrollmentService {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		planRepo:       planRepo,
		courseRepo:     courseRepo,
		clock:          clock,
		loc:            loc,
		metrics:        recorder,
	}
}

func (s *enrollmentService) today() time.Time {
	return domain.DateIn(s.clock.Now(), s.loc)
}

// === Enrollment Manager ===

// ChoosePlan enrolls the user in a plan starting today.
func (s *enrollmentService) ChoosePlan(ctx context.Context, userID, planID primitive.ObjectID) (primitive.ObjectID, error) {
	if userID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return primitive.NilObjectID, invalidInput("user ID and plan ID are required")
	}

	_, err := s.enrollmentRepo.GetActiveByUser(ctx, userID)
	if err == nil {
		return primitive.NilObjectID, ErrPlanAlreadyInProgress
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, fmt.Errorf("check active enrollment: %w", err)
	}

	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if !plan.Valid() {
		return primitive.NilObjectID, fmt.Errorf("%w: plan %s has no schedule", ErrInvalidOperation, planID.Hex())
	}

	enrollment := domain.NewEnrollment(userID, plan, s.today())
	// The unique index closes the race with a concurrent choose.
	id, err := s.enrollmentRepo.Create(ctx, enrollment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return primitive.NilObjectID, ErrPlanAlreadyInProgress
		}
		return primitive.NilObjectID, fmt.Errorf("create enrollment: %w", err)
	}

	s.metrics.RecordEnrollment()
	log.WithFields(log.Fields{
		"userId":       userID.Hex(),
		"planId":       planID.Hex(),
		"enrollmentId": id.Hex(),
		"endDate":      enrollment.EndDate.Format(domain.DateLayout),
	}).Info("enrolled in plan")
	return id, nil
}

func (s *enrollmentService) ListMyEnrollments(ctx context.Context, userID primitive.ObjectID, status *domain.EnrollmentStatus, page repository.Page) (*EnrollmentPage, error) {
	if status != nil && !status.Valid() {
		return nil, invalidInput("unknown status %q", *status)
	}
	page = page.Normalize()

	rows, total, err := s.enrollmentRepo.List(ctx, repository.EnrollmentFilter{UserID: userID, Status: status}, page)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	plans := make(map[primitive.ObjectID]*domain.WorkoutPlan)
	items := make([]EnrollmentView, 0, len(rows))
	for _, e := range rows {
		plan, ok := plans[e.PlanID]
		if !ok {
			plan, err = s.planRepo.GetByID(ctx, e.PlanID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("get plan %s: %w", e.PlanID.Hex(), err)
			}
			plans[e.PlanID] = plan
		}
		items = append(items, EnrollmentView{Enrollment: e, Plan: plan})
	}
	return &EnrollmentPage{Items: items, Total: total, Page: page}, nil
}

// === Progress Resolver ===

func (s *enrollmentService) GetCurrentPlan(ctx context.Context, userID primitive.ObjectID) (*CurrentPlan, error) {
	e, err := s.enrollmentRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active enrollment: %w", err)
	}

	current := &CurrentPlan{Enrollment: *e, Details: []domain.PlanDetail{}}
	plan, err := s.planRepo.GetByID(ctx, e.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return current, nil
		}
		return nil, fmt.Errorf("get plan %s: %w", e.PlanID.Hex(), err)
	}
	current.Plan = plan

	details, err := s.planRepo.GetDetails(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("get plan details %s: %w", plan.ID.Hex(), err)
	}
	current.Details = details
	return current, nil
}

// GetTodayWorkout projects elapsed days onto the schedule. It never touches the stored cursor.
func (s *enrollmentService) GetTodayWorkout(ctx context.Context, userID, enrollmentID primitive.ObjectID) (*TodayWorkout, error) {
	e, plan, err := s.loadActive(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	today := &TodayWorkout{Slot: domain.CalendarSlot(plan, e.StartDate, s.today())}
	detail, err := s.planRepo.GetDetail(ctx, plan.ID, today.Slot)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return today, nil
		}
		return nil, fmt.Errorf("get plan detail: %w", err)
	}
	today.Detail = detail

	if detail.CourseID != nil {
		course, err := s.courseRepo.GetByID(ctx, *detail.CourseID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get course %s: %w", detail.CourseID.Hex(), err)
		}
		today.Course = course
	}
	return today, nil
}

// IsWorkoutCompletedToday reports whether the cursor is already past today's implied slot.
func (s *enrollmentService) IsWorkoutCompletedToday(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error) {
	e, plan, err := s.loadActive(ctx, userID, enrollmentID)
	if err != nil {
		return false, err
	}
	implied := domain.CalendarSlot(plan, e.StartDate, s.today())
	return e.Cursor().After(implied), nil
}

// === Progress Advancer ===

// UpdateProgress advances the cursor by one slot. A completed session also
// moves the completion rate to the share of slots reached so far.
// Passing the last slot finishes the plan.
func (s *enrollmentService) UpdateProgress(ctx context.Context, userID, enrollmentID primitive.ObjectID, completed bool) (*domain.Enrollment, error) {
	e, plan, err := s.loadActive(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		cur := e.Cursor()
		rate := e.CompletionRate
		if completed {
			rate = domain.CompletionRate(cur.Ordinal(plan.SessionsPerWeek), plan.TotalSlots())
		}
		next, finished := domain.NextSlot(plan, cur)
		status := domain.EnrollmentActive
		if finished {
			status = domain.EnrollmentCompleted
			rate = 1
		}

		err = s.enrollmentRepo.UpdateProgress(ctx, e.ID, cur, next, rate, status)
		if err == nil {
			e.CurrentWeek, e.CurrentDay = next.Week, next.Day
			e.CompletionRate = rate
			e.Status = status
			s.recordProgress(e, completed, finished)
			return e, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("update progress: %w", err)
		}

		s.metrics.RecordProgressConflict()
		if attempt == maxProgressAttempts {
			return nil, ErrProgressConflict
		}
		// Someone else moved the cursor, start over from the stored state.
		if e, err = s.getOwned(ctx, userID, enrollmentID); err != nil {
			return nil, err
		}
		if !e.IsActive() {
			return nil, ErrInvalidOperation
		}
	}
}

func (s *enrollmentService) recordProgress(e *domain.Enrollment, completed, finished bool) {
	outcome := metrics.ProgressSkipped
	if completed {
		outcome = metrics.ProgressCompleted
	}
	s.metrics.RecordProgress(outcome)

	fields := log.Fields{
		"userId":         e.UserID.Hex(),
		"enrollmentId":   e.ID.Hex(),
		"week":           e.CurrentWeek,
		"day":            e.CurrentDay,
		"completionRate": e.CompletionRate,
	}
	if finished {
		s.metrics.RecordProgress(metrics.ProgressFinished)
		s.metrics.RecordStatusTransition(string(domain.EnrollmentCompleted))
		log.WithFields(fields).Info("plan finished")
		return
	}
	log.WithFields(fields).Info("progress advanced")
}

func (s *enrollmentService) AbandonPlan(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error) {
	return s.transition(ctx, userID, enrollmentID, domain.EnrollmentAbandoned, nil)
}

// CompletePlan marks the plan done regardless of the cursor and forces the rate to 1.
func (s *enrollmentService) CompletePlan(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error) {
	full := 1.0
	return s.transition(ctx, userID, enrollmentID, domain.EnrollmentCompleted, &full)
}

func (s *enrollmentService) transition(ctx context.Context, userID, enrollmentID primitive.ObjectID, to domain.EnrollmentStatus, rate *float64) (bool, error) {
	if _, err := s.getOwned(ctx, userID, enrollmentID); err != nil {
		return false, err
	}

	changed, err := s.enrollmentRepo.TransitionStatus(ctx, enrollmentID, domain.EnrollmentActive, to, rate)
	if err != nil {
		return false, fmt.Errorf("transition enrollment to %s: %w", to, err)
	}
	if changed {
		s.metrics.RecordStatusTransition(string(to))
		log.WithFields(log.Fields{
			"userId":       userID.Hex(),
			"enrollmentId": enrollmentID.Hex(),
			"status":       to,
		}).Info("enrollment status changed")
	}
	return changed, nil
}

// --- helpers ---

// getOwned loads an enrollment and checks it belongs to userID.
func (s *enrollmentService) getOwned(ctx context.Context, userID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error) {
	e, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if e.UserID != userID {
		return nil, ErrEnrollmentNoAccess
	}
	return e, nil
}

// loadActive loads an owned, active enrollment together with a usable plan.
func (s *enrollmentService) loadActive(ctx context.Context, userID, enrollmentID primitive.ObjectID) (*domain.Enrollment, *domain.WorkoutPlan, error) {
	e, err := s.getOwned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if !e.IsActive() {
		return nil, nil, ErrInvalidOperation
	}
	plan, err := s.getPlan(ctx, e.PlanID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.Valid() {
		return nil, nil, fmt.Errorf("%w: plan %s has no schedule", ErrInvalidOperation, plan.ID.Hex())
	}
	return e, plan, nil
}

func (s *enrollmentService) getPlan(ctx context.Context, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan %s: %w", planID.Hex(), err)
	}
	return plan, nil
}
