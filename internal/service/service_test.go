package service

import (
	"fmt"
	"testing"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 2026-03-04 is a Wednesday.
var testNow = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

type mutableClock struct{ t time.Time }

func (c *mutableClock) Now() time.Time { return c.t }

type fixture struct {
	db          *memory.DB
	clock       *mutableClock
	enrollments EnrollmentService
	checkIns    CheckInService
	user        primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	clock := &mutableClock{t: testNow}
	enrollmentRepo := memory.NewEnrollmentRepo(db)
	enrollments := NewEnrollmentService(enrollmentRepo, memory.NewPlanRepo(db), memory.NewCourseRepo(db), clock, time.UTC, nil)
	checkIns := NewCheckInService(memory.NewCheckInRepo(db), enrollmentRepo, db, enrollments, nil, clock, time.UTC, nil)
	return &fixture{
		db:          db,
		clock:       clock,
		enrollments: enrollments,
		checkIns:    checkIns,
		user:        primitive.NewObjectID(),
	}
}

// addPlan seeds a plan with a detail in every slot.
func (f *fixture) addPlan(t *testing.T, weeks, perWeek int) primitive.ObjectID {
	t.Helper()
	var details []domain.PlanDetail
	for w := 1; w <= weeks; w++ {
		for d := 1; d <= perWeek; d++ {
			details = append(details, domain.PlanDetail{WeekNum: w, DayNum: d, Title: slotTitle(w, d)})
		}
	}
	id, err := f.db.AddPlan(domain.WorkoutPlan{Name: "plan", DurationWeeks: weeks, SessionsPerWeek: perWeek}, details)
	require.NoError(t, err)
	return id
}

func slotTitle(w, d int) string {
	return fmt.Sprintf("w%dd%d", w, d)
}

func (f *fixture) advance(d int) {
	f.clock.t = f.clock.t.AddDate(0, 0, d)
}
