package service

import (
	"context"
	"sync"
	"testing"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChoosePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	planID := f.addPlan(t, 2, 3)

	id, err := f.enrollments.ChoosePlan(ctx, f.user, planID)
	require.NoError(t, err)

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	require.NotNil(t, current)
	e := current.Enrollment
	assert.Equal(t, id, e.ID)
	assert.Equal(t, domain.EnrollmentActive, e.Status)
	assert.Equal(t, domain.FirstSlot, e.Cursor())
	assert.Zero(t, e.CompletionRate)
	assert.Equal(t, "2026-03-04", e.StartDate.Format(domain.DateLayout))
	assert.Equal(t, "2026-03-18", e.EndDate.Format(domain.DateLayout))
	require.Len(t, current.Details, 6)
	assert.Equal(t, "w1d1", current.Details[0].Title)
	assert.Equal(t, "w2d3", current.Details[5].Title)
}

func TestChoosePlan_AlreadyInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	planID := f.addPlan(t, 1, 3)

	_, err := f.enrollments.ChoosePlan(ctx, f.user, planID)
	require.NoError(t, err)

	_, err = f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 2, 2))
	assert.ErrorIs(t, err, ErrPlanAlreadyInProgress)

	page, err := f.enrollments.ListMyEnrollments(ctx, f.user, nil, repository.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestChoosePlan_PlanNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.enrollments.ChoosePlan(context.Background(), f.user, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestChoosePlan_Concurrent(t *testing.T) {
	f := newFixture(t)
	planID := f.addPlan(t, 1, 3)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.enrollments.ChoosePlan(context.Background(), f.user, planID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrPlanAlreadyInProgress)
	}
	assert.Equal(t, 1, ok)
}

func TestUpdateProgress_RunsToCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 2, 3))
	require.NoError(t, err)

	today, err := f.enrollments.GetTodayWorkout(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, domain.FirstSlot, today.Slot)

	var e *domain.Enrollment
	prev := domain.FirstSlot
	for i := 0; i < 5; i++ {
		e, err = f.enrollments.UpdateProgress(ctx, f.user, id, true)
		require.NoError(t, err)
		assert.True(t, e.Cursor().After(prev))
		prev = e.Cursor()
	}
	assert.Equal(t, domain.Slot{Week: 2, Day: 3}, e.Cursor())
	assert.Equal(t, 0.83, e.CompletionRate)
	assert.Equal(t, domain.EnrollmentActive, e.Status)

	e, err = f.enrollments.UpdateProgress(ctx, f.user, id, true)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentCompleted, e.Status)
	assert.Equal(t, 1.0, e.CompletionRate)
	assert.Equal(t, domain.Slot{Week: 2, Day: 3}, e.Cursor())

	_, err = f.enrollments.UpdateProgress(ctx, f.user, id, true)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestUpdateProgress_SkipKeepsRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 4))
	require.NoError(t, err)

	e, err := f.enrollments.UpdateProgress(ctx, f.user, id, true)
	require.NoError(t, err)
	assert.Equal(t, 0.25, e.CompletionRate)

	e, err = f.enrollments.UpdateProgress(ctx, f.user, id, false)
	require.NoError(t, err)
	assert.Equal(t, 0.25, e.CompletionRate)
	assert.Equal(t, domain.Slot{Week: 1, Day: 3}, e.Cursor())
}

func TestUpdateProgress_ConcurrentAdvancesOncePerCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 4, 3))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.enrollments.UpdateProgress(ctx, f.user, id, true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.Slot{Week: 2, Day: 2}, current.Enrollment.Cursor())
}

func TestGetTodayWorkout_ClampsPastPlanEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)

	f.advance(10)
	first, err := f.enrollments.GetTodayWorkout(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Slot{Week: 1, Day: 3}, first.Slot)
	require.NotNil(t, first.Detail)
	assert.Equal(t, "w1d3", first.Detail.Title)

	again, err := f.enrollments.GetTodayWorkout(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, first.Slot, again.Slot)

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.FirstSlot, current.Enrollment.Cursor())
}

func TestGetTodayWorkout_GapAndCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.db.AddCourse(domain.Course{Name: "HIIT", Duration: 20})
	planID, err := f.db.AddPlan(domain.WorkoutPlan{DurationWeeks: 1, SessionsPerWeek: 2}, []domain.PlanDetail{
		{WeekNum: 1, DayNum: 1, Title: "intervals", CourseID: &courseID},
	})
	require.NoError(t, err)
	id, err := f.enrollments.ChoosePlan(ctx, f.user, planID)
	require.NoError(t, err)

	today, err := f.enrollments.GetTodayWorkout(ctx, f.user, id)
	require.NoError(t, err)
	require.NotNil(t, today.Course)
	assert.Equal(t, "HIIT", today.Course.Name)

	f.advance(1)
	today, err = f.enrollments.GetTodayWorkout(ctx, f.user, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Slot{Week: 1, Day: 2}, today.Slot)
	assert.Nil(t, today.Detail)
	assert.Nil(t, today.Course)
}

func TestIsWorkoutCompletedToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 2, 3))
	require.NoError(t, err)

	done, err := f.enrollments.IsWorkoutCompletedToday(ctx, f.user, id)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = f.enrollments.UpdateProgress(ctx, f.user, id, true)
	require.NoError(t, err)
	done, err = f.enrollments.IsWorkoutCompletedToday(ctx, f.user, id)
	require.NoError(t, err)
	assert.True(t, done)

	// next day the calendar catches up with the cursor
	f.advance(1)
	done, err = f.enrollments.IsWorkoutCompletedToday(ctx, f.user, id)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestAbandonAndCompletePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)

	ok, err := f.enrollments.AbandonPlan(ctx, f.user, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.enrollments.AbandonPlan(ctx, f.user, id)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.enrollments.CompletePlan(ctx, f.user, id)
	require.NoError(t, err)
	assert.False(t, ok)

	second, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)
	ok, err = f.enrollments.CompletePlan(ctx, f.user, second)
	require.NoError(t, err)
	assert.True(t, ok)

	completed := domain.EnrollmentCompleted
	page, err := f.enrollments.ListMyEnrollments(ctx, f.user, &completed, repository.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second, page.Items[0].ID)
	assert.Equal(t, 1.0, page.Items[0].CompletionRate)
	require.NotNil(t, page.Items[0].Plan)

	_, err = f.enrollments.AbandonPlan(ctx, f.user, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestOwnershipIsChecked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)
	stranger := primitive.NewObjectID()

	_, err = f.enrollments.GetTodayWorkout(ctx, stranger, id)
	assert.ErrorIs(t, err, ErrEnrollmentNoAccess)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = f.enrollments.UpdateProgress(ctx, stranger, id, true)
	assert.ErrorIs(t, err, ErrEnrollmentNoAccess)
	_, err = f.enrollments.AbandonPlan(ctx, stranger, id)
	assert.ErrorIs(t, err, ErrEnrollmentNoAccess)
	_, err = f.enrollments.CompletePlan(ctx, stranger, id)
	assert.ErrorIs(t, err, ErrEnrollmentNoAccess)
	_, err = f.enrollments.IsWorkoutCompletedToday(ctx, stranger, id)
	assert.ErrorIs(t, err, ErrEnrollmentNoAccess)

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.FirstSlot, current.Enrollment.Cursor())
	assert.True(t, current.Enrollment.IsActive())
}

func TestListMyEnrollments_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	bogus := domain.EnrollmentStatus("paused")
	_, err := f.enrollments.ListMyEnrollments(context.Background(), f.user, &bogus, repository.Page{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
