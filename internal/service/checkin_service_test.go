package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"
	"eat2fit/fitness/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckIn_AdvancesEnrollmentOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 2, 3))
	require.NoError(t, err)

	res, err := f.checkIns.CheckIn(ctx, f.user, CheckInInput{EnrollmentID: &id, Duration: 30, Calories: 250, Feeling: domain.FeelingModerate})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", res.CheckIn.CheckInDate.Format(domain.DateLayout))
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, domain.Slot{Week: 1, Day: 2}, res.Enrollment.Cursor())

	_, err = f.checkIns.CheckIn(ctx, f.user, CheckInInput{EnrollmentID: &id, Duration: 30})
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.Slot{Week: 1, Day: 2}, current.Enrollment.Cursor())
	assert.Equal(t, 0.17, current.Enrollment.CompletionRate)
}

func TestCheckIn_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 2, 3))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.checkIns.CheckIn(ctx, f.user, CheckInInput{EnrollmentID: &id})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrDuplicateCheckIn)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)

	current, err := f.enrollments.GetCurrentPlan(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, domain.Slot{Week: 1, Day: 2}, current.Enrollment.Cursor())
}

func TestCheckIn_WithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	res, err := f.checkIns.CheckIn(ctx, f.user, CheckInInput{Date: &past, Duration: 15})
	require.NoError(t, err)
	assert.Nil(t, res.Enrollment)
	assert.Equal(t, "2026-03-01", res.CheckIn.CheckInDate.Format(domain.DateLayout))

	_, err = f.checkIns.CheckIn(ctx, f.user, CheckInInput{Date: &past})
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)

	// a different day is fine
	_, err = f.checkIns.CheckIn(ctx, f.user, CheckInInput{})
	require.NoError(t, err)
}

type failingAdvancer struct{}

func (failingAdvancer) UpdateProgress(context.Context, primitive.ObjectID, primitive.ObjectID, bool) (*domain.Enrollment, error) {
	return nil, errors.New("storage down")
}

func TestCheckIn_RollsBackWhenAdvanceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)

	checkInRepo := memory.NewCheckInRepo(f.db)
	svc := NewCheckInService(checkInRepo, memory.NewEnrollmentRepo(f.db), f.db, failingAdvancer{}, nil, f.clock, time.UTC, nil)
	_, err = svc.CheckIn(ctx, f.user, CheckInInput{EnrollmentID: &id})
	require.EqualError(t, err, "storage down")

	ok, err := svc.HasCheckedInToday(ctx, f.user, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// the real advancer succeeds afterwards
	_, err = f.checkIns.CheckIn(ctx, f.user, CheckInInput{EnrollmentID: &id})
	require.NoError(t, err)
}

func TestCheckIn_FinishedEnrollmentRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)
	_, err = f.enrollments.CompletePlan(ctx, f.user, id)
	require.NoError(t, err)

	_, err = f.checkIns.CheckIn(ctx, f.user, CheckInInput{EnrollmentID: &id})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	ok, err := f.checkIns.HasCheckedInToday(ctx, f.user, &id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckIn_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)
	foreign := primitive.NewObjectID()

	tests := []struct {
		name string
		in   CheckInInput
		want error
	}{
		{"negative duration", CheckInInput{Duration: -1}, ErrInvalidInput},
		{"negative calories", CheckInInput{Calories: -5}, ErrInvalidInput},
		{"unknown feeling", CheckInInput{Feeling: 7}, ErrInvalidInput},
		{"too long", CheckInInput{Content: strings.Repeat("x", MaxCheckInContent+1)}, ErrInvalidInput},
		{"foreign image", CheckInInput{Images: []string{"checkins/someone/a.png"}}, ErrInvalidInput},
		{"unknown enrollment", CheckInInput{EnrollmentID: &foreign}, ErrEnrollmentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.checkIns.CheckIn(ctx, f.user, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = f.checkIns.CheckIn(ctx, primitive.NewObjectID(), CheckInInput{EnrollmentID: &id})
	assert.ErrorIs(t, err, ErrEnrollmentNoAccess)
}

func TestHasCheckedInToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.enrollments.ChoosePlan(ctx, f.user, f.addPlan(t, 1, 3))
	require.NoError(t, err)

	ok, err := f.checkIns.HasCheckedInToday(ctx, f.user, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.checkIns.CheckIn(ctx, f.user, CheckInInput{})
	require.NoError(t, err)

	ok, err = f.checkIns.HasCheckedInToday(ctx, f.user, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.checkIns.HasCheckedInToday(ctx, f.user, &id)
	require.NoError(t, err)
	assert.False(t, ok)

	f.advance(1)
	ok, err = f.checkIns.HasCheckedInToday(ctx, f.user, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetStats_Streak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, daysAgo := range []int{0, 1, 2, 4, 40} {
		d := testNow.AddDate(0, 0, -daysAgo)
		_, err := f.checkIns.CheckIn(ctx, f.user, CheckInInput{Date: &d, Duration: 10, Calories: 100})
		require.NoError(t, err)
	}

	stats, err := f.checkIns.GetStats(ctx, f.user)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalCheckIns)
	assert.EqualValues(t, 4, stats.RecentCheckIns)
	assert.Equal(t, 3, stats.ConsecutiveDays)
	// Mon 2026-03-02 .. Wed 2026-03-04
	assert.EqualValues(t, 3, stats.WeeklyCheckIns)
	// Feb 28 belongs to last month
	assert.EqualValues(t, 3, stats.MonthlyCheckIns)
	assert.EqualValues(t, 30, stats.MonthlyDuration)
	assert.EqualValues(t, 50, stats.TotalDuration)
	assert.EqualValues(t, 500, stats.TotalCalories)
}

func TestListCheckIns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		d := testNow.AddDate(0, 0, -i)
		_, err := f.checkIns.CheckIn(ctx, f.user, CheckInInput{Date: &d})
		require.NoError(t, err)
	}

	from, to := testNow.AddDate(0, 0, -2), testNow
	page, err := f.checkIns.ListCheckIns(ctx, f.user, &from, &to, repository.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2026-03-04", page.Items[0].CheckInDate.Format(domain.DateLayout))
	assert.Empty(t, page.Items[0].ImageURLs)

	_, err = f.checkIns.ListCheckIns(ctx, f.user, &to, &from, repository.Page{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRequestImageUpload_NoStorage(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkIns.RequestImageUpload(context.Background(), f.user, "image/png")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

type fakeStorage struct{}

func (fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (fakeStorage) DeleteObject(context.Context, string) error { return nil }

func TestImages_UploadThenList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewCheckInService(memory.NewCheckInRepo(f.db), memory.NewEnrollmentRepo(f.db), f.db, f.enrollments, fakeStorage{}, f.clock, time.UTC, nil)

	_, err := svc.RequestImageUpload(ctx, f.user, "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)

	up, err := svc.RequestImageUpload(ctx, f.user, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.ObjectKey, "checkins/"+f.user.Hex()+"/"))
	assert.Equal(t, "https://s3.test/put/"+up.ObjectKey, up.UploadURL)

	_, err = svc.CheckIn(ctx, f.user, CheckInInput{Images: []string{up.ObjectKey}})
	require.NoError(t, err)

	page, err := svc.ListCheckIns(ctx, f.user, nil, nil, repository.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{up.ObjectKey}, page.Items[0].Images)
	assert.Equal(t, []string{"https://s3.test/get/" + up.ObjectKey}, page.Items[0].ImageURLs)
}
