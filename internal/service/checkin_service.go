package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/metrics"
	"eat2fit/fitness/internal/repository"
	"eat2fit/fitness/internal/storage"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxCheckInImages  = 9
	MaxCheckInContent = 2000
)

// ProgressAdvancer moves an enrollment forward after a check-in.
type ProgressAdvancer interface {
	UpdateProgress(ctx context.Context, userID, enrollmentID primitive.ObjectID, completed bool) (*domain.Enrollment, error)
}

// CheckInInput is a check-in as submitted by the user.
type CheckInInput struct {
	EnrollmentID *primitive.ObjectID
	CourseID     *primitive.ObjectID
	Date         *time.Time // defaults to today
	Duration     int
	Calories     int
	Feeling      domain.Feeling
	Content      string
	Images       []string // object keys from RequestImageUpload
}

// CheckInResult is the stored check-in and, when it advanced one, the enrollment.
type CheckInResult struct {
	CheckIn    *domain.CheckIn
	Enrollment *domain.Enrollment
}

// CheckInView decorates a check-in with temporary image URLs.
// ImageURLs is empty when no object storage is configured.
type CheckInView struct {
	domain.CheckIn
	ImageURLs []string
}

type CheckInPage struct {
	Items []CheckInView
	Total int64
	Page  repository.Page
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // reported back in the check-in images
}

// CheckInService records daily check-ins and reports on them.
type CheckInService interface {
	CheckIn(ctx context.Context, userID primitive.ObjectID, in CheckInInput) (*CheckInResult, error)
	ListCheckIns(ctx context.Context, userID primitive.ObjectID, from, to *time.Time, page repository.Page) (*CheckInPage, error)
	GetStats(ctx context.Context, userID primitive.ObjectID) (*domain.CheckInStats, error)
	HasCheckedInToday(ctx context.Context, userID primitive.ObjectID, enrollmentID *primitive.ObjectID) (bool, error)
	RequestImageUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
}

// checkInService implements the CheckInService interface.
type checkInService struct {
	checkInRepo    repository.CheckInRepository
	enrollmentRepo repository.EnrollmentRepository
	tx             repository.Transactor
	advancer       ProgressAdvancer
	fileStorage    storage.FileStorage // nil when images are disabled
	clock          Clock
	loc            *time.Location
	metrics        metrics.Recorder
}

// NewCheckInService creates a new instance of checkInService.
func NewCheckInService(
	checkInRepo repository.CheckInRepository,
	enrollmentRepo repository.EnrollmentRepository,
	tx repository.Transactor,
	advancer ProgressAdvancer,
	fileStorage storage.FileStorage,
	clock Clock,
	loc *time.Location,
	recorder metrics.Recorder,
) CheckInService {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &checkInService{
		checkInRepo:    checkInRepo,
		enrollmentRepo: enrollmentRepo,
		tx:             tx,
		advancer:       advancer,
		fileStorage:    fileStorage,
		clock:          clock,
		loc:            loc,
		metrics:        recorder,
	}
}

func (s *checkInService) today() time.Time {
	return domain.DateIn(s.clock.Now(), s.loc)
}

// CheckIn stores the check-in and, if it names an enrollment, advances that
// enrollment in the same transaction. Either both persist or neither does.
func (s *checkInService) CheckIn(ctx context.Context, userID primitive.ObjectID, in CheckInInput) (*CheckInResult, error) {
	if err := s.validate(userID, in); err != nil {
		return nil, err
	}

	date := s.today()
	if in.Date != nil {
		date = domain.CivilDate(*in.Date)
	}
	record := &domain.CheckIn{
		UserID:       userID,
		EnrollmentID: in.EnrollmentID,
		CourseID:     in.CourseID,
		CheckInDate:  date,
		Duration:     in.Duration,
		Calories:     in.Calories,
		Feeling:      in.Feeling,
		Content:      in.Content,
		Images:       in.Images,
	}

	result := &CheckInResult{}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if in.EnrollmentID != nil {
			if err := s.checkOwner(ctx, userID, *in.EnrollmentID); err != nil {
				return err
			}
		}

		exists, err := s.checkInRepo.Exists(ctx, repository.CheckInKey{UserID: userID, EnrollmentID: in.EnrollmentID, Date: date})
		if err != nil {
			return fmt.Errorf("check existing check-in: %w", err)
		}
		if exists {
			return ErrDuplicateCheckIn
		}

		// The unique index still rejects a concurrent duplicate.
		if _, err := s.checkInRepo.Create(ctx, record); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return ErrDuplicateCheckIn
			}
			return fmt.Errorf("create check-in: %w", err)
		}

		if in.EnrollmentID != nil {
			enrollment, err := s.advancer.UpdateProgress(ctx, userID, *in.EnrollmentID, true)
			if err != nil {
				return err
			}
			result.Enrollment = enrollment
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCheckIn) {
			s.metrics.RecordDuplicateCheckIn()
		}
		return nil, err
	}

	result.CheckIn = record
	s.metrics.RecordCheckIn(result.Enrollment != nil)
	fields := log.Fields{
		"userId":      userID.Hex(),
		"checkInId":   record.ID.Hex(),
		"checkInDate": date.Format(domain.DateLayout),
	}
	if in.EnrollmentID != nil {
		fields["enrollmentId"] = in.EnrollmentID.Hex()
	}
	log.WithFields(fields).Info("checked in")
	return result, nil
}

func (s *checkInService) validate(userID primitive.ObjectID, in CheckInInput) error {
	if userID == primitive.NilObjectID {
		return invalidInput("user ID is required")
	}
	if in.Duration < 0 || in.Calories < 0 {
		return invalidInput("duration and calories must not be negative")
	}
	if in.Feeling != 0 && !in.Feeling.Valid() {
		return invalidInput("unknown feeling %d", in.Feeling)
	}
	if len([]rune(in.Content)) > MaxCheckInContent {
		return invalidInput("content exceeds %d characters", MaxCheckInContent)
	}
	if len(in.Images) > MaxCheckInImages {
		return invalidInput("at most %d images", MaxCheckInImages)
	}
	for _, key := range in.Images {
		if !storage.OwnsImageKey(userID.Hex(), key) {
			return invalidInput("image %q was not issued to this user", key)
		}
	}
	return nil
}

func (s *checkInService) checkOwner(ctx context.Context, userID, enrollmentID primitive.ObjectID) error {
	e, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("get enrollment: %w", err)
	}
	if e.UserID != userID {
		return ErrEnrollmentNoAccess
	}
	return nil
}

// ListCheckIns returns check-ins between the inclusive dates, latest first.
func (s *checkInService) ListCheckIns(ctx context.Context, userID primitive.ObjectID, from, to *time.Time, page repository.Page) (*CheckInPage, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, invalidInput("start date is after end date")
	}
	page = page.Normalize()

	rows, total, err := s.checkInRepo.List(ctx, repository.CheckInFilter{UserID: userID, From: from, To: to}, page)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	items := make([]CheckInView, 0, len(rows))
	for _, c := range rows {
		view := CheckInView{CheckIn: c, ImageURLs: []string{}}
		if s.fileStorage != nil {
			for _, key := range c.Images {
				url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
				if err != nil {
					// One broken image should not hide the listing.
					log.WithError(err).WithField("key", key).Warn("presign check-in image")
					continue
				}
				view.ImageURLs = append(view.ImageURLs, url)
			}
		}
		items = append(items, view)
	}
	return &CheckInPage{Items: items, Total: total, Page: page}, nil
}

func (s *checkInService) GetStats(ctx context.Context, userID primitive.ObjectID) (*domain.CheckInStats, error) {
	rows, err := s.checkInRepo.Summaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load check-in summaries: %w", err)
	}
	stats := domain.ComputeCheckInStats(rows, s.today())
	return &stats, nil
}

// HasCheckedInToday with a nil enrollmentID matches any check-in today.
func (s *checkInService) HasCheckedInToday(ctx context.Context, userID primitive.ObjectID, enrollmentID *primitive.ObjectID) (bool, error) {
	today := s.today()
	var (
		ok  bool
		err error
	)
	if enrollmentID == nil {
		ok, err = s.checkInRepo.ExistsOnDate(ctx, userID, today)
	} else {
		ok, err = s.checkInRepo.Exists(ctx, repository.CheckInKey{UserID: userID, EnrollmentID: enrollmentID, Date: today})
	}
	if err != nil {
		return false, fmt.Errorf("check today's check-in: %w", err)
	}
	return ok, nil
}

// RequestImageUpload issues an object key and a presigned PUT URL for a check-in photo.
func (s *checkInService) RequestImageUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}
	key, err := storage.NewImageKey(userID.Hex(), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate upload url: %w", err)
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}
