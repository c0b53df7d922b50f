package api

import (
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Plan catalog ---

type PlanResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	FitnessGoal     int    `json:"fitnessGoal"`
	FitnessGoalText string `json:"fitnessGoalText"`
	Difficulty      int    `json:"difficulty"`
	DifficultyText  string `json:"difficultyText"`
	BodyFocus       string `json:"bodyFocus,omitempty"`
	DurationWeeks   int    `json:"durationWeeks"`
	SessionsPerWeek int    `json:"sessionsPerWeek"`
	CoverImg        string `json:"coverImg,omitempty"`
	EquipmentNeeded string `json:"equipmentNeeded,omitempty"`
}

func MapPlanToResponse(p *domain.WorkoutPlan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{
		ID:              p.ID.Hex(),
		Name:            p.Name,
		Description:     p.Description,
		FitnessGoal:     int(p.FitnessGoal),
		FitnessGoalText: p.FitnessGoal.Label(),
		Difficulty:      int(p.Difficulty),
		DifficultyText:  p.Difficulty.Label(),
		BodyFocus:       p.BodyFocus,
		DurationWeeks:   p.DurationWeeks,
		SessionsPerWeek: p.SessionsPerWeek,
		CoverImg:        p.CoverImg,
		EquipmentNeeded: p.EquipmentNeeded,
	}
}

type PlanDetailResponse struct {
	ID          string `json:"id"`
	WeekNum     int    `json:"weekNum"`
	DayNum      int    `json:"dayNum"`
	CourseID    string `json:"courseId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func MapPlanDetailToResponse(d *domain.PlanDetail) *PlanDetailResponse {
	if d == nil {
		return nil
	}
	return &PlanDetailResponse{
		ID:          d.ID.Hex(),
		WeekNum:     d.WeekNum,
		DayNum:      d.DayNum,
		CourseID:    hexOrEmpty(d.CourseID),
		Title:       d.Title,
		Description: d.Description,
	}
}

type CourseResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Difficulty     int    `json:"difficulty"`
	DifficultyText string `json:"difficultyText"`
	Duration       int    `json:"duration"`
	Calories       int    `json:"calories"`
	CoverImg       string `json:"coverImg,omitempty"`
	VideoURL       string `json:"videoUrl,omitempty"`
}

func MapCourseToResponse(c *domain.Course) *CourseResponse {
	if c == nil {
		return nil
	}
	return &CourseResponse{
		ID:             c.ID.Hex(),
		Name:           c.Name,
		Description:    c.Description,
		Difficulty:     int(c.Difficulty),
		DifficultyText: c.Difficulty.Label(),
		Duration:       c.Duration,
		Calories:       c.Calories,
		CoverImg:       c.CoverImg,
		VideoURL:       c.VideoURL,
	}
}

// --- Enrollments ---

type ChoosePlanRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

type ChoosePlanResponse struct {
	EnrollmentID string `json:"enrollmentId"`
}

type UpdateProgressRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type EnrollmentResponse struct {
	ID              string        `json:"id"`
	PlanID          string        `json:"planId"`
	StartDate       string        `json:"startDate"`
	EndDate         string        `json:"endDate"`
	CurrentWeek     int           `json:"currentWeek"`
	CurrentDay      int           `json:"currentDay"`
	CompletionRate  float64       `json:"completionRate"`
	ProgressPercent string        `json:"progressPercent"`
	Status          string        `json:"status"`
	StatusText      string        `json:"statusText"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	Plan            *PlanResponse `json:"plan,omitempty"`
}

func MapEnrollmentToResponse(e *domain.Enrollment, plan *domain.WorkoutPlan) EnrollmentResponse {
	return EnrollmentResponse{
		ID:              e.ID.Hex(),
		PlanID:          e.PlanID.Hex(),
		StartDate:       e.StartDate.Format(domain.DateLayout),
		EndDate:         e.EndDate.Format(domain.DateLayout),
		CurrentWeek:     e.CurrentWeek,
		CurrentDay:      e.CurrentDay,
		CompletionRate:  e.CompletionRate,
		ProgressPercent: e.ProgressPercent(),
		Status:          string(e.Status),
		StatusText:      e.Status.Label(),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Plan:            MapPlanToResponse(plan),
	}
}

type PageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// CurrentPlanResponse has a null enrollment when no plan is in progress.
type CurrentPlanResponse struct {
	Enrollment *EnrollmentResponse  `json:"enrollment"`
	Details    []PlanDetailResponse `json:"details"`
}

func MapCurrentPlanToResponse(cp *service.CurrentPlan) CurrentPlanResponse {
	resp := CurrentPlanResponse{Details: []PlanDetailResponse{}}
	if cp == nil {
		return resp
	}
	e := MapEnrollmentToResponse(&cp.Enrollment, cp.Plan)
	resp.Enrollment = &e
	for i := range cp.Details {
		resp.Details = append(resp.Details, *MapPlanDetailToResponse(&cp.Details[i]))
	}
	return resp
}

type TodayWorkoutResponse struct {
	EnrollmentID string              `json:"enrollmentId"`
	Week         int                 `json:"week"`
	Day          int                 `json:"day"`
	Detail       *PlanDetailResponse `json:"detail"`
	Course       *CourseResponse     `json:"course"`
}

// --- Check-ins ---

type CheckInRequest struct {
	EnrollmentID string   `json:"enrollmentId"`
	CourseID     string   `json:"courseId"`
	CheckInDate  string   `json:"checkInDate"` // YYYY-MM-DD, defaults to today
	Duration     int      `json:"duration" binding:"min=0"`
	Calories     int      `json:"calories" binding:"min=0"`
	Feeling      int      `json:"feeling" binding:"omitempty,min=1,max=3"`
	Content      string   `json:"content"`
	Images       []string `json:"images"`
}

type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type CheckInResponse struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollmentId,omitempty"`
	CourseID     string    `json:"courseId,omitempty"`
	CheckInDate  string    `json:"checkInDate"`
	Duration     int       `json:"duration"`
	Calories     int       `json:"calories"`
	Feeling      int       `json:"feeling,omitempty"`
	FeelingText  string    `json:"feelingText,omitempty"`
	Content      string    `json:"content,omitempty"`
	Images       []string  `json:"images"`
	ImageURLs    []string  `json:"imageUrls"`
	CreatedAt    time.Time `json:"createdAt"`
}

func MapCheckInToResponse(c *domain.CheckIn, imageURLs []string) CheckInResponse {
	resp := CheckInResponse{
		ID:           c.ID.Hex(),
		EnrollmentID: hexOrEmpty(c.EnrollmentID),
		CourseID:     hexOrEmpty(c.CourseID),
		CheckInDate:  c.CheckInDate.Format(domain.DateLayout),
		Duration:     c.Duration,
		Calories:     c.Calories,
		Content:      c.Content,
		Images:       c.Images,
		ImageURLs:    imageURLs,
		CreatedAt:    c.CreatedAt,
	}
	if c.Feeling != 0 {
		resp.Feeling = int(c.Feeling)
		resp.FeelingText = c.Feeling.Label()
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	return resp
}

type CheckInCreatedResponse struct {
	CheckIn    CheckInResponse     `json:"checkIn"`
	Enrollment *EnrollmentResponse `json:"enrollment,omitempty"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
