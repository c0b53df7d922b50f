package api

import (
	"context"
	"net/http"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// ChoosePlan godoc
// @Summary Enroll the caller in a workout plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChoosePlanRequest true "Plan to enroll in"
// @Success 201 {object} ChoosePlanResponse
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 409 {object} gin.H "A plan is already in progress"
// @Router /fitness/plans/choose [post]
func (h *EnrollmentHandler) ChoosePlan(c *gin.Context) {
	var req ChoosePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	id, err := h.enrollmentService.ChoosePlan(c.Request.Context(), userID, planID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ChoosePlanResponse{EnrollmentID: id.Hex()})
}

// ListMyPlans godoc
// @Summary List the caller's enrollments, newest first
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, completed or abandoned"
// @Param page query int false "1-based page"
// @Param size query int false "page size, max 100"
// @Success 200 {object} PageResponse[EnrollmentResponse]
// @Router /fitness/plans [get]
func (h *EnrollmentHandler) ListMyPlans(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, err := pageFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	var status *domain.EnrollmentStatus
	if v := c.Query("status"); v != "" {
		s, err := domain.ParseEnrollmentStatus(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		status = &s
	}

	result, err := h.enrollmentService.ListMyEnrollments(c.Request.Context(), userID, status, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := PageResponse[EnrollmentResponse]{
		Items: make([]EnrollmentResponse, 0, len(result.Items)),
		Total: result.Total,
		Page:  result.Page.Number,
		Size:  result.Page.Size,
	}
	for i := range result.Items {
		resp.Items = append(resp.Items, MapEnrollmentToResponse(&result.Items[i].Enrollment, result.Items[i].Plan))
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentPlan godoc
// @Summary The caller's active enrollment with its schedule
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CurrentPlanResponse "enrollment is null when no plan is in progress"
// @Router /fitness/plans/current [get]
func (h *EnrollmentHandler) GetCurrentPlan(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	current, err := h.enrollmentService.GetCurrentPlan(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapCurrentPlanToResponse(current))
}

// GetTodayWorkout godoc
// @Summary What the calendar schedules for today
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} TodayWorkoutResponse
// @Failure 409 {object} gin.H "Enrollment is not active"
// @Router /fitness/plans/{enrollmentId}/today [get]
func (h *EnrollmentHandler) GetTodayWorkout(c *gin.Context) {
	userID, enrollmentID, ok := requireUserAndEnrollment(c)
	if !ok {
		return
	}
	today, err := h.enrollmentService.GetTodayWorkout(c.Request.Context(), userID, enrollmentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, TodayWorkoutResponse{
		EnrollmentID: enrollmentID.Hex(),
		Week:         today.Slot.Week,
		Day:          today.Slot.Day,
		Detail:       MapPlanDetailToResponse(today.Detail),
		Course:       MapCourseToResponse(today.Course),
	})
}

// UpdateProgress godoc
// @Summary Mark the current session done or skipped and move on
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Param request body UpdateProgressRequest true "Whether the session was completed"
// @Success 200 {object} EnrollmentResponse
// @Failure 409 {object} gin.H "Enrollment is not active"
// @Router /fitness/plans/{enrollmentId}/progress [post]
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, enrollmentID, ok := requireUserAndEnrollment(c)
	if !ok {
		return
	}
	e, err := h.enrollmentService.UpdateProgress(c.Request.Context(), userID, enrollmentID, *req.Completed)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(e, nil))
}

// AbandonPlan godoc
// @Summary Give up the plan
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} gin.H "changed is false when the plan was not active"
// @Router /fitness/plans/{enrollmentId}/abandon [post]
func (h *EnrollmentHandler) AbandonPlan(c *gin.Context) {
	h.transition(c, h.enrollmentService.AbandonPlan)
}

// CompletePlan godoc
// @Summary Mark the whole plan as completed
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} gin.H "changed is false when the plan was not active"
// @Router /fitness/plans/{enrollmentId}/complete [post]
func (h *EnrollmentHandler) CompletePlan(c *gin.Context) {
	h.transition(c, h.enrollmentService.CompletePlan)
}

type transitionFunc func(ctx context.Context, userID, enrollmentID primitive.ObjectID) (bool, error)

func (h *EnrollmentHandler) transition(c *gin.Context, fn transitionFunc) {
	userID, enrollmentID, ok := requireUserAndEnrollment(c)
	if !ok {
		return
	}
	changed, err := fn(c.Request.Context(), userID, enrollmentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// IsTodayCompleted godoc
// @Summary Whether progress is already ahead of today's scheduled session
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} gin.H
// @Router /fitness/plans/{enrollmentId}/today/completed [get]
func (h *EnrollmentHandler) IsTodayCompleted(c *gin.Context) {
	userID, enrollmentID, ok := requireUserAndEnrollment(c)
	if !ok {
		return
	}
	done, err := h.enrollmentService.IsWorkoutCompletedToday(c.Request.Context(), userID, enrollmentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": done})
}

func requireUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func requireUserAndEnrollment(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	enrollmentID, err := primitive.ObjectIDFromHex(c.Param("enrollmentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid enrollment ID format.")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, enrollmentID, true
}
