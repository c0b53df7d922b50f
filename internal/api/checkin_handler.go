package api

import (
	"net/http"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckInHandler struct {
	checkInService service.CheckInService
}

func NewCheckInHandler(checkInService service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInService: checkInService}
}

// CheckIn godoc
// @Summary Record a training session, advancing the named enrollment
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckInRequest true "Check-in"
// @Success 201 {object} CheckInCreatedResponse
// @Failure 409 {object} gin.H "Already checked in for this date"
// @Router /fitness/checkins [post]
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	in := service.CheckInInput{
		Duration: req.Duration,
		Calories: req.Calories,
		Feeling:  domain.Feeling(req.Feeling),
		Content:  req.Content,
		Images:   req.Images,
	}
	var err error
	if in.EnrollmentID, err = optionalObjectID(req.EnrollmentID); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid enrollment ID format.")
		return
	}
	if in.CourseID, err = optionalObjectID(req.CourseID); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid course ID format.")
		return
	}
	if req.CheckInDate != "" {
		d, err := domain.ParseDate(req.CheckInDate)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "checkInDate must be a date in "+domain.DateLayout+" format")
			return
		}
		in.Date = &d
	}

	result, err := h.checkInService.CheckIn(c.Request.Context(), userID, in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := CheckInCreatedResponse{CheckIn: MapCheckInToResponse(result.CheckIn, nil)}
	if result.Enrollment != nil {
		e := MapEnrollmentToResponse(result.Enrollment, nil)
		resp.Enrollment = &e
	}
	c.JSON(http.StatusCreated, resp)
}

// RequestImageUpload godoc
// @Summary Get a presigned URL to upload a check-in photo
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImageUploadRequest true "Content type of the image"
// @Success 200 {object} service.UploadURLResponse
// @Failure 503 {object} gin.H "Image storage not configured"
// @Router /fitness/checkins/images [post]
func (h *CheckInHandler) RequestImageUpload(c *gin.Context) {
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resp, err := h.checkInService.RequestImageUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListCheckIns godoc
// @Summary List check-ins in a date range, latest first
// @Tags CheckIns
// @Produce json
// @Security BearerAuth
// @Param start query string false "YYYY-MM-DD, inclusive"
// @Param end query string false "YYYY-MM-DD, inclusive"
// @Param page query int false "1-based page"
// @Param size query int false "page size, max 100"
// @Success 200 {object} PageResponse[CheckInResponse]
// @Router /fitness/checkins [get]
func (h *CheckInHandler) ListCheckIns(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, err := pageFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	start, err := optionalDate(c, "start")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	end, err := optionalDate(c, "end")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.checkInService.ListCheckIns(c.Request.Context(), userID, start, end, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := PageResponse[CheckInResponse]{
		Items: make([]CheckInResponse, 0, len(result.Items)),
		Total: result.Total,
		Page:  result.Page.Number,
		Size:  result.Page.Size,
	}
	for i := range result.Items {
		resp.Items = append(resp.Items, MapCheckInToResponse(&result.Items[i].CheckIn, result.Items[i].ImageURLs))
	}
	c.JSON(http.StatusOK, resp)
}

// GetStats godoc
// @Summary Check-in totals and the current streak
// @Tags CheckIns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.CheckInStats
// @Router /fitness/checkins/stats [get]
func (h *CheckInHandler) GetStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	stats, err := h.checkInService.GetStats(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HasCheckedInToday godoc
// @Summary Whether the caller checked in today
// @Tags CheckIns
// @Produce json
// @Security BearerAuth
// @Param enrollmentId query string false "limit to one enrollment"
// @Success 200 {object} gin.H
// @Router /fitness/checkins/today [get]
func (h *CheckInHandler) HasCheckedInToday(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	enrollmentID, err := optionalObjectID(c.Query("enrollmentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid enrollment ID format.")
		return
	}
	done, err := h.checkInService.HasCheckedInToday(c.Request.Context(), userID, enrollmentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkedIn": done})
}
