package api

import (
	"errors"
	"net/http"

	"eat2fit/fitness/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrEnrollmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEnrollmentNoAccess):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlanAlreadyInProgress),
		errors.Is(err, service.ErrDuplicateCheckIn),
		errors.Is(err, service.ErrProgressConflict),
		errors.Is(err, service.ErrInvalidOperation):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("unhandled service error")
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
