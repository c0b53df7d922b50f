package api

import (
	"net/http"
	"time"

	"eat2fit/fitness/internal/metrics"
	"eat2fit/fitness/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterOptions carries the transport settings of the router.
type RouterOptions struct {
	JWTSecret      string
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer // nil disables /metrics
	Recorder       metrics.Recorder
	// RateLimiter with CheckInRateLimit > 0 throttles check-in submissions per user.
	RateLimiter      *RateLimiter
	CheckInRateLimit int
}

func SetupRoutes(
	router *gin.Engine,
	opts RouterOptions,
	enrollmentService service.EnrollmentService,
	checkInService service.CheckInService,
) {
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	router.Use(RequestLogger(recorder))
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	enrollmentHandler := NewEnrollmentHandler(enrollmentService)
	checkInHandler := NewCheckInHandler(checkInService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	protected := router.Group("/api/v1/fitness")
	protected.Use(AuthMiddleware(opts.JWTSecret))
	{
		plans := protected.Group("/plans")
		{
			plans.POST("/choose", enrollmentHandler.ChoosePlan)
			plans.GET("", enrollmentHandler.ListMyPlans)
			plans.GET("/current", enrollmentHandler.GetCurrentPlan)
			plans.GET("/:enrollmentId/today", enrollmentHandler.GetTodayWorkout)
			plans.GET("/:enrollmentId/today/completed", enrollmentHandler.IsTodayCompleted)
			plans.POST("/:enrollmentId/progress", enrollmentHandler.UpdateProgress)
			plans.POST("/:enrollmentId/abandon", enrollmentHandler.AbandonPlan)
			plans.POST("/:enrollmentId/complete", enrollmentHandler.CompletePlan)
		}

		checkIns := protected.Group("/checkins")
		{
			submit := []gin.HandlerFunc{checkInHandler.CheckIn}
			if opts.RateLimiter != nil && opts.CheckInRateLimit > 0 {
				submit = append([]gin.HandlerFunc{opts.RateLimiter.Limit("checkin", opts.CheckInRateLimit, time.Minute)}, submit...)
			}
			checkIns.POST("", submit...)
			checkIns.POST("/images", checkInHandler.RequestImageUpload)
			checkIns.GET("", checkInHandler.ListCheckIns)
			checkIns.GET("/stats", checkInHandler.GetStats)
			checkIns.GET("/today", checkInHandler.HasCheckedInToday)
		}
	}
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return config
}
