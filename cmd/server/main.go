package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eat2fit/fitness/internal/api"
	"eat2fit/fitness/internal/cache"
	"eat2fit/fitness/internal/config"
	"eat2fit/fitness/internal/logging"
	"eat2fit/fitness/internal/metrics"
	"eat2fit/fitness/internal/repository"
	"eat2fit/fitness/internal/repository/memory"
	"eat2fit/fitness/internal/repository/mongo"
	"eat2fit/fitness/internal/service"
	"eat2fit/fitness/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// repositories groups the storage ports the services need.
type repositories struct {
	plans       repository.PlanRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	checkIns    repository.CheckInRepository
	tx          repository.Transactor
	close       func()
}

// @title Eat2Fit Fitness API
// @version 1.0
// @description Workout plan enrollment, daily progress and check-ins.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}
	logging.Setup(logging.Params{Level: cfg.Log.Level, JSON: cfg.Log.JSON, File: cfg.Log.File})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	loc, _ := cfg.App.Location()
	log.WithFields(log.Fields{
		"driver":   cfg.Database.Driver,
		"timezone": loc.String(),
		"redis":    cfg.Redis.Enabled,
		"s3":       cfg.S3.Enabled(),
	}).Info("starting fitness service")

	// --- Storage ---
	repos, err := openRepositories(cfg.Database)
	if err != nil {
		log.Fatalf("could not open storage: %s", err)
	}
	defer repos.close()

	planRepo := repos.plans
	var rateLimiter *api.RateLimiter
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Errorf("close redis: %s", err)
			}
		}()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// The cache falls back to the database on every redis error.
			log.Warnf("redis not reachable at %s: %s", cfg.Redis.Address, err)
		}
		cancel()
		planRepo = cache.NewPlanCache(planRepo, redisClient, cfg.Redis.PlanTTL)
		rateLimiter = api.NewRateLimiter(redisClient)
	}

	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %s", err)
		}
	} else {
		log.Info("s3 not configured, check-in images are disabled")
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// --- Services ---
	clock := service.SystemClock{}
	enrollmentService := service.NewEnrollmentService(repos.enrollments, planRepo, repos.courses, clock, loc, collector)
	checkInService := service.NewCheckInService(repos.checkIns, repos.enrollments, repos.tx, enrollmentService, fileStorage, clock, loc, collector)

	// --- HTTP ---
	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, api.RouterOptions{
		JWTSecret:        cfg.JWT.Secret,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Gatherer:         registry,
		Recorder:         collector,
		RateLimiter:      rateLimiter,
		CheckInRateLimit: cfg.Server.CheckInRateLimit,
	}, enrollmentService, checkInService)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %s", err)
	}
	log.Info("server exiting")
}

func openRepositories(cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.Driver == config.DriverMemory {
		db := memory.New()
		if err := seedDemoCatalog(db); err != nil {
			return nil, err
		}
		log.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			plans:       memory.NewPlanRepo(db),
			courses:     memory.NewCourseRepo(db),
			enrollments: memory.NewEnrollmentRepo(db),
			checkIns:    memory.NewCheckInRepo(db),
			tx:          db,
			close:       func() {},
		}, nil
	}

	client, err := mongo.ConnectDB(cfg.URI)
	if err != nil {
		return nil, err
	}
	appDB := client.Database(cfg.Name)

	indexCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := mongo.EnsureIndexes(indexCtx, appDB); err != nil {
		_ = mongo.DisconnectDB(client)
		return nil, err
	}
	log.Info("database connection established, indexes ensured")

	return &repositories{
		plans:       mongo.NewMongoPlanRepository(appDB),
		courses:     mongo.NewMongoCourseRepository(appDB),
		enrollments: mongo.NewMongoEnrollmentRepository(appDB),
		checkIns:    mongo.NewMongoCheckInRepository(appDB),
		tx:          mongo.NewMongoTransactor(client),
		close: func() {
			if err := mongo.DisconnectDB(client); err != nil {
				log.Errorf("disconnect mongodb: %s", err)
			}
		},
	}, nil
}
