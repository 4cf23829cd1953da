package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/course-registration-api/api/swagger"
	"github.com/noah-isme/course-registration-api/internal/events"
	"github.com/noah-isme/course-registration-api/internal/handler"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/repository"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/cache"
	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/database"
	"github.com/noah-isme/course-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/requestid"
)

// @title Course Registration API
// @version 0.1.0
// @description Course admission and waitlist promotion engine
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and event fan-out degrade", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	registrations := repository.NewRegistrationRepository(db)
	waitlist := repository.NewWaitlistRepository(db)
	periods := repository.NewPeriodRepository(db)

	metricsSvc := service.NewMetricsService()
	periodCache := service.NewCacheService(redisClient, cfg.Periods.CacheTTL, metricsSvc, logr)

	policies := map[models.PeriodType]service.PeriodPolicy{}
	if cfg.Registration.EarlyPeriodMinGPA > 0 {
		policies[models.PeriodTypeEarly] = service.EarlyPeriodMinGPAPolicy(cfg.Registration.EarlyPeriodMinGPA)
	}
	periodSvc := service.NewPeriodService(periods, periodCache, policies, logr)

	var sink events.Sink = events.NewLogSink(logr)
	if cfg.Events.Enabled && redisClient != nil {
		sink = events.MultiSink{sink, events.NewRedisSink(redisClient, cfg.Events.RedisChannel)}
	}
	dispatcher := events.NewDispatcher(sink, events.DispatcherConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		Logger:     logr,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	registrationSvc := service.NewRegistrationService(registrations, students, courses, periodSvc, dispatcher, metricsSvc,
		service.RegistrationServiceConfig{
			PromoteOnCancel: cfg.Registration.PromoteOnCancel,
			MaxBatchSize:    cfg.Registration.MaxBatchSize,
		}, nil, logr)
	waitlistSvc := service.NewWaitlistService(waitlist, students, courses, metricsSvc, cfg.Waitlist.DefaultCapacity, nil, logr)
	promotionSvc := service.NewPromotionService(courses, waitlistSvc, registrationSvc, dispatcher, metricsSvc, logr)
	registrationSvc.AttachPromoter(promotionSvc)

	registrationHandler := handler.NewRegistrationHandler(registrationSvc, nil)
	if cfg.Exports.Enabled {
		registrationHandler = handler.NewRegistrationHandler(registrationSvc, service.NewExportService(registrationSvc))
	}
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Actor(cfg.JWT.Secret))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	reg := api.Group("/registrations")
	reg.POST("/register", registrationHandler.Register)
	reg.POST("/batch", registrationHandler.Batch)
	reg.PUT("/:id/status", registrationHandler.UpdateStatus)
	reg.DELETE("/:id", registrationHandler.Cancel)
	reg.GET("/history/:studentId", registrationHandler.History)
	reg.GET("/timetable/:studentId", registrationHandler.Timetable)
	reg.GET("/timetable/:studentId/export", registrationHandler.ExportTimetable)
	reg.GET("/periods/current", registrationHandler.CurrentPeriod)

	wl := api.Group("/waitlist")
	wl.POST("", waitlistHandler.Add)
	wl.GET("/course/:courseId", waitlistHandler.ByCourse)
	wl.GET("/student/:studentId", waitlistHandler.ByStudent)
	wl.GET("/next/:courseId", waitlistHandler.Next)
	wl.DELETE("/:entryId", waitlistHandler.Remove)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
