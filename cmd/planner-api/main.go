package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/planbook/planbook-api/api/swagger"
	"github.com/planbook/planbook-api/internal/events"
	"github.com/planbook/planbook-api/internal/handler"
	"github.com/planbook/planbook-api/internal/middleware"
	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/repository"
	"github.com/planbook/planbook-api/internal/service"
	"github.com/planbook/planbook-api/internal/state"
	"github.com/planbook/planbook-api/pkg/cache"
	"github.com/planbook/planbook-api/pkg/config"
	"github.com/planbook/planbook-api/pkg/database"
	"github.com/planbook/planbook-api/pkg/jobs"
	"github.com/planbook/planbook-api/pkg/logger"
	corsmiddleware "github.com/planbook/planbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/planbook/planbook-api/pkg/middleware/requestid"
	"github.com/planbook/planbook-api/pkg/storage"
)

// @title Planbook API
// @version 0.1.0
// @description Lesson sequencing and schedule generation service
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	courseRepo := repository.NewCourseRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	subTopicRepo := repository.NewSubTopicRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	eventRepo := repository.NewScheduleEventRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Shared infrastructure.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.EventTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	bus := events.NewBus(logr)
	trees := state.NewTreeStore(logr)
	validate := validator.New()

	// Services.
	sortOrders := service.NewSortOrderService(logr)
	courseSvc := service.NewCourseService(courseRepo, topicRepo, subTopicRepo, lessonRepo, trees, cacheSvc, logr)
	continuations := service.NewContinuationService(logr)
	generator := service.NewScheduleGeneratorService(eventRepo, courseSvc, continuations, cacheSvc, bus, logr, cfg.Schedule)
	eventSvc := service.NewScheduleEventService(eventRepo, cacheSvc, logr)

	var archive *storage.ExportArchive
	if cfg.Export.Enabled {
		archive, err = storage.NewExportArchive(cfg.Export.Dir)
		if err != nil {
			logr.Sugar().Warnw("export archive unavailable, exports will not be archived", "dir", cfg.Export.Dir, "error", err)
			archive = nil
		} else if removed, err := archive.CleanupOlderThan(cfg.Export.Retention); err != nil {
			logr.Sugar().Warnw("export archive cleanup failed", "error", err)
		} else if len(removed) > 0 {
			logr.Sugar().Infow("removed stale export archives", "count", len(removed))
		}
	}
	exportSvc := service.NewExportService(eventRepo, archive, cfg.Export.Enabled, logr)

	queue := jobs.NewQueue("schedule-regeneration", func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(service.PartialScheduleUpdatePayload)
		if !ok {
			logr.Warn("unexpected job payload", zap.String("job_type", job.Type))
			return nil
		}
		afterDate := time.Now().UTC()
		if payload.StartDate != nil {
			afterDate = payload.StartDate.AddDate(0, 0, -1)
		}
		if _, err := courseSvc.LoadTree(ctx, payload.CourseID); err != nil {
			return err
		}
		return generator.ContinueForCourse(ctx, payload.CourseID, afterDate)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	moveSvc := service.NewMoveService(trees, sortOrders, lessonRepo, subTopicRepo, topicRepo, bus, cacheSvc, metricsSvc, logr)
	lessonSvc := service.NewLessonService(lessonRepo, trees, sortOrders, bus, cacheSvc, queue, validate, logr)

	// Moves that request a partial schedule update carry a hint on the moved
	// event; the regeneration job is enqueued here so the move path stays
	// decoupled from scheduling.
	enqueueRegen := func(ev events.Event) {
		hint := ev.PartialUpdate
		if hint == nil {
			return
		}
		job := jobs.Job{
			Type: service.JobTypePartialScheduleUpdate,
			Key:  fmt.Sprintf("course:%d", hint.CourseID),
			Payload: service.PartialScheduleUpdatePayload{
				CourseID:  hint.CourseID,
				StartDate: hint.StartDate,
				EndDate:   hint.EndDate,
			},
		}
		if err := queue.Enqueue(job); err != nil {
			logr.Warn("failed to enqueue partial schedule update",
				zap.Int64("course_id", hint.CourseID),
				zap.Error(err),
			)
		}
	}
	for _, entityType := range []models.EntityType{models.EntityTypeLesson, models.EntityTypeSubTopic, models.EntityTypeTopic} {
		bus.Subscribe(entityType, events.OperationMoved, enqueueRegen)
	}

	// Handlers.
	courseHandler := handler.NewCourseHandler(courseSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc, moveSvc)
	topicHandler := handler.NewTopicHandler(moveSvc)
	scheduleHandler := handler.NewScheduleHandler(generator, eventSvc, exportSvc)
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

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(strings.TrimSuffix(prefix, "/"))
	{
		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id/tree", courseHandler.Tree)
		api.POST("/courses/:id/reload", courseHandler.Reload)

		api.GET("/lessons/:id", lessonHandler.Get)
		api.POST("/lessons", lessonHandler.Create)
		api.PUT("/lessons/:id", lessonHandler.Update)
		api.DELETE("/lessons/:id", lessonHandler.Delete)
		api.POST("/lessons/:id/move-optimized", lessonHandler.Move)
		api.POST("/lessons/:id/regroup", lessonHandler.Regroup)
		api.POST("/lessons/:id/copy", lessonHandler.Copy)

		api.POST("/topics/:id/move", topicHandler.MoveTopic)
		api.POST("/subtopics/:id/move", topicHandler.MoveSubTopic)
		api.POST("/subtopics/:id/regroup", topicHandler.RegroupSubTopic)
		api.POST("/subtopics/:id/copy", topicHandler.CopySubTopic)

		api.GET("/schedule/events", scheduleHandler.Events)
		api.POST("/schedule/generate", scheduleHandler.Generate)
		api.POST("/schedule/continue", scheduleHandler.Continue)
		api.GET("/schedule/export", scheduleHandler.Export)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
