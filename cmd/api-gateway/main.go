package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/tabula-api/api/swagger"
	"github.com/noah-isme/tabula-api/internal/handler"
	"github.com/noah-isme/tabula-api/internal/middleware"
	"github.com/noah-isme/tabula-api/internal/repository"
	"github.com/noah-isme/tabula-api/internal/service"
	"github.com/noah-isme/tabula-api/pkg/cache"
	"github.com/noah-isme/tabula-api/pkg/config"
	"github.com/noah-isme/tabula-api/pkg/database"
	"github.com/noah-isme/tabula-api/pkg/export"
	"github.com/noah-isme/tabula-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tabula-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tabula-api/pkg/middleware/requestid"
)

// @title Tabula API
// @version 0.1.0
// @description Timetable management and schedule synchronization service
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
		logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	subjectRepo := repository.NewSubjectRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	// Services.
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	scheduleState := service.NewScheduleState()

	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	facultySvc := service.NewFacultyService(facultyRepo, validate, logr)
	batchSvc := service.NewBatchService(batchRepo, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, facultyRepo, assignmentRepo, validate, cfg.Schedule, logr)

	conflictSvc := service.NewConflictService(logr)
	generatorClient := service.NewGeneratorClient(cfg.Generator, logr)
	syncSvc := service.NewSyncService(assignmentRepo, scheduleState, cacheRepo, metricsSvc, cfg.Schedule, logr)
	draftSvc := service.NewDraftService(subjectRepo, facultyRepo, roomRepo, batchRepo, availabilityRepo, assignmentRepo, generatorClient, conflictSvc, syncSvc, metricsSvc, cfg.Schedule, logr)
	importSvc := service.NewImportService(departmentRepo, roomRepo, subjectRepo, facultyRepo, batchRepo, availabilityRepo, syncSvc, cfg.Schedule, logr)
	timetableSvc := service.NewTimetableService(assignmentRepo, subjectRepo, facultyRepo, roomRepo, batchRepo, cacheRepo, metricsSvc, cfg.Schedule, cfg.Export, logr)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := syncSvc.Refresh(startupCtx); err != nil {
		logr.Sugar().Warnw("failed to load schedule state, continuing empty", "error", err)
	}
	cancelStartup()

	// Handlers.
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)
	batchHandler := handler.NewBatchHandler(batchSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	scheduleHandler := handler.NewScheduleHandler(draftSvc, syncSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, export.NewCSVExporter(), export.NewPDFExporter())
	importHandler := handler.NewImportHandler(importSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		subjects := api.Group("/subjects")
		{
			subjects.GET("", subjectHandler.List)
			subjects.POST("", subjectHandler.Create)
			subjects.GET("/:id", subjectHandler.Get)
			subjects.PUT("/:id", subjectHandler.Update)
			subjects.DELETE("/:id", subjectHandler.Delete)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomHandler.List)
			rooms.POST("", roomHandler.Create)
			rooms.GET("/:id", roomHandler.Get)
			rooms.PUT("/:id", roomHandler.Update)
			rooms.DELETE("/:id", roomHandler.Delete)
		}

		faculty := api.Group("/faculty")
		{
			faculty.GET("", facultyHandler.List)
			faculty.POST("", facultyHandler.Create)
			faculty.GET("/:id", facultyHandler.Get)
			faculty.PUT("/:id", facultyHandler.Update)
			faculty.DELETE("/:id", facultyHandler.Delete)
			faculty.GET("/:id/availability", availabilityHandler.Get)
			faculty.PUT("/:id/availability", availabilityHandler.Set)
			faculty.DELETE("/:id/availability", availabilityHandler.Clear)
			faculty.GET("/:id/availability/check", availabilityHandler.CheckFaculty)
			faculty.GET("/:id/timetable", timetableHandler.ByFaculty)
		}

		batches := api.Group("/batches")
		{
			batches.GET("", batchHandler.List)
			batches.POST("", batchHandler.Create)
			batches.GET("/:id", batchHandler.Get)
			batches.PUT("/:id", batchHandler.Update)
			batches.DELETE("/:id", batchHandler.Delete)
			batches.GET("/:id/availability/check", availabilityHandler.CheckBatch)
			batches.GET("/:id/timetable", timetableHandler.ByBatch)
			batches.GET("/:id/timetable/export", timetableHandler.ExportBatch)
		}

		departments := api.Group("/departments")
		{
			departments.GET("", departmentHandler.List)
			departments.POST("", departmentHandler.Create)
			departments.GET("/:id", departmentHandler.Get)
			departments.PUT("/:id", departmentHandler.Update)
			departments.DELETE("/:id", departmentHandler.Delete)
		}

		schedule := api.Group("/schedule")
		{
			schedule.POST("/generate", scheduleHandler.Generate)
			schedule.POST("/check", scheduleHandler.Check)
			schedule.POST("/refresh", scheduleHandler.Refresh)
			schedule.PUT("", scheduleHandler.Save)
			schedule.DELETE("", scheduleHandler.Reset)
		}

		api.GET("/timetable", timetableHandler.Master)
		api.PATCH("/assignments/:id/move", timetableHandler.Move)
		api.DELETE("/assignments/:id", timetableHandler.Remove)

		api.POST("/import", importHandler.Import)
		api.POST("/import/preview", importHandler.Preview)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
