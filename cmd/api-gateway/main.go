package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/KotaSaiGoutham/academy-api/api/swagger"
	"github.com/KotaSaiGoutham/academy-api/internal/handler"
	internalmiddleware "github.com/KotaSaiGoutham/academy-api/internal/middleware"
	"github.com/KotaSaiGoutham/academy-api/internal/repository"
	"github.com/KotaSaiGoutham/academy-api/internal/service"
	"github.com/KotaSaiGoutham/academy-api/pkg/cache"
	"github.com/KotaSaiGoutham/academy-api/pkg/config"
	"github.com/KotaSaiGoutham/academy-api/pkg/database"
	"github.com/KotaSaiGoutham/academy-api/pkg/export"
	"github.com/KotaSaiGoutham/academy-api/pkg/jobs"
	"github.com/KotaSaiGoutham/academy-api/pkg/logger"
	corsmiddleware "github.com/KotaSaiGoutham/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/KotaSaiGoutham/academy-api/pkg/middleware/requestid"
	"github.com/KotaSaiGoutham/academy-api/pkg/storage"
)

// @title Academy Timetable API
// @version 0.1.0
// @description Timetable synthesis and scheduling service for the tutoring academy
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.DayCacheTTL, logr, redisClient != nil)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	studentSvc := service.NewStudentService(studentRepo, validate, logr, metricsSvc)
	timetableSvc := service.NewTimetableService(studentRepo, timetableRepo, db, cacheSvc, metricsSvc, validate, logr, service.TimetableConfig{
		ClassDuration:   cfg.Timetable.ClassDuration,
		ClassesPerMonth: cfg.Timetable.ClassesPerMonth,
		DayCacheTTL:     cfg.Timetable.DayCacheTTL,
	})
	swapSvc := service.NewSwapService(studentRepo, db, cacheSvc, metricsSvc, validate, logr, cfg.Timetable.SwapHistorySize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewDownloadTokenSigner(cfg.Reports.DownloadSecret, cfg.Reports.DownloadTTL)
		reportRepo := repository.NewReportRepository(db)
		exportSvc := service.NewExportService(timetableRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.DownloadTTL,
		}, logr, export.NewCSVExporter(), export.NewPDFExporter())

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, validate, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.DownloadTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	studentHandler := handler.NewStudentHandler(studentSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	swapHandler := handler.NewSwapHandler(swapSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

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
	api.Use(internalmiddleware.WithResponseMeta())

	students := api.Group("/students")
	{
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.POST("/swap", swapHandler.Swap)
		students.GET("/swap/history", swapHandler.History)
		students.GET("/:id", studentHandler.Get)
		students.PUT("/:id", studentHandler.Update)
		students.DELETE("/:id", studentHandler.Deactivate)
	}

	timetables := api.Group("/timetables")
	{
		timetables.GET("", timetableHandler.ListByDate)
		timetables.POST("/generate", timetableHandler.Generate)
		timetables.GET("/week", timetableHandler.WeekGrid)
		timetables.GET("/summary", timetableHandler.Summary)
		timetables.PATCH("/:id/topic", timetableHandler.UpdateTopic)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		api.POST("/reports/generate", reportHandler.Generate)
		api.GET("/reports/:id/status", reportHandler.Status)
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
