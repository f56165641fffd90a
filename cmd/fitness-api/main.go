package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fitness-score-api/api/swagger"
	"github.com/noah-isme/fitness-score-api/internal/cohort"
	"github.com/noah-isme/fitness-score-api/internal/handler"
	"github.com/noah-isme/fitness-score-api/internal/middleware"
	"github.com/noah-isme/fitness-score-api/internal/repository"
	"github.com/noah-isme/fitness-score-api/internal/scoring"
	"github.com/noah-isme/fitness-score-api/internal/service"
	"github.com/noah-isme/fitness-score-api/migrations"
	"github.com/noah-isme/fitness-score-api/pkg/cache"
	"github.com/noah-isme/fitness-score-api/pkg/config"
	"github.com/noah-isme/fitness-score-api/pkg/database"
	"github.com/noah-isme/fitness-score-api/pkg/export"
	"github.com/noah-isme/fitness-score-api/pkg/jobs"
	"github.com/noah-isme/fitness-score-api/pkg/logger"
	"github.com/noah-isme/fitness-score-api/pkg/middleware/requestid"
)

// @title Fitness Score API
// @version 1.0.0
// @description Physical fitness test scoring, cohort grade tracking and result statistics.
// @BasePath /api/v1
// @schemes http https

type handlers struct {
	classes    *handler.ClassHandler
	years      *handler.AcademicYearHandler
	forms      *handler.FormHandler
	records    *handler.RecordHandler
	scoring    *handler.ScoringHandler
	statistics *handler.StatisticsHandler
	metrics    *handler.MetricsHandler
}

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, reset) and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if *migrateCmd != "" {
		if err := database.Migrate(db.DB, migrations.FS, *migrateCmd, logr, flag.Args()...); err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
		return
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, migrations.FS, database.MigrateUp, logr); err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	var cacheRepo service.CacheRepository
	if cfg.Statistics.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, "fitness", logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, cacheRepo != nil)

	catalog, err := scoring.NewCatalogStore(cfg.Scoring.CatalogPath,
		scoring.WithStrict(cfg.Scoring.StrictCatalog),
		scoring.WithLogger(logr),
		scoring.OnReload(func(c *scoring.Catalog) { metricsSvc.ObserveCatalog(len(c.Validate())) }),
	)
	if err != nil {
		logr.Fatal("failed to load scoring catalog", zap.Error(err))
	}
	if cfg.Scoring.WatchCatalog {
		if err := catalog.Watch(ctx); err != nil {
			logr.Warn("catalog watch disabled", zap.Error(err))
		}
	}

	calc := cohort.New(cfg.School.DurationYears, cohort.WithStartMonth(cfg.School.YearStartMonth))
	validate := validator.New()

	classRepo := repository.NewClassRepository(db)
	formRepo := repository.NewFormRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	yearSvc := service.NewAcademicYearService(settingRepo, calc, logr)
	classSvc := service.NewClassService(classRepo, yearSvc, calc, logr)
	formSvc := service.NewFormService(formRepo, catalog, validate, logr)
	scoringSvc := service.NewScoringService(catalog, calc, validate, metricsSvc, logr)
	recordSvc := service.NewRecordService(service.RecordServiceDeps{
		Forms:      formSvc,
		Students:   studentRepo,
		Classes:    classRepo,
		Records:    recordRepo,
		Calculator: calc,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
		Validator:  validate,
		Logger:     logr,
	})
	statsSvc := service.NewStatisticsService(formSvc, classRepo, studentRepo, recordRepo, calc, cacheSvc, cfg.Statistics.CacheTTL, logr)
	exportSvc := service.NewExportService(formSvc, classRepo, recordRepo,
		export.NewCSVExporter(cfg.Export.CSVBOM), export.NewPDFExporter(cfg.Export.PDFFontPath), logr)

	recalcQueue := jobs.NewQueue("recalculation", recordSvc.HandleRecalculation, jobs.QueueConfig{
		Workers:    cfg.Recalc.Workers,
		MaxRetries: cfg.Recalc.Retries,
		RetryDelay: cfg.Recalc.RetryDelay,
		Logger:     logr,
		OnResult: func(_ jobs.Job, err error, elapsed time.Duration) {
			metricsSvc.ObserveRecalculation(err, elapsed)
		},
	})
	recalcQueue.Start(ctx)
	defer recalcQueue.Stop()
	recordSvc.UseQueue(recalcQueue)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := newRouter(cfg, logr, metricsSvc, handlers{
		classes:    handler.NewClassHandler(classSvc),
		years:      handler.NewAcademicYearHandler(yearSvc),
		forms:      handler.NewFormHandler(formSvc),
		records:    handler.NewRecordHandler(recordSvc),
		scoring:    handler.NewScoringHandler(scoringSvc),
		statistics: handler.NewStatisticsHandler(statsSvc, exportSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", middleware.SwaggerHeaders(), ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.SecureHeaders(cfg.Env != config.EnvProduction))
	limit := middleware.RateLimit(cfg.RateLimit.PerMinute)

	api.GET("/classes", h.classes.List)
	api.GET("/classes/:id", h.classes.Get)
	api.GET("/cohorts/:cohort/standing", h.classes.Standing)
	api.GET("/academic-year", h.years.Current)
	api.PUT("/academic-year", limit, h.years.Set)

	forms := api.Group("/forms")
	forms.POST("", limit, h.forms.Create)
	forms.GET("", h.forms.List)
	forms.GET("/:id", h.forms.Get)
	forms.PATCH("/:id/status", limit, h.forms.SetStatus)
	forms.POST("/:id/recalculate", limit, h.records.Recalculate)
	forms.GET("/:id/statistics", h.statistics.Form)
	forms.GET("/:id/classes/:classId/roster", h.records.Roster)
	forms.GET("/:id/classes/:classId/statistics", h.statistics.Class)
	forms.GET("/:id/classes/:classId/statistics/chart", h.statistics.Chart)
	forms.GET("/:id/classes/:classId/export", h.statistics.Export)

	records := api.Group("/records")
	records.POST("", limit, h.records.Submit)
	records.POST("/batch", limit, h.records.SubmitBatch)
	records.GET("/:id", h.records.Get)
	records.DELETE("/:id", limit, h.records.Delete)

	scoringGroup := api.Group("/scoring")
	scoringGroup.POST("/preview", h.scoring.Preview)
	scoringGroup.GET("/catalog", h.scoring.Catalog)
	scoringGroup.GET("/catalog/validate", h.scoring.Validate)
	scoringGroup.POST("/catalog/reload", limit, h.scoring.Reload)

	return r
}
