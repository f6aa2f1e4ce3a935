package main

import (
	"context"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/eduplan/scheduler-core/api/swagger"
	internalhandler "github.com/eduplan/scheduler-core/internal/handler"
	internalmiddleware "github.com/eduplan/scheduler-core/internal/middleware"
	"github.com/eduplan/scheduler-core/internal/models"
	"github.com/eduplan/scheduler-core/internal/repository"
	"github.com/eduplan/scheduler-core/internal/service"
	"github.com/eduplan/scheduler-core/pkg/cache"
	"github.com/eduplan/scheduler-core/pkg/config"
	"github.com/eduplan/scheduler-core/pkg/database"
	"github.com/eduplan/scheduler-core/pkg/export"
	"github.com/eduplan/scheduler-core/pkg/jobs"
	"github.com/eduplan/scheduler-core/pkg/logger"
	corsmiddleware "github.com/eduplan/scheduler-core/pkg/middleware/cors"
	reqidmiddleware "github.com/eduplan/scheduler-core/pkg/middleware/requestid"
	"github.com/eduplan/scheduler-core/pkg/storage"
)

// @title Scheduler Core API
// @version 0.1.0
// @description Course scheduling pipeline service
// @BasePath /
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

	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		registerPprof(r)
	}

	api := r.Group(cfg.APIPrefix)

	authRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(authRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "scheduler-core",
		Audience:           []string{"scheduler-core-clients"},
	})
	authHandler := internalhandler.NewAuthHandler(authSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
	authRoutes.POST("/reset-password", authHandler.ResetPassword)
	protectedAuth := authRoutes.Group("")
	protectedAuth.Use(internalmiddleware.JWT(authSvc))
	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.POST("/change-password", authHandler.ChangePassword)

	runRepo := repository.NewRunRepository(db)
	runRowsRepo := repository.NewRunAssignmentRepository(db)

	var cacheRepo service.CacheRepository
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("result cache disabled", "error", err)
	} else {
		defer client.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(client, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.CacheTTL, logr, cacheRepo != nil)

	runSvc := service.NewRunService(runRepo, runRowsRepo, cacheSvc, metricsSvc, validate, logr, service.RunServiceConfig{CacheTTL: cfg.Scheduler.CacheTTL})

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(fileStore, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	runHandler := internalhandler.NewScheduleRunHandler(runSvc, exportSvc)

	cleanupQueue := jobs.NewQueue("report-cleanup", func(ctx context.Context, job jobs.Job) error {
		removed, err := fileStore.CleanupOlderThan(cfg.Reports.SignedURLTTL)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			logr.Sugar().Infow("cleaned up expired reports", "count", len(removed))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	cleanupQueue.Start(cleanupCtx)
	defer func() {
		cancelCleanup()
		cleanupQueue.Stop()
	}()

	go func() {
		ticker := time.NewTicker(cfg.Reports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if err := cleanupQueue.Enqueue(jobs.Job{ID: "cleanup", Type: "report-cleanup"}); err != nil {
					logr.Sugar().Warnw("failed to enqueue report cleanup", "error", err)
				}
			}
		}
	}()

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	runsGroup := secured.Group("/schedule/runs")
	runsGroup.POST("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleOperator)), runHandler.Create)
	runsGroup.GET("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleOperator), string(models.RoleViewer)), runHandler.List)
	runsGroup.GET("/:id", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleOperator), string(models.RoleViewer)), runHandler.Get)
	runsGroup.GET("/:id/report.csv", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleOperator), string(models.RoleViewer)), runHandler.ReportCSV)
	runsGroup.GET("/:id/report.pdf", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleOperator), string(models.RoleViewer)), runHandler.ReportPDF)
	runsGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleAdmin)), runHandler.Delete)

	usersRepo := repository.NewUserRepository(db)
	userSvc := service.NewUserService(usersRepo, validate, logr)
	userHandler := internalhandler.NewUserHandler(userSvc)

	usersGroup := secured.Group("/users")
	usersGroup.GET("", internalmiddleware.RBAC(string(models.RoleAdmin)), userHandler.List)
	usersGroup.POST("", internalmiddleware.RBAC(string(models.RoleAdmin)), userHandler.Create)
	usersGroup.GET("/:id", internalmiddleware.RBAC("SELF", string(models.RoleAdmin)), userHandler.Get)
	usersGroup.PUT("/:id", internalmiddleware.RBAC("SELF", string(models.RoleAdmin)), userHandler.Update)
	usersGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleAdmin)), userHandler.Delete)

	addr := cfg.ListenAddr()
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
}
