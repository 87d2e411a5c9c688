package main

import (
	"context"
	"errors"
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

	_ "github.com/kaaboura12/backend-hackathon-sos-V0.1/api/swagger"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/handler"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/middleware"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/repository"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/service"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/anonymizer"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/cache"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/config"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/database"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/logger"
	corsmiddleware "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/middleware/cors"
	reqidmiddleware "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/middleware/requestid"
	"github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/storage"
)

// @title SOS Incident Reporting API
// @version 0.1.0
// @description Incident case management backend with dynamic role-based access control
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir, cfg.Uploads.BaseURL, storage.Policy{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	})
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	voice := anonymizer.New(cfg.Anonymizer.BaseURL, cfg.Anonymizer.Timeout)
	validate := validator.New()

	// Repositories.
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	villageRepo := repository.NewVillageRepository(db)
	reportRepo := repository.NewReportRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	authSvc := service.NewAuthService(userRepo, roleRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	roleSvc := service.NewRoleService(roleRepo, validate, logr, cfg.RBAC.StrictPermissions)
	userSvc := service.NewUserService(userRepo, roleRepo, auditRepo, notificationSvc, validate, logr)
	villageSvc := service.NewVillageService(villageRepo, validate, logr)
	triageSvc := service.NewTriageService(logr)
	reportSvc := service.NewReportService(reportRepo, documentRepo, userRepo, roleRepo, auditRepo, notificationSvc, voice, uploads, triageSvc, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, reportRepo, uploads, auditRepo, logr)
	statsSvc := service.NewStatsService(statsRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	auditSvc := service.NewAuditService(auditRepo)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	roleHandler := handler.NewRoleHandler(roleSvc)
	userHandler := handler.NewUserHandler(userSvc)
	villageHandler := handler.NewVillageHandler(villageSvc)
	reportHandler := handler.NewReportHandler(reportSvc, metricsSvc, statsSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	statsHandler := handler.NewStatsHandler(statsSvc, auditSvc)
	triageHandler := handler.NewTriageHandler(triageSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, voice)

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
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static(cfg.Uploads.BaseURL, uploads.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	// Role and village listings stay public so the registration form can
	// offer them before any token exists.
	api.GET("/roles", roleHandler.List)
	api.GET("/villages", villageHandler.List)

	roles := api.Group("/roles", middleware.JWT(authSvc))
	{
		roles.GET("/permissions", middleware.RequirePermissions(models.PermRoleView), roleHandler.Permissions)
		roles.GET("/:id", middleware.RequirePermissions(models.PermRoleView), roleHandler.Get)
		roles.POST("", middleware.RequirePermissions(models.PermRoleManage), roleHandler.Create)
		roles.PUT("/:id", middleware.RequirePermissions(models.PermRoleManage), roleHandler.Update)
		roles.DELETE("/:id", middleware.RequirePermissions(models.PermRoleManage), roleHandler.Delete)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequirePermissions(models.PermUserView), userHandler.List)
		users.GET("/:id", middleware.RequirePermissions(models.PermUserView), userHandler.Get)
		users.PUT("/:id", middleware.RequirePermissions(models.PermUserManage), userHandler.Update)
		users.POST("/:id/approve", middleware.RequirePermissions(models.PermUserApprove), userHandler.Approve)
		users.POST("/:id/reject", middleware.RequirePermissions(models.PermUserApprove), userHandler.Reject)
	}

	villages := api.Group("/villages", middleware.JWT(authSvc))
	{
		villages.GET("/:id", middleware.RequirePermissions(models.PermVillageView), villageHandler.Get)
		villages.POST("", middleware.RequirePermissions(models.PermVillageManage), villageHandler.Create)
		villages.PUT("/:id", middleware.RequirePermissions(models.PermVillageManage), villageHandler.Update)
		villages.DELETE("/:id", middleware.RequirePermissions(models.PermVillageManage), villageHandler.Delete)
	}

	reports := api.Group("/reports", middleware.JWT(authSvc))
	{
		reports.POST("", middleware.RequirePermissions(models.PermReportCreate), reportHandler.Create)
		reports.GET("", middleware.RequirePermissions(models.PermReportView), reportHandler.List)
		reports.GET("/:id", middleware.RequirePermissions(models.PermReportView), reportHandler.Get)
		reports.PUT("/:id", middleware.RequirePermissions(models.PermReportUpdate), reportHandler.Update)
		reports.DELETE("/:id", middleware.RequirePermissions(models.PermReportDelete), reportHandler.Delete)
		reports.POST("/:id/assign", middleware.RequirePermissions(models.PermReportAssign), reportHandler.Assign)
		reports.POST("/:id/classify", middleware.RequirePermissions(models.PermReportClassify), reportHandler.Classify)
		reports.POST("/:id/close", middleware.RequirePermissions(models.PermCaseClose), reportHandler.Close)
		reports.GET("/:id/export", middleware.RequirePermissions(models.PermCaseExport), reportHandler.Export)

		// Upload permission is per document type, checked in the service.
		reports.POST("/:id/documents", documentHandler.Upload)
		reports.GET("/:id/documents", middleware.RequirePermissions(models.PermDocView), documentHandler.List)
	}

	api.POST("/triage/analyze", middleware.JWT(authSvc), middleware.RequirePermissions(models.PermTriageAnalyze), triageHandler.Analyze)

	notifications := api.Group("/notifications", middleware.JWT(authSvc), middleware.RequirePermissions(models.PermNotifView))
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	stats := api.Group("/stats", middleware.JWT(authSvc))
	{
		stats.GET("/dashboard", middleware.RequirePermissions(models.PermStatsView), statsHandler.Dashboard)
		stats.GET("/audit", middleware.RequirePermissions(models.PermAuditView), statsHandler.AuditLogs)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logr.Sugar().Infow("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
