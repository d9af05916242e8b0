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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/kas-kelas-api/api/swagger"
	"github.com/noah-isme/kas-kelas-api/internal/handler"
	"github.com/noah-isme/kas-kelas-api/internal/middleware"
	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/repository"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	"github.com/noah-isme/kas-kelas-api/pkg/cache"
	"github.com/noah-isme/kas-kelas-api/pkg/config"
	"github.com/noah-isme/kas-kelas-api/pkg/database"
	"github.com/noah-isme/kas-kelas-api/pkg/jobs"
	"github.com/noah-isme/kas-kelas-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/kas-kelas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/kas-kelas-api/pkg/middleware/requestid"
	"github.com/noah-isme/kas-kelas-api/pkg/notify"
	"github.com/noah-isme/kas-kelas-api/pkg/storage"
)

// @title Kas Kelas API
// @version 1.0.0
// @description Class dues tracking with cash payment codes
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.PaymentCodes.Enabled {
			logr.Fatal("redis is required for payment code sessions", zap.Error(err))
		}
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	publisher := newPublisher(cfg, logr)
	defer publisher.Close() //nolint:errcheck

	app := buildApp(cfg, logr, db, redisClient, publisher)
	app.notifications.Start(ctx)
	if app.reports != nil {
		if err := app.reports.StartCleanup(); err != nil {
			logr.Fatal("invalid report cleanup schedule", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	if app.reports != nil {
		app.reports.StopCleanup()
	}
	app.notifications.Stop()
}

func newPublisher(cfg *config.Config, logr *zap.Logger) notify.Publisher {
	if cfg.Notifications.AMQPURL == "" {
		return notify.LogPublisher{Logger: logr}
	}
	publisher, err := notify.NewAMQPPublisher(cfg.Notifications.AMQPURL, cfg.Notifications.Exchange, logr)
	if err != nil {
		logr.Warn("amqp unavailable, notifications will only be logged", zap.Error(err))
		return notify.LogPublisher{Logger: logr}
	}
	return publisher
}

type app struct {
	router        *gin.Engine
	notifications *service.NotificationService
	reports       *service.ReportService
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, publisher notify.Publisher) *app {
	validate := validator.New()
	metrics := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	paymentTypeRepo := repository.NewPaymentTypeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)
	notificationSvc := service.NewNotificationService(notificationRepo, publisher, metrics, logr, jobs.Config{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	studentSvc := service.NewStudentService(studentRepo, logr)
	paymentTypeSvc := service.NewPaymentTypeService(paymentTypeRepo, cacheSvc, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, paymentTypeRepo, notificationSvc, cacheSvc, validate, logr)
	expenseSvc := service.NewExpenseService(expenseRepo, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:     dashboardRepo,
		Students: studentRepo,
		Cache:    cacheSvc,
		Logger:   logr,
		Config:   service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Leeway:            30 * time.Second,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.DefaultOptions(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	officer := middleware.RequireOfficer()
	api := r.Group(cfg.APIPrefix)
	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	studentHandler := handler.NewStudentHandler(studentSvc)
	students := secured.Group("/students")
	students.GET("", officer, studentHandler.List)
	students.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTreasurer), middleware.SelfStudent), studentHandler.Get)

	paymentTypeHandler := handler.NewPaymentTypeHandler(paymentTypeSvc)
	paymentTypes := secured.Group("/payment-types")
	paymentTypes.GET("", paymentTypeHandler.List)
	paymentTypes.GET("/:id", paymentTypeHandler.Get)
	paymentTypes.POST("", officer, paymentTypeHandler.Create)
	paymentTypes.DELETE("/:id", officer, paymentTypeHandler.Deactivate)

	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	payments := secured.Group("/payments")
	payments.GET("", paymentHandler.List)
	payments.POST("", middleware.RequireRoles(models.RoleStudent), paymentHandler.Submit)
	payments.POST("/:id/review", officer, paymentHandler.Review)

	expenseHandler := handler.NewExpenseHandler(expenseSvc)
	expenses := secured.Group("/expenses")
	expenses.GET("", expenseHandler.List)
	expenses.POST("", officer, expenseHandler.Create)

	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	notifications := secured.Group("/notifications", middleware.RequireRoles(models.RoleStudent))
	notifications.GET("", notificationHandler.List)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	secured.GET("/dashboard", officer, dashboardHandler.Summary)
	secured.GET("/admin/metrics", middleware.RequireRoles(models.RoleAdmin), metricsHandler.System)

	if cfg.PaymentCodes.Enabled {
		codeSvc := service.NewPaymentCodeService(service.PaymentCodeDeps{
			Students:     studentRepo,
			PaymentTypes: paymentTypeRepo,
			Ledger:       paymentRepo,
			Sessions:     repository.NewScanSessionRepository(redisClient, cfg.PaymentCodes.SessionTTL),
			Notifier:     notificationSvc,
			Cache:        cacheSvc,
			Metrics:      metrics,
			Validator:    validate,
			Logger:       logr,
		})
		codeHandler := handler.NewPaymentCodeHandler(codeSvc)
		codes := secured.Group("/payment-codes")
		codes.POST("/format", codeHandler.Format)
		codes.POST("", middleware.RequireRoles(models.RoleStudent), codeHandler.Generate)

		cash := codes.Group("", officer)
		cash.POST("/resolve", codeHandler.Resolve)
		cash.POST("/confirm", codeHandler.Confirm)
		cash.POST("/sessions", codeHandler.StartSession)
		cash.GET("/sessions/:id", codeHandler.GetSession)
		cash.POST("/sessions/:id/resolve", codeHandler.ResolveSession)
		cash.POST("/sessions/:id/confirm", codeHandler.ConfirmSession)
		cash.DELETE("/sessions/:id", codeHandler.CancelSession)
	}

	built := &app{router: r, notifications: notificationSvc}

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc := service.NewReportService(paymentRepo, store, signer, validate, logr, service.ReportServiceConfig{
			DownloadBaseURL: cfg.APIPrefix + "/reports/download",
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupSchedule: cfg.Reports.CleanupSchedule,
		})
		reportHandler := handler.NewReportHandler(reportSvc)
		secured.POST("/reports", officer, reportHandler.Create)
		// The signed token is the credential; links are opened straight from the browser.
		api.GET("/reports/download/:token", reportHandler.Download)
		built.reports = reportSvc
	}

	return built
}
