package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apparrears "github.com/crediretail/backend/internal/application/arrears"
	appcollections "github.com/crediretail/backend/internal/application/collections"
	"github.com/crediretail/backend/internal/infrastructure/blocking"
	"github.com/crediretail/backend/internal/infrastructure/config"
	"github.com/crediretail/backend/internal/infrastructure/logger"
	"github.com/crediretail/backend/internal/infrastructure/notification"
	"github.com/crediretail/backend/internal/infrastructure/persistence"
	"github.com/crediretail/backend/internal/infrastructure/scheduler"
	"github.com/crediretail/backend/internal/interfaces/http/handler"
	"github.com/crediretail/backend/internal/interfaces/http/middleware"
	"github.com/crediretail/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting crediretail backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	installmentRepo := persistence.NewGormInstallmentRepository(db.DB)
	arrearsConfigRepo := persistence.NewGormArrearsConfigRepository(db.DB)
	configProvider := persistence.NewConfigProviderRepository(arrearsConfigRepo)
	alertRepo := persistence.NewGormAlertRepository(db.DB)
	promiseRepo := persistence.NewGormPromiseRepository(db.DB)
	agreementRepo := persistence.NewGormAgreementRepository(db.DB)
	contactRepo := persistence.NewGormContactRecordRepository(db.DB)
	tierRepo := persistence.NewGormTierRepository(db.DB)

	// Notification limiter: shared Redis counter when Redis answers, process
	// local fallback otherwise
	var limiter appcollections.NotificationLimiter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, using in-memory notification limiter", zap.Error(err))
		_ = redisClient.Close()
		limiter = notification.NewInMemoryNotificationLimiter()
	} else {
		limiter = notification.NewRedisNotificationLimiter(redisClient, "")
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}
	pingCancel()

	// Outbound side effects of the automation
	notifier := notification.NewLogNotificationSender(log)
	blocker := blocking.NewLogClientBlockingService(log)

	// Initialize application services
	feeService := apparrears.NewFeeService(installmentRepo, configProvider, log)
	configService := apparrears.NewConfigService(arrearsConfigRepo, log)
	alertService := appcollections.NewAlertService(alertRepo, contactRepo, log)
	contactService := appcollections.NewContactService(contactRepo, alertRepo, log)
	promiseService := appcollections.NewPromiseService(promiseRepo, alertRepo, contactRepo, configProvider, log)
	agreementService := appcollections.NewAgreementService(agreementRepo, alertRepo, contactRepo, configProvider, log)
	tierService := appcollections.NewTierService(tierRepo, log)

	tramoEngine := appcollections.NewTramoEngine(
		alertRepo, installmentRepo, promiseRepo, contactRepo, tierRepo,
		configProvider, notifier, blocker, limiter, log,
	)
	dailyRunService := appcollections.NewDailyRunService(
		feeService, tramoEngine, promiseService, agreementService,
		installmentRepo, alertRepo, log,
	)

	// Daily batch scheduler
	cronHour, cronMinute, err := scheduler.ParseCronSchedule(cfg.Scheduler.DailyCronSchedule)
	if err != nil {
		log.Warn("Invalid cron schedule, using default", zap.Error(err))
	}
	dailyScheduler := scheduler.NewDailyRunScheduler(scheduler.DailyRunSchedulerConfig{
		Enabled:    cfg.Scheduler.Enabled,
		CronHour:   cronHour,
		CronMinute: cronMinute,
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, dailyRunService, log)
	if cfg.Scheduler.Enabled {
		if err := dailyScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start daily scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := dailyScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping daily scheduler", zap.Error(err))
			}
		}()
		log.Info("Daily collections scheduler enabled",
			zap.Int("hour", cronHour),
			zap.Int("minute", cronMinute),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// Initialize HTTP handlers
	arrearsHandler := handler.NewArrearsHandler(configService, feeService)
	alertHandler := handler.NewAlertHandler(alertService, contactService)
	promiseHandler := handler.NewPromiseHandler(promiseService)
	agreementHandler := handler.NewAgreementHandler(agreementService)
	tierHandler := handler.NewTierHandler(tierService)
	systemHandler := handler.NewSystemHandler(db, dailyScheduler)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiterMW := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiterMW))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(arrearsHandler).
		Register(alertHandler).
		Register(promiseHandler).
		Register(agreementHandler).
		Register(tierHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
