package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	academyapp "github.com/coachdesk/backend/internal/application/academy"
	feesapp "github.com/coachdesk/backend/internal/application/fees"
	"github.com/coachdesk/backend/internal/infrastructure/config"
	"github.com/coachdesk/backend/internal/infrastructure/logger"
	"github.com/coachdesk/backend/internal/infrastructure/persistence"
	"github.com/coachdesk/backend/internal/interfaces/http/handler"
	"github.com/coachdesk/backend/internal/interfaces/http/middleware"
	"github.com/coachdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting CoachDesk Backend",
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
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	courseRepo := persistence.NewGormCourseRepository(db.DB)
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)

	// Transaction scope and per-student serialization for the fee engine
	scope := persistence.NewGormTransactionScope(db.DB)
	locks := feesapp.NewStudentLocks()
	ceiling := cfg.Fees.GenerationCeilingMonths

	// Initialize application services
	studentService := academyapp.NewStudentService(scope, studentRepo, log)
	batchService := academyapp.NewBatchService(batchRepo, studentRepo)
	courseService := academyapp.NewCourseService(courseRepo)
	generationService := feesapp.NewGenerationService(scope, locks, log, ceiling)
	paymentService := feesapp.NewPaymentService(scope, obligationRepo, locks, log, ceiling)
	creditService := feesapp.NewCreditService(scope, ledgerRepo, locks, log)
	transferService := feesapp.NewTransferService(scope, studentRepo, batchRepo, locks, log, ceiling)
	reconcileService := feesapp.NewReconcileService(scope, studentRepo, locks, log, ceiling)

	// Initialize HTTP handlers
	studentHandler := handler.NewStudentHandler(studentService, transferService)
	batchHandler := handler.NewBatchHandler(batchService)
	courseHandler := handler.NewCourseHandler(courseService)
	feesHandler := handler.NewFeesHandler(generationService, paymentService, creditService)
	reconcileHandler := handler.NewReconcileHandler(reconcileService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(studentHandler).
		Register(batchHandler).
		Register(courseHandler).
		Register(feesHandler).
		Register(reconcileHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
