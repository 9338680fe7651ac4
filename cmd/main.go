package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/eduportal/progress-service/docs"
	"github.com/eduportal/progress-service/internal/auth"
	"github.com/eduportal/progress-service/internal/cache"
	"github.com/eduportal/progress-service/internal/cms"
	"github.com/eduportal/progress-service/internal/config"
	"github.com/eduportal/progress-service/internal/handlers"
	"github.com/eduportal/progress-service/internal/logger"
	"github.com/eduportal/progress-service/internal/middleware"
	"github.com/eduportal/progress-service/internal/repositories"
	"github.com/eduportal/progress-service/internal/scheduler"
	"github.com/eduportal/progress-service/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// backend groups the gateways of the selected system of record
type backend struct {
	lessons services.LessonProgressGateway
	courses services.CourseStatusGateway
	quizzes services.QuizAttemptGateway
	content cache.ContentRepository
	checks  map[string]handlers.HealthCheck
	close   func()
}

// @title Progress API
// @version 1.0
// @description Lesson and quiz progress tracking on top of the headless CMS
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the CMS access token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting progress service", zap.String("backend", string(cfg.Backend)))

	store, err := setupBackend(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to set up backend", zap.Error(err))
	}
	defer store.close()

	sched := scheduler.NewScheduler(logger.Logger)
	content := store.content

	// Membership cache (optional)
	if addr := cfg.RedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}

		membershipCache := cache.NewMembershipCache(rdb, store.content, cfg.Membership.CacheTTL, logger.Logger)
		content = membershipCache
		if err := sched.AddCacheRefresh(cfg.Membership.RefreshSchedule, membershipCache, cfg.CMS.APIToken); err != nil {
			logger.Logger.Fatal("Failed to schedule cache refresh", zap.Error(err))
		}
		store.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// Initialize services
	syncClient := services.NewSyncClient(store.lessons, store.courses, store.quizzes, logger.Logger)
	sessions := services.NewSessionRegistry(syncClient, content, logger.Logger, cfg.Session.IdleTimeout)
	progressService := services.NewProgressService(sessions)

	if err := sched.AddSessionSweep(cfg.Session.SweepSchedule, sessions); err != nil {
		logger.Logger.Fatal("Failed to schedule session sweep", zap.Error(err))
	}

	// Initialize handlers
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	healthHandler := handlers.NewHealthHandler(store.checks, logger.Logger)

	identityMiddleware := middleware.IdentityMiddleware(auth.NewTokenValidator(cfg.JWT.Secret))

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(1 * 1024 * 1024)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	healthHandler.RegisterRoutes(r)
	r.Route("/api/v1", func(r chi.Router) {
		progressHandler.RegisterRoutes(r, identityMiddleware)
	})

	sched.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	sched.Stop(ctx)

	logger.Logger.Info("Server exited")
}

// setupBackend builds the gateways of the configured system of record
func setupBackend(cfg *config.Config) (*backend, error) {
	if cfg.Backend == config.BackendMySQL {
		db, err := connectDB(cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := runMigrations(db); err != nil {
			db.Close()
			return nil, err
		}

		return &backend{
			lessons: repositories.NewLessonProgressRepository(db),
			courses: repositories.NewCourseStatusRepository(db, logger.Logger),
			quizzes: repositories.NewQuizAttemptRepository(db),
			content: repositories.NewCourseContentRepository(db),
			checks:  map[string]handlers.HealthCheck{"mysql": db.PingContext},
			close:   func() { db.Close() },
		}, nil
	}

	client := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.Timeout, logger.Logger)
	return &backend{
		lessons: client,
		courses: client,
		quizzes: client,
		content: client,
		checks:  map[string]handlers.HealthCheck{},
		close:   func() {},
	}, nil
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{
		MigrationsTable: "progress_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
