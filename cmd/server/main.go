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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/gestureview/backend/internal/config"
	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/gesture"
	"github.com/gestureview/backend/internal/handlers"
	"github.com/gestureview/backend/internal/logger"
	"github.com/gestureview/backend/internal/middleware"
	"github.com/gestureview/backend/internal/models"
	"github.com/gestureview/backend/internal/opener"
	"github.com/gestureview/backend/internal/repositories"
	"github.com/gestureview/backend/internal/services"
	"github.com/gestureview/backend/internal/session"
	"github.com/gestureview/backend/internal/storage"
)

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

	logger.Logger.Info("Starting GestureView server")

	// Connect to database
	db, err := connectDB(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db, cfg.Database.Driver); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize session store
	sessionStore, cleanup := newSessionStore(cfg)
	defer cleanup()

	// Initialize notice (flash message) store
	notices := flash.NewStore([]byte(cfg.Session.SecretKey))

	// Initialize upload storage
	uploadStorage, err := storage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize upload storage", zap.Error(err))
	}

	// Parse page templates
	templates, err := handlers.ParseTemplates()
	if err != nil {
		logger.Logger.Fatal("Failed to parse templates", zap.Error(err))
	}

	// Initialize repositories and services
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	authService := services.NewAuthService(userRepo, sessionStore, cfg.Session.IdleTimeout, logger.Logger)
	docOpener := opener.NewExecOpener(cfg.Gesture.Timeout, logger.Logger)
	fileService := services.NewFileService(uploadStorage, docOpener, logger.Logger)
	dispatcher := gesture.NewDispatcher(gesture.NewExecInjector(logger.Logger), cfg.Gesture.Timeout, logger.Logger)

	// Bootstrap the admin account on an empty credential store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureDefaultAdmin(ctx); err != nil {
		cancel()
		logger.Logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}
	cancel()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger, notices, templates)
	dashboardHandler := handlers.NewDashboardHandler(logger.Logger, notices, templates)
	fileHandler := handlers.NewFileHandler(fileService, sessionStore, logger.Logger, notices, templates, cfg.Upload.MaxSize)
	gestureHandler := handlers.NewGestureHandler(dispatcher, logger.Logger)

	// Access guards
	sessionGuard := middleware.RequireSession(sessionStore, notices, logger.Logger)
	adminGuard := middleware.RequireRole(sessionStore, notices, logger.Logger, models.RoleAdmin)
	userGuard := middleware.RequireRole(sessionStore, notices, logger.Logger, models.RoleUser)
	loadSession := middleware.LoadSession(sessionStore, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger.Logger))
	r.Use(middleware.Recovery(logger.Logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimit(cfg.Upload.MaxSize))

	// Register routes
	authHandler.RegisterRoutes(r)
	dashboardHandler.RegisterRoutes(r, adminGuard, userGuard)
	fileHandler.RegisterRoutes(r, sessionGuard)
	gestureHandler.RegisterRoutes(r, loadSession)

	// Start server
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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
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

// runMigrations runs database migrations for the configured driver
func runMigrations(db *sql.DB, driver string) error {
	migrationPath := fmt.Sprintf("file://migrations/%s", driver)
	if _, statErr := os.Stat(fmt.Sprintf("migrations/%s", driver)); os.IsNotExist(statErr) {
		// Try parent directory if running from cmd
		if _, statErr := os.Stat(fmt.Sprintf("../migrations/%s", driver)); statErr == nil {
			migrationPath = fmt.Sprintf("file://../migrations/%s", driver)
		}
	}

	var err error
	switch driver {
	case "mysql":
		d, derr := migratemysql.WithInstance(db, &migratemysql.Config{
			MigrationsTable: "schema_migrations",
		})
		if derr != nil {
			return fmt.Errorf("failed to create migration driver: %w", derr)
		}
		m, merr := migrate.NewWithDatabaseInstance(migrationPath, "mysql", d)
		if merr != nil {
			return fmt.Errorf("failed to create migrate instance: %w", merr)
		}
		err = m.Up()
	default:
		d, derr := migratesqlite.WithInstance(db, &migratesqlite.Config{
			MigrationsTable: "schema_migrations",
		})
		if derr != nil {
			return fmt.Errorf("failed to create migration driver: %w", derr)
		}
		m, merr := migrate.NewWithDatabaseInstance(migrationPath, "sqlite", d)
		if merr != nil {
			return fmt.Errorf("failed to create migrate instance: %w", merr)
		}
		err = m.Up()
	}

	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// newSessionStore builds the session store: Redis when configured,
// in-memory otherwise. The returned cleanup stops background work.
func newSessionStore(cfg *config.Config) (session.Store, func()) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Logger.Info("using Redis session store", zap.String("addr", cfg.Redis.Addr))
		return session.NewRedisStore(client, cfg.Session.IdleTimeout), func() { client.Close() }
	}

	store := session.NewMemoryStore(cfg.Session.IdleTimeout)
	return store, store.Close
}
