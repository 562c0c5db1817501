package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"familyconnect/internal/config"
	"familyconnect/internal/database"
	"familyconnect/internal/handlers"
	"familyconnect/internal/repository"
	"familyconnect/internal/security"
	"familyconnect/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, closeSessions, err := openSessions(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Initialize services
	authService := service.NewAuthService(store, sessions, cfg.SessionDuration, logger.Named("auth"))

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, logger)
	if err != nil {
		return err
	}
	alertService := service.NewAlertService(store, emailService, logger)
	safetyService := service.NewSafetyService(store, alertService, logger.Named("safety"))

	if cfg.SeedDemoData {
		if err := service.SeedDemoData(ctx, authService, store, logger.Named("seed")); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Auth:         authService,
		Safety:       safetyService,
		LoginLimiter: security.NewRateLimiter(ctx, cfg.LoginRateLimit, cfg.LoginRateWindow),
		Logger:       logger.Named("http"),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(ctx, authService, cfg.SessionCleanupInterval, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStore returns the configured repository and a function releasing it
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Info("using in-memory store")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(ctx, logger.Named("migrations")); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", zap.Error(err))
		}
	}
	return repository.NewSQLStore(db), closeDB, nil
}

// openSessions returns the session store, which is either the main store or Redis
func openSessions(ctx context.Context, cfg *config.Config, store repository.Store, logger *zap.Logger) (repository.SessionStore, func(), error) {
	if cfg.SessionBackend != config.SessionsInRedis {
		return store, func() {}, nil
	}

	sessions, err := repository.NewRedisSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("sessions stored in redis", zap.String("addr", cfg.RedisAddr))

	closeRedis := func() {
		if err := sessions.Close(); err != nil {
			logger.Error("closing redis", zap.Error(err))
		}
	}
	return sessions, closeRedis, nil
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				logger.Error("cleaning up expired sessions", zap.Error(err))
				continue
			}
			logger.Debug("expired sessions cleaned up")
		}
	}
}
