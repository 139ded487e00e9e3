package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexh/focus/internal/api"
	"github.com/nexh/focus/internal/buildconfig"
	"github.com/nexh/focus/internal/config"
	"github.com/nexh/focus/internal/llm"
	"github.com/nexh/focus/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if level, err := zapcore.ParseLevel(config.LogLevel()); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database", zap.Any("build", buildconfig.VersionInfo()))

	if config.RunMigrations() {
		if err := store.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	deps := api.StoreDeps(pool)

	if redisURL := config.RedisURL(); redisURL != "" {
		cache, err := store.NewRedisReportCache(ctx, redisURL, logger)
		if err != nil {
			logger.Warn("report cache disabled", zap.Error(err))
		} else {
			defer func() { _ = cache.Close() }()
			deps.Cache = cache
		}
	}

	provider := config.DraftProvider()
	drafts, err := llm.NewDraftGenerator(provider, config.DraftAPIKey(), config.GeminiModel())
	if err != nil {
		logger.Warn("draft generator initialization failed, using template drafts",
			zap.String("provider", provider), zap.Error(err))
	} else {
		deps.Drafts = drafts
		logger.Info("draft generator initialized", zap.String("provider", provider))
	}

	app := api.NewApp(deps, logger)

	// Start background services
	app.Briefing.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Briefing.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
