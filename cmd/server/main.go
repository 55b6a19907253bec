package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/user/inventory-audit/internal/adapter/api"
	"github.com/user/inventory-audit/internal/adapter/api/middleware"
	"github.com/user/inventory-audit/internal/adapter/metrics"
	"github.com/user/inventory-audit/internal/adapter/repository/fsstore"
	"github.com/user/inventory-audit/internal/adapter/repository/postgres"
	redisrepo "github.com/user/inventory-audit/internal/adapter/repository/redis"
	"github.com/user/inventory-audit/internal/domain"
	"github.com/user/inventory-audit/internal/pkg/config"
	"github.com/user/inventory-audit/internal/pkg/logger"
	"github.com/user/inventory-audit/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewAuditMetrics()

	// --- Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// --- Locator Map: shared via Redis when configured, in-memory otherwise ---
	var locators domain.LocatorMap = usecase.NewMemoryLocatorMap()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, falling back to in-memory locator map", "error", err)
		} else {
			locators = redisrepo.NewLocatorMap(redisClient, logger)
			defer redisClient.Close()
		}
	}

	// --- Log Store and Session Tracker ---
	store, err := fsstore.NewStore(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to initialize session log store", "error", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	tracker := usecase.NewSessionTracker(store, locators, m, logger, cfg.FailedLoginRate, cfg.FailedLoginBurst)

	// --- HTTP Server ---
	router := api.NewRouter(cfg, logger, tracker, userRepo)
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      middleware.Logging(logger)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting audit server", "addr", server.Addr, "data_dir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("audit server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("audit server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
}
