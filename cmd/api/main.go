package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/BradenHooton/loginlog/internal/auth"
	"github.com/BradenHooton/loginlog/internal/background"
	"github.com/BradenHooton/loginlog/internal/config"
	"github.com/BradenHooton/loginlog/internal/handlers"
	"github.com/BradenHooton/loginlog/internal/metrics"
	middlewareCustom "github.com/BradenHooton/loginlog/internal/middleware"
	"github.com/BradenHooton/loginlog/internal/repositories"
	"github.com/BradenHooton/loginlog/internal/routes"
	"github.com/BradenHooton/loginlog/internal/services"
	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
	pkglogger "github.com/BradenHooton/loginlog/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("driver", cfg.Database.Driver),
		slog.String("retention_timezone", cfg.Retention.Location.String()),
	)

	// Initialize database
	store, err := repositories.Open(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	auditLogger := pkglogger.NewAuditLogger(logger, cfg.Server.Env)

	// Migrate host tables and install the attempt store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Migrate(ctx); err != nil {
		cancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	provisioning := services.NewProvisioningService(store.Attempts, store.Settings, auditLogger, logger)
	if err := provisioning.Install(ctx); err != nil {
		cancel()
		logger.Error("failed to install login attempt store", slog.Any("error", err))
		os.Exit(1)
	}
	cancel()

	// Initialize services
	recorderService := services.NewRecorderService(store.Attempts, services.RecorderConfig{
		Timeout:      cfg.Storage.Timeout,
		MaxRetries:   cfg.Storage.MaxRetries,
		RetryBackoff: cfg.Storage.RetryBackoff,
	}, auditLogger, logger)
	settingsService := services.NewSettingsService(store.Settings, auditLogger, logger, cfg.Storage.Timeout)
	sweeperService := services.NewSweeperService(store.Attempts, services.SweeperConfig{
		BatchSize: cfg.Retention.BatchSize,
		Location:  cfg.Retention.Location,
		Timeout:   cfg.Storage.Timeout,
	}, auditLogger, logger)
	attemptService := services.NewAttemptService(store.Attempts, settingsService, sweeperService, cfg.Retention.SweepOnList, cfg.Storage.Timeout, logger)

	// Initialize retention scheduler
	scheduler, err := background.NewRetentionScheduler(
		settingsService,
		sweeperService,
		cfg.Retention.SweepSchedule,
		cfg.Retention.Location,
		0,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize retention scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	ipConfig, invalid := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	for _, cidr := range invalid {
		logger.Warn("ignoring invalid trusted proxy", slog.String("cidr", cidr))
	}

	// Initialize handlers
	h := routes.Handlers{
		Events:   handlers.NewEventHandler(recorderService, ipConfig, logger),
		Attempts: handlers.NewAttemptHandler(attemptService, logger),
		Settings: handlers.NewSettingsHandler(settingsService, logger),
		Health:   handlers.NewHealthHandler(store, store.Driver, logger),
		Metrics:  promhttp.Handler(),
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger, metrics.Get()))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, h, tokenManager, routes.AdminConfig{
		RateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.Server.AdminRateLimit,
			IPConfig:          ipConfig,
		},
		CORS: middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins),
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start retention scheduler
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()

	scheduler.Start(schedulerCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	schedulerCancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
