package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"itnews-radar/internal/bootstrap"
	workerPkg "itnews-radar/internal/infra/worker"
	"itnews-radar/internal/observability/logging"
	"itnews-radar/internal/observability/tracing"
)

func main() {
	_ = godotenv.Load()
	logger := initLogger()

	shutdownTracing := tracing.InitProvider("itnews-radar-worker")
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.Float64("threshold", workerConfig.Threshold),
		slog.Duration("interval", workerConfig.Interval),
		slog.Duration("fetch_timeout", workerConfig.FetchTimeout),
		slog.Int("workers", workerConfig.Workers),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("health_port", workerConfig.HealthPort))

	app := initApp(ctx, logger, workerConfig, workerMetrics)
	defer app.Close()

	if len(app.Coordinator.Sources()) == 0 {
		logger.Error("no enabled sources configured, nothing to schedule")
		app.Close()
		os.Exit(1)
	}

	// Start metrics HTTP server
	var alerts channelHealthSource
	if app.Alerts != nil {
		alerts = app.Alerts
	}
	startMetricsServer(ctx, logger, workerConfig.MetricsPort, alerts)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, app.Coordinator, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	startScheduler(ctx, logger, app, workerConfig, healthServer)
	waitForShutdown(logger, cancel, app)
}

// initLogger initializes the process logger from LOG_LEVEL and LOG_FORMAT.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initApp assembles store, scoring and sources, exiting on failure.
func initApp(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) *bootstrap.App {
	opts := bootstrap.OptionsFromEnv()
	opts.Coordinator = cfg.IngestConfig(metrics.RecordRun)

	app, err := bootstrap.Build(ctx, opts, logger)
	if err != nil {
		logger.Error("failed to initialize worker", slog.Any("error", err))
		os.Exit(1)
	}
	app.Scoring.Warmup(ctx, logger)
	return app
}

// startScheduler registers every source with the scheduler and marks the
// worker ready.
func startScheduler(ctx context.Context, logger *slog.Logger, app *bootstrap.App, cfg *workerPkg.WorkerConfig, healthServer *workerPkg.HealthServer) {
	if err := app.Coordinator.Start(ctx, cfg.RunOnStart); err != nil {
		logger.Error("failed to start ingestion scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	// Mark as ready after the scheduler is set up
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.Any("sources", app.Coordinator.Sources()),
		slog.Bool("run_on_start", cfg.RunOnStart))
}

// waitForShutdown blocks until SIGINT or SIGTERM, then stops the scheduler
// and waits for in-flight runs.
func waitForShutdown(logger *slog.Logger, cancel context.CancelFunc, app *bootstrap.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down worker...")

	app.Coordinator.Stop()
	cancel()
	logger.Info("worker stopped")
}
