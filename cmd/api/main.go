package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"itnews-radar/internal/bootstrap"
	hhttp "itnews-radar/internal/handler/http"
	"itnews-radar/internal/handler/http/auth"
	"itnews-radar/internal/handler/http/news"
	"itnews-radar/internal/handler/http/requestid"
	"itnews-radar/internal/infra/worker"
	"itnews-radar/internal/observability/logging"
	"itnews-radar/internal/observability/tracing"
	"itnews-radar/internal/pkg/config"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	MaxBodyBytes   int
	// Scheduler runs the source scheduler inside the API process.
	Scheduler bool
	RateLimit hhttp.RateLimitConfig
	Auth      auth.Config
}

func main() {
	_ = godotenv.Load()
	logger := initLogger()

	shutdownTracing := tracing.InitProvider("itnews-radar-api")
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	serverCfg := loadServerConfig(logger)
	workerMetrics := worker.NewWorkerMetrics()
	ingestCfg := worker.LoadConfigFromEnv(logger, workerMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := initApp(ctx, logger, ingestCfg, workerMetrics)
	defer app.Close()

	version := getVersion()
	handler := setupServer(logger, app, serverCfg, version)

	if serverCfg.Scheduler {
		if err := app.Coordinator.Start(ctx, ingestCfg.RunOnStart); err != nil {
			logger.Error("failed to start ingestion scheduler", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("ingestion scheduler disabled, accepting direct batches only")
	}

	runServer(ctx, cancel, logger, handler, serverCfg, version)
}

// initLogger initializes the process logger from LOG_LEVEL and LOG_FORMAT.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// loadServerConfig reads the HTTP settings with fail-open fallbacks.
func loadServerConfig(logger *slog.Logger) ServerConfig {
	tr := config.NewTracker(logger, config.NewConfigMetrics("api"))
	cfg := ServerConfig{
		Addr: config.LoadEnvString("HTTP_ADDR", ":8080"),
		RequestTimeout: config.Track(tr, "request_timeout", config.LoadEnvDuration("REQUEST_TIMEOUT", 30*time.Second,
			func(d time.Duration) error { return config.ValidateDuration(d, time.Second, 5*time.Minute) })),
		MaxBodyBytes: config.Track(tr, "max_body_bytes", config.LoadEnvInt("MAX_BODY_BYTES", hhttp.DefaultMaxBodyBytes,
			func(v int) error { return config.ValidateIntRange(v, 1<<10, 100<<20) })),
		Scheduler: config.Track(tr, "scheduler_enabled", config.LoadEnvBool("INGEST_SCHEDULER_ENABLED", true)),
		RateLimit: hhttp.RateLimitConfig{
			Enabled: config.Track(tr, "rate_limit_enabled", config.LoadEnvBool("RATE_LIMIT_ENABLED", true)),
			Limit: config.Track(tr, "rate_limit_requests", config.LoadEnvInt("RATE_LIMIT_REQUESTS", 100,
				func(v int) error { return config.ValidateIntRange(v, 1, 100000) })),
			Window: config.Track(tr, "rate_limit_window", config.LoadEnvDuration("RATE_LIMIT_WINDOW", time.Minute,
				func(d time.Duration) error { return config.ValidateDuration(d, time.Second, time.Hour) })),
			TrustProxy: config.Track(tr, "rate_limit_trust_proxy", config.LoadEnvBool("RATE_LIMIT_TRUST_PROXY", false)),
		},
	}
	authCfg, err := auth.LoadConfig(tr)
	tr.Done()
	if err != nil {
		logger.Error("invalid auth configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if !authCfg.Enabled {
		logger.Warn("AUTH_ENABLED is false, POST /ingest accepts unauthenticated batches")
	}
	cfg.Auth = authCfg
	return cfg
}

// initApp assembles store, scoring and sources, exiting on failure.
func initApp(ctx context.Context, logger *slog.Logger, wc *worker.WorkerConfig, metrics *worker.WorkerMetrics) *bootstrap.App {
	opts := bootstrap.OptionsFromEnv()
	opts.Coordinator = wc.IngestConfig(metrics.RecordRun)

	app, err := bootstrap.Build(ctx, opts, logger)
	if err != nil {
		logger.Error("failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}
	app.Scoring.Warmup(ctx, logger)
	return app
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupServer registers the routes and wraps them in the middleware chain.
func setupServer(logger *slog.Logger, app *bootstrap.App, cfg ServerConfig, version string) http.Handler {
	mux := setupRoutes(logger, app, version, cfg.Auth)
	return applyMiddleware(logger, mux, cfg)
}

// setupRoutes registers the news API and the operational endpoints.
// POST /ingest requires an ingest or admin token when auth is enabled.
func setupRoutes(logger *slog.Logger, app *bootstrap.App, version string, authCfg auth.Config) *http.ServeMux {
	mux := http.NewServeMux()
	news.Register(mux, app.Coordinator, app.Retriever, app.Scoring.Pipeline,
		auth.Require(authCfg, auth.RoleIngest, auth.RoleAdmin))

	mux.Handle("GET /health", &hhttp.HealthHandler{
		Store:   app.Backend.Items,
		Scoring: app.Scoring.Semantic,
		Sources: app.Coordinator,
		Version: version,
		Logger:  logger,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Store: app.Backend.Items})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	return mux
}

// applyMiddleware wraps the handler with the middleware chain.
// Order: Request ID → Recovery → Logging → Security headers → Rate limit →
// Tracing → Input validation → Timeout → Metrics.
// Metrics wraps the mux directly so it can read the matched route pattern.
func applyMiddleware(logger *slog.Logger, mux *http.ServeMux, cfg ServerConfig) http.Handler {
	return hhttp.Chain(hhttp.MetricsMiddleware(mux),
		requestid.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.SecurityHeaders,
		hhttp.NewIPRateLimiter(cfg.RateLimit).Middleware,
		tracing.Middleware,
		hhttp.InputValidation(int64(cfg.MaxBodyBytes)),
		hhttp.Timeout(cfg.RequestTimeout),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, handler http.Handler, cfg ServerConfig, version string) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
