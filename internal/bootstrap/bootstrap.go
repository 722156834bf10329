// Package bootstrap assembles the radar from environment configuration. The
// api, worker and radarctl binaries share it so that every process scores and
// stores items the same way.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"

	"itnews-radar/internal/config"
	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/infra/adapter/persistence"
	"itnews-radar/internal/infra/embedding"
	"itnews-radar/internal/infra/fetcher"
	"itnews-radar/internal/infra/notifier"
	"itnews-radar/internal/infra/source"
	"itnews-radar/internal/usecase/ingest"
	"itnews-radar/internal/usecase/notify"
	"itnews-radar/internal/usecase/relevance"
	"itnews-radar/internal/usecase/retrieve"
)

// Options controls what Build assembles.
type Options struct {
	Fs afero.Fs
	// ProfilePath is a YAML scoring profile; empty uses the built-in profile.
	ProfilePath string
	// SourcesPath is a YAML source list; empty uses the mock source.
	SourcesPath string
	// SkipSources builds a coordinator that only accepts direct batches.
	SkipSources bool
	Coordinator ingest.Config
}

// OptionsFromEnv reads SCORING_PROFILE and SOURCES_FILE.
func OptionsFromEnv() Options {
	return Options{
		Fs:          afero.NewOsFs(),
		ProfilePath: os.Getenv("SCORING_PROFILE"),
		SourcesPath: os.Getenv("SOURCES_FILE"),
		Coordinator: ingest.DefaultConfig(),
	}
}

// Scoring is the relevance pipeline and the semantic scorer behind it.
type Scoring struct {
	Profile   *config.ScoringProfile
	Pipeline  *relevance.Pipeline
	Semantic  *relevance.SemanticScorer
	Embedding *config.EmbeddingConfig
}

// Warmup embeds the topics in the background. Failures leave the semantic
// scorer lazy and are only logged.
func (s *Scoring) Warmup(ctx context.Context, logger *slog.Logger) {
	go func() {
		if err := s.Semantic.Warmup(ctx); err != nil {
			logger.Warn("topic embedding warmup failed, semantic scoring degraded",
				slog.Any("error", err))
		}
	}()
}

// NewScoring loads the profile and embedder and builds the pipeline. cache may
// be nil.
func NewScoring(fs afero.Fs, profilePath string, cache relevance.TopicCache, logger *slog.Logger) (*Scoring, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	profile, err := config.LoadProfile(fs, profilePath)
	if err != nil {
		return nil, err
	}
	embCfg, err := config.LoadEmbeddingConfig()
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(embCfg, logger)
	if err != nil {
		return nil, err
	}
	pipeline, semantic, err := relevance.FromProfile(profile, embedder, cache, embCfg.ModelKey(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("scoring pipeline initialized",
		slog.Int("categories", len(profile.Categories)),
		slog.Int("topics", len(profile.Topics)),
		slog.String("embedder", embCfg.ModelKey()))
	return &Scoring{Profile: profile, Pipeline: pipeline, Semantic: semantic, Embedding: embCfg}, nil
}

// App is a fully wired radar.
type App struct {
	Logger      *slog.Logger
	Backend     *persistence.Backend
	Scoring     *Scoring
	Coordinator *ingest.Coordinator
	Retriever   *retrieve.Service
	// Alerts is nil when no alert channel is enabled.
	Alerts *notify.Service

	closers []io.Closer
}

// Build opens the store, builds scoring and sources and creates the
// coordinator. On error everything opened so far is released.
func Build(ctx context.Context, opts Options, logger *slog.Logger) (app *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	storeCfg, err := config.LoadStoreConfig()
	if err != nil {
		return nil, err
	}
	backend, err := persistence.Open(ctx, storeCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", storeCfg.Backend, err)
	}
	app = &App{Logger: logger, Backend: backend}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()
	logger.Info("item store opened", slog.String("backend", backend.Name))

	app.Scoring, err = NewScoring(opts.Fs, opts.ProfilePath, backend.Topics, logger)
	if err != nil {
		return app, err
	}

	var sources []ingest.Source
	cfg := opts.Coordinator
	if !opts.SkipSources {
		sources, cfg.Intervals, err = app.buildSources(opts)
		if err != nil {
			return app, err
		}
	}

	if app.Alerts = NewAlerts(config.LoadAlertConfig(logger), logger); app.Alerts != nil {
		next := cfg.OnStored
		cfg.OnStored = func(item entity.ScoredItem) {
			if next != nil {
				next(item)
			}
			app.Alerts.NotifyStored(item)
		}
	}

	app.Coordinator, err = ingest.NewCoordinator(sources, app.Scoring.Pipeline, backend.Items, cfg, logger)
	if err != nil {
		return app, err
	}
	app.Retriever = &retrieve.Service{Store: backend.Items, DefaultThreshold: cfg.Threshold}
	return app, nil
}

func (a *App) buildSources(opts Options) ([]ingest.Source, map[string]time.Duration, error) {
	srcCfg, err := config.LoadSources(opts.Fs, opts.SourcesPath)
	if err != nil {
		return nil, nil, err
	}
	content, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		a.Logger.Warn("content fetching disabled due to configuration error", slog.Any("error", err))
		content = fetcher.DefaultConfig()
		content.Enabled = false
	}

	enabled := srcCfg.Enabled()
	sources, closers, err := source.BuildAll(enabled, NewHTTPClient(), content, a.Logger)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, closers...)

	intervals := make(map[string]time.Duration, len(enabled))
	for _, s := range enabled {
		if s.Interval > 0 {
			intervals[s.Name] = s.Interval
		}
	}
	a.Logger.Info("sources configured",
		slog.Int("enabled", len(enabled)),
		slog.Int("configured", len(srcCfg.Sources)))
	return sources, intervals, nil
}

// NewAlerts builds the alert service for the enabled webhooks, or returns nil
// when none is enabled.
func NewAlerts(cfg *config.AlertConfig, logger *slog.Logger) *notify.Service {
	if !cfg.Enabled() {
		return nil
	}
	var channels []notify.Channel
	if cfg.Discord.Enabled {
		channels = append(channels, notifier.NewDiscordNotifier(cfg.Discord, logger))
	}
	if cfg.Slack.Enabled {
		channels = append(channels, notifier.NewSlackNotifier(cfg.Slack, logger))
	}
	logger.Info("relevance alerts enabled",
		slog.Float64("threshold", cfg.Threshold),
		slog.Int("channels", len(channels)))
	return notify.NewService(channels, notify.Config{
		Threshold:     cfg.Threshold,
		MaxConcurrent: cfg.MaxConcurrent,
	}, logger)
}

// Close stops the coordinator, drains pending alerts and releases sources
// and the store.
func (a *App) Close() {
	if a.Coordinator != nil {
		a.Coordinator.Close()
	}
	var errs []error
	if a.Alerts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		errs = append(errs, a.Alerts.Shutdown(ctx))
		cancel()
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.Backend != nil {
		errs = append(errs, a.Backend.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("failed to release resources", slog.Any("error", err))
	}
}

// NewHTTPClient returns the pooled client shared by the feed adapters.
// TLS 1.2+ is enforced.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
