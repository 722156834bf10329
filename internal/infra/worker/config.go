// Package worker holds the settings, metrics and probe server of the
// scheduled ingestion process.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"itnews-radar/internal/pkg/config"
	"itnews-radar/internal/usecase/ingest"
)

// WorkerConfig controls the ingestion schedule and the worker's side servers.
type WorkerConfig struct {
	// Threshold is the admission threshold for scheduled batches.
	Threshold float64
	// Interval is the default fetch interval of every source.
	Interval time.Duration
	// FetchTimeout bounds a single source fetch.
	FetchTimeout time.Duration
	// Workers sizes the scoring pool.
	Workers int
	// Timezone is the IANA zone of the scheduler.
	Timezone string
	// RunOnStart triggers one ingestion round right after startup.
	RunOnStart  bool
	HealthPort  int
	MetricsPort int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Threshold:    0.1,
		Interval:     5 * time.Minute,
		FetchTimeout: 30 * time.Second,
		Workers:      8,
		Timezone:     "UTC",
		RunOnStart:   true,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateThreshold(c.Threshold); err != nil {
		errs = append(errs, fmt.Errorf("Threshold: %w", err))
	}
	if err := config.ValidateDuration(c.Interval, 10*time.Second, 24*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("Interval: %w", err))
	}
	if err := config.ValidateDuration(c.FetchTimeout, time.Second, 10*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("FetchTimeout: %w", err))
	}
	if err := config.ValidateIntRange(c.Workers, 1, 256); err != nil {
		errs = append(errs, fmt.Errorf("Workers: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("Timezone: %w", err))
	}
	if err := config.ValidatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("HealthPort: %w", err))
	}
	if err := config.ValidatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("MetricsPort: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("HealthPort and MetricsPort must differ"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IngestConfig converts the schedule settings for the coordinator. onRun may be nil.
func (c *WorkerConfig) IngestConfig(onRun func(string, *ingest.BatchSummary, error)) ingest.Config {
	return ingest.Config{
		Threshold:    c.Threshold,
		FetchTimeout: c.FetchTimeout,
		Interval:     c.Interval,
		Workers:      c.Workers,
		Location:     c.Location(),
		OnRun:        onRun,
	}
}

// LoadConfigFromEnv reads the worker settings. Invalid values fall back to
// their defaults with a warning and a fallback metric; the returned config
// is always usable.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	tr := config.NewTracker(logger, cm)
	def := DefaultConfig()

	cfg := WorkerConfig{
		Threshold:    config.Track(tr, "relevance_threshold", config.LoadEnvFloat("RELEVANCE_THRESHOLD", def.Threshold, config.ValidateThreshold)),
		Interval:     config.Track(tr, "ingest_interval", config.LoadEnvDuration("INGEST_INTERVAL", def.Interval, func(d time.Duration) error { return config.ValidateDuration(d, 10*time.Second, 24*time.Hour) })),
		FetchTimeout: config.Track(tr, "source_fetch_timeout", config.LoadEnvDuration("SOURCE_FETCH_TIMEOUT", def.FetchTimeout, func(d time.Duration) error { return config.ValidateDuration(d, time.Second, 10*time.Minute) })),
		Workers:      config.Track(tr, "scoring_workers", config.LoadEnvInt("SCORING_WORKERS", def.Workers, func(v int) error { return config.ValidateIntRange(v, 1, 256) })),
		Timezone:     config.Track(tr, "timezone", config.LoadEnvWithFallback("TIMEZONE", def.Timezone, config.ValidateTimezone)),
		RunOnStart:   config.Track(tr, "run_on_start", config.LoadEnvBool("INGEST_RUN_ON_START", def.RunOnStart)),
		HealthPort:   config.Track(tr, "health_port", config.LoadEnvInt("HEALTH_PORT", def.HealthPort, config.ValidatePort)),
		MetricsPort:  config.Track(tr, "metrics_port", config.LoadEnvInt("METRICS_PORT", def.MetricsPort, config.ValidatePort)),
	}
	tr.Done()
	return &cfg
}
