package config

import "log/slog"

// Tracker logs and counts fallbacks while a component loads its settings.
type Tracker struct {
	logger   *slog.Logger
	metrics  *ConfigMetrics
	fallback bool
}

// NewTracker returns a tracker. metrics may be nil.
func NewTracker(logger *slog.Logger, metrics *ConfigMetrics) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger, metrics: metrics}
}

// Track returns r.Value, recording a warning when a fallback was applied.
func Track[T any](t *Tracker, field string, r LoadResult[T]) T {
	if r.FallbackApplied {
		t.fallback = true
		t.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
		if t.metrics != nil {
			t.metrics.RecordFallback(field)
		}
	}
	return r.Value
}

// FallbackApplied reports whether any tracked field fell back.
func (t *Tracker) FallbackApplied() bool {
	return t.fallback
}

// Done publishes the load timestamp and the fallback gauge.
func (t *Tracker) Done() {
	if t.metrics == nil {
		return
	}
	t.metrics.SetFallbackActive(t.fallback)
	t.metrics.RecordLoadTimestamp()
}
