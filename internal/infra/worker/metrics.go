package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"itnews-radar/internal/pkg/config"
	"itnews-radar/internal/usecase/ingest"
)

// WorkerMetrics tracks scheduled ingestion runs.
type WorkerMetrics struct {
	*config.ConfigMetrics

	RunsTotal            *prometheus.CounterVec
	RunDurationSeconds   *prometheus.HistogramVec
	ItemsAcceptedTotal   *prometheus.CounterVec
	LastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics registers the worker metrics with the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return newWorkerMetrics(prometheus.DefaultRegisterer, config.NewConfigMetrics("worker"))
}

func newWorkerMetrics(reg prometheus.Registerer, cm *config.ConfigMetrics) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: cm,
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_ingest_runs_total",
			Help: "Total number of scheduled source runs by status (success/failure)",
		}, []string{"source", "status"}),
		RunDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_ingest_run_duration_seconds",
			Help:    "Duration of scheduled source runs, fetch and scoring included",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}, []string{"source"}),
		ItemsAcceptedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_ingest_items_accepted_total",
			Help: "Total number of items admitted by scheduled runs",
		}, []string{"source"}),
		LastSuccessTimestamp: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_ingest_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per source",
		}, []string{"source"}),
	}
}

// RecordRun matches ingest.Config.OnRun.
func (m *WorkerMetrics) RecordRun(source string, summary *ingest.BatchSummary, err error) {
	if err != nil {
		m.RunsTotal.WithLabelValues(source, "failure").Inc()
		return
	}
	m.RunsTotal.WithLabelValues(source, "success").Inc()
	m.LastSuccessTimestamp.WithLabelValues(source).Set(float64(time.Now().Unix()))
	if summary != nil {
		m.RunDurationSeconds.WithLabelValues(source).Observe(summary.Duration.Seconds())
		m.ItemsAcceptedTotal.WithLabelValues(source).Add(float64(summary.Accepted))
	}
}
