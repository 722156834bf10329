// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scoring metrics track the relevance scoring chain
var (
	// ItemsScoredTotal counts items that went through the scoring pipeline
	ItemsScoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relevance_items_scored_total",
			Help: "Total number of items scored by the relevance pipeline",
		},
	)

	// ScoringErrorsTotal counts scorer failures by signal (lexical, semantic)
	ScoringErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_scoring_errors_total",
			Help: "Total number of scorer failures degraded to a zero signal",
		},
		[]string{"signal"},
	)

	// FinalScore observes the distribution of final scores
	FinalScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relevance_final_score",
			Help:    "Distribution of final relevance scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	// ScoringDuration measures time taken to score one item
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relevance_scoring_duration_seconds",
			Help:    "Time taken to score one item",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)
)

// Admission metrics track the gate and the store
var (
	// AdmissionsTotal counts gate decisions by source and decision (admitted, rejected, invalid)
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relevance_admissions_total",
			Help: "Total number of gate decisions at ingestion",
		},
		[]string{"source", "decision"},
	)

	// StorePutsTotal counts store put results (inserted, replaced, ignored_stale)
	StorePutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "item_store_puts_total",
			Help: "Total number of item store put operations by result",
		},
		[]string{"result"},
	)

	// ItemsStored tracks the number of items held by the store
	ItemsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "item_store_items",
			Help: "Number of items currently held by the item store",
		},
	)

	// StoreOperationDuration measures store operation duration in seconds
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "item_store_operation_duration_seconds",
			Help:    "Item store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"backend", "operation"},
	)
)

// Source metrics track ingestion from source adapters
var (
	// SourceFetchesTotal counts fetch attempts by source and outcome (success, failed, timeout)
	SourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetches_total",
			Help: "Total number of source fetches by outcome",
		},
		[]string{"source", "outcome"},
	)

	// SourceFetchDuration measures source fetch duration in seconds
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Source fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"source"},
	)

	// SourceItemsFetchedTotal counts records returned by each source
	SourceItemsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_items_fetched_total",
			Help: "Total number of records returned by source adapters",
		},
		[]string{"source"},
	)

	// SourceState exposes the coordinator state of each source (0 idle, 1 fetching, 2 success, 3 failed)
	SourceState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_state",
			Help: "Current ingestion state per source (0=idle, 1=fetching, 2=success, 3=failed)",
		},
		[]string{"source"},
	)

	// SourceLastSuccess records the unix time of the last successful fetch per source
	SourceLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful fetch per source",
		},
		[]string{"source"},
	)
)
