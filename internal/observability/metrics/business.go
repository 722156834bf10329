package metrics

import (
	"time"
)

// RecordItemScored records one pass of the scoring pipeline.
func RecordItemScored(finalScore float64, duration time.Duration) {
	ItemsScoredTotal.Inc()
	FinalScore.Observe(finalScore)
	ScoringDuration.Observe(duration.Seconds())
}

// RecordScoringError records a scorer failure that was degraded to a zero signal.
// Signal should be "lexical" or "semantic".
func RecordScoringError(signal string) {
	ScoringErrorsTotal.WithLabelValues(signal).Inc()
}

// RecordAdmission records a gate decision for an item of the given source.
// Decision should be "admitted", "rejected" or "invalid".
func RecordAdmission(source, decision string) {
	AdmissionsTotal.WithLabelValues(source, decision).Inc()
}

// RecordStorePut records the result label of a store put.
func RecordStorePut(result string) {
	StorePutsTotal.WithLabelValues(result).Inc()
}

// UpdateItemsStored updates the number of items held by the store.
// This gauge should be updated periodically to reflect the current state.
func UpdateItemsStored(count int64) {
	ItemsStored.Set(float64(count))
}

// RecordStoreOperation records the duration of an item store operation.
// Operation should describe the call (e.g., "put", "get_all", "get").
func RecordStoreOperation(backend, operation string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordSourceFetch records the outcome and duration of one source fetch.
// Outcome should be "success", "failed" or "timeout".
func RecordSourceFetch(source, outcome string, duration time.Duration) {
	SourceFetchesTotal.WithLabelValues(source, outcome).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if outcome == "success" {
		SourceLastSuccess.WithLabelValues(source).SetToCurrentTime()
	}
}

// RecordSourceItems records the number of records a source returned.
func RecordSourceItems(source string, count int) {
	SourceItemsFetchedTotal.WithLabelValues(source).Add(float64(count))
}

// SetSourceState exposes the coordinator state of a source as a gauge value.
func SetSourceState(source string, state int) {
	SourceState.WithLabelValues(source).Set(float64(state))
}
