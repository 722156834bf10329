// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the relevance pipeline metrics:
//   - Scoring metrics (items scored, signal errors, score distribution)
//   - Admission metrics (admitted and rejected items, store put results)
//   - Source metrics (fetch outcomes, fetch duration, source state)
//   - Store metrics (query duration, items stored)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint. HTTP request metrics live in the
// handler package next to the middleware that records them.
//
// Example usage:
//
//	import "itnews-radar/internal/observability/metrics"
//
//	func fetch(src string) {
//	    start := time.Now()
//	    // ... fetch items ...
//	    metrics.RecordSourceFetch(src, "success", time.Since(start))
//	}
package metrics
