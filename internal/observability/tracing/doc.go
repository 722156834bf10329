// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created for inbound HTTP requests (Middleware), for every source
// fetch of the ingestion coordinator and for the scoring of each item. The
// tracer is resolved from the global provider on every call, so installing a
// provider with InitProvider (or in tests) takes effect immediately.
//
// Example usage:
//
//	import "itnews-radar/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitProvider("itnews-radar")
//	    defer shutdown(context.Background())
//	}
//
//	func fetch(ctx context.Context) {
//	    ctx, span := tracing.StartSpan(ctx, "source.fetch")
//	    defer span.End()
//	    // ... fetch ...
//	}
package tracing
