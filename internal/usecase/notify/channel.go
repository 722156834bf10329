// Package notify dispatches relevance alerts for newly stored items to chat
// channels. Dispatch never blocks ingestion: every channel is served by its
// own goroutine behind a bounded worker pool and a circuit breaker.
package notify

import (
	"context"

	"itnews-radar/internal/domain/entity"
)

// Channel is an alert destination such as a Discord or Slack webhook.
//
// Implementations apply their own rate limiting and retries, must respect
// context cancellation, and must be safe for concurrent use.
type Channel interface {
	// Name returns a lowercase identifier used in logs, metrics and health output.
	Name() string

	// Send delivers one alert. The error is returned only after the
	// channel's own retries are exhausted.
	Send(ctx context.Context, item entity.ScoredItem) error
}
