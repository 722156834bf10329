package notify

import "errors"

var (
	// ErrNotificationDropped is recorded when no worker slot frees up in time.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen is recorded when a channel's breaker rejects a send.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
