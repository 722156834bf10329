package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		failWith     error
		attempts     int
		wantErr      bool
		wantAttempts int
	}{
		{name: "first call succeeds", attempts: 3, wantAttempts: 1},
		{name: "succeeds after transient failures", failures: 2, failWith: &HTTPError{StatusCode: 503}, attempts: 3, wantAttempts: 3},
		{name: "gives up after max attempts", failures: 10, failWith: syscall.ECONNRESET, attempts: 3, wantErr: true, wantAttempts: 3},
		{name: "non-retryable stops immediately", failures: 10, failWith: &HTTPError{StatusCode: 404}, attempts: 3, wantErr: true, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fastConfig(tt.attempts), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("WithBackoff() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantAttempts {
				t.Errorf("calls = %d, want %d", calls, tt.wantAttempts)
			}
			if tt.wantErr && !errors.Is(err, tt.failWith) {
				t.Errorf("error %v does not wrap %v", err, tt.failWith)
			}
		})
	}
}

func TestWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Hour

	calls := 0
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return syscall.ECONNREFUSED
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"5xx", &HTTPError{StatusCode: 502}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"wrapped 5xx", fmt.Errorf("reddit: %w", &HTTPError{StatusCode: 500}), true},
		{"4xx", &HTTPError{StatusCode: 403}, false},
		{"plain", errors.New("parse error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAddJitter(t *testing.T) {
	d := 100 * time.Millisecond
	if got := addJitter(d, 0); got != d {
		t.Errorf("addJitter(d, 0) = %v, want %v", got, d)
	}
	for i := 0; i < 20; i++ {
		got := addJitter(d, 0.5)
		if got < d || got > d+d/2 {
			t.Errorf("addJitter(d, 0.5) = %v out of range", got)
		}
	}
}
