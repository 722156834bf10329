package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"itnews-radar/internal/domain/entity"
)

func sampleItem() entity.ScoredItem {
	return entity.ScoredItem{
		Item: entity.NewsItem{
			ID:          "hn-1",
			Source:      "hackernews",
			Title:       "Critical OpenSSL vulnerability patched",
			Body:        "A remote code execution flaw was fixed.",
			URL:         "https://example.com/openssl",
			PublishedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
			Version:     1,
		},
		Breakdown: entity.ScoreBreakdown{
			LexicalScore:    0.9,
			SemanticScore:   0.7,
			FinalScore:      0.9,
			MatchedKeywords: []string{"vulnerability", "rce"},
			MatchedTopics:   []string{"security"},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastHook makes a webhook suitable for tests: no rate limiting and a 1ms backoff.
func fastHook(h *webhook) {
	h.limiter = rate.NewLimiter(rate.Inf, 1)
	h.baseDelay = time.Millisecond
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"multibyte boundary", "ああああ", 8, "あ..."},
		{"suffix longer than limit", "hello", 2, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.text, tt.maxLen, "...")
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestScoreLine(t *testing.T) {
	assert.Equal(t, "Relevance 0.90 · keywords: vulnerability, rce · topics: security", scoreLine(sampleItem()))

	item := sampleItem()
	item.Breakdown = entity.ScoreBreakdown{FinalScore: 0.8}
	assert.Equal(t, "Relevance 0.80", scoreLine(item))
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &ServerError{StatusCode: 502}, true},
		{"network error", errors.New("connection reset"), true},
		{"client error", &ClientError{StatusCode: 404}, false},
		{"wrapped client error", fmt.Errorf("wrap: %w", &ClientError{StatusCode: 400}), false},
		{"rate limit", &RateLimitError{RetryAfter: time.Second}, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestHeaderRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 5*time.Second, headerRetryAfter(resp))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, headerRetryAfter(resp))

	resp.Header.Set("Retry-After", "soon")
	assert.Equal(t, 5*time.Second, headerRetryAfter(resp))
}

func TestWebhook_Send(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   string
	}{
		{name: "success", statuses: []int{http.StatusNoContent}, wantCalls: 1},
		{name: "client error is final", statuses: []int{http.StatusBadRequest}, wantCalls: 1, wantErr: "client error"},
		{name: "server error retried", statuses: []int{http.StatusBadGateway, http.StatusOK}, wantCalls: 2},
		{name: "server error exhausts attempts", statuses: []int{http.StatusInternalServerError, http.StatusInternalServerError}, wantCalls: 2, wantErr: "test alert failed after 2 attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			h := &webhook{
				service:    "Test",
				url:        srv.URL,
				client:     srv.Client(),
				maxAttempt: 2,
				retryAfter: func(resp *http.Response, _ []byte) time.Duration { return headerRetryAfter(resp) },
				logger:     discardLogger(),
			}
			fastHook(h)

			err := h.send(context.Background(), "a", map[string]string{"text": "x"})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestWebhook_ErrorOmitsURL(t *testing.T) {
	secret := "http://127.0.0.1:1/api/webhooks/123/super-secret-token"
	h := &webhook{
		service:    "Test",
		url:        secret,
		client:     &http.Client{Timeout: time.Second},
		maxAttempt: 1,
		logger:     discardLogger(),
	}
	fastHook(h)

	err := h.send(context.Background(), "a", map[string]string{})
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "super-secret-token"), err.Error())
}

func TestWebhook_ContextCanceledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := &webhook{
		service:    "Test",
		url:        srv.URL,
		client:     srv.Client(),
		maxAttempt: 3,
		logger:     discardLogger(),
	}
	fastHook(h)
	h.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := h.send(ctx, "a", map[string]string{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
