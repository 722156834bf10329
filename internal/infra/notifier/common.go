// Package notifier delivers relevance alerts to chat webhooks (Discord and
// Slack). Each notifier rate limits itself, retries transient failures and
// never logs the webhook URL, which embeds the credential.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"itnews-radar/internal/domain/entity"
)

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// isRetryableError reports whether err is worth retrying. Client errors are
// final; rate limits are handled separately.
func isRetryableError(err error) bool {
	var clientErr *ClientError
	var rateLimitErr *RateLimitError
	switch {
	case errors.As(err, &clientErr), errors.As(err, &rateLimitErr):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// truncate cuts text to at most maxLen bytes on a rune boundary, appending
// suffix when anything was cut.
func truncate(text string, maxLen int, suffix string) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen - len(suffix)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + suffix
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func joinTerms(terms []string) string {
	return strings.Join(terms, ", ")
}

// scoreLine renders the score and the matched terms on one line.
func scoreLine(item entity.ScoredItem) string {
	line := "Relevance " + formatScore(item.Breakdown.FinalScore)
	if kw := joinTerms(item.Breakdown.MatchedKeywords); kw != "" {
		line += " · keywords: " + kw
	}
	if tp := joinTerms(item.Breakdown.MatchedTopics); tp != "" {
		line += " · topics: " + tp
	}
	return line
}

// webhook is the transport shared by the Discord and Slack notifiers.
type webhook struct {
	service    string
	url        string
	client     *http.Client
	limiter    *rate.Limiter
	maxAttempt int
	baseDelay  time.Duration
	logger     *slog.Logger
	// retryAfter extracts the server-requested backoff from a 429 response.
	retryAfter func(resp *http.Response, body []byte) time.Duration
}

// post sends one JSON payload and classifies the response.
func (w *webhook) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		// The URL carries the token; report only the cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.service + " rate limit exceeded",
			RetryAfter: w.retryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", w.service, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", w.service, string(body)),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

// send waits for the rate limiter, then posts with retries. 429 responses
// sleep for the server-provided delay; 5xx and network errors back off
// linearly; 4xx errors fail immediately.
func (w *webhook) send(ctx context.Context, itemID string, payload any) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempt; attempt++ {
		err := w.post(ctx, payload)
		if err == nil {
			w.logger.Info("alert delivered",
				slog.String("channel", w.service),
				slog.String("item_id", itemID),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		var rl *RateLimitError
		var delay time.Duration
		switch {
		case errors.As(err, &rl):
			delay = rl.RetryAfter
			w.logger.Warn("webhook rate limit hit, backing off",
				slog.String("channel", w.service),
				slog.String("item_id", itemID),
				slog.Duration("retry_after", delay),
				slog.Int("attempt", attempt))
		case !isRetryableError(err):
			w.logger.Error("alert failed with non-retryable error",
				slog.String("channel", w.service),
				slog.String("item_id", itemID),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		default:
			delay = w.baseDelay * time.Duration(attempt)
			w.logger.Warn("webhook request failed, retrying",
				slog.String("channel", w.service),
				slog.String("item_id", itemID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
		}
		if attempt == w.maxAttempt {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
		}
	}
	return fmt.Errorf("%s alert failed after %d attempts: %w", strings.ToLower(w.service), w.maxAttempt, lastErr)
}

// headerRetryAfter reads a Retry-After header in seconds, defaulting to 5s.
func headerRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}
