package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itnews-radar/internal/config"
)

func TestSlackNotifier_buildBlockKitPayload(t *testing.T) {
	n := NewSlackNotifier(config.WebhookConfig{Enabled: true, URL: "https://hooks.slack.com/services/x", Timeout: time.Second}, discardLogger())

	t.Run("all fields", func(t *testing.T) {
		payload := n.buildBlockKitPayload(sampleItem())

		assert.Equal(t, "Critical OpenSSL vulnerability patched - hackernews", payload.Text)
		require.Len(t, payload.Blocks, 2)

		section := payload.Blocks[0]
		assert.Equal(t, "section", section.Type)
		require.NotNil(t, section.Text)
		assert.Equal(t, "mrkdwn", section.Text.Type)
		assert.Equal(t, "*<https://example.com/openssl|Critical OpenSSL vulnerability patched>*\n\nA remote code execution flaw was fixed.", section.Text.Text)

		ctxBlock := payload.Blocks[1]
		assert.Equal(t, "context", ctxBlock.Type)
		require.Len(t, ctxBlock.Elements, 1)
		assert.Equal(t,
			"hackernews • 2026-10-01T12:00:00Z • Relevance 0.90 · keywords: vulnerability, rce · topics: security",
			ctxBlock.Elements[0].Text)
	})

	t.Run("no url renders plain title", func(t *testing.T) {
		item := sampleItem()
		item.Item.URL = ""
		payload := n.buildBlockKitPayload(item)
		assert.True(t, strings.HasPrefix(payload.Blocks[0].Text.Text, "*Critical OpenSSL vulnerability patched*"))
	})

	t.Run("long text truncated", func(t *testing.T) {
		item := sampleItem()
		item.Item.Title = strings.Repeat("t", 200)
		item.Item.Body = strings.Repeat("b", 4000)

		payload := n.buildBlockKitPayload(item)
		assert.Len(t, payload.Text, maxFallbackLength)
		assert.Len(t, payload.Blocks[0].Text.Text, maxSectionTextLength)
		assert.True(t, strings.HasSuffix(payload.Blocks[0].Text.Text, truncationSuffix))
	})
}

func TestSlackNotifier_Send(t *testing.T) {
	var got SlackWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL, Timeout: time.Second}, discardLogger())
	fastHook(n.hook)

	require.NoError(t, n.Send(context.Background(), sampleItem()))
	assert.Equal(t, "Critical OpenSSL vulnerability patched - hackernews", got.Text)
	assert.Equal(t, "slack", n.Name())
}

func TestSlackNotifier_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL, Timeout: time.Second}, discardLogger())
	fastHook(n.hook)

	err := n.Send(context.Background(), sampleItem())
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusForbidden, clientErr.StatusCode)
	assert.Contains(t, clientErr.Error(), "invalid_token")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSlackNotifier_RateLimitUsesHeader(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(config.WebhookConfig{Enabled: true, URL: srv.URL, Timeout: time.Second}, discardLogger())
	fastHook(n.hook)

	require.NoError(t, n.Send(context.Background(), sampleItem()))
	assert.Equal(t, int32(2), calls.Load())
}
