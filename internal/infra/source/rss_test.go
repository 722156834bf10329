package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itnews-radar/internal/infra/fetcher"
	"itnews-radar/internal/resilience/retry"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Ops News</title>
  <item>
    <title>AWS us-east-1 outage</title>
    <guid>ops-1</guid>
    <link>https://example.com/aws</link>
    <description>&lt;p&gt;Elevated &lt;b&gt;error rates&lt;/b&gt;&lt;/p&gt;</description>
    <pubDate>Sat, 01 Mar 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Kernel patch released</title>
    <link>https://example.com/kernel</link>
    <description>Linux kernel security update</description>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
  <item>
    <title>Third item</title>
    <description>text</description>
  </item>
</channel>
</rss>`

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestRSSSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, feedUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	now := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	s := NewRSSSource("ops", srv.URL, 0, srv.Client(), nil, nil)
	s.now = func() time.Time { return now }

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "ops_ops-1", items[0].ID)
	assert.Equal(t, "ops", items[0].Source)
	assert.Equal(t, "Elevated error rates", items[0].Body)
	assert.Equal(t, "https://example.com/aws", items[0].URL)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), items[0].PublishedAt)

	assert.Equal(t, "ops_"+shortHash("https://example.com/kernel"), items[1].ID)
	assert.Equal(t, now, items[1].PublishedAt)

	assert.Equal(t, "ops_"+shortHash("Third item"), items[2].ID)
}

func TestRSSSource_MaxItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	items, err := NewRSSSource("ops", srv.URL, 1, srv.Client(), nil, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRSSSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	s := NewRSSSource("ops", srv.URL, 0, srv.Client(), nil, nil)
	s.retryConfig = fastRetry()

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRSSSource_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewRSSSource("ops", srv.URL, 0, srv.Client(), nil, nil)
	s.retryConfig = fastRetry()

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRSSSource_FullText(t *testing.T) {
	article := `<html><body><article><h1>Outage</h1><p>` +
		`The regional outage started at 09:00 UTC and affected load balancers, DNS resolution and managed databases across several availability zones. ` +
		`Engineers rolled back a faulty configuration change and services recovered over the following two hours.</p></article></body></html>`

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>x</title>
<item><title>Outage</title><guid>1</guid><link>` + srv.URL + `/article</link><description>short</description></item>
</channel></rss>`))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(article))
	})

	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false
	s := NewRSSSource("ops", srv.URL+"/feed", 0, srv.Client(), fetcher.NewReadabilityFetcher(cfg), nil)

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Body, "faulty configuration change")
}
