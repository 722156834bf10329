package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const sampleListing = `{"data":{"children":[
 {"data":{"id":"pin","title":"Weekly thread","selftext":"","permalink":"/r/sysadmin/comments/pin/","created_utc":1740800000,"stickied":true}},
 {"data":{"id":"abc123","title":"Exchange server down after patch","selftext":"Anyone else <b>seeing</b> this?","permalink":"/r/sysadmin/comments/abc123/","created_utc":1740823200.0}},
 {"data":{"id":"def456","title":"Backup strategy question","selftext":"","permalink":"/r/sysadmin/comments/def456/","created_utc":1740819600}}
]}}`

func newTestReddit(t *testing.T, h http.HandlerFunc, maxItems int) *RedditSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s := NewRedditSource("reddit-sysadmin", "sysadmin", "", maxItems, srv.Client(), nil,
		WithRedditBaseURL(srv.URL),
		WithRedditLimiter(rate.NewLimiter(rate.Inf, 1)))
	s.retryConfig = fastRetry()
	return s
}

func TestRedditSource_Fetch(t *testing.T) {
	s := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/sysadmin/new.json", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(sampleListing))
	}, 5)

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "reddit_sysadmin_abc123", items[0].ID)
	assert.Equal(t, "reddit-sysadmin", items[0].Source)
	assert.Equal(t, "Anyone else seeing this?", items[0].Body)
	assert.Equal(t, DefaultRedditBaseURL+"/r/sysadmin/comments/abc123/", items[0].URL)
	assert.Equal(t, time.Unix(1740823200, 0).UTC(), items[0].PublishedAt)
	assert.Equal(t, "", items[1].Body)
}

func TestRedditSource_MaxItems(t *testing.T) {
	s := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleListing))
	}, 1)

	items, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "reddit_sysadmin_abc123", items[0].ID)
}

func TestRedditSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "forbidden", status: http.StatusForbidden},
		{name: "bad json", status: http.StatusOK, body: "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestReddit(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, 5)
			_, err := s.Fetch(context.Background())
			assert.ErrorContains(t, err, "r/sysadmin")
		})
	}
}
