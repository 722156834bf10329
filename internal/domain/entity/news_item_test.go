package entity

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItem() NewsItem {
	return NewsItem{
		ID:          "t1",
		Source:      "mock",
		Title:       "Critical Security Vulnerability in Apache Log4j",
		Body:        "zero-day RCE",
		PublishedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewsItem_Normalize(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(n *NewsItem)
		wantField string
		check     func(t *testing.T, n NewsItem)
	}{
		{
			name:   "defaults version to 1",
			mutate: func(n *NewsItem) {},
			check: func(t *testing.T, n NewsItem) {
				assert.Equal(t, DefaultVersion, n.Version)
			},
		},
		{
			name: "trims identity fields",
			mutate: func(n *NewsItem) {
				n.ID = "  t1 "
				n.Source = "\tmock\n"
				n.Title = "  title  "
				n.Body = "   "
			},
			check: func(t *testing.T, n NewsItem) {
				assert.Equal(t, "t1", n.ID)
				assert.Equal(t, "mock", n.Source)
				assert.Equal(t, "title", n.Title)
				assert.Empty(t, n.Body)
			},
		},
		{
			name:   "keeps explicit version",
			mutate: func(n *NewsItem) { n.Version = 7 },
			check: func(t *testing.T, n NewsItem) {
				assert.Equal(t, int64(7), n.Version)
			},
		},
		{name: "missing id", mutate: func(n *NewsItem) { n.ID = "   " }, wantField: "id"},
		{name: "missing source", mutate: func(n *NewsItem) { n.Source = "" }, wantField: "source"},
		{name: "missing title", mutate: func(n *NewsItem) { n.Title = "" }, wantField: "title"},
		{name: "missing published_at", mutate: func(n *NewsItem) { n.PublishedAt = time.Time{} }, wantField: "published_at"},
		{name: "negative version", mutate: func(n *NewsItem) { n.Version = -1 }, wantField: "version"},
		{name: "bad url scheme", mutate: func(n *NewsItem) { n.URL = "ftp://example.com/x" }, wantField: "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validItem()
			tt.mutate(&in)

			out, err := in.Normalize()
			if tt.wantField != "" {
				require.Error(t, err)
				var vErr *ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tt.wantField, vErr.Field)
				assert.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestNewsItem_NormalizeDoesNotMutateReceiver(t *testing.T) {
	in := validItem()
	in.ID = " padded "

	_, err := in.Normalize()
	require.NoError(t, err)
	assert.Equal(t, " padded ", in.ID)
	assert.Zero(t, in.Version)
}

func TestNewsItem_Text(t *testing.T) {
	assert.Equal(t, "a b", NewsItem{Title: "a", Body: "b"}.Text())
	assert.Equal(t, "a", NewsItem{Title: "a"}.Text())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "title", Message: "title is required"}
	assert.Equal(t, "validation error on field 'title': title is required", err.Error())
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.5, 1} {
		assert.NoError(t, ValidateThreshold(v), v)
	}
	for _, v := range []float64{-0.01, 1.01, math.NaN()} {
		assert.ErrorIs(t, ValidateThreshold(v), ErrValidationFailed, v)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-0.3))
	assert.Equal(t, 1.0, ClampScore(1.2))
	assert.Equal(t, 0.42, ClampScore(0.42))
	assert.Equal(t, 0.0, ClampScore(math.NaN()))
}

func TestPutResult_String(t *testing.T) {
	assert.Equal(t, "inserted", PutInserted.String())
	assert.Equal(t, "replaced", PutReplaced.String())
	assert.Equal(t, "ignored_stale", PutIgnoredStale.String())
	assert.Equal(t, "unknown", PutResult(99).String())
}
