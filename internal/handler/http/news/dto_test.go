package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePublished(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-12-10T15:30:00Z", time.Date(2024, 12, 10, 15, 30, 0, 0, time.UTC), true},
		{"2024-12-10T17:30:00+02:00", time.Date(2024, 12, 10, 15, 30, 0, 0, time.UTC), true},
		{"2024-12-10T15:30:00.123456Z", time.Date(2024, 12, 10, 15, 30, 0, 123456000, time.UTC), true},
		{"2024-12-10T15:30:00", time.Date(2024, 12, 10, 15, 30, 0, 0, time.UTC), true},
		{"2024-12-10 15:30:00", time.Date(2024, 12, 10, 15, 30, 0, 0, time.UTC), true},
		{"2024-12-10", time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), true},
		{"  2024-12-10  ", time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"10/12/2024", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parsePublished(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestItemRecord_ToEntity(t *testing.T) {
	it := ItemRecord{ID: "a", Source: "hn", Title: "t", PublishedAt: "nonsense", Version: 3}.ToEntity()
	assert.True(t, it.PublishedAt.IsZero())
	assert.EqualValues(t, 3, it.Version)
	assert.Equal(t, "hn", it.Source)
}
