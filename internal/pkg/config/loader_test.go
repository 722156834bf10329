package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("RADAR_TEST_STRING", "")
	assert.Equal(t, "def", LoadEnvString("RADAR_TEST_STRING", "def"))

	t.Setenv("RADAR_TEST_STRING", "  value ")
	assert.Equal(t, "value", LoadEnvString("RADAR_TEST_STRING", "def"))
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		want     time.Duration
		fallback bool
	}{
		{"unset", "", 5 * time.Minute, false},
		{"valid", "90s", 90 * time.Second, false},
		{"unparsable", "soon", 5 * time.Minute, true},
		{"fails validation", "-1m", 5 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RADAR_TEST_DURATION", tt.env)
			r := LoadEnvDuration("RADAR_TEST_DURATION", 5*time.Minute, ValidatePositiveDuration)
			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.fallback, r.FallbackApplied)
			if tt.fallback {
				assert.Contains(t, r.Warning, "RADAR_TEST_DURATION")
			} else {
				assert.Empty(t, r.Warning)
			}
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	tests := []struct {
		env      string
		want     int
		fallback bool
	}{
		{"", 8, false},
		{"16", 16, false},
		{"1.5", 8, true},
		{"0", 8, true},
		{"abc", 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("RADAR_TEST_INT", tt.env)
			r := LoadEnvInt("RADAR_TEST_INT", 8, func(v int) error { return ValidateIntRange(v, 1, 64) })
			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.fallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvFloat(t *testing.T) {
	tests := []struct {
		env      string
		want     float64
		fallback bool
	}{
		{"", 0.1, false},
		{"0", 0, false},
		{"1", 1, false},
		{"0.35", 0.35, false},
		{"1.01", 0.1, true},
		{"-0.2", 0.1, true},
		{"NaN", 0.1, true},
		{"high", 0.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("RADAR_TEST_FLOAT", tt.env)
			r := LoadEnvFloat("RADAR_TEST_FLOAT", 0.1, ValidateThreshold)
			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.fallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		env      string
		want     bool
		fallback bool
	}{
		{"", true, false},
		{"false", false, false},
		{"0", false, false},
		{"TRUE", true, false},
		{"yes", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("RADAR_TEST_BOOL", tt.env)
			r := LoadEnvBool("RADAR_TEST_BOOL", true)
			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.fallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvWithFallback_OneOf(t *testing.T) {
	t.Setenv("RADAR_TEST_BACKEND", "Postgres")
	r := LoadEnvWithFallback("RADAR_TEST_BACKEND", "memory", OneOf("memory", "postgres"))
	assert.Equal(t, "Postgres", r.Value)
	assert.False(t, r.FallbackApplied)

	t.Setenv("RADAR_TEST_BACKEND", "mongo")
	r = LoadEnvWithFallback("RADAR_TEST_BACKEND", "memory", OneOf("memory", "postgres"))
	assert.Equal(t, "memory", r.Value)
	assert.Contains(t, r.Warning, "must be one of memory, postgres")
}

func TestTracker(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	m := NewConfigMetricsWith("radar_test", reg)
	tr := NewTracker(slog.New(slog.NewJSONHandler(&buf, nil)), m)

	t.Setenv("RADAR_TEST_WORKERS", "many")
	t.Setenv("RADAR_TEST_TZ", "UTC")
	workers := Track(tr, "workers", LoadEnvInt("RADAR_TEST_WORKERS", 8, nil))
	tz := Track(tr, "timezone", LoadEnvWithFallback("RADAR_TEST_TZ", "Asia/Tokyo", ValidateTimezone))
	tr.Done()

	assert.Equal(t, 8, workers)
	assert.Equal(t, "UTC", tz)
	assert.True(t, tr.FallbackApplied())
	assert.Contains(t, buf.String(), "configuration fallback applied")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("workers")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("timezone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	require.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)
}

func TestTracker_NilMetrics(t *testing.T) {
	tr := NewTracker(nil, nil)
	t.Setenv("RADAR_TEST_INT", "x")
	assert.Equal(t, 3, Track(tr, "n", LoadEnvInt("RADAR_TEST_INT", 3, nil)))
	assert.NotPanics(t, tr.Done)
}
