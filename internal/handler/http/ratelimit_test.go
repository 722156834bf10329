package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rateLimitedHandler(l *IPRateLimiter) http.Handler {
	return l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestFrom(remote string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/retrieve", nil)
	req.RemoteAddr = remote
	return req
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(RateLimitConfig{Enabled: true, Limit: 2, Window: 2 * time.Second})
	l.now = func() time.Time { return now }
	h := rateLimitedHandler(l)

	tests := []struct {
		remote     string
		wantStatus int
		remaining  string
	}{
		{"10.0.0.1:1234", http.StatusOK, "1"},
		{"10.0.0.1:1235", http.StatusOK, "0"},
		{"10.0.0.1:1236", http.StatusTooManyRequests, "0"},
		{"10.0.0.2:1234", http.StatusOK, "1"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom(tt.remote))
		assert.Equal(t, tt.wantStatus, rec.Code, tt.remote)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, tt.remaining, rec.Header().Get("X-RateLimit-Remaining"), tt.remote)
		if tt.wantStatus == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.JSONEq(t, `{"error":"rate limit exceeded","retry_after":1}`, rec.Body.String())
		}
	}

	// One token refills every second.
	now = now.Add(time.Second)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPRateLimiter_EvictsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute})
	l.now = func() time.Time { return now }
	h := rateLimitedHandler(l)

	h.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:1"))
	h.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.2:1"))
	assert.Len(t, l.visitors, 2)

	now = now.Add(2 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.3:1"))
	assert.Len(t, l.visitors, 1)
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	l := NewIPRateLimiter(RateLimitConfig{Enabled: false, Limit: 1, Window: time.Minute})
	h := rateLimitedHandler(l)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:1"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"remote addr", "192.168.1.5:4000", "", false, "192.168.1.5"},
		{"ipv6", "[::1]:4000", "", false, "::1"},
		{"forwarded ignored", "192.168.1.5:4000", "203.0.113.7", false, "192.168.1.5"},
		{"forwarded trusted", "192.168.1.5:4000", "203.0.113.7, 10.0.0.1", true, "203.0.113.7"},
		{"invalid forwarded falls back", "192.168.1.5:4000", "garbage", true, "192.168.1.5"},
		{"unparseable remote", "pipe", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFrom(tt.remote)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trustProxy))
		})
	}
}
