// Package http provides the HTTP middleware, health endpoints and metrics
// wiring shared by the radar's servers.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"itnews-radar/internal/repository"
	"itnews-radar/internal/usecase/ingest"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // healthy, degraded or unhealthy
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ReadinessReporter reports whether a component finished warming up.
type ReadinessReporter interface {
	Ready() bool
}

// SourceStates exposes per-source ingestion status.
type SourceStates interface {
	States() []ingest.SourceStatus
}

// HealthHandler reports storage, scoring and source health.
//
// A storage failure makes the service unhealthy (503). Failing sources or a
// semantic scorer that has not loaded its topic embeddings only degrade it:
// lexical scoring and retrieval keep working.
type HealthHandler struct {
	Store   repository.ItemStore
	Scoring ReadinessReporter // optional
	Sources SourceStates      // optional
	Version string
	Logger  *slog.Logger
}

// ServeHTTP performs the health checks and writes a HealthResponse.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"storage": h.checkStorage(ctx),
	}
	if h.Scoring != nil {
		checks["scoring"] = h.checkScoring()
	}
	if h.Sources != nil {
		checks["sources"] = h.checkSources()
	}

	status := StatusHealthy
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil && h.Logger != nil {
		h.Logger.Warn("health: failed to encode response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkStorage(ctx context.Context) CheckStatus {
	if h.Store == nil {
		return CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
	}
	if p, ok := h.Store.(repository.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return CheckStatus{Status: StatusUnhealthy, Message: err.Error()}
		}
	}
	n, err := h.Store.Count(ctx)
	if err != nil {
		return CheckStatus{Status: StatusUnhealthy, Message: err.Error()}
	}
	return CheckStatus{
		Status:  StatusHealthy,
		Details: map[string]any{"items": n},
	}
}

func (h *HealthHandler) checkScoring() CheckStatus {
	if !h.Scoring.Ready() {
		return CheckStatus{Status: StatusDegraded, Message: "topic embeddings not loaded"}
	}
	return CheckStatus{Status: StatusHealthy}
}

func (h *HealthHandler) checkSources() CheckStatus {
	states := h.Sources.States()
	details := make(map[string]any, len(states))
	failed := 0
	for _, s := range states {
		entry := map[string]any{
			"state":       s.State.String(),
			"last_result": s.LastResult.String(),
			"runs":        s.Runs,
			"failures":    s.Failures,
		}
		if !s.LastRun.IsZero() {
			entry["last_run"] = s.LastRun.UTC().Format(time.RFC3339)
		}
		if s.LastError != "" {
			entry["last_error"] = s.LastError
		}
		details[s.Name] = entry
		if !s.Healthy() {
			failed++
		}
	}
	if failed > 0 {
		return CheckStatus{Status: StatusDegraded, Message: "one or more sources failing", Details: details}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

// ReadyHandler handles readiness probes. The service is ready once storage
// answers.
type ReadyHandler struct {
	Store repository.ItemStore
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	if p, ok := h.Store.(repository.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler handles liveness probes.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
