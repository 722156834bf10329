package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"itnews-radar/internal/usecase/ingest"
)

// SourceStates exposes per-source ingestion status.
type SourceStates interface {
	States() []ingest.SourceStatus
}

// HealthServer serves the worker probes:
//   - GET /health: liveness, always 200
//   - GET /health/ready: 200 once SetReady(true) was called, 503 before
//   - GET /health/sources: per-source state; 503 when every source failed its last run
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	sources SourceStates
	ready   atomic.Bool
	server  *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
}

type sourceState struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	LastResult  string `json:"last_result"`
	Runs        int    `json:"runs"`
	Failures    int    `json:"failures"`
	LastSuccess string `json:"last_success,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

type sourcesResponse struct {
	Status  string        `json:"status"`
	Sources []sourceState `json:"sources"`
}

// NewHealthServer returns a server that is not ready yet. sources may be nil.
func NewHealthServer(addr string, sources SourceStates, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{addr: addr, sources: sources, logger: logger}
}

// Handler returns the probe mux.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	mux.HandleFunc("GET /health/sources", h.handleSources)
	return mux
}

// Start serves until ctx is cancelled, then shuts down within 5s. It returns
// http.ErrServerClosed after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (h *HealthServer) Serve(ctx context.Context, ln net.Listener) error {
	h.server = &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", ln.Addr().String()))
		errCh <- h.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		h.write(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
}

func (h *HealthServer) handleSources(w http.ResponseWriter, _ *http.Request) {
	if h.sources == nil {
		h.write(w, http.StatusOK, sourcesResponse{Status: "ok", Sources: []sourceState{}})
		return
	}
	states := h.sources.States()
	resp := sourcesResponse{Status: "ok", Sources: make([]sourceState, 0, len(states))}
	failed := 0
	for _, s := range states {
		st := sourceState{
			Name:       s.Name,
			State:      s.State.String(),
			LastResult: s.LastResult.String(),
			Runs:       s.Runs,
			Failures:   s.Failures,
			LastError:  s.LastError,
		}
		if !s.LastSuccess.IsZero() {
			st.LastSuccess = s.LastSuccess.UTC().Format(time.RFC3339)
		}
		if !s.Healthy() {
			failed++
		}
		resp.Sources = append(resp.Sources, st)
	}

	code := http.StatusOK
	switch {
	case len(states) > 0 && failed == len(states):
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	case failed > 0:
		resp.Status = "degraded"
	}
	h.write(w, code, resp)
}

func (h *HealthServer) write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
