package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/resilience/circuitbreaker"
)

const (
	workerPoolTimeout   = 5 * time.Second
	notificationTimeout = 30 * time.Second
)

// Config controls which items are alerted on and how many sends run at once.
type Config struct {
	// Threshold is the minimum final score that triggers an alert.
	Threshold     float64
	MaxConcurrent int
}

// ChannelHealthStatus represents the health of one alert channel.
type ChannelHealthStatus struct {
	Name               string `json:"name"`
	State              string `json:"state"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
}

// Service fans alerts out to every configured channel.
type Service struct {
	channels []Channel
	breakers map[string]*circuitbreaker.CircuitBreaker
	cfg      Config
	logger   *slog.Logger

	workerPool     chan struct{}
	acquireTimeout time.Duration
	sendTimeout    time.Duration

	mu             sync.Mutex
	closed         bool
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewService creates a service for channels. MaxConcurrent below 1 is treated as 1.
func NewService(channels []Channel, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	s := &Service{
		channels:       channels,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker, len(channels)),
		cfg:            cfg,
		logger:         logger,
		workerPool:     make(chan struct{}, cfg.MaxConcurrent),
		acquireTimeout: workerPoolTimeout,
		sendTimeout:    notificationTimeout,
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
	for _, ch := range channels {
		s.breakers[ch.Name()] = circuitbreaker.New(circuitbreaker.WebhookConfig("alert-" + ch.Name()))
	}
	return s
}

// NotifyStored dispatches an alert for item if its final score reaches the
// threshold. It returns immediately; delivery failures are logged and counted
// but never reported to the caller.
func (s *Service) NotifyStored(item entity.ScoredItem) {
	if item.Breakdown.FinalScore < s.cfg.Threshold || len(s.channels) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	alertID := uuid.NewString()
	s.logger.Info("dispatching relevance alert",
		slog.String("alert_id", alertID),
		slog.String("item_id", item.Item.ID),
		slog.String("source", item.Item.Source),
		slog.Float64("final_score", item.Breakdown.FinalScore),
		slog.Int("channels", len(s.channels)))

	for _, ch := range s.channels {
		s.wg.Add(1)
		go s.notifyChannel(alertID, ch, item)
	}
}

func (s *Service) notifyChannel(alertID string, ch Channel, item entity.ScoredItem) {
	defer s.wg.Done()

	activeAlerts.Inc()
	defer activeAlerts.Dec()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in alert channel",
				slog.String("alert_id", alertID),
				slog.String("channel", ch.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	timer := time.NewTimer(s.acquireTimeout)
	defer timer.Stop()
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-timer.C:
		s.logger.Warn("alert dropped",
			slog.String("alert_id", alertID),
			slog.String("channel", ch.Name()),
			slog.Any("error", ErrNotificationDropped))
		recordDropped(ch.Name(), "pool_full")
		return
	case <-s.shutdownCtx.Done():
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, s.sendTimeout)
	defer cancel()

	recordDispatch(ch.Name())
	start := time.Now()
	_, err := s.breakers[ch.Name()].Execute(func() (interface{}, error) {
		return nil, ch.Send(ctx, item)
	})
	duration := time.Since(start)

	if circuitbreaker.IsRejection(err) {
		s.logger.Warn("alert dropped",
			slog.String("alert_id", alertID),
			slog.String("channel", ch.Name()),
			slog.Any("error", ErrCircuitBreakerOpen))
		recordDropped(ch.Name(), "circuit_open")
		return
	}

	recordResult(ch.Name(), err, duration)
	if err != nil {
		s.logger.Warn("alert failed",
			slog.String("alert_id", alertID),
			slog.String("channel", ch.Name()),
			slog.String("item_id", item.Item.ID),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}
	s.logger.Info("alert sent",
		slog.String("alert_id", alertID),
		slog.String("channel", ch.Name()),
		slog.String("item_id", item.Item.ID),
		slog.Duration("send_duration", duration))
}

// ChannelHealth returns the breaker state of every channel.
func (s *Service) ChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		cb := s.breakers[ch.Name()]
		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			State:              cb.State().String(),
			CircuitBreakerOpen: cb.IsOpen(),
		})
	}
	return statuses
}

// Shutdown stops accepting alerts and waits for in-flight sends. Sends still
// running when ctx is done are canceled.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.shutdownCancel()
		s.logger.Info("alert service shutdown complete")
		return nil
	case <-ctx.Done():
		s.shutdownCancel()
		s.logger.Warn("alert service shutdown timeout, canceling in-flight alerts")
		return ctx.Err()
	}
}
