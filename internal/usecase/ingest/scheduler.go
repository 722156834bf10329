package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type scheduler struct {
	cron   *cron.Cron
	cancel context.CancelFunc
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Start schedules every source on its own "@every" entry and returns
// immediately. Runs of one source never overlap; a run still in progress at
// the next tick is skipped. With runNow, every source also runs once right away.
func (c *Coordinator) Start(ctx context.Context, runNow bool) error {
	if len(c.sources) == 0 {
		return ErrNoSources
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scheduler != nil {
		return fmt.Errorf("Start: scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{logger: c.logger}
	cr := cron.New(
		cron.WithLocation(c.cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	for _, src := range c.sources {
		interval := c.cfg.intervalFor(src.Name())
		spec := "@every " + interval.String()
		if _, err := cr.AddFunc(spec, func() { _, _ = c.runSource(runCtx, src) }); err != nil {
			cancel()
			return fmt.Errorf("Start: schedule source %s: %w", src.Name(), err)
		}
		c.logger.Info("source scheduled",
			slog.String("source", src.Name()),
			slog.Duration("interval", interval))
	}

	cr.Start()
	c.scheduler = &scheduler{cron: cr, cancel: cancel}

	if runNow {
		go func() { _, _ = c.RunOnce(runCtx) }()
	}
	return nil
}

// Stop cancels in-flight fetches and waits up to 30s for running jobs.
// It is a no-op when the scheduler is not running.
func (c *Coordinator) Stop() {
	c.StopWithTimeout(30 * time.Second)
}

// StopWithTimeout is Stop with an explicit wait bound.
func (c *Coordinator) StopWithTimeout(timeout time.Duration) {
	c.mu.Lock()
	s := c.scheduler
	c.scheduler = nil
	c.mu.Unlock()
	if s == nil {
		return
	}

	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		c.logger.Info("ingestion scheduler stopped")
	case <-time.After(timeout):
		c.logger.Warn("ingestion scheduler stop timed out", slog.Duration("timeout", timeout))
	}
}

// Running reports whether the scheduler is started.
func (c *Coordinator) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scheduler != nil
}
