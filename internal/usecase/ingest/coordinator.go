// Package ingest pulls batches from source adapters, scores every record and
// persists the admitted ones. Sources are isolated from each other: a slow or
// failing source never delays or corrupts another.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/observability/metrics"
	"itnews-radar/internal/observability/tracing"
	"itnews-radar/internal/repository"
	"itnews-radar/internal/usecase/relevance"
)

// DirectSource labels batches submitted through Ingest.
const DirectSource = "api"

// Source produces news items. Implementations need not validate them.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]entity.NewsItem, error)
}

// Scorer produces the score breakdown of one item. *relevance.Pipeline implements it.
type Scorer interface {
	Score(ctx context.Context, item entity.NewsItem) relevance.Result
}

// Config tunes the coordinator.
type Config struct {
	// Threshold is the admission threshold for scheduled batches.
	Threshold float64
	// FetchTimeout bounds one adapter fetch.
	FetchTimeout time.Duration
	// Interval is the default schedule of every source.
	Interval time.Duration
	// Intervals overrides Interval per source name.
	Intervals map[string]time.Duration
	// Workers is the size of the scoring pool.
	Workers int
	// Location is the scheduler time zone.
	Location *time.Location
	// OnRun, when set, is called after every source run with its summary or
	// error. It must not block.
	OnRun func(source string, summary *BatchSummary, err error)
	// OnStored, when set, is called for every item stored for the first
	// time. Replacements and duplicates are not reported. It must not block.
	OnStored func(item entity.ScoredItem)
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:    0.1,
		FetchTimeout: 30 * time.Second,
		Interval:     5 * time.Minute,
		Workers:      8,
		Location:     time.UTC,
	}
}

// Coordinator owns the source list, the scoring pool and the per-source state.
// It is safe for concurrent use.
type Coordinator struct {
	sources []Source
	scorer  Scorer
	store   repository.ItemStore
	cfg     Config
	logger  *slog.Logger
	pool    *ants.Pool

	mu     sync.RWMutex
	status map[string]*SourceStatus
	// running guards against overlapping runs of the same source.
	running map[string]*sync.Mutex

	scheduler *scheduler
}

// NewCoordinator validates the configuration and allocates the scoring pool.
// Call Close to release the pool.
func NewCoordinator(sources []Source, scorer Scorer, store repository.ItemStore, cfg Config, logger *slog.Logger) (*Coordinator, error) {
	if scorer == nil || store == nil {
		return nil, errors.New("NewCoordinator: scorer and store are required")
	}
	if err := entity.ValidateThreshold(cfg.Threshold); err != nil {
		return nil, fmt.Errorf("NewCoordinator: %w", err)
	}
	def := DefaultConfig()
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if logger == nil {
		logger = slog.Default()
	}

	status := make(map[string]*SourceStatus, len(sources))
	running := make(map[string]*sync.Mutex, len(sources))
	for _, s := range sources {
		name := s.Name()
		if name == "" || name == DirectSource {
			return nil, fmt.Errorf("NewCoordinator: invalid source name %q", name)
		}
		if _, dup := status[name]; dup {
			return nil, fmt.Errorf("NewCoordinator: duplicate source name %q", name)
		}
		status[name] = &SourceStatus{Name: name, Interval: cfg.intervalFor(name)}
		running[name] = &sync.Mutex{}
		metrics.SetSourceState(name, int(StateIdle))
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("NewCoordinator: scoring pool: %w", err)
	}

	return &Coordinator{
		sources: slices.Clone(sources),
		scorer:  scorer,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		status:  status,
		running: running,
	}, nil
}

func (c Config) intervalFor(name string) time.Duration {
	if d, ok := c.Intervals[name]; ok && d > 0 {
		return d
	}
	return c.Interval
}

// Threshold returns the admission threshold of scheduled batches.
func (c *Coordinator) Threshold() float64 { return c.cfg.Threshold }

// Sources returns the registered source names in registration order.
func (c *Coordinator) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// States returns a snapshot of every source's status, sorted by name.
func (c *Coordinator) States() []SourceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SourceStatus, 0, len(c.status))
	for _, s := range c.status {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b SourceStatus) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// RunOnce runs every source concurrently, once. Source failures are reported
// in the returned map and never fail the call; the error is ErrNoSources or
// the context error.
func (c *Coordinator) RunOnce(ctx context.Context) (map[string]*BatchSummary, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoSources
	}

	var mu sync.Mutex
	out := make(map[string]*BatchSummary, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range c.sources {
		g.Go(func() error {
			summary, err := c.runSource(gctx, src)
			if err != nil {
				return nil
			}
			mu.Lock()
			out[src.Name()] = summary
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// RunSource runs one named source now.
func (c *Coordinator) RunSource(ctx context.Context, name string) (*BatchSummary, error) {
	for _, src := range c.sources {
		if src.Name() == name {
			return c.runSource(ctx, src)
		}
	}
	return nil, fmt.Errorf("RunSource %q: %w", name, ErrUnknownSource)
}

// Ingest scores and stores items submitted directly, using threshold for
// admission. Per-record problems are reported in the summary, not as errors.
func (c *Coordinator) Ingest(ctx context.Context, items []entity.NewsItem, threshold float64) (*BatchSummary, error) {
	if err := entity.ValidateThreshold(threshold); err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}
	start := time.Now()
	summary := c.process(ctx, DirectSource, items, threshold)
	summary.Duration = time.Since(start)
	c.logSummary(summary)
	return summary, nil
}

// Close stops the scheduler, if started, and releases the scoring pool.
func (c *Coordinator) Close() {
	c.Stop()
	c.pool.Release()
}

func (c *Coordinator) runSource(ctx context.Context, src Source) (*BatchSummary, error) {
	name := src.Name()
	lock := c.running[name]
	if !lock.TryLock() {
		c.logger.Info("source still running, skipping", slog.String("source", name))
		return nil, fmt.Errorf("source %s: %w", name, ErrSourceBusy)
	}
	defer lock.Unlock()

	ctx, span := tracing.StartSpan(ctx, "ingest.source", attribute.String("source", name))
	defer span.End()

	start := time.Now()
	c.setFetching(name, start)

	items, err := c.fetch(ctx, src)
	if err != nil {
		outcome := "failure"
		if errors.Is(err, ErrSourceTimeout) {
			outcome = "timeout"
		}
		metrics.RecordSourceFetch(name, outcome, time.Since(start))
		tracing.RecordError(span, err)
		c.finish(name, nil, err)
		c.logger.Warn("source fetch failed",
			slog.String("source", name),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		c.notify(name, nil, err)
		return nil, err
	}
	metrics.RecordSourceFetch(name, "success", time.Since(start))
	metrics.RecordSourceItems(name, len(items))

	summary := c.process(ctx, name, items, c.cfg.Threshold)
	summary.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("batch.received", summary.TotalReceived),
		attribute.Int("batch.accepted", summary.Accepted),
	)
	c.finish(name, summary, nil)
	c.logSummary(summary)
	c.notify(name, summary, nil)
	return summary, nil
}

func (c *Coordinator) notify(source string, summary *BatchSummary, err error) {
	if c.cfg.OnRun != nil {
		c.cfg.OnRun(source, summary, err)
	}
}

type fetchResult struct {
	items []entity.NewsItem
	err   error
}

// fetch runs the adapter under the fetch timeout. When the deadline passes
// first the adapter is abandoned and its eventual result dropped.
func (c *Coordinator) fetch(ctx context.Context, src Source) ([]entity.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("source %s panicked: %v", src.Name(), r)}
			}
		}()
		items, err := src.Fetch(ctx)
		done <- fetchResult{items: items, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() != nil {
				return nil, fmt.Errorf("source %s: %w after %v", src.Name(), ErrSourceTimeout, c.cfg.FetchTimeout)
			}
			return nil, fmt.Errorf("source %s: %w", src.Name(), res.err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("source %s: %w after %v", src.Name(), ErrSourceTimeout, c.cfg.FetchTimeout)
		}
		return res.items, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("source %s: %w after %v", src.Name(), ErrSourceTimeout, c.cfg.FetchTimeout)
		}
		return nil, ctx.Err()
	}
}

// process scores the batch on the pool and stores admitted items. Results keep
// the input order.
func (c *Coordinator) process(ctx context.Context, source string, items []entity.NewsItem, threshold float64) *BatchSummary {
	results := make([]ItemResult, len(items))
	scoringErrors := make([]int, len(items))

	var wg sync.WaitGroup
	for i, raw := range items {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i], scoringErrors[i] = c.handle(ctx, raw, threshold)
		}
		if err := c.pool.Submit(task); err != nil {
			// Pool closed: score inline.
			task()
		}
	}
	wg.Wait()

	summary := &BatchSummary{
		Source:        source,
		Threshold:     threshold,
		TotalReceived: len(items),
		Items:         make([]ItemResult, 0, len(items)),
	}
	for i, r := range results {
		summary.add(r)
		summary.ScoringErrors += scoringErrors[i]
		metrics.RecordAdmission(source, string(r.Outcome))
	}
	if n, err := c.store.Count(ctx); err == nil {
		metrics.UpdateItemsStored(n)
	}
	return summary
}

// handle validates, scores, gates and stores one record.
func (c *Coordinator) handle(ctx context.Context, raw entity.NewsItem, threshold float64) (ItemResult, int) {
	item, err := raw.Normalize()
	if err != nil {
		return ItemResult{ID: raw.ID, Outcome: OutcomeInvalid, Err: err}, 0
	}

	scored := c.scorer.Score(ctx, item)
	res := ItemResult{ID: item.ID, Breakdown: scored.Breakdown}
	if !relevance.Admit(scored.Breakdown, threshold) {
		res.Outcome = OutcomeRejected
		return res, len(scored.Errors)
	}

	prior, getErr := c.store.Get(ctx, item.ID)
	hadPrior := getErr == nil

	stored := entity.ScoredItem{Item: item, Breakdown: scored.Breakdown}
	put, err := c.store.Put(ctx, stored)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("store: %w", err)
		c.logger.Error("failed to store item",
			slog.String("item_id", item.ID),
			slog.String("source", item.Source),
			slog.Any("error", err))
		return res, len(scored.Errors)
	}
	metrics.RecordStorePut(put.String())

	switch {
	case put == entity.PutIgnoredStale:
		res.Outcome = OutcomeDuplicate
	case put == entity.PutReplaced && hadPrior && prior.Item.Version == item.Version:
		res.Outcome = OutcomeDuplicate
	default:
		res.Outcome = OutcomeAccepted
		res.Replaced = put == entity.PutReplaced
		if !res.Replaced && c.cfg.OnStored != nil {
			c.cfg.OnStored(stored)
		}
	}
	return res, len(scored.Errors)
}

func (c *Coordinator) setFetching(name string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status[name]
	st.State = StateFetching
	st.LastRun = at
	st.Runs++
	metrics.SetSourceState(name, int(StateFetching))
}

// finish records Success or Failed, then returns the source to Idle.
func (c *Coordinator) finish(name string, summary *BatchSummary, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status[name]
	if err != nil {
		st.LastResult = StateFailed
		st.LastError = err.Error()
		st.Failures++
	} else {
		st.LastResult = StateSuccess
		st.LastError = ""
		st.LastSuccess = time.Now()
		st.LastSummary = summary
	}
	st.State = StateIdle
	metrics.SetSourceState(name, int(st.LastResult))
}

func (c *Coordinator) logSummary(s *BatchSummary) {
	c.logger.Info("batch ingested",
		slog.String("source", s.Source),
		slog.Int("received", s.TotalReceived),
		slog.Int("accepted", s.Accepted),
		slog.Int("rejected", s.Rejected),
		slog.Int("invalid", s.Invalid),
		slog.Int("duplicates", s.Duplicates),
		slog.Int("replaced", s.Replaced),
		slog.Int("failed", s.Failed),
		slog.Int("scoring_errors", s.ScoringErrors),
		slog.Duration("duration", s.Duration))
}
