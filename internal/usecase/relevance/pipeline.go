package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"itnews-radar/internal/config"
	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/observability/metrics"
	"itnews-radar/internal/observability/tracing"
)

// Signal names used in logs and metrics.
const (
	SignalLexical  = "lexical"
	SignalSemantic = "semantic"
)

// Result is the outcome of scoring one item.
type Result struct {
	Breakdown entity.ScoreBreakdown
	// Errors holds scorer failures that were degraded to a zero signal, keyed by signal name.
	Errors map[string]error
}

// Pipeline runs the lexical and semantic scorers and aggregates their signals.
// It is the single entry point for producing a ScoreBreakdown.
type Pipeline struct {
	Lexical  Scorer
	Semantic Scorer
	Logger   *slog.Logger
}

// NewPipeline composes a pipeline from its two scorers.
func NewPipeline(lexical, semantic Scorer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Lexical: lexical, Semantic: semantic, Logger: logger}
}

// FromProfile builds both scorers from a scoring profile and composes them.
// The semantic scorer is returned as well so callers can warm it up and
// report its readiness.
func FromProfile(profile *config.ScoringProfile, embedder Embedder, cache TopicCache, modelKey string, logger *slog.Logger) (*Pipeline, *SemanticScorer, error) {
	lexical, err := NewLexicalScorer(profile.Categories)
	if err != nil {
		return nil, nil, err
	}
	semantic, err := NewSemanticScorer(embedder, SemanticConfig{
		Topics:         profile.Topics,
		TopicThreshold: profile.TopicThreshold,
		Cache:          cache,
		ModelKey:       modelKey,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return NewPipeline(lexical, semantic, logger), semantic, nil
}

// Score scores an item. A failing scorer contributes 0.0 and is reported in
// Result.Errors; Score itself never fails.
func (p *Pipeline) Score(ctx context.Context, item entity.NewsItem) Result {
	ctx, span := tracing.StartSpan(ctx, "relevance.score",
		attribute.String("item.id", item.ID),
		attribute.String("item.source", item.Source),
	)
	defer span.End()

	start := time.Now()
	text := item.Text()

	res := Result{}
	lex := p.run(ctx, SignalLexical, p.Lexical, text, item, &res)
	sem := p.run(ctx, SignalSemantic, p.Semantic, text, item, &res)

	res.Breakdown = Aggregate(entity.ScoreBreakdown{
		LexicalScore:    lex.Score,
		SemanticScore:   sem.Score,
		MatchedKeywords: nonNil(lex.Matches),
		MatchedTopics:   nonNil(sem.Matches),
	})

	span.SetAttributes(
		attribute.Float64("score.lexical", res.Breakdown.LexicalScore),
		attribute.Float64("score.semantic", res.Breakdown.SemanticScore),
		attribute.Float64("score.final", res.Breakdown.FinalScore),
	)
	metrics.RecordItemScored(res.Breakdown.FinalScore, time.Since(start))
	return res
}

func (p *Pipeline) run(ctx context.Context, name string, s Scorer, text string, item entity.NewsItem, res *Result) (sig Signal) {
	if s == nil {
		return Signal{}
	}

	defer func() {
		if r := recover(); r != nil {
			sig = Signal{}
			p.degrade(name, item, fmt.Errorf("%s scorer panic: %v", name, r), res)
		}
	}()

	sig, err := s.Score(ctx, text)
	if err != nil {
		p.degrade(name, item, err, res)
		return Signal{}
	}
	return sig
}

func (p *Pipeline) degrade(name string, item entity.NewsItem, err error, res *Result) {
	if res.Errors == nil {
		res.Errors = make(map[string]error, 2)
	}
	res.Errors[name] = err
	metrics.RecordScoringError(name)
	p.Logger.Warn("scorer failed, using zero signal",
		slog.String("signal", name),
		slog.String("item_id", item.ID),
		slog.String("source", item.Source),
		slog.Any("error", err))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
