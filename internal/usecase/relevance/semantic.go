package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
)

// Embedder encodes texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// TopicCache persists reference topic embeddings between processes.
// Implementations key entries by embedding model so a model change never
// mixes vector spaces.
type TopicCache interface {
	LoadTopicEmbeddings(ctx context.Context, model string) (map[string][]float32, error)
	SaveTopicEmbeddings(ctx context.Context, model string, embeddings map[string][]float32) error
}

// SemanticConfig configures a SemanticScorer.
type SemanticConfig struct {
	// Topics are the reference descriptions compared against every item.
	Topics []string
	// TopicThreshold is the similarity a topic must exceed to be reported as matched.
	TopicThreshold float64
	// Cache is optional. When set, warmup reads and writes topic embeddings through it.
	Cache TopicCache
	// ModelKey identifies the embedding space in the cache.
	ModelKey string
	Logger   *slog.Logger
}

type topicIndex struct {
	labels  []string
	vectors [][]float32
	dim     int
}

// SemanticScorer scores text by its strongest cosine similarity to a fixed
// list of reference topics. Topic embeddings are computed once per scorer and
// shared by all callers; concurrent first calls wait for one initialization.
type SemanticScorer struct {
	embedder Embedder
	cfg      SemanticConfig
	logger   *slog.Logger

	mu    sync.Mutex
	index atomic.Pointer[topicIndex]
}

// NewSemanticScorer creates a scorer. Topic embeddings are computed lazily on
// the first Score call or eagerly via Warmup.
func NewSemanticScorer(embedder Embedder, cfg SemanticConfig) (*SemanticScorer, error) {
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("NewSemanticScorer: %w", ErrEmptyProfile)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticScorer{
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Warmup computes the topic embeddings if they are not ready yet.
// A failed warmup is not remembered; the next call tries again.
func (s *SemanticScorer) Warmup(ctx context.Context) error {
	_, err := s.topics(ctx)
	return err
}

// Ready reports whether topic embeddings are available.
func (s *SemanticScorer) Ready() bool {
	return s.index.Load() != nil
}

// Score returns the maximum topic similarity clamped to [0, 1] and the topics
// whose similarity exceeds the configured topic threshold.
func (s *SemanticScorer) Score(ctx context.Context, text string) (Signal, error) {
	idx, err := s.topics(ctx)
	if err != nil {
		return Signal{}, err
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return Signal{}, fmt.Errorf("SemanticScorer.Score: embed: %w", err)
	}
	if len(vecs) != 1 {
		return Signal{}, fmt.Errorf("SemanticScorer.Score: %w: got %d vectors for 1 text", ErrEmbeddingCount, len(vecs))
	}
	if len(vecs[0]) != idx.dim {
		return Signal{}, fmt.Errorf("SemanticScorer.Score: %w: got %d, topics have %d", ErrDimensionMismatch, len(vecs[0]), idx.dim)
	}

	var best float64
	var matched []string
	for i, tv := range idx.vectors {
		sim := cosine(vecs[0], tv)
		if sim > best {
			best = sim
		}
		if sim > s.cfg.TopicThreshold {
			matched = append(matched, idx.labels[i])
		}
	}
	slices.Sort(matched)

	return Signal{Score: min(max(best, 0), 1), Matches: matched}, nil
}

// topics returns the cached index, building it under the mutex on first use.
func (s *SemanticScorer) topics(ctx context.Context) (*topicIndex, error) {
	if idx := s.index.Load(); idx != nil {
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.index.Load(); idx != nil {
		return idx, nil
	}

	idx, err := s.buildIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("SemanticScorer: warm up topic embeddings: %w", err)
	}
	s.index.Store(idx)
	s.logger.Info("topic embeddings ready",
		slog.Int("topics", len(idx.labels)),
		slog.Int("dimensions", idx.dim))
	return idx, nil
}

func (s *SemanticScorer) buildIndex(ctx context.Context) (*topicIndex, error) {
	if s.cfg.Cache != nil {
		cached, err := s.cfg.Cache.LoadTopicEmbeddings(ctx, s.cfg.ModelKey)
		if err != nil {
			s.logger.Warn("topic embedding cache unavailable",
				slog.String("model", s.cfg.ModelKey),
				slog.Any("error", err))
		} else if idx, ok := indexFromCache(s.cfg.Topics, cached); ok {
			return idx, nil
		}
	}

	vecs, err := s.embedder.Embed(ctx, s.cfg.Topics)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(s.cfg.Topics) {
		return nil, fmt.Errorf("%w: got %d vectors for %d topics", ErrEmbeddingCount, len(vecs), len(s.cfg.Topics))
	}

	idx := &topicIndex{labels: slices.Clone(s.cfg.Topics), vectors: vecs}
	for i, v := range vecs {
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: topic %q has %d dimensions, expected %d", ErrDimensionMismatch, s.cfg.Topics[i], len(v), idx.dim)
		}
	}

	if s.cfg.Cache != nil {
		entries := make(map[string][]float32, len(vecs))
		for i, v := range vecs {
			entries[s.cfg.Topics[i]] = v
		}
		if err := s.cfg.Cache.SaveTopicEmbeddings(ctx, s.cfg.ModelKey, entries); err != nil {
			s.logger.Warn("failed to persist topic embeddings",
				slog.String("model", s.cfg.ModelKey),
				slog.Any("error", err))
		}
	}
	return idx, nil
}

// indexFromCache succeeds only when every topic is present with a consistent dimension.
func indexFromCache(topics []string, cached map[string][]float32) (*topicIndex, bool) {
	if len(cached) == 0 {
		return nil, false
	}
	idx := &topicIndex{labels: slices.Clone(topics), vectors: make([][]float32, 0, len(topics))}
	for i, t := range topics {
		v, ok := cached[t]
		if !ok || len(v) == 0 {
			return nil, false
		}
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, false
		}
		idx.vectors = append(idx.vectors, v)
	}
	return idx, true
}

// cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
