package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"itnews-radar/internal/resilience/circuitbreaker"
)

// LocalEmbedder talks to a self-hosted OpenAI-compatible embedding server.
type LocalEmbedder struct {
	embedder       embeddings.Embedder
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *slog.Logger
}

// NewLocalEmbedder creates an embedder for the server at baseURL (for
// example http://localhost:11434/v1) serving model.
func NewLocalEmbedder(baseURL, model string, timeout time.Duration, cbCfg circuitbreaker.Config) (*LocalEmbedder, error) {
	// Local servers do not authenticate, but the client requires a token.
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("NewLocalEmbedder: %w", err)
	}

	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("NewLocalEmbedder: %w", err)
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LocalEmbedder{
		embedder:       emb,
		timeout:        timeout,
		circuitBreaker: circuitbreaker.New(cbCfg),
		logger:         slog.Default().With(slog.String("component", "local-embedder")),
	}, nil
}

// Embed encodes texts through the server.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings", slog.Int("count", len(texts)))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vecs, err := circuitbreaker.Do(e.circuitBreaker, func() ([][]float32, error) {
		return e.embedder.EmbedDocuments(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("LocalEmbedder.Embed: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("LocalEmbedder.Embed: server returned %d embeddings for %d inputs", len(vecs), len(texts))
	}
	return vecs, nil
}
