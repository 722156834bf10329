package embedding

import (
	"fmt"
	"log/slog"

	"itnews-radar/internal/config"
	"itnews-radar/internal/resilience/circuitbreaker"
	"itnews-radar/internal/usecase/relevance"
)

// New builds the embedder selected by cfg.Provider.
func New(cfg *config.EmbeddingConfig, logger *slog.Logger) (relevance.Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cb := breakerConfig(cfg)

	switch cfg.Provider {
	case config.EmbedderHashing:
		logger.Info("using hashing embedder", slog.Int("dimensions", cfg.Dimensions))
		return NewHashingEmbedder(cfg.Dimensions), nil
	case config.EmbedderOpenAI:
		return NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Model,
			WithCircuitBreaker(cb),
			WithTimeout(cfg.Timeout),
			WithLogger(logger),
		), nil
	case config.EmbedderLocal:
		logger.Info("using local embedding server",
			slog.String("base_url", cfg.BaseURL),
			slog.String("model", cfg.Model))
		return NewLocalEmbedder(cfg.BaseURL, cfg.Model, cfg.Timeout, cb)
	default:
		return nil, fmt.Errorf("embedding.New: unknown provider %q", cfg.Provider)
	}
}

func breakerConfig(cfg *config.EmbeddingConfig) circuitbreaker.Config {
	cb := circuitbreaker.EmbeddingAPIConfig()
	cb.Name = cfg.Provider + "-embedding"
	cb.MaxRequests = cfg.CircuitBreaker.MaxRequests
	cb.Interval = cfg.CircuitBreaker.Interval
	cb.Timeout = cfg.CircuitBreaker.Timeout
	cb.FailureThreshold = cfg.CircuitBreaker.FailureThreshold
	cb.MinRequests = cfg.CircuitBreaker.MinRequests
	return cb
}
