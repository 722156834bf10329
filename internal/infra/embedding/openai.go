package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"itnews-radar/internal/resilience/circuitbreaker"
	"itnews-radar/internal/resilience/retry"
)

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client         *openai.Client
	model          openai.EmbeddingModel
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// OpenAIOption customizes an OpenAIEmbedder.
type OpenAIOption func(*openaiOptions)

type openaiOptions struct {
	baseURL string
	cb      circuitbreaker.Config
	retry   retry.Config
	timeout time.Duration
	logger  *slog.Logger
}

// WithOpenAIBaseURL points the client at a different API root, e.g. a proxy.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *openaiOptions) { o.baseURL = url }
}

// WithCircuitBreaker overrides the breaker settings.
func WithCircuitBreaker(cfg circuitbreaker.Config) OpenAIOption {
	return func(o *openaiOptions) { o.cb = cfg }
}

// WithRetry overrides the retry settings.
func WithRetry(cfg retry.Config) OpenAIOption {
	return func(o *openaiOptions) { o.retry = cfg }
}

// WithTimeout bounds each API call.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *openaiOptions) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OpenAIOption {
	return func(o *openaiOptions) { o.logger = l }
}

// NewOpenAIEmbedder creates an embedder for the given API key and model.
func NewOpenAIEmbedder(apiKey, model string, opts ...OpenAIOption) *OpenAIEmbedder {
	o := openaiOptions{
		cb:      circuitbreaker.EmbeddingAPIConfig(),
		retry:   retry.EmbeddingAPIConfig(),
		timeout: 15 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}

	o.logger.Info("initialized openai embedder", slog.String("model", model))
	return &OpenAIEmbedder{
		client:         openai.NewClientWithConfig(cfg),
		model:          openai.EmbeddingModel(model),
		timeout:        o.timeout,
		circuitBreaker: circuitbreaker.New(o.cb),
		retryConfig:    o.retry,
		logger:         o.logger.With(slog.String("component", "openai-embedder")),
	}
}

// Embed encodes texts in one API request. Vectors are returned in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var out [][]float32
	err := retry.WithBackoff(ctx, e.retryConfig, func() error {
		vecs, err := circuitbreaker.Do(e.circuitBreaker, func() ([][]float32, error) {
			return e.doEmbed(ctx, texts)
		})
		if err != nil {
			if circuitbreaker.IsRejection(err) {
				e.logger.Warn("openai embedding rejected by circuit breaker",
					slog.String("state", e.circuitBreaker.State().String()))
			}
			return err
		}
		out = vecs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAIEmbedder.Embed: %w", err)
	}
	return out, nil
}

func (e *OpenAIEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// classifyOpenAIError maps client errors carrying an HTTP status onto
// retry.HTTPError so the retry policy can see the status.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %v", &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: "request failed"}, err)
	}
	return err
}
