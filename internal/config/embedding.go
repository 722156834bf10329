package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Embedding providers.
const (
	EmbedderHashing = "hashing"
	EmbedderOpenAI  = "openai"
	EmbedderLocal   = "local"
)

// EmbeddingConfig holds configuration for the semantic scorer's embedder.
type EmbeddingConfig struct {
	// Provider selects the embedder implementation.
	// Values: "hashing" (offline), "openai", "local" (OpenAI-compatible server).
	// Default: "hashing"
	Provider string

	// Model is the embedding model name passed to the provider.
	// Default: "text-embedding-3-small" for openai, "all-minilm" for local
	Model string

	// OpenAIAPIKey is required when Provider is "openai".
	OpenAIAPIKey string

	// BaseURL is the OpenAI-compatible endpoint used by the local provider.
	// Default: "http://localhost:11434/v1"
	BaseURL string

	// Dimensions is the vector size of the hashing embedder.
	// Default: 1024
	Dimensions int

	// Timeout bounds one embedding call.
	// Default: 15 seconds
	Timeout time.Duration

	// CircuitBreaker for remote embedding calls.
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig for remote call resilience.
type CircuitBreakerConfig struct {
	// MaxRequests in half-open state.
	MaxRequests uint32

	// Interval for clearing failure counts.
	Interval time.Duration

	// Timeout before transitioning from open to half-open.
	Timeout time.Duration

	// FailureThreshold ratio to trip circuit (0.0 to 1.0).
	FailureThreshold float64

	// MinRequests before calculating failure ratio.
	MinRequests uint32
}

// LoadEmbeddingConfig loads embedder configuration from environment variables.
// Returns a config with defaults if environment variables are not set.
func LoadEmbeddingConfig() (*EmbeddingConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("EMBEDDER", EmbedderHashing))

	defaultModel := "text-embedding-3-small"
	if provider == EmbedderLocal {
		defaultModel = "all-minilm"
	}

	config := &EmbeddingConfig{
		Provider:     provider,
		Model:        getEnvOrDefault("EMBEDDING_MODEL", defaultModel),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		BaseURL:      getEnvOrDefault("LOCAL_EMBEDDING_URL", "http://localhost:11434/v1"),
		Dimensions:   getEnvInt("HASHING_DIMENSIONS", 1024),
		Timeout:      getEnvDuration("EMBEDDING_TIMEOUT", 15*time.Second),
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      uint32(getEnvInt("EMBEDDING_CB_MAX_REQUESTS", 3)),
			Interval:         getEnvDuration("EMBEDDING_CB_INTERVAL", 60*time.Second),
			Timeout:          getEnvDuration("EMBEDDING_CB_TIMEOUT", 30*time.Second),
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *EmbeddingConfig) Validate() error {
	switch c.Provider {
	case EmbedderHashing:
		if c.Dimensions < 16 || c.Dimensions > 65536 {
			return fmt.Errorf("HASHING_DIMENSIONS must be between 16 and 65536")
		}
	case EmbedderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDER=openai")
		}
	case EmbedderLocal:
		if c.BaseURL == "" {
			return fmt.Errorf("LOCAL_EMBEDDING_URL cannot be empty when EMBEDDER=local")
		}
	default:
		return fmt.Errorf("EMBEDDER must be one of hashing, openai, local: got %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL cannot be empty")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT must be positive")
	}

	if c.CircuitBreaker.MaxRequests == 0 {
		return fmt.Errorf("EMBEDDING_CB_MAX_REQUESTS must be positive")
	}

	if c.CircuitBreaker.Interval <= 0 {
		return fmt.Errorf("EMBEDDING_CB_INTERVAL must be positive")
	}

	if c.CircuitBreaker.Timeout <= 0 {
		return fmt.Errorf("EMBEDDING_CB_TIMEOUT must be positive")
	}

	return nil
}

// ModelKey identifies the embedding space, used to key persisted topic embeddings.
func (c *EmbeddingConfig) ModelKey() string {
	if c.Provider == EmbedderHashing {
		return fmt.Sprintf("%s-%d", EmbedderHashing, c.Dimensions)
	}
	return c.Provider + ":" + c.Model
}

// getEnvOrDefault returns environment variable value or default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses integer environment variable with default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration parses duration environment variable with default.
// Supports formats like "30s", "1m", "2h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
