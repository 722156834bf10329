package config

import (
	"fmt"
	"os"
	"strings"
)

// Store backends.
const (
	StoreMemory        = "memory"
	StorePostgres      = "postgres"
	StoreSQLite        = "sqlite"
	StoreBadger        = "badger"
	StoreElasticsearch = "elasticsearch"
)

// StoreConfig selects and configures the item store backend.
type StoreConfig struct {
	// Backend is one of memory, postgres, sqlite, badger, elasticsearch.
	// Default: "memory"
	Backend string

	// DatabaseURL is the Postgres DSN.
	DatabaseURL string

	// SQLitePath is the SQLite database file.
	// Default: "itnews-radar.db"
	SQLitePath string

	// BadgerDir is the Badger data directory. Empty means in-memory.
	BadgerDir string

	// ElasticsearchURLs is a comma-separated list of cluster addresses.
	// Default: "http://localhost:9200"
	ElasticsearchURLs []string

	// ElasticsearchIndex holds one document per item.
	// Default: "news_items"
	ElasticsearchIndex string
}

// LoadStoreConfig loads the store configuration from environment variables.
func LoadStoreConfig() (*StoreConfig, error) {
	config := &StoreConfig{
		Backend:            strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreMemory)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getEnvOrDefault("SQLITE_PATH", "itnews-radar.db"),
		BadgerDir:          os.Getenv("BADGER_DIR"),
		ElasticsearchURLs:  splitList(getEnvOrDefault("ELASTICSEARCH_URLS", "http://localhost:9200")),
		ElasticsearchIndex: getEnvOrDefault("ES_INDEX", "news_items"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}
	return config, nil
}

// Validate checks configuration correctness.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case StoreMemory, StoreBadger:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty when STORE_BACKEND=sqlite")
		}
	case StoreElasticsearch:
		if len(c.ElasticsearchURLs) == 0 {
			return fmt.Errorf("ELASTICSEARCH_URLS cannot be empty when STORE_BACKEND=elasticsearch")
		}
		if c.ElasticsearchIndex == "" {
			return fmt.Errorf("ES_INDEX cannot be empty")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, postgres, sqlite, badger, elasticsearch: got %q", c.Backend)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
