// Package persistence selects and opens the configured item store backend.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"itnews-radar/internal/config"
	"itnews-radar/internal/infra/adapter/persistence/badger"
	"itnews-radar/internal/infra/adapter/persistence/elasticsearch"
	"itnews-radar/internal/infra/adapter/persistence/memory"
	"itnews-radar/internal/infra/adapter/persistence/postgres"
	"itnews-radar/internal/infra/adapter/persistence/sqlite"
	"itnews-radar/internal/infra/db"
	"itnews-radar/internal/repository"
	"itnews-radar/internal/usecase/relevance"
)

// Backend is an opened store plus what came with it.
type Backend struct {
	Name  string
	Items repository.ItemStore
	// Topics is nil when the backend cannot persist topic embeddings.
	Topics relevance.TopicCache
	close  func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open opens and prepares the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case config.StoreMemory:
		return &Backend{Name: cfg.Backend, Items: memory.NewItemStore(memory.DefaultShards)}, nil

	case config.StorePostgres:
		conn, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.MigratePostgres(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		b := &Backend{Name: cfg.Backend, Items: postgres.NewItemStore(conn), close: conn.Close}
		if err := db.MigrateTopicEmbeddings(ctx, conn); err != nil {
			logger.Warn("pgvector unavailable, topic embeddings will not be persisted", slog.Any("error", err))
		} else {
			b.Topics = postgres.NewTopicCache(conn)
		}
		return b, nil

	case config.StoreSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateSQLite(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &Backend{
			Name:   cfg.Backend,
			Items:  sqlite.NewItemStore(conn),
			Topics: sqlite.NewTopicCache(conn),
			close:  conn.Close,
		}, nil

	case config.StoreBadger:
		store, err := badger.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{Name: cfg.Backend, Items: store, Topics: store, close: store.Close}, nil

	case config.StoreElasticsearch:
		store, err := elasticsearch.New(cfg.ElasticsearchURLs, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return &Backend{Name: cfg.Backend, Items: store}, nil

	default:
		return nil, fmt.Errorf("persistence.Open: unknown backend %q", cfg.Backend)
	}
}
