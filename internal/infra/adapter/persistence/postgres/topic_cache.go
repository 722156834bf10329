package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// TopicCache persists reference topic embeddings in a pgvector column, keyed
// by embedding model.
type TopicCache struct {
	db *sql.DB
}

// NewTopicCache creates a cache on a database migrated with MigrateTopicEmbeddings.
func NewTopicCache(db *sql.DB) *TopicCache {
	return &TopicCache{db: db}
}

// LoadTopicEmbeddings returns all cached topics for model. An empty map means
// nothing is cached.
func (c *TopicCache) LoadTopicEmbeddings(ctx context.Context, model string) (map[string][]float32, error) {
	const query = `SELECT topic, embedding FROM topic_embeddings WHERE model = $1`

	rows, err := c.db.QueryContext(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("LoadTopicEmbeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]float32)
	for rows.Next() {
		var topic string
		var vec pgvector.Vector
		if err := rows.Scan(&topic, &vec); err != nil {
			return nil, fmt.Errorf("LoadTopicEmbeddings: Scan: %w", err)
		}
		out[topic] = vec.Slice()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadTopicEmbeddings: %w", err)
	}
	return out, nil
}

// SaveTopicEmbeddings replaces the cached topics for model in one transaction.
func (c *TopicCache) SaveTopicEmbeddings(ctx context.Context, model string, embeddings map[string][]float32) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveTopicEmbeddings: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM topic_embeddings WHERE model = $1`, model); err != nil {
		return fmt.Errorf("SaveTopicEmbeddings: delete: %w", err)
	}

	const insert = `INSERT INTO topic_embeddings (model, topic, embedding) VALUES ($1, $2, $3)`
	for topic, vec := range embeddings {
		if _, err = tx.ExecContext(ctx, insert, model, topic, pgvector.NewVector(vec)); err != nil {
			return fmt.Errorf("SaveTopicEmbeddings: insert %q: %w", topic, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("SaveTopicEmbeddings: commit: %w", err)
	}
	return nil
}
