package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// TopicCache keeps topic embeddings as JSON arrays next to the items.
type TopicCache struct {
	db *sql.DB
}

// NewTopicCache creates a cache on a database migrated with db.MigrateSQLite.
func NewTopicCache(db *sql.DB) *TopicCache {
	return &TopicCache{db: db}
}

// LoadTopicEmbeddings returns the cached topics for model.
func (c *TopicCache) LoadTopicEmbeddings(ctx context.Context, model string) (map[string][]float32, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT topic, embedding FROM topic_embeddings WHERE model = ?`, model)
	if err != nil {
		return nil, fmt.Errorf("LoadTopicEmbeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]float32)
	for rows.Next() {
		var topic, raw string
		if err := rows.Scan(&topic, &raw); err != nil {
			return nil, fmt.Errorf("LoadTopicEmbeddings: Scan: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("LoadTopicEmbeddings: topic %q: %w", topic, err)
		}
		out[topic] = vec
	}
	return out, rows.Err()
}

// SaveTopicEmbeddings replaces the cached topics for model.
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM topic_embeddings WHERE model = ?`, model); err != nil {
		return fmt.Errorf("SaveTopicEmbeddings: delete: %w", err)
	}
	for topic, vec := range embeddings {
		raw, mErr := json.Marshal(vec)
		if mErr != nil {
			err = mErr
			return fmt.Errorf("SaveTopicEmbeddings: marshal %q: %w", topic, err)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO topic_embeddings (model, topic, embedding) VALUES (?, ?, ?)`,
			model, topic, string(raw)); err != nil {
			return fmt.Errorf("SaveTopicEmbeddings: insert %q: %w", topic, err)
		}
	}
	return tx.Commit()
}
