package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigratePostgres creates the news_items and topic_embeddings tables.
// The vector extension is optional; without it the topic cache is disabled
// by the caller and item storage still works.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	statements := []string{`
CREATE TABLE IF NOT EXISTS news_items (
    id               TEXT PRIMARY KEY,
    source           TEXT NOT NULL,
    title            TEXT NOT NULL,
    body             TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    published_at     TIMESTAMPTZ NOT NULL,
    version          BIGINT NOT NULL,
    lexical_score    DOUBLE PRECISION NOT NULL,
    semantic_score   DOUBLE PRECISION NOT NULL,
    final_score      DOUBLE PRECISION NOT NULL,
    matched_keywords JSONB NOT NULL DEFAULT '[]',
    matched_topics   JSONB NOT NULL DEFAULT '[]',
    stored_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_final_score ON news_items(final_score DESC, published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_source ON news_items(source)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigratePostgres: %w", err)
		}
	}
	return nil
}

// MigrateTopicEmbeddings creates the pgvector-backed topic cache table.
func MigrateTopicEmbeddings(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`
CREATE TABLE IF NOT EXISTS topic_embeddings (
    model      TEXT NOT NULL,
    topic      TEXT NOT NULL,
    embedding  vector NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (model, topic)
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateTopicEmbeddings: %w", err)
		}
	}
	return nil
}

// MigrateSQLite creates the SQLite schema. Match lists are stored as JSON text
// and timestamps as RFC 3339 strings.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	statements := []string{`
CREATE TABLE IF NOT EXISTS news_items (
    id               TEXT PRIMARY KEY,
    source           TEXT NOT NULL,
    title            TEXT NOT NULL,
    body             TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    published_at     TEXT NOT NULL,
    version          INTEGER NOT NULL,
    lexical_score    REAL NOT NULL,
    semantic_score   REAL NOT NULL,
    final_score      REAL NOT NULL,
    matched_keywords TEXT NOT NULL DEFAULT '[]',
    matched_topics   TEXT NOT NULL DEFAULT '[]'
)`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_source ON news_items(source)`,
		`
CREATE TABLE IF NOT EXISTS topic_embeddings (
    model     TEXT NOT NULL,
    topic     TEXT NOT NULL,
    embedding TEXT NOT NULL,
    PRIMARY KEY (model, topic)
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateSQLite: %w", err)
		}
	}
	return nil
}
