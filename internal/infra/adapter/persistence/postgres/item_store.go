// Package postgres stores scored items and topic embeddings in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/observability/metrics"
	"itnews-radar/internal/repository"
)

const backendName = "postgres"

// ItemStore implements repository.ItemStore on a news_items table.
type ItemStore struct {
	db *sql.DB
}

// NewItemStore creates a store on an already migrated database.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

var _ repository.ItemStore = (*ItemStore)(nil)

// Put upserts item when its version is not older than the stored one. The
// version comparison happens inside the statement, so concurrent writers need
// no extra locking. No returned row means the write was stale.
func (s *ItemStore) Put(ctx context.Context, item entity.ScoredItem) (entity.PutResult, error) {
	defer observe("put", time.Now())

	keywords, err := json.Marshal(nonNil(item.Breakdown.MatchedKeywords))
	if err != nil {
		return 0, fmt.Errorf("Put: marshal keywords: %w", err)
	}
	topics, err := json.Marshal(nonNil(item.Breakdown.MatchedTopics))
	if err != nil {
		return 0, fmt.Errorf("Put: marshal topics: %w", err)
	}

	const query = `
INSERT INTO news_items (id, source, title, body, url, published_at, version,
    lexical_score, semantic_score, final_score, matched_keywords, matched_topics)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    source = EXCLUDED.source,
    title = EXCLUDED.title,
    body = EXCLUDED.body,
    url = EXCLUDED.url,
    published_at = EXCLUDED.published_at,
    version = EXCLUDED.version,
    lexical_score = EXCLUDED.lexical_score,
    semantic_score = EXCLUDED.semantic_score,
    final_score = EXCLUDED.final_score,
    matched_keywords = EXCLUDED.matched_keywords,
    matched_topics = EXCLUDED.matched_topics,
    stored_at = now()
WHERE news_items.version <= EXCLUDED.version
RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err = s.db.QueryRowContext(ctx, query,
		item.Item.ID,
		item.Item.Source,
		item.Item.Title,
		item.Item.Body,
		item.Item.URL,
		item.Item.PublishedAt,
		item.Item.Version,
		item.Breakdown.LexicalScore,
		item.Breakdown.SemanticScore,
		item.Breakdown.FinalScore,
		string(keywords),
		string(topics),
	).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.PutIgnoredStale, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Put: %w", err)
	}
	if inserted {
		return entity.PutInserted, nil
	}
	return entity.PutReplaced, nil
}

const selectColumns = `id, source, title, body, url, published_at, version,
    lexical_score, semantic_score, final_score, matched_keywords, matched_topics`

// GetAll returns every stored item.
func (s *ItemStore) GetAll(ctx context.Context) ([]entity.ScoredItem, error) {
	defer observe("get_all", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM news_items`)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]entity.ScoredItem, 0, 64)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("GetAll: Scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	return items, nil
}

// Get returns the item with the given id or entity.ErrNotFound.
func (s *ItemStore) Get(ctx context.Context, id string) (entity.ScoredItem, error) {
	defer observe("get", time.Now())

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM news_items WHERE id = $1`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ScoredItem{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.ScoredItem{}, fmt.Errorf("Get: %w", err)
	}
	return it, nil
}

// Count returns the number of stored items.
func (s *ItemStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *ItemStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (entity.ScoredItem, error) {
	var it entity.ScoredItem
	var keywords, topics []byte
	err := sc.Scan(
		&it.Item.ID,
		&it.Item.Source,
		&it.Item.Title,
		&it.Item.Body,
		&it.Item.URL,
		&it.Item.PublishedAt,
		&it.Item.Version,
		&it.Breakdown.LexicalScore,
		&it.Breakdown.SemanticScore,
		&it.Breakdown.FinalScore,
		&keywords,
		&topics,
	)
	if err != nil {
		return entity.ScoredItem{}, err
	}
	if err := json.Unmarshal(keywords, &it.Breakdown.MatchedKeywords); err != nil {
		return entity.ScoredItem{}, fmt.Errorf("matched_keywords: %w", err)
	}
	if err := json.Unmarshal(topics, &it.Breakdown.MatchedTopics); err != nil {
		return entity.ScoredItem{}, fmt.Errorf("matched_topics: %w", err)
	}
	return it, nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOperation(backendName, op, time.Since(start))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
