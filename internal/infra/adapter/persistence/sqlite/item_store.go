// Package sqlite stores scored items in a single-file SQLite database using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/observability/metrics"
	"itnews-radar/internal/repository"
)

const backendName = "sqlite"

var itemColumns = []string{
	"id", "source", "title", "body", "url", "published_at", "version",
	"lexical_score", "semantic_score", "final_score", "matched_keywords", "matched_topics",
}

// ItemStore implements repository.ItemStore on SQLite. The version check and
// write run in one transaction; the pool is limited to one connection, which
// serializes writers.
type ItemStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewItemStore creates a store on a database migrated with db.MigrateSQLite.
func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

var _ repository.ItemStore = (*ItemStore)(nil)

// Put applies the item unless the stored version is newer.
func (s *ItemStore) Put(ctx context.Context, item entity.ScoredItem) (res entity.PutResult, err error) {
	defer observe("put", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Put: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := s.sb.Select("version").From("news_items").Where(sq.Eq{"id": item.Item.ID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("Put: build select: %w", err)
	}

	var stored int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res = entity.PutInserted
	case err != nil:
		return 0, fmt.Errorf("Put: select version: %w", err)
	case item.Item.Version < stored:
		if err = tx.Rollback(); err != nil {
			return 0, fmt.Errorf("Put: rollback: %w", err)
		}
		return entity.PutIgnoredStale, nil
	default:
		res = entity.PutReplaced
	}

	values, err := rowValues(item)
	if err != nil {
		return 0, fmt.Errorf("Put: %w", err)
	}
	query, args, err = s.sb.Insert("news_items").Columns(itemColumns...).Values(values...).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
    source = excluded.source,
    title = excluded.title,
    body = excluded.body,
    url = excluded.url,
    published_at = excluded.published_at,
    version = excluded.version,
    lexical_score = excluded.lexical_score,
    semantic_score = excluded.semantic_score,
    final_score = excluded.final_score,
    matched_keywords = excluded.matched_keywords,
    matched_topics = excluded.matched_topics`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("Put: build upsert: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("Put: upsert: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("Put: commit: %w", err)
	}
	return res, nil
}

// GetAll returns every stored item.
func (s *ItemStore) GetAll(ctx context.Context) ([]entity.ScoredItem, error) {
	defer observe("get_all", time.Now())

	query, args, err := s.sb.Select(itemColumns...).From("news_items").ToSql()
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetAll: QueryContext: %w", err)
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
	return items, rows.Err()
}

// Get returns the item with the given id or entity.ErrNotFound.
func (s *ItemStore) Get(ctx context.Context, id string) (entity.ScoredItem, error) {
	defer observe("get", time.Now())

	query, args, err := s.sb.Select(itemColumns...).From("news_items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return entity.ScoredItem{}, fmt.Errorf("Get: %w", err)
	}
	it, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
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

func rowValues(item entity.ScoredItem) ([]any, error) {
	keywords, err := marshalList(item.Breakdown.MatchedKeywords)
	if err != nil {
		return nil, err
	}
	topics, err := marshalList(item.Breakdown.MatchedTopics)
	if err != nil {
		return nil, err
	}
	return []any{
		item.Item.ID,
		item.Item.Source,
		item.Item.Title,
		item.Item.Body,
		item.Item.URL,
		item.Item.PublishedAt.UTC().Format(time.RFC3339Nano),
		item.Item.Version,
		item.Breakdown.LexicalScore,
		item.Breakdown.SemanticScore,
		item.Breakdown.FinalScore,
		keywords,
		topics,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (entity.ScoredItem, error) {
	var it entity.ScoredItem
	var published, keywords, topics string
	err := sc.Scan(
		&it.Item.ID,
		&it.Item.Source,
		&it.Item.Title,
		&it.Item.Body,
		&it.Item.URL,
		&published,
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
	if it.Item.PublishedAt, err = time.Parse(time.RFC3339Nano, published); err != nil {
		return entity.ScoredItem{}, fmt.Errorf("published_at: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &it.Breakdown.MatchedKeywords); err != nil {
		return entity.ScoredItem{}, fmt.Errorf("matched_keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &it.Breakdown.MatchedTopics); err != nil {
		return entity.ScoredItem{}, fmt.Errorf("matched_topics: %w", err)
	}
	return it, nil
}

func marshalList(s []string) (string, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOperation(backendName, op, time.Since(start))
}
