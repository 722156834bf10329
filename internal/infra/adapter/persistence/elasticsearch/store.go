// Package elasticsearch stores scored items as documents in an Elasticsearch
// index. Version ordering uses external_gte versioning, so the cluster rejects
// stale writes itself.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/observability/metrics"
	"itnews-radar/internal/repository"
)

const (
	backendName = "elasticsearch"
	pageSize    = 1000
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "keyword"},
      "source":           {"type": "keyword"},
      "title":            {"type": "text"},
      "body":             {"type": "text"},
      "url":              {"type": "keyword", "index": false},
      "published_at":     {"type": "date"},
      "version":          {"type": "long"},
      "lexical_score":    {"type": "double"},
      "semantic_score":   {"type": "double"},
      "final_score":      {"type": "double"},
      "matched_keywords": {"type": "keyword"},
      "matched_topics":   {"type": "keyword"}
    }
  }
}`

// document is the indexed form of a scored item.
type document struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"published_at"`
	Version         int64     `json:"version"`
	LexicalScore    float64   `json:"lexical_score"`
	SemanticScore   float64   `json:"semantic_score"`
	FinalScore      float64   `json:"final_score"`
	MatchedKeywords []string  `json:"matched_keywords"`
	MatchedTopics   []string  `json:"matched_topics"`
}

func toDocument(it entity.ScoredItem) document {
	return document{
		ID:              it.Item.ID,
		Source:          it.Item.Source,
		Title:           it.Item.Title,
		Body:            it.Item.Body,
		URL:             it.Item.URL,
		PublishedAt:     it.Item.PublishedAt,
		Version:         it.Item.Version,
		LexicalScore:    it.Breakdown.LexicalScore,
		SemanticScore:   it.Breakdown.SemanticScore,
		FinalScore:      it.Breakdown.FinalScore,
		MatchedKeywords: nonNil(it.Breakdown.MatchedKeywords),
		MatchedTopics:   nonNil(it.Breakdown.MatchedTopics),
	}
}

func (d document) scoredItem() entity.ScoredItem {
	return entity.ScoredItem{
		Item: entity.NewsItem{
			ID:          d.ID,
			Source:      d.Source,
			Title:       d.Title,
			Body:        d.Body,
			URL:         d.URL,
			PublishedAt: d.PublishedAt,
			Version:     d.Version,
		},
		Breakdown: entity.ScoreBreakdown{
			LexicalScore:    d.LexicalScore,
			SemanticScore:   d.SemanticScore,
			FinalScore:      d.FinalScore,
			MatchedKeywords: nonNil(d.MatchedKeywords),
			MatchedTopics:   nonNil(d.MatchedTopics),
		},
	}
}

// Store implements repository.ItemStore on Elasticsearch.
type Store struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

var _ repository.ItemStore = (*Store)(nil)

// New creates a store for the given cluster addresses and index.
func New(addrs []string, index string, logger *slog.Logger) (*Store, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addrs})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{es: es, index: index, log: logger.With(slog.String("component", "elasticsearch"))}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("EnsureIndex: exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("EnsureIndex: exists: %s", res.Status())
	}

	res, err = s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("EnsureIndex: create: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("EnsureIndex: create: %s", readError(res))
	}
	s.log.Info("created index", slog.String("index", s.index))
	return nil
}

// Put indexes the item with its version as an external_gte version. The
// cluster answers 409 when the stored version is higher.
func (s *Store) Put(ctx context.Context, item entity.ScoredItem) (entity.PutResult, error) {
	defer observe("put", time.Now())

	payload, err := json.Marshal(toDocument(item))
	if err != nil {
		return 0, fmt.Errorf("Put: marshal doc: %w", err)
	}

	version := int(item.Item.Version)
	req := esapi.IndexRequest{
		Index:       s.index,
		DocumentID:  item.Item.ID,
		Body:        bytes.NewReader(payload),
		Version:     &version,
		VersionType: "external_gte",
		Refresh:     "wait_for",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return 0, fmt.Errorf("Put: index doc: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusConflict {
		return entity.PutIgnoredStale, nil
	}
	if res.IsError() {
		return 0, fmt.Errorf("Put: index doc failed: %s", readError(res))
	}

	var parsed struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("Put: decode response: %w", err)
	}
	if parsed.Result == "created" {
		return entity.PutInserted, nil
	}
	return entity.PutReplaced, nil
}

// GetAll pages through the whole index with search_after on the id field.
func (s *Store) GetAll(ctx context.Context) ([]entity.ScoredItem, error) {
	defer observe("get_all", time.Now())

	items := make([]entity.ScoredItem, 0, 64)
	var after []any
	for {
		body := map[string]any{
			"size":  pageSize,
			"query": map[string]any{"match_all": map[string]any{}},
			"sort":  []map[string]any{{"id": map[string]any{"order": "asc"}}},
		}
		if after != nil {
			body["search_after"] = after
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("GetAll: marshal search body: %w", err)
		}

		res, err := s.es.Search(
			s.es.Search.WithContext(ctx),
			s.es.Search.WithIndex(s.index),
			s.es.Search.WithBody(bytes.NewReader(payload)),
		)
		if err != nil {
			return nil, fmt.Errorf("GetAll: search: %w", err)
		}

		var parsed struct {
			Hits struct {
				Hits []struct {
					Source document `json:"_source"`
					Sort   []any    `json:"sort"`
				} `json:"hits"`
			} `json:"hits"`
		}
		if res.IsError() {
			msg := readError(res)
			_ = res.Body.Close()
			return nil, fmt.Errorf("GetAll: search failed: %s", msg)
		}
		err = json.NewDecoder(res.Body).Decode(&parsed)
		_ = res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("GetAll: decode search response: %w", err)
		}

		for _, hit := range parsed.Hits.Hits {
			items = append(items, hit.Source.scoredItem())
		}
		if len(parsed.Hits.Hits) < pageSize {
			return items, nil
		}
		after = parsed.Hits.Hits[len(parsed.Hits.Hits)-1].Sort
	}
}

// Get returns the document with the given id or entity.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (entity.ScoredItem, error) {
	defer observe("get", time.Now())

	res, err := s.es.Get(s.index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return entity.ScoredItem{}, fmt.Errorf("Get: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return entity.ScoredItem{}, entity.ErrNotFound
	}
	if res.IsError() {
		return entity.ScoredItem{}, fmt.Errorf("Get: %s", readError(res))
	}

	var parsed struct {
		Source document `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return entity.ScoredItem{}, fmt.Errorf("Get: decode: %w", err)
	}
	return parsed.Source.scoredItem(), nil
}

// Count returns the number of documents in the index.
func (s *Store) Count(ctx context.Context) (int64, error) {
	res, err := s.es.Count(s.es.Count.WithContext(ctx), s.es.Count.WithIndex(s.index))
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return 0, fmt.Errorf("Count: %s", readError(res))
	}

	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("Count: decode: %w", err)
	}
	return parsed.Count, nil
}

// Ping checks that the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

func readError(res *esapi.Response) string {
	data, _ := io.ReadAll(res.Body)
	return strings.TrimSpace(string(data))
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
