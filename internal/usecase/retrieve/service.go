package retrieve

import (
	"context"
	"fmt"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/repository"
)

// Query selects what Retrieve returns.
type Query struct {
	// Threshold overrides the configured relevance threshold when set.
	Threshold *float64
	// Source restricts results to one origin tag. Empty means all sources.
	Source string
	// Offset skips that many ranked items.
	Offset int
	// Limit caps the number of returned items after ranking. Zero means no limit.
	Limit int
}

// Result is a ranked page of items plus the numbers behind it.
type Result struct {
	Items          []entity.ScoredItem
	TotalInStorage int
	PassingFilters int
	Threshold      float64
}

// Service reads items from the store and ranks them.
type Service struct {
	Store            repository.ItemStore
	DefaultThreshold float64
}

// Retrieve returns the ranked items visible under the effective threshold.
func (s *Service) Retrieve(ctx context.Context, q Query) (*Result, error) {
	threshold := s.DefaultThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if err := entity.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if q.Limit < 0 {
		return nil, &entity.ValidationError{Field: "limit", Message: "limit must be non-negative"}
	}
	if q.Offset < 0 {
		return nil, &entity.ValidationError{Field: "offset", Message: "offset must be non-negative"}
	}

	all, err := s.Store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Retrieve: GetAll: %w", err)
	}

	candidates := all
	if q.Source != "" {
		candidates = make([]entity.ScoredItem, 0, len(all))
		for _, it := range all {
			if it.Item.Source == q.Source {
				candidates = append(candidates, it)
			}
		}
	}

	ranked := Rank(candidates, threshold)
	passing := len(ranked)
	if q.Offset >= len(ranked) {
		ranked = ranked[:0]
	} else {
		ranked = ranked[q.Offset:]
	}
	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}

	return &Result{
		Items:          ranked,
		TotalInStorage: len(all),
		PassingFilters: passing,
		Threshold:      threshold,
	}, nil
}

// Get returns one stored item regardless of its score.
func (s *Service) Get(ctx context.Context, id string) (entity.ScoredItem, error) {
	if id == "" {
		return entity.ScoredItem{}, &entity.ValidationError{Field: "id", Message: "id is required"}
	}
	it, err := s.Store.Get(ctx, id)
	if err != nil {
		return entity.ScoredItem{}, fmt.Errorf("Get: %w", err)
	}
	return it, nil
}
