// Package memory provides the in-process implementation of the item store.
package memory

import (
	"context"
	"hash/fnv"
	"slices"
	"sync"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/repository"
)

// DefaultShards is the number of lock shards used when none is configured.
const DefaultShards = 32

type shard struct {
	mu    sync.RWMutex
	items map[string]entity.ScoredItem
}

// ItemStore is a thread-safe in-memory ItemStore.
//
// Items are spread over shards by id hash. A put locks only the shard of its
// id, so the version compare-and-swap is atomic per id while writes to other
// shards proceed in parallel. GetAll read-locks every shard in a fixed order,
// which yields a consistent snapshot and cannot deadlock with puts.
type ItemStore struct {
	shards []*shard
}

// NewItemStore creates an empty store with the given shard count.
func NewItemStore(shards int) *ItemStore {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &ItemStore{shards: make([]*shard, shards)}
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]entity.ScoredItem)}
	}
	return s
}

var _ repository.ItemStore = (*ItemStore)(nil)

func (s *ItemStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Put stores the item unless a newer version is already stored.
func (s *ItemStore) Put(_ context.Context, item entity.ScoredItem) (entity.PutResult, error) {
	sh := s.shardFor(item.Item.ID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	existing, ok := sh.items[item.Item.ID]
	switch {
	case !ok:
		sh.items[item.Item.ID] = clone(item)
		return entity.PutInserted, nil
	case item.Item.Version < existing.Item.Version:
		return entity.PutIgnoredStale, nil
	default:
		sh.items[item.Item.ID] = clone(item)
		return entity.PutReplaced, nil
	}
}

// GetAll returns a snapshot of every stored item.
func (s *ItemStore) GetAll(_ context.Context) ([]entity.ScoredItem, error) {
	for _, sh := range s.shards {
		sh.mu.RLock()
	}
	defer func() {
		for _, sh := range s.shards {
			sh.mu.RUnlock()
		}
	}()

	total := 0
	for _, sh := range s.shards {
		total += len(sh.items)
	}
	out := make([]entity.ScoredItem, 0, total)
	for _, sh := range s.shards {
		for _, it := range sh.items {
			out = append(out, clone(it))
		}
	}
	return out, nil
}

// Get returns the stored item or entity.ErrNotFound.
func (s *ItemStore) Get(_ context.Context, id string) (entity.ScoredItem, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	it, ok := sh.items[id]
	if !ok {
		return entity.ScoredItem{}, entity.ErrNotFound
	}
	return clone(it), nil
}

// Count returns the number of stored items.
func (s *ItemStore) Count(_ context.Context) (int64, error) {
	var n int64
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += int64(len(sh.items))
		sh.mu.RUnlock()
	}
	return n, nil
}

// clone copies the match slices so callers never share backing arrays with the store.
func clone(it entity.ScoredItem) entity.ScoredItem {
	it.Breakdown.MatchedKeywords = slices.Clone(it.Breakdown.MatchedKeywords)
	it.Breakdown.MatchedTopics = slices.Clone(it.Breakdown.MatchedTopics)
	return it
}
