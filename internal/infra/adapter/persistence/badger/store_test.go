package badger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/infra/adapter/persistence/badger"
)

func openStore(t *testing.T) *badger.Store {
	t.Helper()
	s, err := badger.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func scored(id string, version int64, final float64) entity.ScoredItem {
	return entity.ScoredItem{
		Item: entity.NewsItem{
			ID:          id,
			Source:      "mock",
			Title:       "t",
			PublishedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			Version:     version,
		},
		Breakdown: entity.ScoreBreakdown{FinalScore: final, MatchedKeywords: []string{}, MatchedTopics: []string{}},
	}
}

func TestStore_VersionRules(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		version   int64
		final     float64
		want      entity.PutResult
		wantFinal float64
	}{
		{name: "insert", version: 3, final: 0.3, want: entity.PutInserted, wantFinal: 0.3},
		{name: "older ignored", version: 2, final: 0.9, want: entity.PutIgnoredStale, wantFinal: 0.3},
		{name: "equal replaces", version: 3, final: 0.4, want: entity.PutReplaced, wantFinal: 0.4},
		{name: "newer replaces", version: 4, final: 0.1, want: entity.PutReplaced, wantFinal: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Put(ctx, scored("x", tt.version, tt.final))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)

			got, err := s.Get(ctx, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFinal, got.Breakdown.FinalScore)
		})
	}
}

func TestStore_ReadsAndCount(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Put(ctx, scored(fmt.Sprintf("i%d", i), 1, 0.5))
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveTopicEmbeddings(ctx, "m", map[string][]float32{"t": {1}}))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "topic keys must not be counted as items")

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_ConcurrentPutsKeepHighestVersion(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for v := int64(1); v <= 20; v++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			_, err := s.Put(ctx, scored("hot", v, float64(v)/20))
			assert.NoError(t, err)
		}(v)
	}
	wg.Wait()

	got, err := s.Get(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Item.Version)
}

func TestStore_TopicEmbeddings(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	want := map[string][]float32{"service outage": {1, 0}, "data breach": {0, 1}}
	require.NoError(t, s.SaveTopicEmbeddings(ctx, "hashing-2", want))

	got, err := s.LoadTopicEmbeddings(ctx, "hashing-2")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	none, err := s.LoadTopicEmbeddings(ctx, "hashing-20")
	require.NoError(t, err)
	assert.Empty(t, none)
}
