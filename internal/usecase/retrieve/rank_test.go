package retrieve_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/usecase/retrieve"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func item(id string, final float64, published time.Time) entity.ScoredItem {
	return entity.ScoredItem{
		Item:      entity.NewsItem{ID: id, Source: "test", Title: id, PublishedAt: published, Version: 1},
		Breakdown: entity.ScoreBreakdown{FinalScore: final, LexicalScore: final},
	}
}

func ids(items []entity.ScoredItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Item.ID
	}
	return out
}

func TestRank_Ordering(t *testing.T) {
	tests := []struct {
		name      string
		items     []entity.ScoredItem
		threshold float64
		want      []string
	}{
		{
			name: "score descending first",
			items: []entity.ScoredItem{
				item("low", 0.2, t0.Add(time.Hour)),
				item("high", 0.9, t0),
				item("mid", 0.5, t0.Add(2*time.Hour)),
			},
			want: []string{"high", "mid", "low"},
		},
		{
			name: "newer first on equal score",
			items: []entity.ScoredItem{
				item("old", 0.5, t0),
				item("new", 0.5, t0.Add(time.Minute)),
			},
			want: []string{"new", "old"},
		},
		{
			name: "id ascending on equal score and time",
			items: []entity.ScoredItem{
				item("b", 0.5, t0),
				item("a", 0.5, t0),
			},
			want: []string{"a", "b"},
		},
		{
			name: "gate filters below threshold, inclusive at boundary",
			items: []entity.ScoredItem{
				item("below", 0.29, t0),
				item("at", 0.3, t0),
				item("above", 0.8, t0),
			},
			threshold: 0.3,
			want:      []string{"above", "at"},
		},
		{
			name:  "empty input",
			items: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := retrieve.Rank(tt.items, tt.threshold)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Rank() order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRank_DeterministicForAnyInputOrder(t *testing.T) {
	base := []entity.ScoredItem{
		item("e", 0.5, t0),
		item("c", 0.5, t0),
		item("a", 0.5, t0.Add(time.Second)),
		item("d", 1.0, t0.Add(-time.Hour)),
		item("b", 0.5, t0),
		item("f", 0.1, t0.Add(time.Hour)),
	}
	want := ids(retrieve.Rank(base, 0))
	assert.Equal(t, []string{"d", "a", "b", "c", "e", "f"}, want)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		shuffled := append([]entity.ScoredItem(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, ids(retrieve.Rank(shuffled, 0)))
	}
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	in := []entity.ScoredItem{item("b", 0.1, t0), item("a", 0.9, t0)}
	_ = retrieve.Rank(in, 0)
	assert.Equal(t, []string{"b", "a"}, ids(in))
}

func TestCompare_StrictTotalOrder(t *testing.T) {
	a := item("a", 0.5, t0)
	b := item("b", 0.5, t0)
	assert.Negative(t, retrieve.Compare(a, b))
	assert.Positive(t, retrieve.Compare(b, a))
	assert.Zero(t, retrieve.Compare(a, a))
}
