// Package retrieve provides the read side of the relevance service: gate
// filtering of stored items and their deterministic ranking.
package retrieve

import (
	"cmp"
	"slices"
	"strings"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/usecase/relevance"
)

// Rank returns the items that pass the relevance gate, ordered by final score
// descending, then published time descending, then id ascending. The three
// keys form one comparator so the result is a strict total order for any
// store state. The input slice is not modified.
func Rank(items []entity.ScoredItem, threshold float64) []entity.ScoredItem {
	out := make([]entity.ScoredItem, 0, len(items))
	for _, it := range items {
		if relevance.Admit(it.Breakdown, threshold) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, Compare)
	return out
}

// Compare orders two scored items for presentation.
func Compare(a, b entity.ScoredItem) int {
	if c := cmp.Compare(b.Breakdown.FinalScore, a.Breakdown.FinalScore); c != 0 {
		return c
	}
	if c := b.Item.PublishedAt.Compare(a.Item.PublishedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Item.ID, b.Item.ID)
}
