package entity

// ScoreBreakdown is the explainable result of the scoring chain for one item.
// It is persisted with the item and never recomputed at retrieval time.
type ScoreBreakdown struct {
	LexicalScore    float64
	SemanticScore   float64
	FinalScore      float64
	MatchedKeywords []string
	MatchedTopics   []string
}

// ScoredItem pairs an item with the breakdown it was admitted under.
type ScoredItem struct {
	Item      NewsItem
	Breakdown ScoreBreakdown
}

// PutResult reports what the store did with an item.
type PutResult int

const (
	// PutInserted means no item with that id existed before.
	PutInserted PutResult = iota
	// PutReplaced means an item with a lower or equal version was overwritten.
	PutReplaced
	// PutIgnoredStale means the stored version is newer and was kept.
	PutIgnoredStale
)

// String returns the label used in logs and metrics.
func (r PutResult) String() string {
	switch r {
	case PutInserted:
		return "inserted"
	case PutReplaced:
		return "replaced"
	case PutIgnoredStale:
		return "ignored_stale"
	default:
		return "unknown"
	}
}

// ClampScore bounds a score to [0, 1]. NaN maps to 0.
func ClampScore(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
