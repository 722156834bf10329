// Package relevance implements the relevance scoring chain: a lexical scorer
// over weighted keyword categories, a semantic scorer over reference topic
// embeddings, the max-of-signals aggregator and the threshold gate.
package relevance

import "errors"

// Sentinel errors for relevance scoring.
var (
	// ErrEmptyProfile indicates that a scorer was built without categories or topics.
	ErrEmptyProfile = errors.New("scoring profile has no entries")

	// ErrDimensionMismatch indicates that the embedder returned vectors of an
	// unexpected size, usually after the embedding model was changed.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingCount indicates that the embedder returned a different
	// number of vectors than texts it was given.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
