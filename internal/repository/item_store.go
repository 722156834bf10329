// Package repository declares the storage interfaces consumed by the use cases.
package repository

import (
	"context"

	"itnews-radar/internal/domain/entity"
)

// ItemStore holds admitted items and enforces the per-id version invariant.
//
// Put stores or replaces an item: a version greater than or equal to the
// stored version replaces it, a strictly lower version is ignored. The
// compare-and-swap is atomic per id; writes to different ids may proceed
// independently. GetAll returns a consistent snapshot in unspecified order.
// Get returns entity.ErrNotFound when no item with that id is stored.
type ItemStore interface {
	Put(ctx context.Context, item entity.ScoredItem) (entity.PutResult, error)
	GetAll(ctx context.Context) ([]entity.ScoredItem, error)
	Get(ctx context.Context, id string) (entity.ScoredItem, error)
	Count(ctx context.Context) (int64, error)
}

// Pinger is implemented by stores backed by an external engine and is used
// by health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
