package retrieve_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/infra/adapter/persistence/memory"
	"itnews-radar/internal/repository"
	"itnews-radar/internal/usecase/retrieve"
)

type failingStore struct{ repository.ItemStore }

func (failingStore) GetAll(context.Context) ([]entity.ScoredItem, error) {
	return nil, errors.New("connection refused")
}

func seededStore(t *testing.T, items ...entity.ScoredItem) *memory.ItemStore {
	t.Helper()
	store := memory.NewItemStore(4)
	for _, it := range items {
		_, err := store.Put(context.Background(), it)
		require.NoError(t, err)
	}
	return store
}

func ptr(f float64) *float64 { return &f }

func TestService_Retrieve(t *testing.T) {
	other := item("o", 0.9, t0)
	other.Item.Source = "reddit"

	store := seededStore(t,
		item("x", 0.05, t0),
		item("y", 0.4, t0),
		item("z", 0.8, t0.Add(time.Hour)),
		other,
	)
	svc := &retrieve.Service{Store: store, DefaultThreshold: 0.1}

	tests := []struct {
		name          string
		query         retrieve.Query
		wantIDs       []string
		wantPassing   int
		wantThreshold float64
	}{
		{
			name:          "default threshold",
			query:         retrieve.Query{},
			wantIDs:       []string{"o", "z", "y"},
			wantPassing:   3,
			wantThreshold: 0.1,
		},
		{
			name:          "threshold override",
			query:         retrieve.Query{Threshold: ptr(0.5)},
			wantIDs:       []string{"o", "z"},
			wantPassing:   2,
			wantThreshold: 0.5,
		},
		{
			name:          "zero threshold shows everything",
			query:         retrieve.Query{Threshold: ptr(0)},
			wantIDs:       []string{"o", "z", "y", "x"},
			wantPassing:   4,
			wantThreshold: 0,
		},
		{
			name:          "source filter",
			query:         retrieve.Query{Source: "test"},
			wantIDs:       []string{"z", "y"},
			wantPassing:   2,
			wantThreshold: 0.1,
		},
		{
			name:          "limit applies after ranking",
			query:         retrieve.Query{Limit: 1},
			wantIDs:       []string{"o"},
			wantPassing:   3,
			wantThreshold: 0.1,
		},
		{
			name:          "offset then limit",
			query:         retrieve.Query{Offset: 1, Limit: 1},
			wantIDs:       []string{"z"},
			wantPassing:   3,
			wantThreshold: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Retrieve(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(res.Items))
			assert.Equal(t, 4, res.TotalInStorage)
			assert.Equal(t, tt.wantPassing, res.PassingFilters)
			assert.Equal(t, tt.wantThreshold, res.Threshold)
		})
	}
}

func TestService_RetrieveValidation(t *testing.T) {
	svc := &retrieve.Service{Store: memory.NewItemStore(1), DefaultThreshold: 0.1}

	_, err := svc.Retrieve(context.Background(), retrieve.Query{Threshold: ptr(1.5)})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = svc.Retrieve(context.Background(), retrieve.Query{Limit: -1})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = svc.Retrieve(context.Background(), retrieve.Query{Offset: -1})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)
}

func TestService_RetrieveOffsetPastEnd(t *testing.T) {
	svc := &retrieve.Service{Store: memory.NewItemStore(1), DefaultThreshold: 0.1}
	res, err := svc.Retrieve(context.Background(), retrieve.Query{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.PassingFilters)
}

func TestService_RetrieveStoreError(t *testing.T) {
	svc := &retrieve.Service{Store: &failingStore{}, DefaultThreshold: 0.1}
	_, err := svc.Retrieve(context.Background(), retrieve.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GetAll")
}

func TestService_Get(t *testing.T) {
	svc := &retrieve.Service{Store: seededStore(t, item("x", 0.01, t0)), DefaultThreshold: 0.5}

	got, err := svc.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Item.ID)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, entity.ErrValidationFailed)
}
