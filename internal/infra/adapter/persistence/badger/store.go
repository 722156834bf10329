// Package badger stores scored items in an embedded BadgerDB key-value store.
//
// Items live under "item/<id>" as JSON. Topic embeddings live under
// "topic/<model>/<topic>".
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/observability/metrics"
	"itnews-radar/internal/repository"
)

const (
	backendName  = "badger"
	itemPrefix   = "item/"
	topicPrefix  = "topic/"
	maxTxRetries = 64
)

// Store implements repository.ItemStore and the topic cache on BadgerDB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ repository.ItemStore = (*Store)(nil)

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any) { l.logger.Error(fmt.Sprintf(msg, args...)) }

func (l *badgerLogger) Warningf(msg string, args ...any) { l.logger.Warn(fmt.Sprintf(msg, args...)) }

func (l *badgerLogger) Infof(msg string, args ...any) { l.logger.Debug(fmt.Sprintf(msg, args...)) }

func (l *badgerLogger) Debugf(msg string, args ...any) { l.logger.Debug(fmt.Sprintf(msg, args...)) }

// Open opens the database in dir, creating it if needed. An empty dir opens
// an in-memory database.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "badger"))

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("badger.Open: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger.Open: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func itemKey(id string) []byte { return []byte(itemPrefix + id) }

// Put compares versions and writes inside one read-write transaction. A
// conflicting concurrent commit is retried from the read.
func (s *Store) Put(ctx context.Context, item entity.ScoredItem) (entity.PutResult, error) {
	defer observe("put", time.Now())

	value, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("Put: marshal: %w", err)
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var res entity.PutResult
		err = s.db.Update(func(txn *badger.Txn) error {
			existing, err := getItem(txn, item.Item.ID)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				res = entity.PutInserted
			case err != nil:
				return err
			case item.Item.Version < existing.Item.Version:
				res = entity.PutIgnoredStale
				return nil
			default:
				res = entity.PutReplaced
			}
			return txn.Set(itemKey(item.Item.ID), value)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("Put: %w", err)
		}
		return res, nil
	}
	return 0, fmt.Errorf("Put: %w after %d attempts", badger.ErrConflict, maxTxRetries)
}

// GetAll returns every stored item.
func (s *Store) GetAll(ctx context.Context) ([]entity.ScoredItem, error) {
	defer observe("get_all", time.Now())

	items := make([]entity.ScoredItem, 0, 64)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var si entity.ScoredItem
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &si)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			items = append(items, si)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	return items, nil
}

// Get returns the item with the given id or entity.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (entity.ScoredItem, error) {
	defer observe("get", time.Now())

	var out entity.ScoredItem
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = getItem(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entity.ScoredItem{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.ScoredItem{}, fmt.Errorf("Get: %w", err)
	}
	return out, nil
}

// Count returns the number of stored items using a key-only scan.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

// LoadTopicEmbeddings returns the cached topics for model.
func (s *Store) LoadTopicEmbeddings(ctx context.Context, model string) (map[string][]float32, error) {
	prefix := topicPrefix + model + "/"
	out := make(map[string][]float32)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			topic := strings.TrimPrefix(string(it.Item().Key()), prefix)
			var vec []float32
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &vec)
			}); err != nil {
				return err
			}
			out[topic] = vec
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadTopicEmbeddings: %w", err)
	}
	return out, nil
}

// SaveTopicEmbeddings writes the topics for model in a single batch.
func (s *Store) SaveTopicEmbeddings(ctx context.Context, model string, embeddings map[string][]float32) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for topic, vec := range embeddings {
		raw, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("SaveTopicEmbeddings: %w", err)
		}
		if err := wb.Set([]byte(topicPrefix+model+"/"+topic), raw); err != nil {
			return fmt.Errorf("SaveTopicEmbeddings: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("SaveTopicEmbeddings: %w", err)
	}
	return nil
}

func getItem(txn *badger.Txn, id string) (entity.ScoredItem, error) {
	var si entity.ScoredItem
	item, err := txn.Get(itemKey(id))
	if err != nil {
		return si, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &si)
	})
	return si, err
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOperation(backendName, op, time.Since(start))
}
