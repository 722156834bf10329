package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"itnews-radar/internal/domain/entity"
)

const (
	defaultKafkaMaxItems = 100
	defaultKafkaWait     = 2 * time.Second
)

// messageReader is the part of *kafka.Reader the source uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaRecord is the JSON payload of one message.
type kafkaRecord struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Version     int64     `json:"version"`
}

// KafkaSource drains a topic in batches. Each Fetch reads until maxItems
// messages arrive or the wait window closes, then commits what it read.
// Undecodable messages are logged and committed.
type KafkaSource struct {
	name     string
	reader   messageReader
	maxItems int
	wait     time.Duration
	logger   *slog.Logger
}

// NewKafkaSource creates a consumer-group reader for topic.
func NewKafkaSource(name string, brokers []string, topic, groupID string, maxItems int, logger *slog.Logger) *KafkaSource {
	if groupID == "" {
		groupID = "itnews-radar-" + name
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return newKafkaSource(name, reader, maxItems, logger)
}

func newKafkaSource(name string, reader messageReader, maxItems int, logger *slog.Logger) *KafkaSource {
	if maxItems <= 0 {
		maxItems = defaultKafkaMaxItems
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSource{
		name:     name,
		reader:   reader,
		maxItems: maxItems,
		wait:     defaultKafkaWait,
		logger:   logger.With(slog.String("source", name)),
	}
}

func (s *KafkaSource) Name() string { return s.name }

// Fetch returns the records read in this window. An empty topic yields an
// empty batch, not an error.
func (s *KafkaSource) Fetch(ctx context.Context) ([]entity.NewsItem, error) {
	windowCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	items := make([]entity.NewsItem, 0, s.maxItems)
	msgs := make([]kafka.Message, 0, s.maxItems)
	for len(msgs) < s.maxItems {
		msg, err := s.reader.FetchMessage(windowCtx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("KafkaSource.Fetch %s: %w", s.name, err)
		}
		msgs = append(msgs, msg)

		item, err := s.decode(msg)
		if err != nil {
			s.logger.Warn("skipping undecodable message",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Any("error", err))
			continue
		}
		items = append(items, item)
	}

	if len(msgs) > 0 {
		if err := s.reader.CommitMessages(ctx, msgs...); err != nil {
			return nil, fmt.Errorf("KafkaSource.Fetch %s: commit: %w", s.name, err)
		}
	}
	return items, nil
}

func (s *KafkaSource) decode(msg kafka.Message) (entity.NewsItem, error) {
	var rec kafkaRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return entity.NewsItem{}, err
	}
	if rec.ID == "" && len(msg.Key) > 0 {
		rec.ID = string(msg.Key)
	}
	if rec.Source == "" {
		rec.Source = s.name
	}
	if rec.Version == 0 {
		rec.Version = entity.DefaultVersion
	}
	return entity.NewsItem{
		ID:          rec.ID,
		Source:      rec.Source,
		Title:       rec.Title,
		Body:        htmlToText(rec.Body),
		URL:         rec.URL,
		PublishedAt: rec.PublishedAt,
		Version:     rec.Version,
	}, nil
}

// Close releases the consumer group membership.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
