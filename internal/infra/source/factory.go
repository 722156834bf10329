package source

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"itnews-radar/internal/config"
	"itnews-radar/internal/infra/fetcher"
	"itnews-radar/internal/usecase/ingest"
)

// New builds the adapter described by cfg. The returned closer is nil for
// adapters that hold no resources.
func New(cfg config.SourceConfig, client *http.Client, content fetcher.ContentFetchConfig, logger *slog.Logger) (ingest.Source, io.Closer, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	switch cfg.Kind {
	case config.SourceKindMock:
		return NewMockSource(cfg.Name, cfg.MaxItems), nil, nil
	case config.SourceKindRSS:
		var full *fetcher.ReadabilityFetcher
		if cfg.FetchFullText && content.Enabled {
			full = fetcher.NewReadabilityFetcher(content)
		}
		return NewRSSSource(cfg.Name, cfg.URL, cfg.MaxItems, client, full, logger), nil, nil
	case config.SourceKindReddit:
		return NewRedditSource(cfg.Name, cfg.Subreddit, cfg.Sort, cfg.MaxItems, client, logger), nil, nil
	case config.SourceKindKafka:
		s := NewKafkaSource(cfg.Name, cfg.Brokers, cfg.Topic, cfg.GroupID, cfg.MaxItems, logger)
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("source %q: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// BuildAll builds every enabled source. On error, closers already opened are closed.
func BuildAll(cfgs []config.SourceConfig, client *http.Client, content fetcher.ContentFetchConfig, logger *slog.Logger) ([]ingest.Source, []io.Closer, error) {
	sources := make([]ingest.Source, 0, len(cfgs))
	var closers []io.Closer
	for _, c := range cfgs {
		if c.Disabled {
			continue
		}
		s, closer, err := New(c, client, content, logger)
		if err != nil {
			for _, cl := range closers {
				_ = cl.Close()
			}
			return nil, nil, err
		}
		sources = append(sources, s)
		if closer != nil {
			closers = append(closers, closer)
		}
	}
	return sources, closers, nil
}
