package source

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/infra/fetcher"
	"itnews-radar/internal/resilience/circuitbreaker"
	"itnews-radar/internal/resilience/retry"
)

const (
	feedUserAgent      = "ITNewsRadarBot/1.0"
	defaultRSSMaxItems = 10
)

// RSSSource reads an RSS or Atom feed. Requests go through a circuit breaker
// and are retried with backoff on transient failures.
type RSSSource struct {
	name     string
	feedURL  string
	maxItems int

	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	// fullText is nil when the source does not enrich short summaries.
	fullText *fetcher.ReadabilityFetcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewRSSSource creates an RSS source. A non-nil fullText fetcher replaces
// short entry summaries with the extracted article text.
func NewRSSSource(name, feedURL string, maxItems int, client *http.Client, fullText *fetcher.ReadabilityFetcher, logger *slog.Logger) *RSSSource {
	if maxItems <= 0 {
		maxItems = defaultRSSMaxItems
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cbCfg := circuitbreaker.FeedFetchConfig()
	cbCfg.Name = "feed-fetch:" + name
	return &RSSSource{
		name:           name,
		feedURL:        feedURL,
		maxItems:       maxItems,
		client:         client,
		circuitBreaker: circuitbreaker.New(cbCfg),
		retryConfig:    retry.FeedFetchConfig(),
		fullText:       fullText,
		logger:         logger.With(slog.String("source", name)),
		now:            time.Now,
	}
}

func (s *RSSSource) Name() string { return s.name }

// Fetch parses the feed and converts up to maxItems entries. Entries without
// a title are skipped.
func (s *RSSSource) Fetch(ctx context.Context) ([]entity.NewsItem, error) {
	var feed *gofeed.Feed
	err := retry.WithBackoff(ctx, s.retryConfig, func() error {
		f, err := circuitbreaker.Do(s.circuitBreaker, func() (*gofeed.Feed, error) {
			return s.parse(ctx)
		})
		if err != nil {
			if circuitbreaker.IsRejection(err) {
				s.logger.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", s.feedURL),
					slog.String("state", s.circuitBreaker.State().String()))
			}
			return err
		}
		feed = f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RSSSource.Fetch %s: %w", s.name, err)
	}

	items := make([]entity.NewsItem, 0, min(len(feed.Items), s.maxItems))
	links := make([]string, 0, cap(items))
	for _, it := range feed.Items {
		if len(items) == s.maxItems {
			break
		}
		if it == nil || it.Title == "" {
			continue
		}
		items = append(items, s.convert(it))
		links = append(links, it.Link)
	}

	if s.fullText != nil {
		s.enrich(ctx, items, links)
	}
	return items, nil
}

func (s *RSSSource) parse(ctx context.Context) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = feedUserAgent
	fp.Client = s.client

	feed, err := fp.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}
	return feed, nil
}

func (s *RSSSource) convert(it *gofeed.Item) entity.NewsItem {
	body := it.Description
	if body == "" {
		body = it.Content
	}

	published := s.now().UTC()
	switch {
	case it.PublishedParsed != nil:
		published = it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		published = it.UpdatedParsed.UTC()
	}

	return entity.NewsItem{
		ID:          s.itemID(it),
		Source:      s.name,
		Title:       collapseSpace(it.Title),
		Body:        htmlToText(body),
		URL:         it.Link,
		PublishedAt: published,
		Version:     entity.DefaultVersion,
	}
}

// itemID prefers the entry GUID, then a hash of the link, then a hash of the title.
func (s *RSSSource) itemID(it *gofeed.Item) string {
	switch {
	case it.GUID != "":
		return s.name + "_" + it.GUID
	case it.Link != "":
		return s.name + "_" + shortHash(it.Link)
	default:
		return s.name + "_" + shortHash(it.Title)
	}
}

// enrich replaces short bodies with article text. Failures keep the feed text.
func (s *RSSSource) enrich(ctx context.Context, items []entity.NewsItem, links []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fullText.Parallelism())
	for i := range items {
		if links[i] == "" || !s.fullText.ShouldFetch(items[i].Body) {
			continue
		}
		g.Go(func() error {
			text, err := s.fullText.FetchContent(gctx, links[i])
			if err != nil {
				s.logger.Debug("full text fetch failed, keeping feed summary",
					slog.String("url", links[i]),
					slog.Any("error", err))
				return nil
			}
			items[i].Body = collapseSpace(text)
			return nil
		})
	}
	_ = g.Wait()
}

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
