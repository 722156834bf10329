package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/resilience/circuitbreaker"
	"itnews-radar/internal/resilience/retry"
)

const (
	// DefaultRedditBaseURL serves the public listing endpoints.
	DefaultRedditBaseURL = "https://www.reddit.com"

	defaultRedditSort     = "new"
	defaultRedditMaxItems = 10
	maxRedditBody         = 4 << 20
)

// redditListing is the subset of the listing JSON the adapter reads.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
}

// RedditSource reads a subreddit listing over the public JSON API.
// Requests are rate limited per source and guarded by a circuit breaker.
type RedditSource struct {
	name      string
	subreddit string
	sort      string
	maxItems  int
	baseURL   string

	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// RedditOption customizes a RedditSource.
type RedditOption func(*RedditSource)

// WithRedditBaseURL points the source at another host, for tests.
func WithRedditBaseURL(u string) RedditOption {
	return func(s *RedditSource) { s.baseURL = u }
}

// WithRedditLimiter replaces the default one request per two seconds.
func WithRedditLimiter(l *rate.Limiter) RedditOption {
	return func(s *RedditSource) { s.limiter = l }
}

// NewRedditSource creates a Reddit source for one subreddit.
func NewRedditSource(name, subreddit, sort string, maxItems int, client *http.Client, logger *slog.Logger, opts ...RedditOption) *RedditSource {
	if sort == "" {
		sort = defaultRedditSort
	}
	if maxItems <= 0 {
		maxItems = defaultRedditMaxItems
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cbCfg := circuitbreaker.RedditConfig()
	cbCfg.Name = "reddit:" + subreddit

	s := &RedditSource{
		name:           name,
		subreddit:      subreddit,
		sort:           sort,
		maxItems:       maxItems,
		baseURL:        DefaultRedditBaseURL,
		client:         client,
		limiter:        rate.NewLimiter(rate.Every(2*time.Second), 1),
		circuitBreaker: circuitbreaker.New(cbCfg),
		retryConfig:    retry.FeedFetchConfig(),
		logger:         logger.With(slog.String("source", name)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedditSource) Name() string { return s.name }

// Fetch returns up to maxItems posts. Stickied posts are skipped.
func (s *RedditSource) Fetch(ctx context.Context) ([]entity.NewsItem, error) {
	var listing *redditListing
	err := retry.WithBackoff(ctx, s.retryConfig, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		l, err := circuitbreaker.Do(s.circuitBreaker, func() (*redditListing, error) {
			return s.get(ctx)
		})
		if err != nil {
			return err
		}
		listing = l
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RedditSource.Fetch r/%s: %w", s.subreddit, err)
	}

	items := make([]entity.NewsItem, 0, s.maxItems)
	for _, child := range listing.Data.Children {
		if len(items) == s.maxItems {
			break
		}
		p := child.Data
		if p.Stickied || p.ID == "" {
			continue
		}
		items = append(items, s.convert(p))
	}
	return items, nil
}

func (s *RedditSource) listingURL() string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.maxItems))
	q.Set("raw_json", "1")
	return fmt.Sprintf("%s/r/%s/%s.json?%s", s.baseURL, url.PathEscape(s.subreddit), s.sort, q.Encode())
}

func (s *RedditSource) get(ctx context.Context) (*redditListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listingURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", feedUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var listing redditListing
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRedditBody)).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &listing, nil
}

func (s *RedditSource) convert(p redditPost) entity.NewsItem {
	sec, frac := math.Modf(p.CreatedUTC)
	item := entity.NewsItem{
		ID:          fmt.Sprintf("reddit_%s_%s", s.subreddit, p.ID),
		Source:      s.name,
		Title:       collapseSpace(p.Title),
		Body:        htmlToText(p.Selftext),
		PublishedAt: time.Unix(int64(sec), int64(frac*1e9)).UTC(),
		Version:     entity.DefaultVersion,
	}
	if p.Permalink != "" {
		item.URL = DefaultRedditBaseURL + p.Permalink
	}
	return item
}
