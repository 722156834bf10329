package source

import (
	"context"
	"fmt"
	"time"

	"itnews-radar/internal/domain/entity"
)

type cannedItem struct {
	title    string
	body     string
	hoursAgo int
}

var cannedItems = []cannedItem{
	{
		title:    "Critical Security Vulnerability in Apache Log4j",
		body:     "A zero-day vulnerability has been discovered in Apache Log4j that allows remote code execution. IT administrators are urged to patch immediately.",
		hoursAgo: 2,
	},
	{
		title:    "Major Cloud Provider Outage Affects Multiple Services",
		body:     "A widespread outage at a major cloud provider is affecting thousands of businesses worldwide. Services are gradually being restored.",
		hoursAgo: 4,
	},
	{
		title:    "New CVE-2024-1234: Windows Authentication Bypass",
		body:     "Microsoft has released a critical security patch for a Windows authentication bypass vulnerability. All Windows systems should be updated.",
		hoursAgo: 6,
	},
	{
		title:    "Ransomware Attack Targets Healthcare Systems",
		body:     "A sophisticated ransomware attack has targeted multiple healthcare systems, causing widespread disruption to patient care services.",
		hoursAgo: 8,
	},
	{
		title:    "Docker Container Escape Vulnerability Discovered",
		body:     "Security researchers have found a critical vulnerability in Docker that could allow attackers to escape container isolation.",
		hoursAgo: 12,
	},
}

// MockSource returns up to five canned IT news items. It needs no network
// and is the default source.
type MockSource struct {
	name     string
	maxItems int
	now      func() time.Time
}

// NewMockSource creates a mock source. maxItems <= 0 returns every canned item.
func NewMockSource(name string, maxItems int) *MockSource {
	return &MockSource{name: name, maxItems: maxItems, now: time.Now}
}

func (s *MockSource) Name() string { return s.name }

// Fetch returns the canned items with publication times relative to now.
// IDs are stable across calls so repeated fetches are duplicates.
func (s *MockSource) Fetch(ctx context.Context) ([]entity.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(cannedItems)
	if s.maxItems > 0 && s.maxItems < n {
		n = s.maxItems
	}

	base := s.now().UTC()
	items := make([]entity.NewsItem, 0, n)
	for i, c := range cannedItems[:n] {
		items = append(items, entity.NewsItem{
			ID:          fmt.Sprintf("%s_%03d", s.name, i+1),
			Source:      s.name,
			Title:       c.title,
			Body:        c.body,
			PublishedAt: base.Add(-time.Duration(c.hoursAgo) * time.Hour),
			Version:     entity.DefaultVersion,
		})
	}
	return items, nil
}
