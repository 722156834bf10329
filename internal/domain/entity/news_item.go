// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as NewsItem and ScoreBreakdown,
// along with their validation rules and domain-specific errors.
package entity

import (
	"strings"
	"time"
)

// DefaultVersion is assigned to items that arrive without an explicit version.
const DefaultVersion int64 = 1

// NewsItem is a normalized record produced by a source adapter or a direct
// ingestion call. Values are treated as immutable: Normalize returns a copy.
type NewsItem struct {
	ID          string
	Source      string
	Title       string
	Body        string
	URL         string
	PublishedAt time.Time
	Version     int64
}

// Text returns the title and body joined by a single space, the input of both scorers.
func (n NewsItem) Text() string {
	if n.Body == "" {
		return n.Title
	}
	return n.Title + " " + n.Body
}

// Normalize trims identity fields, applies the default version and validates the result.
// The receiver is left untouched.
func (n NewsItem) Normalize() (NewsItem, error) {
	out := n
	out.ID = strings.TrimSpace(n.ID)
	out.Source = strings.TrimSpace(n.Source)
	out.Title = strings.TrimSpace(n.Title)
	out.Body = strings.TrimSpace(n.Body)
	out.URL = strings.TrimSpace(n.URL)
	if out.Version == 0 {
		out.Version = DefaultVersion
	}
	if err := out.Validate(); err != nil {
		return NewsItem{}, err
	}
	return out, nil
}

// Validate checks the required fields of a news item.
func (n NewsItem) Validate() error {
	if n.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if n.Source == "" {
		return &ValidationError{Field: "source", Message: "source is required"}
	}
	if n.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if n.PublishedAt.IsZero() {
		return &ValidationError{Field: "published_at", Message: "published_at is required"}
	}
	if n.Version < DefaultVersion {
		return &ValidationError{Field: "version", Message: "version must be at least 1"}
	}
	if n.URL != "" {
		if err := ValidateURL(n.URL); err != nil {
			return err
		}
	}
	return nil
}
