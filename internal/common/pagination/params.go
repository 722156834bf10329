package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	"itnews-radar/internal/domain/entity"
)

// Params represents pagination query parameters. A zero Limit means the
// whole list on a single page.
type Params struct {
	Page  int // 1-based page number
	Limit int // Items per page, 0 for all
}

// Offset returns the number of items before the page.
func (p Params) Offset() int {
	return CalculateOffset(p.Page, p.Limit)
}

// ParseQuery reads page and limit from values. Missing parameters default
// to page 1 and no limit. Pages past the first require a positive limit.
func ParseQuery(values url.Values, cfg Config) (Params, error) {
	p := Params{Page: 1}

	if s := values.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > cfg.MaxLimit {
			return p, &entity.ValidationError{
				Field:   "limit",
				Message: fmt.Sprintf("limit must be an integer between 0 and %d", cfg.MaxLimit),
			}
		}
		p.Limit = n
	}

	if s := values.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, &entity.ValidationError{Field: "page", Message: "page must be a positive integer"}
		}
		if n > 1 && p.Limit == 0 {
			return p, &entity.ValidationError{Field: "page", Message: "page requires a positive limit"}
		}
		p.Page = n
	}
	return p, nil
}
