// Package news serves the ingest, retrieve, item and score-preview endpoints.
package news

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"itnews-radar/internal/common/pagination"
	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/handler/http/respond"
	"itnews-radar/internal/usecase/ingest"
	"itnews-radar/internal/usecase/relevance"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts the first validator failure into a domain
// validation error so respond.SafeError can expose its field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &entity.ValidationError{Message: "invalid request"}
	}
	fe := verrs[0]
	msg := fe.Field() + " is invalid"
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "gte", "lte":
		msg = fe.Field() + " must be between 0 and 1"
	case "max":
		msg = fe.Field() + " is too long"
	}
	return &entity.ValidationError{Field: fe.Field(), Message: msg}
}

// ItemRecord is one news item as submitted to POST /ingest. Field-level
// problems are reported per record in the ingest summary rather than failing
// the whole request.
type ItemRecord struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at"`
	Version     int64  `json:"version,omitempty"`
}

// publishedLayouts are tried in order. Timestamps without a zone are UTC.
var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ToEntity converts the record. An unparsable published_at leaves the time
// zero, which the ingest validation reports as invalid.
func (r ItemRecord) ToEntity() entity.NewsItem {
	published, _ := parsePublished(r.PublishedAt)
	return entity.NewsItem{
		ID:          r.ID,
		Source:      r.Source,
		Title:       r.Title,
		Body:        r.Body,
		URL:         r.URL,
		PublishedAt: published,
		Version:     r.Version,
	}
}

// IngestRequest is the object form of the ingest body. A bare JSON array of
// records is accepted as well.
type IngestRequest struct {
	Items     []ItemRecord `json:"items"`
	Threshold *float64     `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// IngestSummaryDTO mirrors ingest.BatchSummary counts.
type IngestSummaryDTO struct {
	TotalReceived int      `json:"total_received"`
	Accepted      int      `json:"accepted"`
	Rejected      int      `json:"rejected"`
	Invalid       int      `json:"invalid"`
	Duplicates    int      `json:"duplicates"`
	Replaced      int      `json:"replaced"`
	Failed        int      `json:"failed"`
	ScoringErrors int      `json:"scoring_errors"`
	Threshold     float64  `json:"relevance_threshold"`
	Errors        []string `json:"errors"`
}

// IngestItemDTO is the per-record outcome of an ingest call.
type IngestItemDTO struct {
	ID              string   `json:"id"`
	Outcome         string   `json:"outcome"`
	Admitted        bool     `json:"admitted"`
	FinalScore      float64  `json:"final_score"`
	LexicalScore    float64  `json:"lexical_score"`
	SemanticScore   float64  `json:"semantic_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MatchedTopics   []string `json:"matched_topics"`
	Error           string   `json:"error,omitempty"`
}

// IngestResponse is the body of a successful POST /ingest.
type IngestResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Summary IngestSummaryDTO `json:"summary"`
	Items   []IngestItemDTO  `json:"items"`
}

func toIngestResponse(s *ingest.BatchSummary) IngestResponse {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	items := make([]IngestItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		dto := IngestItemDTO{
			ID:              it.ID,
			Outcome:         string(it.Outcome),
			Admitted:        it.Admitted(),
			FinalScore:      it.Breakdown.FinalScore,
			LexicalScore:    it.Breakdown.LexicalScore,
			SemanticScore:   it.Breakdown.SemanticScore,
			MatchedKeywords: nonNil(it.Breakdown.MatchedKeywords),
			MatchedTopics:   nonNil(it.Breakdown.MatchedTopics),
		}
		if it.Err != nil {
			dto.Error = it.Err.Error()
		}
		items = append(items, dto)
	}
	return IngestResponse{
		Status:  "ACK",
		Message: summaryMessage(s),
		Summary: IngestSummaryDTO{
			TotalReceived: s.TotalReceived,
			Accepted:      s.Accepted,
			Rejected:      s.Rejected,
			Invalid:       s.Invalid,
			Duplicates:    s.Duplicates,
			Replaced:      s.Replaced,
			Failed:        s.Failed,
			ScoringErrors: s.ScoringErrors,
			Threshold:     s.Threshold,
			Errors:        errs,
		},
		Items: items,
	}
}

func summaryMessage(s *ingest.BatchSummary) string {
	return fmt.Sprintf("processed %d items: %d accepted, %d rejected, %d invalid, %d duplicates",
		s.TotalReceived, s.Accepted, s.Rejected, s.Invalid, s.Duplicates)
}

// ItemDTO is a stored item with its score breakdown.
type ItemDTO struct {
	ID              string   `json:"id"`
	Source          string   `json:"source"`
	Title           string   `json:"title"`
	Body            string   `json:"body,omitempty"`
	URL             string   `json:"url,omitempty"`
	PublishedAt     string   `json:"published_at"`
	Version         int64    `json:"version"`
	FinalScore      float64  `json:"final_score"`
	LexicalScore    float64  `json:"lexical_score"`
	SemanticScore   float64  `json:"semantic_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MatchedTopics   []string `json:"matched_topics"`
}

func toItemDTO(it entity.ScoredItem) ItemDTO {
	return ItemDTO{
		ID:              it.Item.ID,
		Source:          it.Item.Source,
		Title:           it.Item.Title,
		Body:            it.Item.Body,
		URL:             it.Item.URL,
		PublishedAt:     it.Item.PublishedAt.UTC().Format(time.RFC3339),
		Version:         it.Item.Version,
		FinalScore:      it.Breakdown.FinalScore,
		LexicalScore:    it.Breakdown.LexicalScore,
		SemanticScore:   it.Breakdown.SemanticScore,
		MatchedKeywords: nonNil(it.Breakdown.MatchedKeywords),
		MatchedTopics:   nonNil(it.Breakdown.MatchedTopics),
	}
}

// FilteringInfo explains how many items a retrieve call considered.
type FilteringInfo struct {
	TotalItemsInStorage int     `json:"total_items_in_storage"`
	ItemsPassingFilters int     `json:"items_passing_filters"`
	RelevanceThreshold  float64 `json:"relevance_threshold"`
}

// RetrieveResponse is the body of GET /retrieve.
type RetrieveResponse struct {
	Items         []ItemDTO     `json:"items"`
	Total         int           `json:"total"`
	FilteringInfo FilteringInfo `json:"filtering_info"`
	// Pagination is set when a limit was requested.
	Pagination *pagination.Metadata `json:"pagination,omitempty"`
}

// ScoreRequest is the body of POST /score.
type ScoreRequest struct {
	Title     string   `json:"title" validate:"required,max=1000"`
	Body      string   `json:"body,omitempty" validate:"max=100000"`
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// ScoreResponse is the body of POST /score.
type ScoreResponse struct {
	FinalScore      float64           `json:"final_score"`
	LexicalScore    float64           `json:"lexical_score"`
	SemanticScore   float64           `json:"semantic_score"`
	MatchedKeywords []string          `json:"matched_keywords"`
	MatchedTopics   []string          `json:"matched_topics"`
	Threshold       float64           `json:"relevance_threshold"`
	Admitted        bool              `json:"admitted"`
	ScoringErrors   map[string]string `json:"scoring_errors,omitempty"`
}

// NewScoreResponse renders a scoring result. Scorer errors are sanitized.
func NewScoreResponse(res relevance.Result, threshold float64) ScoreResponse {
	resp := ScoreResponse{
		FinalScore:      res.Breakdown.FinalScore,
		LexicalScore:    res.Breakdown.LexicalScore,
		SemanticScore:   res.Breakdown.SemanticScore,
		MatchedKeywords: nonNil(res.Breakdown.MatchedKeywords),
		MatchedTopics:   nonNil(res.Breakdown.MatchedTopics),
		Threshold:       threshold,
		Admitted:        relevance.Admit(res.Breakdown, threshold),
	}
	if len(res.Errors) > 0 {
		resp.ScoringErrors = make(map[string]string, len(res.Errors))
		for signal, err := range res.Errors {
			resp.ScoringErrors[signal] = respond.SanitizeError(err)
		}
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
