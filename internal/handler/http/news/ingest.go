package news

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/handler/http/auth"
	"itnews-radar/internal/handler/http/respond"
	"itnews-radar/internal/observability/logging"
	"itnews-radar/internal/usecase/ingest"
)

// Ingestor runs directly submitted items through the scoring gate.
type Ingestor interface {
	Ingest(ctx context.Context, items []entity.NewsItem, threshold float64) (*ingest.BatchSummary, error)
	Threshold() float64
}

var errEmptyBody = errors.New("request body is required")

type IngestHandler struct{ Svc Ingestor }

// ServeHTTP accepts a JSON array of item records or an {"items", "threshold"}
// object. Malformed JSON fails the request; per-record problems only show up
// in the summary.
func (h IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIngest(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return
		}
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, validationError(err))
		return
	}

	threshold := h.Svc.Threshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	items := make([]entity.NewsItem, len(req.Items))
	for i, rec := range req.Items {
		items[i] = rec.ToEntity()
	}

	summary, err := h.Svc.Ingest(r.Context(), items, threshold)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrValidationFailed) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	logging.FromContext(r.Context()).Info("ingest request processed",
		slog.Int("total_received", summary.TotalReceived),
		slog.Int("accepted", summary.Accepted),
		slog.Int("rejected", summary.Rejected),
		slog.Int("invalid", summary.Invalid),
		slog.Int("duplicates", summary.Duplicates),
		slog.String("subject", auth.SubjectFromContext(r.Context())))

	respond.JSON(w, http.StatusOK, toIngestResponse(summary))
}

func decodeIngest(body io.Reader) (IngestRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return IngestRequest{}, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return IngestRequest{}, errEmptyBody
	}

	var req IngestRequest
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &req.Items); err != nil {
			return IngestRequest{}, invalidJSON(err)
		}
	case '{':
		if err := json.Unmarshal(raw, &req); err != nil {
			return IngestRequest{}, invalidJSON(err)
		}
	default:
		return IngestRequest{}, &entity.ValidationError{Message: "invalid JSON: expected an array or an object"}
	}
	return req, nil
}

func invalidJSON(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &entity.ValidationError{Field: typeErr.Field, Message: "invalid JSON: wrong type for " + typeErr.Field}
	}
	return &entity.ValidationError{Message: "invalid JSON body"}
}
