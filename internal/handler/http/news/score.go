package news

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/handler/http/respond"
	"itnews-radar/internal/usecase/ingest"
)

// previewSource tags the transient item scored by POST /score.
const previewSource = "preview"

type ScoreHandler struct {
	Scorer    ingest.Scorer
	Threshold float64
}

// ServeHTTP scores {title, body} with the ingest pipeline without storing it.
func (h ScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return
		}
		respond.SafeError(w, http.StatusBadRequest, invalidJSON(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, validationError(err))
		return
	}

	threshold := h.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	res := h.Scorer.Score(r.Context(), entity.NewsItem{
		ID:          previewSource,
		Source:      previewSource,
		Title:       req.Title,
		Body:        req.Body,
		PublishedAt: time.Now().UTC(),
		Version:     entity.DefaultVersion,
	})

	resp := NewScoreResponse(res, threshold)
	respond.JSON(w, http.StatusOK, resp)
}
