package news

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"itnews-radar/internal/common/pagination"
	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/handler/http/respond"
	"itnews-radar/internal/usecase/retrieve"
)

// Retriever reads ranked and single items.
type Retriever interface {
	Retrieve(ctx context.Context, q retrieve.Query) (*retrieve.Result, error)
	Get(ctx context.Context, id string) (entity.ScoredItem, error)
}

type RetrieveHandler struct{ Svc Retriever }

// ServeHTTP returns admitted items ranked by score, newest first on ties.
// Query parameters: threshold (0..1), source, limit (0..1000, 0 for all) and
// page (1-based, needs a limit).
func (h RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q, page, err := parseQuery(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.Svc.Retrieve(r.Context(), q)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrValidationFailed) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	items := make([]ItemDTO, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, toItemDTO(it))
	}
	resp := RetrieveResponse{
		Items: items,
		Total: len(items),
		FilteringInfo: FilteringInfo{
			TotalItemsInStorage: res.TotalInStorage,
			ItemsPassingFilters: res.PassingFilters,
			RelevanceThreshold:  res.Threshold,
		},
	}
	if page.Limit > 0 {
		meta := pagination.NewMetadata(res.PassingFilters, page)
		resp.Pagination = &meta
	}
	respond.JSON(w, http.StatusOK, resp)
}

func parseQuery(r *http.Request) (retrieve.Query, pagination.Params, error) {
	values := r.URL.Query()
	q := retrieve.Query{Source: values.Get("source")}

	if s := values.Get("threshold"); s != "" {
		t, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, pagination.Params{}, &entity.ValidationError{Field: "threshold", Message: "threshold must be a number between 0 and 1"}
		}
		if err := entity.ValidateThreshold(t); err != nil {
			return q, pagination.Params{}, err
		}
		q.Threshold = &t
	}

	page, err := pagination.ParseQuery(values, pagination.DefaultConfig())
	if err != nil {
		return q, page, err
	}
	q.Limit = page.Limit
	q.Offset = page.Offset()
	return q, page, nil
}
