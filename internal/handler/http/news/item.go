package news

import (
	"errors"
	"net/http"

	"itnews-radar/internal/domain/entity"
	"itnews-radar/internal/handler/http/respond"
)

type GetHandler struct{ Svc Retriever }

// ServeHTTP returns one stored item by id, or 404.
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	it, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrNotFound):
			respond.SafeError(w, http.StatusNotFound, entity.ErrNotFound)
		case errors.Is(err, entity.ErrValidationFailed):
			respond.SafeError(w, http.StatusBadRequest, err)
		default:
			respond.SafeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	respond.JSON(w, http.StatusOK, toItemDTO(it))
}
