// Package respond writes JSON responses and turns errors into client-safe
// messages.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"itnews-radar/internal/domain/entity"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent.
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Error writes err's message verbatim. Use SafeError for anything that may
// carry internal detail.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, ErrorBody{Error: err.Error()})
}

var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"must be",
	"cannot be",
	"too long",
	"too large",
}

// SafeError returns client errors as-is and replaces everything else with a
// generic message. 5xx responses never echo the error; it is logged with
// secrets masked instead.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	if code < 500 {
		var vErr *entity.ValidationError
		if errors.As(err, &vErr) {
			JSON(w, code, ErrorBody{Error: vErr.Message, Field: vErr.Field})
			return
		}
		if errors.Is(err, entity.ErrNotFound) {
			JSON(w, code, ErrorBody{Error: "not found"})
			return
		}
		if isSafe(err.Error()) {
			JSON(w, code, ErrorBody{Error: err.Error()})
			return
		}
	}

	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	msg := "internal server error"
	if code < 500 {
		msg = strings.ToLower(http.StatusText(code))
	}
	JSON(w, code, ErrorBody{Error: msg})
}

func isSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, frag := range safeFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
