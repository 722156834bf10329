package http

import (
	"mime"
	"net/http"
)

const (
	maxPathLength = 2048
	// DefaultMaxBodyBytes bounds ingest payloads.
	DefaultMaxBodyBytes = 10 << 20
)

// InputValidation rejects oversized paths, caps the body at maxBody bytes and
// requires a JSON content type on requests that carry a body.
func InputValidation(maxBody int64) Middleware {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > maxPathLength {
				writeJSONError(w, http.StatusRequestURITooLong, "URI too long")
				return
			}
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				if ct := r.Header.Get("Content-Type"); ct != "" {
					mt, _, err := mime.ParseMediaType(ct)
					if err != nil || mt != "application/json" {
						writeJSONError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
						return
					}
				}
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
