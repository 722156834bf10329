package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"itnews-radar/internal/handler/http/respond"
	"itnews-radar/internal/observability/logging"
)

type ctxKey struct{}

// Require returns a middleware that admits requests carrying a valid bearer
// token whose role is one of roles. Missing or invalid tokens get 401, other
// roles get 403. With auth disabled the middleware passes everything through.
func Require(cfg Config, roles ...string) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			claims, err := parseBearer(r.Header.Get("Authorization"), cfg.Secret)
			authzCheckDuration.Observe(time.Since(start).Seconds())

			if err != nil {
				authDecisions.WithLabelValues("unauthorized").Inc()
				logging.FromContext(r.Context()).Debug("bearer token rejected",
					slog.String("path", r.URL.Path),
					slog.Bool("missing", errors.Is(err, ErrMissingToken)))
				w.Header().Set("WWW-Authenticate", `Bearer realm="itnews-radar"`)
				respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{Error: "unauthorized"})
				return
			}
			if !slices.Contains(roles, claims.Role) {
				authDecisions.WithLabelValues("forbidden").Inc()
				logging.FromContext(r.Context()).Warn("forbidden role",
					slog.String("path", r.URL.Path),
					slog.String("subject", claims.Subject),
					slog.String("role", claims.Role))
				respond.JSON(w, http.StatusForbidden, respond.ErrorBody{Error: "forbidden"})
				return
			}

			authDecisions.WithLabelValues("allowed").Inc()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.Subject)))
		})
	}
}

// SubjectFromContext returns the authenticated subject, or "" when the
// request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(ctxKey{}).(string)
	return sub
}
