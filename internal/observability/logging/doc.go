// Package logging builds the slog loggers used by the api, worker and
// radarctl binaries.
//
// NewLogger reads LOG_LEVEL (debug, info, warn, error) and LOG_FORMAT (json
// or text) and writes to stdout. Handlers attach the request id with
// WithRequestID; code below the HTTP layer retrieves the request logger with
// FromContext, which falls back to slog.Default.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//	logger.Info("scoring pipeline initialized", slog.Int("topics", 4))
package logging
