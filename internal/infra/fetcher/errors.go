package fetcher

import "errors"

// Sentinel errors returned by FetchContent. Callers fall back to the feed's
// own text on any of them.
var (
	// ErrInvalidURL means the URL is malformed or not http(s).
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP means the host resolves to a loopback, private or link-local address.
	ErrPrivateIP = errors.New("URL resolves to private IP address")

	// ErrTooManyRedirects means the redirect chain exceeded MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge means the response exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout means the request exceeded Timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrReadabilityFailed means no article text could be extracted.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
