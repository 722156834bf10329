// Package pagination parses page/limit query parameters and computes the
// offset and page metadata for ranked result lists.
package pagination

// Config holds pagination limits.
type Config struct {
	// MaxLimit is the largest accepted page size.
	MaxLimit int
}

// DefaultConfig caps pages at 1000 items.
func DefaultConfig() Config {
	return Config{MaxLimit: 1000}
}
