package pagination

import "math"

// CalculateOffset returns the offset of a 1-based page. Page 1 and a zero
// limit both give offset 0. Offsets that would overflow saturate at
// math.MaxInt, which is past the end of any list.
func CalculateOffset(page, limit int) int {
	if page < 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// CalculateTotalPages uses ceiling division and never returns less than 1.
func CalculateTotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
