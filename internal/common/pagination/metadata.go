package pagination

// Metadata contains pagination metadata included in API responses.
type Metadata struct {
	Total      int `json:"total"` // items across all pages
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewMetadata describes page p of a list of total items.
func NewMetadata(total int, p Params) Metadata {
	return Metadata{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: CalculateTotalPages(total, p.Limit),
	}
}
