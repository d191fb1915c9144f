package ports

import "math"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (Page-1)*Limit well inside int64 for any accepted limit.
	MaxPage = math.MaxInt32
)

// Pagination is the 1-based page window requested by a caller.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize applies the default limit, caps it at MaxPageLimit and clamps the
// page into [1, MaxPage].
func (p Pagination) Normalize() Pagination {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

// Skip is the number of rows before the page. It is never negative.
func (p Pagination) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	page := min(int64(p.Page), MaxPage)
	return (page - 1) * int64(p.Limit)
}

// Page is one page of a listing plus the totals needed to render pagination.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewPage builds a Page from a normalised window.
func NewPage[T any](items []T, total int64, p Pagination) *Page[T] {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}
