package shared

import "math"

const (
	// DefaultPageSize applies when callers omit the page size.
	DefaultPageSize = 20
	// MaxPageSize caps page sizes requested by clients.
	MaxPageSize = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, pageSize, total int) Pagination {
	page, pageSize = NormalizePage(page, pageSize)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// NormalizePage clamps page and page size into their accepted ranges.
func NormalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

// Offset returns the SQL offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PagedResult is the list envelope returned by every paged endpoint.
type PagedResult[T any] struct {
	Items []T `json:"items"`
	Pagination
}

// NewPagedResult wraps items with pagination metadata, never returning a nil slice.
func NewPagedResult[T any](items []T, page, pageSize, total int) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{Items: items, Pagination: NewPagination(page, pageSize, total)}
}
