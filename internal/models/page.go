package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based page window over a listing.
type PageRequest struct {
	Page  int `validate:"min=1"`
	Limit int `validate:"min=1,max=100"`
}

// MaxPage is the largest page number whose offset fits in an int for limit.
func MaxPage(limit int) int {
	if limit < 1 {
		return math.MaxInt
	}
	return math.MaxInt/limit + 1
}

// Offset returns the number of rows to skip for this page. Offsets that would
// overflow are clamped to math.MaxInt.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page > MaxPage(p.Limit) {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Page is the uniform listing envelope shared by every paginated endpoint.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"totalCount"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
}

// NewPage assembles a page, computing totalPages as ceil(total/limit).
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if req.Limit > 0 {
		limit := int64(req.Limit)
		pages = (total + limit - 1) / limit
	}
	return Page[T]{
		Items:       items,
		TotalCount:  total,
		CurrentPage: req.Page,
		TotalPages:  pages,
	}
}

// VideoFilter narrows and orders a video listing. Unpublished videos are only
// returned to their owner, identified by ViewerID.
type VideoFilter struct {
	Page     PageRequest
	Query    string
	SortBy   string
	SortDesc bool
	OwnerID  string
	ViewerID string
}

// VideoPatch carries the optional fields of a video update. Nil fields are left unchanged.
type VideoPatch struct {
	Title       *string
	Description *string
	Thumbnail   *MediaAsset
}
