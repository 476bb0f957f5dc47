package pagination

import (
	"context"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Request is a 1-based page request bound from query parameters.
type Request struct {
	Page     int `form:"page,default=1" json:"page"`
	PageSize int `form:"page_size,default=20" json:"page_size"`
}

// Normalize clamps the request into a valid range.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

func (r Request) Offset() int {
	r = r.Normalize()
	return (r.Page - 1) * r.PageSize
}

type Meta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// Result is one page of T plus totals.
type Result[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

func NewResult[T any](data []T, totalItems int64, req Request) Result[T] {
	req = req.Normalize()
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data: data,
		Meta: Meta{
			TotalItems:  totalItems,
			TotalPages:  int((totalItems + int64(req.PageSize) - 1) / int64(req.PageSize)),
			CurrentPage: req.Page,
			PageSize:    req.PageSize,
		},
	}
}

// Paginate counts the rows matched by query and loads the requested page.
// query must already carry its filters and ordering.
func Paginate[T any](ctx context.Context, query *gorm.DB, req Request) (Result[T], error) {
	req = req.Normalize()

	var total int64
	if err := query.WithContext(ctx).Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return Result[T]{}, err
	}

	var rows []T
	if total > 0 {
		if err := query.WithContext(ctx).Offset(req.Offset()).Limit(req.PageSize).Find(&rows).Error; err != nil {
			return Result[T]{}, err
		}
	}
	return NewResult(rows, total, req), nil
}
