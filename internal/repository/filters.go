package repository

import (
	"github.com/agrofarm/market/internal/order"
	"github.com/shopspring/decimal"
)

// PageParams bounds list queries. Limit is capped by the repository.
type PageParams struct {
	Skip  int64
	Limit int64
}

// MaxPageSize caps a single page of results.
const MaxPageSize = 100

// Normalize clamps skip/limit into the supported range.
func (p PageParams) Normalize() PageParams {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// ProductFilter narrows catalog listings. Nil fields are ignored.
type ProductFilter struct {
	Search   string
	Category *ProductCategory
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  *bool
}

// OrderFilter narrows order listings. UserID of zero means all users.
type OrderFilter struct {
	UserID int64
	Status *order.Status
}
