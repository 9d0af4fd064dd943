package repository

import (
	"github.com/agrofarm/market/internal/order"
	"github.com/shopspring/decimal"
)

// User is a registered account. Timestamps are unix seconds.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    int64
	UpdatedAt    int64
}

// ProductCategory enumerates the catalog categories.
type ProductCategory string

const (
	CategoryVegetables ProductCategory = "vegetables"
	CategoryFruits     ProductCategory = "fruits"
	CategoryDairy      ProductCategory = "dairy"
	CategoryGrains     ProductCategory = "grains"
	CategoryOther      ProductCategory = "other"
)

// Categories lists all valid product categories in display order.
func Categories() []ProductCategory {
	return []ProductCategory{
		CategoryVegetables,
		CategoryFruits,
		CategoryDairy,
		CategoryGrains,
		CategoryOther,
	}
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryDairy, CategoryGrains, CategoryOther:
		return true
	}
	return false
}

// Product is a catalog entry. StockQuantity is mutated only through the
// inventory ledger and never goes negative.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int64
	Category      ProductCategory
	Unit          string
	ImagePath     string
	CreatedAt     int64
	UpdatedAt     int64
}

// OrderItem is one line of an order. UnitPrice is snapshotted from the
// product at order creation and immutable thereafter.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity × captured unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is a customer order. Orders are never deleted; terminal statuses
// (delivered, cancelled) end the lifecycle.
type Order struct {
	ID              int64
	UserID          int64
	Status          order.Status
	TotalAmount     decimal.Decimal
	ShippingAddress string
	ContactPhone    string
	Items           []OrderItem
	CreatedAt       int64
	UpdatedAt       int64
}
