// Package repository defines the persistence contracts and row types the
// rest of the application programs against. Implementations live in
// subpackages (sqlite).
package repository

import (
	"context"

	"github.com/agrofarm/market/internal/order"
)

// Store aggregates all repositories backed by one database.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Orders() OrderRepository
}

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts a new user and backfills the primary key.
	// Returns ErrEmailExists when the email is already taken.
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	// HasAdmin reports whether any admin account exists yet.
	HasAdmin(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) (*Product, error)
	FindByID(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, filter ProductFilter, page PageParams) ([]*Product, error)
	CountFiltered(ctx context.Context, filter ProductFilter) (int64, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	// ListBelowStock returns products whose stock is at or below threshold.
	ListBelowStock(ctx context.Context, threshold int64) ([]*Product, error)
	// ImagePaths lists every stored image path, for upload cleanup.
	ImagePaths(ctx context.Context) ([]string, error)
}

// OrderRepository persists orders and drives the stock-coupled writes.
// Orders are never deleted; cancellation is a status change.
type OrderRepository interface {
	// CreateWithReservation inserts the order and its items and reserves
	// stock for every line inside one transaction. Unit prices and the
	// order total are snapshotted from the catalog at reservation time.
	// On insufficient stock the transaction rolls back and the error is
	// an *inventory.OutOfStockError; nothing is persisted.
	CreateWithReservation(ctx context.Context, o *Order) (*Order, error)

	// FindByID loads an order with its items.
	FindByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, filter OrderFilter, page PageParams) ([]*Order, error)
	CountFiltered(ctx context.Context, filter OrderFilter) (int64, error)

	// UpdateStatusCAS moves an order from the expected current status to
	// the next one. Returns ErrConflict when the stored status no longer
	// matches current, ErrNotFound when the order does not exist.
	UpdateStatusCAS(ctx context.Context, id int64, current, next order.Status) error

	// CancelWithRestock moves the order from current to cancelled and
	// releases the reserved stock of every item in one transaction.
	// Items whose product has been deleted are skipped.
	CancelWithRestock(ctx context.Context, id int64, current order.Status) error

	// ListStatusOlderThan returns orders still in status whose last
	// update predates beforeUnix. Used by the stalled-order sweep.
	ListStatusOlderThan(ctx context.Context, status order.Status, beforeUnix int64) ([]*Order, error)
}
