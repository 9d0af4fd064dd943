// Package inventory implements the stock ledger: atomic reserve and
// release of per-product available quantity with a non-negativity
// invariant enforced at the reserve boundary.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Querier is the subset of database/sql needed by ledger operations.
// Both *sql.DB and *sql.Tx satisfy it, so reservations can run standalone
// or inside a larger transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrUnknownProduct indicates the product row does not exist.
var ErrUnknownProduct = errors.New("inventory: unknown product")

// OutOfStockError indicates a reservation exceeded available quantity.
type OutOfStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("inventory: product %d out of stock (requested %d, available %d)", e.ProductID, e.Requested, e.Available)
}

// Ledger performs stock movements against the products table.
type Ledger struct {
	db *sql.DB
}

// New returns a ledger bound to db.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Reserve atomically decrements available stock, failing with
// *OutOfStockError when availability is insufficient. Returns the
// remaining quantity.
func (l *Ledger) Reserve(ctx context.Context, productID, quantity int64) (int64, error) {
	return Reserve(ctx, l.db, productID, quantity)
}

// Release atomically increments available stock. Returns the new quantity.
func (l *Ledger) Release(ctx context.Context, productID, quantity int64) (int64, error) {
	return Release(ctx, l.db, productID, quantity)
}

// Reserve decrements stock_quantity by quantity iff enough stock remains.
// The check and the decrement are a single conditional UPDATE, so two
// concurrent reservations can never jointly oversell: the second one
// observes the already-decremented row.
func Reserve(ctx context.Context, q Querier, productID, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("inventory: reserve quantity must be positive, got %d", quantity)
	}
	res, err := q.ExecContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = strftime('%s','now')
		 WHERE id = ? AND stock_quantity >= ?`,
		quantity, productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("inventory: reserve product %d: %w", productID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("inventory: reserve product %d: %w", productID, err)
	}
	if affected > 0 {
		return stockOf(ctx, q, productID)
	}

	// Distinguish a missing product from insufficient stock.
	available, err := stockOf(ctx, q, productID)
	if err != nil {
		return 0, err
	}
	return 0, &OutOfStockError{ProductID: productID, Requested: quantity, Available: available}
}

// Release increments stock_quantity without an upper bound. Releasing
// stock of a product that no longer exists is a no-op: cancelled orders
// may reference deleted catalog entries.
func Release(ctx context.Context, q Querier, productID, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("inventory: release quantity must be positive, got %d", quantity)
	}
	res, err := q.ExecContext(ctx,
		`UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = strftime('%s','now')
		 WHERE id = ?`,
		quantity, productID)
	if err != nil {
		return 0, fmt.Errorf("inventory: release product %d: %w", productID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("inventory: release product %d: %w", productID, err)
	}
	if affected == 0 {
		return 0, nil
	}
	return stockOf(ctx, q, productID)
}

func stockOf(ctx context.Context, q Querier, productID int64) (int64, error) {
	var stock int64
	err := q.QueryRowContext(ctx, `SELECT stock_quantity FROM products WHERE id = ?`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownProduct
		}
		return 0, fmt.Errorf("inventory: read stock of product %d: %w", productID, err)
	}
	return stock, nil
}
