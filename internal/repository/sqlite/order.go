package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrofarm/market/internal/inventory"
	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/repository"
)

type orderRepo struct {
	db *sql.DB
}

const orderColumns = `id, user_id, status, total_amount, shipping_address, contact_phone, created_at, updated_at`

func (r *orderRepo) CreateWithReservation(ctx context.Context, o *repository.Order) (*repository.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Reserve stock line by line, snapshotting the unit price inside the
	// same transaction so the stored total matches reservation-time prices.
	total := decimal.Zero
	for i := range o.Items {
		item := &o.Items[i]
		if _, err := inventory.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
		var price string
		if err := tx.QueryRowContext(ctx, `SELECT price FROM products WHERE id = ?`, item.ProductID).Scan(&price); err != nil {
			return nil, fmt.Errorf("snapshot price of product %d: %w", item.ProductID, err)
		}
		unitPrice, err := decodeDecimal(price)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = unitPrice
		total = total.Add(item.Subtotal())
	}

	now := time.Now().Unix()
	o.Status = order.StatusPending
	o.TotalAmount = total
	o.CreatedAt = now
	o.UpdatedAt = now

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders(user_id, status, total_amount, shipping_address, contact_phone, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		o.UserID,
		string(o.Status),
		encodeDecimal(o.TotalAmount),
		o.ShippingAddress,
		o.ContactPhone,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	o.ID = orderID

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = orderID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO order_items(order_id, product_id, quantity, unit_price) VALUES(?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.Quantity, encodeDecimal(item.UnitPrice))
		if err != nil {
			return nil, err
		}
		if id, err := res.LastInsertId(); err == nil {
			item.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id int64) (*repository.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	items, err := r.itemsForOrders(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

func orderFilterClauses(filter repository.OrderFilter) ([]string, []any) {
	var conds []string
	var args []any
	if filter.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}
	return conds, args
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter, page repository.PageParams) ([]*repository.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	conds, args := orderFilterClauses(filter)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	page = page.Normalize()
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*repository.Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

func (r *orderRepo) CountFiltered(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	query := "SELECT COUNT(*) FROM orders"
	conds, args := orderFilterClauses(filter)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *orderRepo) UpdateStatusCAS(ctx context.Context, id int64, current, next order.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(next), time.Now().Unix(), id, string(current))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.staleOrMissing(ctx, r.db, id)
	}
	return nil
}

func (r *orderRepo) CancelWithRestock(ctx context.Context, id int64, current order.Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(order.StatusCancelled), time.Now().Unix(), id, string(current))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.staleOrMissing(ctx, tx, id)
	}

	rows, err := tx.QueryContext(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id = ?`, id)
	if err != nil {
		return err
	}
	type line struct {
		productID int64
		quantity  int64
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Release is a no-op for products deleted since the order was placed.
	for _, l := range lines {
		if _, err := inventory.Release(ctx, tx, l.productID, l.quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepo) ListStatusOlderThan(ctx context.Context, status order.Status, beforeUnix int64) ([]*repository.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE status = ? AND updated_at < ? ORDER BY updated_at",
		string(status), beforeUnix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*repository.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// staleOrMissing distinguishes a lost compare-and-set race from a
// nonexistent order after a zero-row status update.
func (r *orderRepo) staleOrMissing(ctx context.Context, q inventory.Querier, id int64) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrConflict
}

func (r *orderRepo) itemsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]repository.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(orderIDs))
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `SELECT id, order_id, product_id, quantity, unit_price FROM order_items
	          WHERE order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]repository.OrderItem)
	for rows.Next() {
		var item repository.OrderItem
		var price string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &price); err != nil {
			return nil, err
		}
		unitPrice, err := decodeDecimal(price)
		if err != nil {
			return nil, err
		}
		item.UnitPrice = unitPrice
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	return result, rows.Err()
}

func scanOrder(row rowScanner) (*repository.Order, error) {
	var (
		o      repository.Order
		status string
		total  string
	)
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&status,
		&total,
		&o.ShippingAddress,
		&o.ContactPhone,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	decoded, err := decodeDecimal(total)
	if err != nil {
		return nil, err
	}
	o.Status = order.Status(status)
	o.TotalAmount = decoded
	return &o, nil
}
