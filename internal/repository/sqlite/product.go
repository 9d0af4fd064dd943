package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrofarm/market/internal/repository"
)

type productRepo struct {
	db *sql.DB
}

const productColumns = `id, name, description, price, stock_quantity, category, unit, image_path, created_at, updated_at`

func productSelectBy(field string) string {
	return fmt.Sprintf("SELECT %s FROM products WHERE %s = ?", productColumns, field)
}

func (r *productRepo) Create(ctx context.Context, p *repository.Product) (*repository.Product, error) {
	const stmt = `INSERT INTO products(name, description, price, stock_quantity, category, unit, image_path, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, stmt,
		p.Name,
		p.Description,
		encodeDecimal(p.Price),
		p.StockQuantity,
		string(p.Category),
		p.Unit,
		nullableString(p.ImagePath),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if id, err := res.LastInsertId(); err == nil {
		p.ID = id
	}
	return p, nil
}

func (r *productRepo) FindByID(ctx context.Context, id int64) (*repository.Product, error) {
	row := r.db.QueryRowContext(ctx, productSelectBy("id"), id)
	return scanProduct(row)
}

// productFilterClauses builds WHERE conditions shared by Search and
// CountFiltered. Price bounds compare numerically via CAST since money
// is stored as decimal text.
func productFilterClauses(filter repository.ProductFilter) ([]string, []any) {
	var conds []string
	var args []any

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		conds = append(conds, "(name LIKE ? OR description LIKE ?)")
		args = append(args, like, like)
	}
	if filter.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, string(*filter.Category))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "CAST(price AS REAL) >= ?")
		args = append(args, filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "CAST(price AS REAL) <= ?")
		args = append(args, filter.MaxPrice.InexactFloat64())
	}
	if filter.InStock != nil {
		if *filter.InStock {
			conds = append(conds, "stock_quantity > 0")
		} else {
			conds = append(conds, "stock_quantity = 0")
		}
	}
	return conds, args
}

func (r *productRepo) Search(ctx context.Context, filter repository.ProductFilter, page repository.PageParams) ([]*repository.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	conds, args := productFilterClauses(filter)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	page = page.Normalize()
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*repository.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepo) CountFiltered(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	query := "SELECT COUNT(*) FROM products"
	conds, args := productFilterClauses(filter)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// Update writes every mutable column except stock_quantity, which only
// the inventory ledger touches.
func (r *productRepo) Update(ctx context.Context, p *repository.Product) error {
	const stmt = `UPDATE products SET name = ?, description = ?, price = ?, category = ?, unit = ?, image_path = ?, updated_at = ?
	              WHERE id = ?`
	p.UpdatedAt = time.Now().Unix()
	res, err := r.db.ExecContext(ctx, stmt,
		p.Name,
		p.Description,
		encodeDecimal(p.Price),
		string(p.Category),
		p.Unit,
		nullableString(p.ImagePath),
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepo) ListBelowStock(ctx context.Context, threshold int64) ([]*repository.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE stock_quantity <= ? ORDER BY stock_quantity, id", threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*repository.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepo) ImagePaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT image_path FROM products WHERE image_path IS NOT NULL AND image_path != ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func scanProduct(row rowScanner) (*repository.Product, error) {
	var (
		p         repository.Product
		price     string
		category  string
		imagePath sql.NullString
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&price,
		&p.StockQuantity,
		&category,
		&p.Unit,
		&imagePath,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	decoded, err := decodeDecimal(price)
	if err != nil {
		return nil, err
	}
	p.Price = decoded
	p.Category = repository.ProductCategory(category)
	if imagePath.Valid {
		p.ImagePath = imagePath.String
	}
	return &p, nil
}
