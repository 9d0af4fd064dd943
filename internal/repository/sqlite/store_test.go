package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/agrofarm/market/internal/migrations"
	"github.com/agrofarm/market/internal/repository"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "market.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(db))
	return NewStore(db), db
}

func seedUser(t *testing.T, store *Store, email string) *repository.User {
	t.Helper()
	now := time.Now().Unix()
	user, err := store.Users().Create(context.Background(), &repository.User{
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return user
}

func seedCatalogProduct(t *testing.T, store *Store, name string, price string, stock int64) *repository.Product {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	product, err := store.Products().Create(context.Background(), &repository.Product{
		Name:          name,
		Description:   "fresh from the farm",
		Price:         p,
		StockQuantity: stock,
		Category:      repository.CategoryVegetables,
		Unit:          "kg",
	})
	require.NoError(t, err)
	return product
}

func productStock(t *testing.T, store *Store, id int64) int64 {
	t.Helper()
	p, err := store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}
