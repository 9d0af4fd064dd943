// Package sqlite implements the repository contracts on database/sql
// with the modernc SQLite driver.
package sqlite

import (
	"database/sql"

	"github.com/agrofarm/market/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db       *sql.DB
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
}

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		users:    &userRepo{db: db},
		products: &productRepo{db: db},
		orders:   &orderRepo{db: db},
	}
}

func (s *Store) Users() repository.UserRepository {
	return s.users
}

func (s *Store) Products() repository.ProductRepository {
	return s.products
}

func (s *Store) Orders() repository.OrderRepository {
	return s.orders
}
