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

type userRepo struct {
	db *sql.DB
}

const userColumns = `id, email, full_name, password_hash, is_admin, is_active, created_at, updated_at`

func userSelectBy(field string) string {
	return fmt.Sprintf("SELECT %s FROM users WHERE %s = ?", userColumns, field)
}

func (r *userRepo) Create(ctx context.Context, user *repository.User) (*repository.User, error) {
	const stmt = `INSERT INTO users(email, full_name, password_hash, is_admin, is_active, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, stmt,
		user.Email,
		user.FullName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		boolToInt(user.IsActive),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, repository.ErrEmailExists
		}
		return nil, err
	}
	if id, err := res.LastInsertId(); err == nil {
		user.ID = id
	}
	return user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*repository.User, error) {
	row := r.db.QueryRowContext(ctx, userSelectBy("id"), id)
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	row := r.db.QueryRowContext(ctx, userSelectBy("email"), email)
	return scanUser(row)
}

func (r *userRepo) Update(ctx context.Context, user *repository.User) error {
	const stmt = `UPDATE users SET email = ?, full_name = ?, password_hash = ?, is_admin = ?, is_active = ?, updated_at = ?
	              WHERE id = ?`
	user.UpdatedAt = time.Now().Unix()
	res, err := r.db.ExecContext(ctx, stmt,
		user.Email,
		user.FullName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		boolToInt(user.IsActive),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return repository.ErrEmailExists
		}
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

func (r *userRepo) HasAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*repository.User, error) {
	var (
		u                 repository.User
		isAdmin, isActive int
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&isAdmin,
		&isActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.IsAdmin = isAdmin == 1
	u.IsActive = isActive == 1
	return &u, nil
}
