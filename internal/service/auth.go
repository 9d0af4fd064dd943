package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/agrofarm/market/internal/auth/token"
	"github.com/agrofarm/market/internal/repository"
	"github.com/agrofarm/market/internal/security"
	"github.com/agrofarm/market/internal/support/hash"
)

// AuthService registers accounts, authenticates logins and verifies
// access tokens.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AccountView, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Verify(ctx context.Context, rawToken string) (*Claims, error)
	Account(ctx context.Context, userID int64) (*AccountView, error)
	UpdateAccount(ctx context.Context, userID int64, input UpdateAccountInput) (*AccountView, error)
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

// UpdateAccountInput carries optional profile changes. Nil fields are
// left untouched.
type UpdateAccountInput struct {
	FullName *string
	Password *string
}

// LoginInput is the payload for login.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginResult returns the issued token and an account snapshot.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Account   AccountView `json:"account"`
}

// AccountView is the external shape of a user.
type AccountView struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	IsAdmin   bool   `json:"is_admin"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"`
}

// Claims describe the authenticated caller extracted from a token.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Actor identifies who performs an operation, for authorization checks.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

const (
	loginLimit        = 5
	loginWindow       = time.Minute
	minPasswordLength = 8
)

type authService struct {
	users    repository.UserRepository
	hasher   hash.Hasher
	tokenMgr *token.Manager
	rate     *security.RateLimiter
}

// NewAuthService wires the repository and auth infrastructure.
func NewAuthService(users repository.UserRepository, hasher hash.Hasher, tokenMgr *token.Manager, rate *security.RateLimiter) AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		tokenMgr: tokenMgr,
		rate:     rate,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AccountView, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, &repository.User{
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hashed,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, wrapStorage(err)
	}
	view := accountView(user)
	return &view, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := normalizeEmail(input.Email)
	password := input.Password
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if s.rate != nil {
		res, err := s.rate.Allow(ctx, "login:"+email, loginLimit, loginWindow)
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			return nil, ErrRateLimited
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, wrapStorage(err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, hash.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	tokenStr, claims, err := s.tokenMgr.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	if s.rate != nil {
		s.rate.Reset(ctx, "login:"+email)
	}
	return &LoginResult{
		Token:     tokenStr,
		ExpiresAt: claims.ExpiresAt.Time,
		Account:   accountView(user),
	}, nil
}

func (s *authService) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	tokenStr := strings.TrimSpace(rawToken)
	if tokenStr == "" {
		return nil, ErrUnauthorized
	}
	parsed, err := s.tokenMgr.Parse(tokenStr)
	if err != nil {
		return nil, ErrUnauthorized
	}
	userID, err := parsed.UserID()
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return &Claims{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
}

func (s *authService) Account(ctx context.Context, userID int64) (*AccountView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, wrapStorage(err)
	}
	view := accountView(user)
	return &view, nil
}

func (s *authService) UpdateAccount(ctx context.Context, userID int64, input UpdateAccountInput) (*AccountView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, wrapStorage(err)
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
		}
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, wrapStorage(err)
	}
	view := accountView(user)
	return &view, nil
}

func accountView(u *repository.User) AccountView {
	return AccountView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func normalizeEmail(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return ""
	}
	return trimmed
}

// wrapStorage tags low-level datastore failures so the transport layer
// can answer 503 instead of a generic 500. Known repository sentinels
// are mapped to their service equivalents instead.
func wrapStorage(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrEmailExists):
		return ErrEmailExists
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}
