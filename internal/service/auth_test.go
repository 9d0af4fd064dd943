package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrofarm/market/internal/auth/token"
	"github.com/agrofarm/market/internal/cache"
	"github.com/agrofarm/market/internal/repository"
	"github.com/agrofarm/market/internal/security"
	"github.com/agrofarm/market/internal/support/hash"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users  map[int64]*repository.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*repository.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *repository.User) (*repository.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, repository.ErrEmailExists
		}
	}
	user.ID = f.nextID
	f.nextID++
	now := time.Now().Unix()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *repository.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) HasAdmin(ctx context.Context) (bool, error) {
	for _, u := range f.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	hasher, err := hash.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	manager, err := token.NewManager(token.Options{
		SigningKey: []byte("test-signing-key-0123456789abcdef"),
		Issuer:     "agromarket-test",
		TTL:        time.Hour,
	})
	require.NoError(t, err)
	store := cache.NewStore(cache.Options{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	limiter, err := security.NewRateLimiter(store)
	require.NoError(t, err)
	return NewAuthService(repo, hasher, manager, limiter), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{
		Email:    "Farmer@Example.com",
		FullName: " Jo Farmer ",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "farmer@example.com", account.Email, "emails are normalized")
	assert.Equal(t, "Jo Farmer", account.FullName)
	assert.True(t, account.IsActive)
	assert.False(t, account.IsAdmin)

	result, err := svc.Login(ctx, LoginInput{Email: "farmer@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, account.ID, result.Account.ID)

	claims, err := svc.Verify(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.UserID)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Email: "ok@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown accounts answer identically to wrong passwords.
	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	repo.users[account.ID].IsActive = false

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLoginRateLimited(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	for i := 0; i < loginLimit; i++ {
		_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSuccessfulLoginResetsRateWindow(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	for i := 0; i < loginLimit-1; i++ {
		_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	// The window restarts after success; failures may accrue again.
	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Verify(ctx, "not.a.token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	newName := "New Name"
	newPassword := "anothersecret"
	updated, err := svc.UpdateAccount(ctx, account.ID, UpdateAccountInput{FullName: &newName, Password: &newPassword})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: newPassword})
	require.NoError(t, err)

	short := "short"
	_, err = svc.UpdateAccount(ctx, account.ID, UpdateAccountInput{Password: &short})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
