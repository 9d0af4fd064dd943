package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofarm/market/internal/repository"
)

func TestUserCreateAndFind(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	created := seedUser(t, store, "alice@example.com")
	require.NotZero(t, created.ID)

	byID, err := store.Users().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.True(t, byID.IsActive)

	byEmail, err := store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	store, _ := newTestStore(t)
	seedUser(t, store, "alice@example.com")

	now := time.Now().Unix()
	_, err := store.Users().Create(context.Background(), &repository.User{
		Email:        "alice@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestUserFindMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Users().FindByID(context.Background(), 12345)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHasAdmin(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	has, err := store.Users().HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	user := seedUser(t, store, "root@example.com")
	user.IsAdmin = true
	require.NoError(t, store.Users().Update(ctx, user))

	has, err = store.Users().HasAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}
