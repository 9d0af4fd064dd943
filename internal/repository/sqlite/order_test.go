package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofarm/market/internal/inventory"
	"github.com/agrofarm/market/internal/order"
	"github.com/agrofarm/market/internal/repository"
)

func TestCreateWithReservationSnapshotsPrices(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 5)
	apples := seedCatalogProduct(t, store, "apples", "1.20", 10)

	created, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID:          user.ID,
		ShippingAddress: "12 Orchard Lane",
		ContactPhone:    "+1-555-0100",
		Items: []repository.OrderItem{
			{ProductID: carrots.ID, Quantity: 2},
			{ProductID: apples.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, order.StatusPending, created.Status)

	// 2 * 2.50 + 3 * 1.20 = 8.60
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("8.60")),
		"total %s", created.TotalAmount)
	assert.Equal(t, int64(3), productStock(t, store, carrots.ID))
	assert.Equal(t, int64(7), productStock(t, store, apples.ID))

	loaded, err := store.Orders().FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, loaded.Items[1].UnitPrice.Equal(decimal.RequireFromString("1.20")))
}

func TestCreateWithReservationRollsBackOnShortStock(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 5)
	apples := seedCatalogProduct(t, store, "apples", "1.20", 2)

	_, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID: user.ID,
		Items: []repository.OrderItem{
			{ProductID: carrots.ID, Quantity: 3},
			{ProductID: apples.ID, Quantity: 10},
		},
	})
	var oos *inventory.OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, apples.ID, oos.ProductID)
	assert.Equal(t, int64(10), oos.Requested)
	assert.Equal(t, int64(2), oos.Available)

	// The whole transaction rolled back, including the first line.
	assert.Equal(t, int64(5), productStock(t, store, carrots.ID))
	assert.Equal(t, int64(2), productStock(t, store, apples.ID))

	var count int64
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count))
	assert.Zero(t, count)
}

func TestCreateWithReservationUnknownProduct(t *testing.T) {
	store, _ := newTestStore(t)
	user := seedUser(t, store, "buyer@example.com")

	_, err := store.Orders().CreateWithReservation(context.Background(), &repository.Order{
		UserID: user.ID,
		Items:  []repository.OrderItem{{ProductID: 999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, inventory.ErrUnknownProduct)
}

func TestCancelWithRestock(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 5)

	created, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID: user.ID,
		Items:  []repository.OrderItem{{ProductID: carrots.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), productStock(t, store, carrots.ID))

	require.NoError(t, store.Orders().CancelWithRestock(ctx, created.ID, order.StatusPending))

	assert.Equal(t, int64(5), productStock(t, store, carrots.ID))
	loaded, err := store.Orders().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, loaded.Status)
}

func TestCancelWithRestockSkipsDeletedProducts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 5)

	created, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID: user.ID,
		Items:  []repository.OrderItem{{ProductID: carrots.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Products().Delete(ctx, carrots.ID))

	require.NoError(t, store.Orders().CancelWithRestock(ctx, created.ID, order.StatusPending))

	loaded, err := store.Orders().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, loaded.Status)
}

func TestUpdateStatusCAS(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 5)

	created, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID: user.ID,
		Items:  []repository.OrderItem{{ProductID: carrots.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, store.Orders().UpdateStatusCAS(ctx, created.ID, order.StatusPending, order.StatusConfirmed))

	// A second writer that still believes the order is pending loses.
	err = store.Orders().UpdateStatusCAS(ctx, created.ID, order.StatusPending, order.StatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = store.Orders().UpdateStatusCAS(ctx, 999, order.StatusPending, order.StatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 50)

	for _, userID := range []int64{alice.ID, alice.ID, bob.ID} {
		_, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
			UserID: userID,
			Items:  []repository.OrderItem{{ProductID: carrots.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	mine, err := store.Orders().List(ctx, repository.OrderFilter{UserID: alice.ID}, repository.PageParams{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, alice.ID, o.UserID)
		assert.Len(t, o.Items, 1)
	}

	pending := order.StatusPending
	count, err := store.Orders().CountFiltered(ctx, repository.OrderFilter{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestListStatusOlderThan(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com")
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 50)

	stale, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID: user.ID,
		Items:  []repository.OrderItem{{ProductID: carrots.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	fresh, err := store.Orders().CreateWithReservation(ctx, &repository.Order{
		UserID: user.ID,
		Items:  []repository.OrderItem{{ProductID: carrots.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Backdate the first order past the sweep horizon.
	_, err = db.Exec(`UPDATE orders SET updated_at = updated_at - 90000 WHERE id = ?`, stale.ID)
	require.NoError(t, err)

	cutoff := fresh.UpdatedAt - 86400
	found, err := store.Orders().ListStatusOlderThan(ctx, order.StatusPending, cutoff)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}
