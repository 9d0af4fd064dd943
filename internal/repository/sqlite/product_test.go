package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrofarm/market/internal/repository"
)

func TestProductSearchFilters(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	seedCatalogProduct(t, store, "heirloom carrots", "2.50", 5)
	seedCatalogProduct(t, store, "red apples", "1.20", 0)
	cheese, err := store.Products().Create(ctx, &repository.Product{
		Name:          "goat cheese",
		Description:   "soft cheese",
		Price:         decimal.RequireFromString("7.80"),
		StockQuantity: 3,
		Category:      repository.CategoryDairy,
		Unit:          "piece",
	})
	require.NoError(t, err)

	t.Run("search matches name and description", func(t *testing.T) {
		got, err := store.Products().Search(ctx, repository.ProductFilter{Search: "cheese"}, repository.PageParams{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, cheese.ID, got[0].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		dairy := repository.CategoryDairy
		count, err := store.Products().CountFiltered(ctx, repository.ProductFilter{Category: &dairy})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("price bounds", func(t *testing.T) {
		min := decimal.RequireFromString("2.00")
		max := decimal.RequireFromString("5.00")
		got, err := store.Products().Search(ctx, repository.ProductFilter{MinPrice: &min, MaxPrice: &max}, repository.PageParams{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "heirloom carrots", got[0].Name)
	})

	t.Run("in stock only", func(t *testing.T) {
		inStock := true
		got, err := store.Products().Search(ctx, repository.ProductFilter{InStock: &inStock}, repository.PageParams{})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := store.Products().Search(ctx, repository.ProductFilter{}, repository.PageParams{Skip: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "red apples", got[0].Name)
	})
}

func TestProductUpdateLeavesStockAlone(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 5)

	carrots.Name = "organic carrots"
	carrots.Price = decimal.RequireFromString("3.10")
	carrots.StockQuantity = 999
	require.NoError(t, store.Products().Update(ctx, carrots))

	loaded, err := store.Products().FindByID(ctx, carrots.ID)
	require.NoError(t, err)
	assert.Equal(t, "organic carrots", loaded.Name)
	assert.True(t, loaded.Price.Equal(decimal.RequireFromString("3.10")))
	assert.Equal(t, int64(5), loaded.StockQuantity, "stock is owned by the inventory ledger")
}

func TestProductUpdateMissing(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Products().Update(context.Background(), &repository.Product{ID: 404, Name: "ghost", Category: repository.CategoryOther})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListBelowStock(t *testing.T) {
	store, _ := newTestStore(t)
	seedCatalogProduct(t, store, "carrots", "2.50", 3)
	seedCatalogProduct(t, store, "apples", "1.20", 50)
	seedCatalogProduct(t, store, "pears", "1.90", 0)

	low, err := store.Products().ListBelowStock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "pears", low[0].Name)
	assert.Equal(t, "carrots", low[1].Name)
}

func TestImagePaths(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	carrots := seedCatalogProduct(t, store, "carrots", "2.50", 3)
	seedCatalogProduct(t, store, "apples", "1.20", 50)

	carrots.ImagePath = "abc123.jpg"
	require.NoError(t, store.Products().Update(ctx, carrots))

	paths, err := store.Products().ImagePaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123.jpg"}, paths)
}
