package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SeededByMigrations(t *testing.T) {
	sut := setupSQLiteStore(t)

	products, err := sut.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, DefaultProducts(), products)
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	sut := setupSQLiteStore(t)
	require.NoError(t, sut.RunMigrations())

	products, err := sut.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 14)
}

func TestSQLiteStore_Get(t *testing.T) {
	sut := setupSQLiteStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p, err := sut.Get(ctx, "Cooking_Oil")
	require.NoError(t, err)
	assert.Equal(t, domain.Product{Name: "cooking_oil", Price: 25000, Unit: "bottle", Category: domain.CategoryHousehold}, p)

	_, err = sut.Get(ctx, "caviar")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_CreateUpdateDelete(t *testing.T) {
	sut := setupSQLiteStore(t)
	ctx := context.Background()

	p := domain.Product{Name: "yogurt", Price: 7000, Unit: "cup", Category: domain.CategoryBeverage}
	require.NoError(t, sut.Create(ctx, p))
	assert.ErrorIs(t, sut.Create(ctx, p), ErrProductExists)

	require.NoError(t, sut.UpdatePrice(ctx, "yogurt", 7500))
	got, err := sut.Get(ctx, "yogurt")
	require.NoError(t, err)
	assert.Equal(t, int64(7500), got.Price)

	require.NoError(t, sut.Delete(ctx, "yogurt"))
	assert.ErrorIs(t, sut.Delete(ctx, "yogurt"), domain.ErrNotFound)
	assert.ErrorIs(t, sut.UpdatePrice(ctx, "yogurt", 1), domain.ErrNotFound)
}
