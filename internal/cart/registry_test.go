package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/catalog"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProducts struct{ err error }

func (f failingProducts) GetProduct(context.Context, string) (domain.Product, error) {
	return domain.Product{}, f.err
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	svc := catalog.NewService(catalog.NewMemoryStore(catalog.DefaultProducts()...), nil)
	return NewRegistry(svc)
}

func registerBudi(t *testing.T, sut *Registry) {
	t.Helper()
	_, err := sut.RegisterCustomer(context.Background(), CustomerSpec{Kind: domain.KindRegular, Name: "budi", Age: 30, Member: true})
	require.NoError(t, err)
}

func TestRegistry_RegisterCustomer(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()

	snap, err := sut.RegisterCustomer(ctx, CustomerSpec{Kind: domain.KindPremium, Name: "sari", Age: 41, Points: 5200})
	require.NoError(t, err)
	assert.Equal(t, "Sari", snap.Name)
	assert.Equal(t, "Premium Gold", snap.Label)
	assert.Equal(t, int64(5200), snap.Points)

	_, err = sut.RegisterCustomer(ctx, CustomerSpec{Kind: domain.KindVIP, Name: "SARI", Age: 50})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sut.RegisterCustomer(ctx, CustomerSpec{Kind: "gold", Name: "x", Age: 20})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sut.RegisterCustomer(ctx, CustomerSpec{Name: "old", Age: 200})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := sut.Customer(" sari ")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = sut.Customer("nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_CustomersSortedByName(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	for _, n := range []string{"wati", "andi", "lina"} {
		_, err := sut.RegisterCustomer(ctx, CustomerSpec{Name: n, Age: 30})
		require.NoError(t, err)
	}

	list := sut.Customers()
	require.Len(t, list, 3)
	assert.Equal(t, "Andi", list[0].Name)
	assert.Equal(t, "Wati", list[2].Name)
}

func TestRegistry_UpgradeMembership(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	_, err := sut.RegisterCustomer(ctx, CustomerSpec{Name: "andi", Age: 30})
	require.NoError(t, err)
	_, err = sut.RegisterCustomer(ctx, CustomerSpec{Kind: domain.KindVIP, Name: "dewi", Age: 30})
	require.NoError(t, err)

	snap, err := sut.UpgradeMembership(ctx, "andi")
	require.NoError(t, err)
	assert.Equal(t, "Member", snap.Label)

	_, err = sut.UpgradeMembership(ctx, "andi")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = sut.UpgradeMembership(ctx, "dewi")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = sut.UpgradeMembership(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_CartLifecycle(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	registerBudi(t, sut)

	v, err := sut.OpenCart(ctx, "Budi")
	require.NoError(t, err)
	assert.Regexp(t, `^CART-[0-9a-f-]{36}$`, v.ID)
	assert.Empty(t, v.Lines)

	v, err = sut.AddItem(ctx, v.ID, "rice", 2)
	require.NoError(t, err)
	v, err = sut.AddItem(ctx, v.ID, "Tea", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(39000), v.Subtotal)
	assert.Equal(t, 5, v.TotalQuantity)

	v, err = sut.UpdateQuantity(v.ID, "rice", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(24000), v.Subtotal)

	v, err = sut.RemoveItem(v.ID, "tea")
	require.NoError(t, err)
	require.Len(t, v.Lines, 1)

	_, err = sut.RemoveItem(v.ID, "tea")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	v, err = sut.Clear(v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Subtotal)

	require.NoError(t, sut.RemoveCart(ctx, v.ID))
	_, err = sut.Cart(v.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, sut.RemoveCart(ctx, v.ID), domain.ErrNotFound)
}

func TestRegistry_AddItemErrors(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	registerBudi(t, sut)
	v, err := sut.OpenCart(ctx, "budi")
	require.NoError(t, err)

	_, err = sut.AddItem(ctx, v.ID, "caviar", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = sut.AddItem(ctx, v.ID, "rice", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sut.AddItem(ctx, "CART-missing", "rice", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = sut.OpenCart(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_CatalogFailurePropagates(t *testing.T) {
	boom := errors.New("catalog down")
	sut := NewRegistry(failingProducts{err: boom})
	registerBudi(t, sut)
	v, err := sut.OpenCart(context.Background(), "budi")
	require.NoError(t, err)

	_, err = sut.AddItem(context.Background(), v.ID, "rice", 1)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_CartsOf(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	registerBudi(t, sut)

	tick := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sut.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	first, err := sut.OpenCart(ctx, "budi")
	require.NoError(t, err)
	second, err := sut.OpenCart(ctx, "budi")
	require.NoError(t, err)

	carts, err := sut.CartsOf("BUDI")
	require.NoError(t, err)
	require.Len(t, carts, 2)
	assert.Equal(t, first.ID, carts[0].ID)
	assert.Equal(t, second.ID, carts[1].ID)

	_, err = sut.CartsOf("nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_WithCartFinalizeBlocksMutation(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	registerBudi(t, sut)
	v, err := sut.OpenCart(ctx, "budi")
	require.NoError(t, err)
	_, err = sut.AddItem(ctx, v.ID, "rice", 1)
	require.NoError(t, err)

	require.NoError(t, sut.WithCart(v.ID, func(c *domain.Cart) error { return c.Finalize() }))

	_, err = sut.AddItem(ctx, v.ID, "rice", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := sut.Cart(v.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized)

	assert.ErrorIs(t, sut.WithCart("CART-missing", func(*domain.Cart) error { return nil }), domain.ErrNotFound)
}

func TestRegistry_AwardPoints(t *testing.T) {
	sut := newTestRegistry(t)
	premium, err := domain.NewPremium("sari", 40, 900)
	require.NoError(t, err)
	regular, err := domain.NewRegular("andi", 40, true)
	require.NoError(t, err)

	assert.Equal(t, int64(176), sut.AwardPoints(premium, 176))
	assert.Equal(t, int64(1076), premium.Points())
	assert.Equal(t, domain.TierSilver, premium.Tier())

	assert.Equal(t, int64(0), sut.AwardPoints(regular, 100))
	assert.Equal(t, int64(0), sut.AwardPoints(premium, 0))
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	sut := newTestRegistry(t)
	ctx := context.Background()
	registerBudi(t, sut)
	v, err := sut.OpenCart(ctx, "budi")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sut.AddItem(ctx, v.ID, "tea", 1)
		}()
	}
	wg.Wait()

	got, err := sut.Cart(v.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 50, got.Lines[0].Quantity)
}
