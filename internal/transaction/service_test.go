package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/discount"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	monday    = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	wednesday = time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC)
)

type mockPublisher struct {
	mu     sync.RWMutex
	events []domain.TransactionEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, evt domain.TransactionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) types() []domain.EventType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type failingStore struct {
	*MemoryStore
	err error
}

func (f failingStore) Save(context.Context, domain.Transaction) error { return f.err }

// observingStore reports whether the cart was already finalized when Save ran.
type observingStore struct {
	*MemoryStore
	cart      *domain.Cart
	finalized []bool
}

func (o *observingStore) Save(ctx context.Context, tx domain.Transaction) error {
	o.finalized = append(o.finalized, o.cart.IsFinalized())
	return o.MemoryStore.Save(ctx, tx)
}

func newTestService(t *testing.T, now time.Time) (*Service, *MemoryStore, *mockPublisher) {
	t.Helper()
	taxes, err := tax.NewDefaultEngine(tax.DefaultConfig())
	require.NoError(t, err)
	clock := func() time.Time { return now }
	store := NewMemoryStore()
	pub := &mockPublisher{}
	sut := NewService(discount.NewDefaultEngine(discount.DefaultConfig(), clock), taxes, store, pub, nil, Options{Now: clock})
	return sut, store, pub
}

func newCart(t *testing.T, c domain.Customer, price int64, qty int) *domain.Cart {
	t.Helper()
	cart, err := domain.NewCart(c)
	require.NoError(t, err)
	if qty > 0 {
		p, err := domain.NewProduct("rice", price, "kg", domain.CategoryFood)
		require.NoError(t, err)
		require.NoError(t, cart.AddLine(p, qty))
	}
	return cart
}

func memberCart(t *testing.T) *domain.Cart {
	t.Helper()
	c, err := domain.NewRegular("budi", 30, true)
	require.NoError(t, err)
	return newCart(t, c, 100000, 2)
}

func TestService_Quote_MemberOnMonday(t *testing.T) {
	sut, store, _ := newTestService(t, monday)
	cart := memberCart(t)

	totals := sut.Quote(cart)

	assert.Equal(t, int64(200000), totals.Subtotal)
	assert.Equal(t, int64(40000), totals.TotalDiscount)
	assert.Equal(t, int64(16000), totals.TotalTax)
	assert.Equal(t, int64(176000), totals.GrandTotal)
	assert.False(t, cart.IsFinalized())
	all, _ := store.List(context.Background(), Filter{})
	assert.Empty(t, all)
}

func TestService_CreateTransaction_Success(t *testing.T) {
	sut, store, pub := newTestService(t, monday)
	cart := memberCart(t)

	tx, err := sut.CreateTransaction(context.Background(), cart, 200000, domain.PaymentCash)
	require.NoError(t, err)

	assert.Regexp(t, `^TXN-[0-9a-f-]{36}$`, tx.ID)
	assert.Equal(t, domain.StatusPending, tx.Status)
	assert.Equal(t, int64(176000), tx.GrandTotal)
	assert.Equal(t, tx.Subtotal-tx.TotalDiscount+tx.TotalTax, tx.GrandTotal)
	assert.Equal(t, int64(24000), tx.Payment.Change)
	assert.Equal(t, "Budi", tx.Customer.Name)
	assert.Equal(t, monday, tx.CreatedAt)
	assert.True(t, cart.IsFinalized())

	stored, err := store.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx, stored)
	assert.Equal(t, []domain.EventType{domain.EventTransactionCreated}, pub.types())
}

func TestService_CreateTransaction_VIPMidweek(t *testing.T) {
	sut, _, _ := newTestService(t, wednesday)
	vip, err := domain.NewVIP("dewi", 45, 0, "")
	require.NoError(t, err)

	tx, err := sut.CreateTransaction(context.Background(), newCart(t, vip, 25000, 2), 37500, domain.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), tx.TotalDiscount)
	assert.Empty(t, tx.Taxes)
	assert.Equal(t, int64(37500), tx.GrandTotal)
	assert.Equal(t, int64(0), tx.Payment.Change)
}

func TestService_CreateTransaction_InsufficientPaymentLeavesStateUntouched(t *testing.T) {
	sut, store, pub := newTestService(t, monday)
	cart := memberCart(t)

	_, err := sut.CreateTransaction(context.Background(), cart, 175999, domain.PaymentCash)

	var ipe *domain.InsufficientPaymentError
	require.True(t, errors.As(err, &ipe))
	assert.ErrorIs(t, err, domain.ErrInsufficientPayment)
	assert.Equal(t, int64(176000), ipe.Due)
	assert.Equal(t, int64(1), ipe.Outstanding())
	assert.False(t, cart.IsFinalized())
	all, _ := store.List(context.Background(), Filter{})
	assert.Empty(t, all)
	assert.Empty(t, pub.types())

	_, err = sut.CreateTransaction(context.Background(), cart, 176000, domain.PaymentCash)
	require.NoError(t, err)
}

func TestService_CreateTransaction_Preconditions(t *testing.T) {
	sut, _, _ := newTestService(t, monday)
	ctx := context.Background()
	c, err := domain.NewRegular("budi", 30, false)
	require.NoError(t, err)

	_, err = sut.CreateTransaction(ctx, newCart(t, c, 0, 0), 1000, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	finalized := newCart(t, c, 1000, 1)
	require.NoError(t, finalized.Finalize())
	_, err = sut.CreateTransaction(ctx, finalized, 1000, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = sut.CreateTransaction(ctx, newCart(t, c, 1000, 1), 1000, "barter")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sut.CreateTransaction(ctx, newCart(t, c, 1000, 1), -5, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// empty cart is reported before the bad payment method
	_, err = sut.CreateTransaction(ctx, newCart(t, c, 0, 0), 1000, "barter")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_CreateTransaction_StoreFailureKeepsCartOpen(t *testing.T) {
	taxes, err := tax.NewDefaultEngine(tax.DefaultConfig())
	require.NoError(t, err)
	boom := errors.New("disk full")
	sut := NewService(discount.NewEngine(), taxes, failingStore{MemoryStore: NewMemoryStore(), err: boom}, nil, nil, Options{})
	cart := memberCart(t)

	_, err = sut.CreateTransaction(context.Background(), cart, 500000, domain.PaymentCash)
	assert.ErrorIs(t, err, boom)
	assert.False(t, cart.IsFinalized())
}

func TestService_CreateTransaction_FinalizesBeforeSaving(t *testing.T) {
	taxes, err := tax.NewDefaultEngine(tax.DefaultConfig())
	require.NoError(t, err)
	cart := memberCart(t)
	store := &observingStore{MemoryStore: NewMemoryStore(), cart: cart}
	sut := NewService(discount.NewEngine(), taxes, store, nil, nil, Options{})

	_, err = sut.CreateTransaction(context.Background(), cart, 500000, domain.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, store.finalized)

	_, err = sut.CreateTransaction(context.Background(), cart, 500000, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, store.finalized, 1)
	txs, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestService_CreateInstallmentTransaction(t *testing.T) {
	sut, _, _ := newTestService(t, monday)
	ctx := context.Background()

	tx, err := sut.CreateInstallmentTransaction(ctx, memberCart(t), []int64{100000, 80000}, domain.PaymentTransfer)
	require.NoError(t, err)
	assert.Equal(t, int64(180000), tx.Payment.Amount)
	assert.Equal(t, int64(4000), tx.Payment.Change)
	assert.Equal(t, []int64{100000, 80000}, tx.Payment.Installments)

	_, err = sut.CreateInstallmentTransaction(ctx, memberCart(t), []int64{100000, -1}, domain.PaymentTransfer)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = sut.CreateInstallmentTransaction(ctx, memberCart(t), []int64{100000}, domain.PaymentTransfer)
	assert.ErrorIs(t, err, domain.ErrInsufficientPayment)
}

func TestService_CompleteTransaction_AwardsPoints(t *testing.T) {
	sut, _, pub := newTestService(t, wednesday)
	ctx := context.Background()
	premium, err := domain.NewPremium("sari", 40, 900)
	require.NoError(t, err)

	// 200,000 at 5% Bronze = 190,000 + 10% VAT = 209,000
	tx, err := sut.CreateTransaction(ctx, newCart(t, premium, 100000, 2), 209000, domain.PaymentCash)
	require.NoError(t, err)
	require.Equal(t, int64(209000), tx.GrandTotal)

	done, err := sut.CompleteTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.Equal(t, int64(1109), premium.Points())
	assert.Equal(t, domain.TierSilver, premium.Tier())

	_, err = sut.CompleteTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(1109), premium.Points())

	assert.Equal(t, []domain.EventType{domain.EventTransactionCreated, domain.EventTransactionCompleted}, pub.types())
}

func TestService_CompleteTransaction_RegularEarnsNothing(t *testing.T) {
	sut, _, _ := newTestService(t, monday)
	ctx := context.Background()

	tx, err := sut.CreateTransaction(ctx, memberCart(t), 176000, domain.PaymentCash)
	require.NoError(t, err)
	_, err = sut.CompleteTransaction(ctx, tx.ID)
	require.NoError(t, err)

	_, err = sut.CompleteTransaction(ctx, "TXN-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_CancelTransaction(t *testing.T) {
	sut, _, pub := newTestService(t, monday)
	ctx := context.Background()

	tx, err := sut.CreateTransaction(ctx, memberCart(t), 176000, domain.PaymentCash)
	require.NoError(t, err)

	cancelled, err := sut.CancelTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = sut.CompleteTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = sut.CancelTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, []domain.EventType{domain.EventTransactionCreated, domain.EventTransactionCancelled}, pub.types())
}

func TestService_PublishFailureDoesNotFailCheckout(t *testing.T) {
	sut, store, pub := newTestService(t, monday)
	pub.err = errors.New("broker unavailable")

	tx, err := sut.CreateTransaction(context.Background(), memberCart(t), 176000, domain.PaymentCash)
	require.NoError(t, err)
	_, err = store.Get(context.Background(), tx.ID)
	assert.NoError(t, err)
}

type countingLedger struct {
	mu     sync.Mutex
	awards map[string]int64
}

func (l *countingLedger) AwardPoints(c domain.Customer, points int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.awards[c.Name()] += points
	return points
}

func TestService_UsesLedger(t *testing.T) {
	taxes, err := tax.NewDefaultEngine(tax.DefaultConfig())
	require.NoError(t, err)
	ledger := &countingLedger{awards: map[string]int64{}}
	clock := func() time.Time { return wednesday }
	sut := NewService(discount.NewDefaultEngine(discount.DefaultConfig(), clock), taxes, NewMemoryStore(), nil, ledger, Options{PointValue: 500, Now: clock})
	ctx := context.Background()

	vip, err := domain.NewVIP("dewi", 45, 0, "")
	require.NoError(t, err)
	tx, err := sut.CreateTransaction(ctx, newCart(t, vip, 25000, 2), 37500, domain.PaymentCard)
	require.NoError(t, err)
	_, err = sut.CompleteTransaction(ctx, tx.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(75), ledger.awards["Dewi"])
}

func TestService_Queries(t *testing.T) {
	sut, _, _ := newTestService(t, monday)
	ctx := context.Background()

	a, err := sut.CreateTransaction(ctx, memberCart(t), 176000, domain.PaymentCash)
	require.NoError(t, err)
	b, err := sut.CreateTransaction(ctx, memberCart(t), 176000, domain.PaymentCash)
	require.NoError(t, err)
	_, err = sut.CompleteTransaction(ctx, b.ID)
	require.NoError(t, err)

	byCustomer, err := sut.ByCustomer(ctx, "budi")
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	pending, err := sut.ByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	today, err := sut.ByDay(ctx, monday)
	require.NoError(t, err)
	assert.Len(t, today, 2)

	tomorrow, err := sut.ByDay(ctx, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, tomorrow)

	got, err := sut.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}
