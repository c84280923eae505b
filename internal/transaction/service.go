// Package transaction turns carts into priced, paid transactions and drives their status.
package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/discount"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/logger"
	"github.com/fjod/go_cart/pos-service/internal/tax"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultPointValue int64 = 1000

// Publisher receives transaction lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt domain.TransactionEvent) error
}

// Ledger credits loyalty points. It returns the number of points credited.
type Ledger interface {
	AwardPoints(c domain.Customer, points int64) int64
}

type directLedger struct{}

func (directLedger) AwardPoints(c domain.Customer, points int64) int64 {
	ph, ok := c.(domain.PointsHolder)
	if !ok || points <= 0 {
		return 0
	}
	ph.AddPoints(points)
	return points
}

// Totals is the full price breakdown of a cart.
type Totals struct {
	Subtotal      int64                   `json:"subtotal"`
	Discounts     []domain.DiscountResult `json:"discounts"`
	TotalDiscount int64                   `json:"total_discount"`
	AfterDiscount int64                   `json:"after_discount"`
	Taxes         []domain.TaxResult      `json:"taxes"`
	TotalTax      int64                   `json:"total_tax"`
	GrandTotal    int64                   `json:"grand_total"`
}

type Options struct {
	// PointValue is the amount of grand total worth one loyalty point.
	PointValue int64
	Now        func() time.Time
}

type Service struct {
	discounts *discount.Engine
	taxes     *tax.Engine
	payments  *PaymentProcessor
	store     Store
	publisher Publisher
	ledger    Ledger

	pointValue int64
	now        func() time.Time

	mu sync.Mutex
	// customers holds the live customer of every pending transaction for point awards.
	customers map[string]domain.Customer
}

// NewService wires the engines to a store. publisher and ledger may be nil: events are then
// dropped and points are credited to the customer directly.
func NewService(discounts *discount.Engine, taxes *tax.Engine, store Store, publisher Publisher, ledger Ledger, opts Options) *Service {
	if ledger == nil {
		ledger = directLedger{}
	}
	if opts.PointValue <= 0 {
		opts.PointValue = DefaultPointValue
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		discounts:  discounts,
		taxes:      taxes,
		payments:   NewPaymentProcessor(),
		store:      store,
		publisher:  publisher,
		ledger:     ledger,
		pointValue: opts.PointValue,
		now:        opts.Now,
		customers:  make(map[string]domain.Customer),
	}
}

func (s *Service) Payments() *PaymentProcessor { return s.payments }

// Quote prices the cart without touching it or the registry.
func (s *Service) Quote(cart *domain.Cart) Totals {
	ds := s.discounts.Evaluate(cart)
	ts := s.taxes.Evaluate(ds.AfterDiscount, cart)
	return Totals{
		Subtotal:      ds.Subtotal,
		Discounts:     ds.Discounts,
		TotalDiscount: ds.Total,
		AfterDiscount: ds.AfterDiscount,
		Taxes:         ts.Taxes,
		TotalTax:      ts.Total,
		GrandTotal:    ds.AfterDiscount + ts.Total,
	}
}

func (s *Service) CreateTransaction(ctx context.Context, cart *domain.Cart, amount int64, method domain.PaymentMethod) (domain.Transaction, error) {
	if err := checkCheckoutable(cart); err != nil {
		return domain.Transaction{}, err
	}
	if err := s.payments.Validate(amount, method); err != nil {
		return domain.Transaction{}, err
	}
	return s.create(ctx, cart, amount, method, nil)
}

// CreateInstallmentTransaction pays with the sum of installments, each of which must be positive.
func (s *Service) CreateInstallmentTransaction(ctx context.Context, cart *domain.Cart, installments []int64, method domain.PaymentMethod) (domain.Transaction, error) {
	if err := checkCheckoutable(cart); err != nil {
		return domain.Transaction{}, err
	}
	amount, err := s.payments.SumInstallments(installments)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := s.payments.Validate(amount, method); err != nil {
		return domain.Transaction{}, err
	}
	return s.create(ctx, cart, amount, method, installments)
}

func checkCheckoutable(cart *domain.Cart) error {
	if cart == nil {
		return fmt.Errorf("%w: no cart", domain.ErrValidation)
	}
	if cart.IsFinalized() {
		return fmt.Errorf("%w: cart is already finalized", domain.ErrInvalidState)
	}
	if cart.IsEmpty() {
		return fmt.Errorf("%w: cart is empty", domain.ErrInvalidState)
	}
	return nil
}

func (s *Service) create(ctx context.Context, cart *domain.Cart, amount int64, method domain.PaymentMethod, installments []int64) (domain.Transaction, error) {
	log := logger.FromContext(ctx)
	totals := s.Quote(cart)

	payment, err := s.payments.Settle(totals.GrandTotal, amount, method, installments)
	if err != nil {
		log.Info("checkout rejected", zap.Int64("grand_total", totals.GrandTotal), zap.Int64("paid", amount), zap.Error(err))
		return domain.Transaction{}, err
	}

	now := s.now()
	tx := domain.Transaction{
		ID:            "TXN-" + uuid.NewString(),
		Customer:      domain.SnapshotCustomer(cart.Customer()),
		Lines:         domain.SnapshotLines(cart.Lines()),
		Subtotal:      totals.Subtotal,
		Discounts:     totals.Discounts,
		TotalDiscount: totals.TotalDiscount,
		Taxes:         totals.Taxes,
		TotalTax:      totals.TotalTax,
		GrandTotal:    totals.GrandTotal,
		Payment:       payment,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// The cart is claimed before the sale is recorded; a failed save reopens it.
	if err := cart.Finalize(); err != nil {
		return domain.Transaction{}, err
	}
	if err := s.store.Save(ctx, tx); err != nil {
		cart.Reopen()
		return domain.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.mu.Lock()
	s.customers[tx.ID] = cart.Customer()
	s.mu.Unlock()

	log.Info("transaction created",
		zap.String("transaction_id", tx.ID),
		zap.String("customer", tx.Customer.Name),
		zap.Int64("grand_total", tx.GrandTotal),
		zap.String("method", string(method)))

	s.publish(ctx, domain.EventTransactionCreated, tx)
	return tx, nil
}

// CompleteTransaction moves a pending transaction to completed and credits loyalty points.
func (s *Service) CompleteTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.store.Transition(ctx, id, domain.StatusCompleted, s.now())
	if err != nil {
		return domain.Transaction{}, err
	}

	if c := s.takeCustomer(id); c != nil {
		if awarded := s.ledger.AwardPoints(c, tx.GrandTotal/s.pointValue); awarded > 0 {
			logger.FromContext(ctx).Info("loyalty points awarded",
				zap.String("transaction_id", id),
				zap.String("customer", c.Name()),
				zap.Int64("points", awarded))
		}
	}

	logger.FromContext(ctx).Info("transaction completed", zap.String("transaction_id", id))
	s.publish(ctx, domain.EventTransactionCompleted, tx)
	return tx, nil
}

func (s *Service) CancelTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.store.Transition(ctx, id, domain.StatusCancelled, s.now())
	if err != nil {
		return domain.Transaction{}, err
	}
	s.takeCustomer(id)

	logger.FromContext(ctx).Info("transaction cancelled", zap.String("transaction_id", id))
	s.publish(ctx, domain.EventTransactionCancelled, tx)
	return tx, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Transaction, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Transaction, error) {
	return s.store.List(ctx, f)
}

func (s *Service) ByCustomer(ctx context.Context, name string) ([]domain.Transaction, error) {
	return s.store.List(ctx, Filter{CustomerName: name})
}

func (s *Service) ByStatus(ctx context.Context, status domain.TransactionStatus) ([]domain.Transaction, error) {
	return s.store.List(ctx, Filter{Status: status})
}

func (s *Service) ByDay(ctx context.Context, day time.Time) ([]domain.Transaction, error) {
	return s.store.List(ctx, DayFilter(day))
}

func (s *Service) takeCustomer(id string) domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.customers[id]
	delete(s.customers, id)
	return c
}

// publish logs failures instead of returning them; the transaction is already recorded.
func (s *Service) publish(ctx context.Context, typ domain.EventType, tx domain.Transaction) {
	if s.publisher == nil {
		return
	}
	evt := domain.TransactionEvent{Type: typ, Transaction: tx.Clone(), OccurredAt: s.now()}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn("publish transaction event failed",
			zap.String("transaction_id", tx.ID),
			zap.String("event_type", string(typ)),
			zap.Error(err))
	}
}
