// Package cart keeps the customers and open carts of a running till. Every cart mutation happens
// under the registry lock, so a cart has a single writer at a time.
package cart

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductSource resolves catalog products for new cart lines.
type ProductSource interface {
	GetProduct(ctx context.Context, name string) (domain.Product, error)
}

// CustomerSpec describes a customer to register.
type CustomerSpec struct {
	Kind      domain.CustomerKind
	Name      string
	Age       int
	Member    bool
	Points    int64
	Assistant string
}

// View is a read-only copy of a cart.
type View struct {
	ID            string                  `json:"id"`
	Customer      domain.CustomerSnapshot `json:"customer"`
	Lines         []domain.LineItem       `json:"lines"`
	Subtotal      int64                   `json:"subtotal"`
	TotalQuantity int                     `json:"total_quantity"`
	Finalized     bool                    `json:"finalized"`
	CreatedAt     time.Time               `json:"created_at"`
}

type entry struct {
	id          string
	customerKey string
	cart        *domain.Cart
	createdAt   time.Time
}

type Registry struct {
	mu        sync.Mutex
	products  ProductSource
	customers map[string]domain.Customer
	carts     map[string]*entry
	now       func() time.Time
}

func NewRegistry(products ProductSource) *Registry {
	return &Registry{
		products:  products,
		customers: make(map[string]domain.Customer),
		carts:     make(map[string]*entry),
		now:       time.Now,
	}
}

func customerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newCustomer(spec CustomerSpec) (domain.Customer, error) {
	switch spec.Kind {
	case domain.KindRegular, "":
		return domain.NewRegular(spec.Name, spec.Age, spec.Member)
	case domain.KindPremium:
		return domain.NewPremium(spec.Name, spec.Age, spec.Points)
	case domain.KindVIP:
		return domain.NewVIP(spec.Name, spec.Age, spec.Points, spec.Assistant)
	}
	return nil, fmt.Errorf("%w: unknown customer kind %q", domain.ErrValidation, spec.Kind)
}

// RegisterCustomer adds a customer. Names are unique, case-insensitively.
func (r *Registry) RegisterCustomer(ctx context.Context, spec CustomerSpec) (domain.CustomerSnapshot, error) {
	c, err := newCustomer(spec)
	if err != nil {
		return domain.CustomerSnapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := customerKey(c.Name())
	if _, ok := r.customers[key]; ok {
		return domain.CustomerSnapshot{}, fmt.Errorf("%w: customer %q already registered", domain.ErrValidation, c.Name())
	}
	r.customers[key] = c

	logger.FromContext(ctx).Info("customer registered", zap.String("customer", c.Name()), zap.String("kind", string(c.Kind())))
	return domain.SnapshotCustomer(c), nil
}

func (r *Registry) Customer(name string) (domain.CustomerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[customerKey(name)]
	if !ok {
		return domain.CustomerSnapshot{}, fmt.Errorf("%w: customer %q", domain.ErrNotFound, name)
	}
	return domain.SnapshotCustomer(c), nil
}

// Customers lists registered customers by name.
func (r *Registry) Customers() []domain.CustomerSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.CustomerSnapshot, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, domain.SnapshotCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpgradeMembership turns a walk-in regular customer into a member.
func (r *Registry) UpgradeMembership(ctx context.Context, name string) (domain.CustomerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[customerKey(name)]
	if !ok {
		return domain.CustomerSnapshot{}, fmt.Errorf("%w: customer %q", domain.ErrNotFound, name)
	}
	reg, ok := c.(*domain.Regular)
	if !ok {
		return domain.CustomerSnapshot{}, fmt.Errorf("%w: only regular customers can be upgraded", domain.ErrInvalidState)
	}
	if !reg.UpgradeToMember() {
		return domain.CustomerSnapshot{}, fmt.Errorf("%w: %s is already a member", domain.ErrInvalidState, reg.Name())
	}
	logger.FromContext(ctx).Info("customer upgraded to member", zap.String("customer", reg.Name()))
	return domain.SnapshotCustomer(reg), nil
}

// AwardPoints credits loyalty points to a point-holding customer and returns the credited amount.
// Customers without a points ledger get nothing.
func (r *Registry) AwardPoints(c domain.Customer, points int64) int64 {
	ph, ok := c.(domain.PointsHolder)
	if !ok || points <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ph.AddPoints(points)
	return points
}

// OpenCart starts an empty cart for a registered customer.
func (r *Registry) OpenCart(ctx context.Context, customerName string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := customerKey(customerName)
	c, ok := r.customers[key]
	if !ok {
		return View{}, fmt.Errorf("%w: customer %q", domain.ErrNotFound, customerName)
	}
	cart, err := domain.NewCart(c)
	if err != nil {
		return View{}, err
	}

	e := &entry{
		id:          "CART-" + uuid.NewString(),
		customerKey: key,
		cart:        cart,
		createdAt:   r.now(),
	}
	r.carts[e.id] = e

	logger.FromContext(ctx).Info("cart opened", zap.String("cart_id", e.id), zap.String("customer", c.Name()))
	return e.view(), nil
}

func (r *Registry) Cart(id string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return View{}, err
	}
	return e.view(), nil
}

// CartsOf lists a customer's carts, oldest first.
func (r *Registry) CartsOf(customerName string) ([]View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := customerKey(customerName)
	if _, ok := r.customers[key]; !ok {
		return nil, fmt.Errorf("%w: customer %q", domain.ErrNotFound, customerName)
	}
	var out []View
	for _, e := range r.carts {
		if e.customerKey == key {
			out = append(out, e.view())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AddItem resolves productName in the catalog and adds quantity of it to the cart.
func (r *Registry) AddItem(ctx context.Context, cartID, productName string, quantity int) (View, error) {
	p, err := r.products.GetProduct(ctx, productName)
	if err != nil {
		return View{}, err
	}
	return r.mutate(cartID, func(c *domain.Cart) error { return c.AddLine(p, quantity) })
}

func (r *Registry) RemoveItem(cartID, productName string) (View, error) {
	return r.mutate(cartID, func(c *domain.Cart) error { return c.RemoveLine(productName) })
}

func (r *Registry) UpdateQuantity(cartID, productName string, quantity int) (View, error) {
	return r.mutate(cartID, func(c *domain.Cart) error { return c.UpdateQuantity(productName, quantity) })
}

func (r *Registry) Clear(cartID string) (View, error) {
	return r.mutate(cartID, func(c *domain.Cart) error { return c.Clear() })
}

func (r *Registry) RemoveCart(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(cartID); err != nil {
		return err
	}
	delete(r.carts, cartID)
	logger.FromContext(ctx).Info("cart removed", zap.String("cart_id", cartID))
	return nil
}

// WithCart runs fn with exclusive access to the cart. fn must not call back into the registry.
func (r *Registry) WithCart(cartID string, fn func(*domain.Cart) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(cartID)
	if err != nil {
		return err
	}
	return fn(e.cart)
}

func (r *Registry) mutate(cartID string, fn func(*domain.Cart) error) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(cartID)
	if err != nil {
		return View{}, err
	}
	if err := fn(e.cart); err != nil {
		return View{}, err
	}
	return e.view(), nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	e, ok := r.carts[id]
	if !ok {
		return nil, fmt.Errorf("%w: cart %q", domain.ErrNotFound, id)
	}
	return e, nil
}

func (e *entry) view() View {
	return View{
		ID:            e.id,
		Customer:      domain.SnapshotCustomer(e.cart.Customer()),
		Lines:         domain.SnapshotLines(e.cart.Lines()),
		Subtotal:      e.cart.Subtotal(),
		TotalQuantity: e.cart.TotalQuantity(),
		Finalized:     e.cart.IsFinalized(),
		CreatedAt:     e.createdAt,
	}
}
