// Package discount composes discount strategies over a cart. Every strategy is computed against the
// original subtotal and the results are summed, never compounded.
package discount

import (
	"fmt"
	"sort"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Strategy is a pluggable discount rule. Inapplicable strategies yield a zero amount.
type Strategy interface {
	Name() string
	IsApplicable(cart *domain.Cart, customer domain.Customer) bool
	Compute(cart *domain.Cart, customer domain.Customer) domain.DiscountResult
}

// Summary is the outcome of one evaluation.
type Summary struct {
	Discounts     []domain.DiscountResult
	Subtotal      int64
	Total         int64
	AfterDiscount int64
	// Clamped is set when the raw discounts exceeded the subtotal and were scaled down.
	Clamped bool
}

// Engine holds strategies in registration order. Register strategies before sharing an engine
// between goroutines; Evaluate only reads.
type Engine struct {
	strategies []Strategy
}

func NewEngine(strategies ...Strategy) *Engine {
	e := &Engine{}
	for _, s := range strategies {
		_ = e.AddStrategy(s)
	}
	return e
}

// NewDefaultEngine registers senior, member, category and day-of-week strategies in that order.
func NewDefaultEngine(cfg Config, now func() time.Time) *Engine {
	return NewEngine(
		Senior{MinAge: cfg.SeniorAge, Rate: cfg.SeniorRate},
		Member{},
		Category{Rate: cfg.CategoryRate, MinItems: cfg.CategoryMinItems, ByCategory: cfg.CategoryMinItemsByCategory},
		DayOfWeek{Rates: cfg.DayRates, Now: now},
	)
}

// AddStrategy appends s. Names are unique within an engine.
func (e *Engine) AddStrategy(s Strategy) error {
	if s == nil {
		return fmt.Errorf("%w: nil strategy", domain.ErrValidation)
	}
	for _, existing := range e.strategies {
		if existing.Name() == s.Name() {
			return fmt.Errorf("%w: strategy %q already registered", domain.ErrValidation, s.Name())
		}
	}
	e.strategies = append(e.strategies, s)
	return nil
}

// RemoveStrategy reports whether a strategy with that name was registered.
func (e *Engine) RemoveStrategy(name string) bool {
	for i, s := range e.strategies {
		if s.Name() == name {
			e.strategies = append(e.strategies[:i], e.strategies[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Engine) StrategyNames() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// CalculateAll returns every applied discount with a positive amount. When the discounts add up to
// more than the subtotal they are scaled down so that they sum to it exactly.
func (e *Engine) CalculateAll(cart *domain.Cart) []domain.DiscountResult {
	return e.Evaluate(cart).Discounts
}

func (e *Engine) TotalAmount(cart *domain.Cart) int64 {
	return e.Evaluate(cart).Total
}

func (e *Engine) Evaluate(cart *domain.Cart) Summary {
	subtotal := cart.Subtotal()
	customer := cart.Customer()

	var results []domain.DiscountResult
	var raw int64
	for _, s := range e.strategies {
		if !s.IsApplicable(cart, customer) {
			continue
		}
		r := s.Compute(cart, customer)
		r.Amount = min(r.Amount, subtotal)
		if r.Amount <= 0 {
			continue
		}
		results = append(results, r)
		raw += r.Amount
	}

	sum := Summary{Subtotal: subtotal}
	if raw > subtotal {
		results = scaleTo(results, raw, subtotal)
		raw = subtotal
		sum.Clamped = true
	}
	sum.Discounts = results
	sum.Total = raw
	sum.AfterDiscount = subtotal - raw
	return sum
}

// scaleTo shrinks amounts proportionally so they sum to target, handing the rounding leftover out
// by largest remainder. Ties go to the earlier registration.
func scaleTo(results []domain.DiscountResult, raw, target int64) []domain.DiscountResult {
	type share struct {
		idx int
		rem decimal.Decimal
	}
	whole := decimal.NewFromInt(raw)
	shares := make([]share, len(results))
	var assigned int64
	for i := range results {
		q, r := decimal.NewFromInt(results[i].Amount).Mul(decimal.NewFromInt(target)).QuoRem(whole, 0)
		results[i].Amount = q.IntPart()
		assigned += results[i].Amount
		shares[i] = share{idx: i, rem: r}
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].rem.GreaterThan(shares[b].rem)
	})
	for i := int64(0); i < target-assigned; i++ {
		results[shares[i].idx].Amount++
	}

	out := results[:0]
	for _, r := range results {
		if r.Amount > 0 {
			out = append(out, r)
		}
	}
	return out
}
