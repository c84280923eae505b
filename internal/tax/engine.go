// Package tax composes tax strategies over the post-discount amount. Strategies are independent
// and their amounts are summed.
package tax

import (
	"fmt"

	"github.com/fjod/go_cart/pos-service/internal/domain"
)

// Strategy is a pluggable tax rule evaluated against the discounted base.
type Strategy interface {
	Name() string
	IsApplicable(base int64, cart *domain.Cart) bool
	Compute(base int64, cart *domain.Cart) domain.TaxResult
}

type Summary struct {
	Taxes []domain.TaxResult
	Base  int64
	Total int64
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

// NewDefaultEngine registers the built-ins selected by cfg.Mode.
func NewDefaultEngine(cfg Config) (*Engine, error) {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	standard := Standard{Rate: cfg.StandardRate, Threshold: cfg.StandardThreshold}
	category := Category{Rates: cfg.CategoryRates}
	luxury := Luxury{Brackets: cfg.LuxuryBrackets}

	switch mode {
	case ModeStandard:
		return NewEngine(standard), nil
	case ModeCategory:
		return NewEngine(category), nil
	case ModeLuxury:
		return NewEngine(luxury), nil
	default:
		return NewEngine(standard, category, luxury), nil
	}
}

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

func (e *Engine) CalculateAll(base int64, cart *domain.Cart) []domain.TaxResult {
	return e.Evaluate(base, cart).Taxes
}

func (e *Engine) TotalAmount(base int64, cart *domain.Cart) int64 {
	return e.Evaluate(base, cart).Total
}

// Evaluate returns the non-zero tax lines and their sum. A negative base is treated as zero.
func (e *Engine) Evaluate(base int64, cart *domain.Cart) Summary {
	base = max(base, 0)
	sum := Summary{Base: base}
	for _, s := range e.strategies {
		if !s.IsApplicable(base, cart) {
			continue
		}
		r := s.Compute(base, cart)
		if r.Amount <= 0 {
			continue
		}
		sum.Taxes = append(sum.Taxes, r)
		sum.Total += r.Amount
	}
	return sum
}
