package tax

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/money"
	"github.com/shopspring/decimal"
)

const (
	StandardName = "standard"
	CategoryName = "category"
	LuxuryName   = "luxury"
)

// Standard is a flat VAT on the whole base once it passes the threshold.
type Standard struct {
	Rate      decimal.Decimal
	Threshold int64
}

func (s Standard) Name() string { return StandardName }

func (s Standard) IsApplicable(base int64, _ *domain.Cart) bool {
	return base > s.Threshold && s.Rate.IsPositive()
}

func (s Standard) Compute(base int64, cart *domain.Cart) domain.TaxResult {
	if !s.IsApplicable(base, cart) {
		return domain.TaxResult{Name: "VAT"}
	}
	return domain.TaxResult{
		Name:          "VAT",
		Amount:        money.Apply(base, s.Rate),
		Rate:          s.Rate,
		TaxableAmount: base,
		Description:   fmt.Sprintf("%s on purchases above %d", money.FormatRate(s.Rate), s.Threshold),
	}
}

// Category taxes each category's share of the base. The share follows the category's weight in
// the undiscounted subtotal, so discounts are spread evenly across categories.
type Category struct {
	Rates map[domain.Category]decimal.Decimal
}

func (s Category) Name() string { return CategoryName }

func (s Category) IsApplicable(base int64, cart *domain.Cart) bool {
	if base <= 0 {
		return false
	}
	for _, ct := range cart.CategoryTotals() {
		if r, ok := s.Rates[ct.Category]; ok && r.IsPositive() {
			return true
		}
	}
	return false
}

func (s Category) Compute(base int64, cart *domain.Cart) domain.TaxResult {
	res := domain.TaxResult{Name: "Category Tax"}
	if !s.IsApplicable(base, cart) {
		return res
	}
	subtotal := cart.Subtotal()
	var parts []string
	for _, ct := range cart.CategoryTotals() {
		rate, ok := s.Rates[ct.Category]
		if !ok || !rate.IsPositive() {
			continue
		}
		share := money.Prorate(base, ct.Amount, subtotal)
		res.TaxableAmount += share
		res.Amount += money.Apply(share, rate)
		parts = append(parts, fmt.Sprintf("%s %s", ct.Category, money.FormatRate(rate)))
	}
	res.Rate = money.EffectiveRate(res.Amount, res.TaxableAmount)
	res.Description = "Category rates: " + strings.Join(parts, ", ")
	return res
}

// Luxury is a progressive tax: each bracket's rate applies only to the slice of the base inside it.
type Luxury struct {
	Brackets []Bracket
}

func (s Luxury) Name() string { return LuxuryName }

func (s Luxury) IsApplicable(base int64, _ *domain.Cart) bool {
	for _, b := range s.Brackets {
		if base > b.From && b.Rate.IsPositive() {
			return true
		}
	}
	return false
}

func (s Luxury) Compute(base int64, cart *domain.Cart) domain.TaxResult {
	res := domain.TaxResult{Name: "Luxury Tax"}
	if !s.IsApplicable(base, cart) {
		return res
	}
	brackets := sortedBrackets(s.Brackets)
	var parts []string
	for i, b := range brackets {
		if base <= b.From {
			break
		}
		upper := base
		if i+1 < len(brackets) {
			upper = min(base, brackets[i+1].From)
		}
		if !b.Rate.IsPositive() {
			continue
		}
		slice := upper - b.From
		res.TaxableAmount += slice
		res.Amount += money.Apply(slice, b.Rate)
		parts = append(parts, fmt.Sprintf("%s above %d", money.FormatRate(b.Rate), b.From))
	}
	res.Rate = money.EffectiveRate(res.Amount, base)
	res.Description = "Progressive luxury tax: " + strings.Join(parts, ", ")
	return res
}
