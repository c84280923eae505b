package discount

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/money"
	"github.com/shopspring/decimal"
)

// Config holds the parameters of the built-in strategies.
type Config struct {
	SeniorAge  int
	SeniorRate decimal.Decimal

	CategoryRate     decimal.Decimal
	CategoryMinItems int
	// CategoryMinItemsByCategory overrides CategoryMinItems for individual categories.
	CategoryMinItemsByCategory map[domain.Category]int

	DayRates map[time.Weekday]decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		SeniorAge:        domain.SeniorAge,
		SeniorRate:       money.Percent(10),
		CategoryRate:     money.Percent(7),
		CategoryMinItems: 3,
		DayRates: map[time.Weekday]decimal.Decimal{
			time.Monday:   money.Percent(15),
			time.Saturday: money.Percent(20),
		},
	}
}

// Validate rejects rates outside [0,1] and non-positive thresholds.
func (c Config) Validate() error {
	if err := checkRate("senior", c.SeniorRate); err != nil {
		return err
	}
	if err := checkRate("category", c.CategoryRate); err != nil {
		return err
	}
	if c.SeniorAge < 0 {
		return fmt.Errorf("%w: senior age must not be negative", domain.ErrValidation)
	}
	if c.CategoryMinItems <= 0 {
		return fmt.Errorf("%w: category minimum items must be positive", domain.ErrValidation)
	}
	for cat, n := range c.CategoryMinItemsByCategory {
		if !cat.Valid() {
			return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, cat)
		}
		if n <= 0 {
			return fmt.Errorf("%w: minimum items for %s must be positive", domain.ErrValidation, cat)
		}
	}
	for day, r := range c.DayRates {
		if err := checkRate(day.String(), r); err != nil {
			return err
		}
	}
	return nil
}

func checkRate(name string, r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s rate %s is outside [0,1]", domain.ErrValidation, name, r)
	}
	return nil
}
