package tax

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/money"
	"github.com/shopspring/decimal"
)

// Mode selects which built-in strategies an engine registers.
type Mode string

const (
	ModeCombined Mode = "combined"
	ModeStandard Mode = "standard"
	ModeCategory Mode = "category"
	ModeLuxury   Mode = "luxury"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeCombined, ModeStandard, ModeCategory, ModeLuxury:
		return m, nil
	case "":
		return ModeCombined, nil
	}
	return "", fmt.Errorf("%w: unknown tax mode %q", domain.ErrValidation, s)
}

// Bracket taxes the part of the base at or above From, up to the next bracket, at Rate.
type Bracket struct {
	From int64
	Rate decimal.Decimal
}

type Config struct {
	Mode Mode

	StandardRate      decimal.Decimal
	StandardThreshold int64

	// CategoryRates is empty unless configured.
	CategoryRates map[domain.Category]decimal.Decimal

	LuxuryBrackets []Bracket
}

func DefaultConfig() Config {
	return Config{
		Mode:              ModeCombined,
		StandardRate:      money.Percent(10),
		StandardThreshold: 100000,
		LuxuryBrackets:    DefaultLuxuryBrackets(),
	}
}

func DefaultLuxuryBrackets() []Bracket {
	return []Bracket{
		{From: 0, Rate: decimal.Zero},
		{From: 500000, Rate: money.Percent(5)},
		{From: 1000000, Rate: money.Percent(10)},
	}
}

func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if err := checkRate("standard", c.StandardRate); err != nil {
		return err
	}
	if c.StandardThreshold < 0 {
		return fmt.Errorf("%w: standard threshold must not be negative", domain.ErrValidation)
	}
	for cat, r := range c.CategoryRates {
		if !cat.Valid() {
			return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, cat)
		}
		if err := checkRate(cat.String(), r); err != nil {
			return err
		}
	}
	for i, b := range c.LuxuryBrackets {
		if b.From < 0 {
			return fmt.Errorf("%w: bracket %d starts below zero", domain.ErrValidation, i)
		}
		if i > 0 && b.From <= c.LuxuryBrackets[i-1].From {
			return fmt.Errorf("%w: brackets must be strictly ascending", domain.ErrValidation)
		}
		if err := checkRate(fmt.Sprintf("bracket %d", i), b.Rate); err != nil {
			return err
		}
	}
	return nil
}

func checkRate(name string, r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s tax rate %s is outside [0,1]", domain.ErrValidation, name, r)
	}
	return nil
}

func sortedBrackets(in []Bracket) []Bracket {
	out := append([]Bracket(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}
