package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/tax"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PricingFile is the YAML layout of PRICING_FILE. Absent keys keep their defaults.
//
//	discount:
//	  senior_age: 60
//	  senior_rate: 0.10
//	  category_rate: 0.07
//	  category_min_items: 3
//	  category_min_items_by_category: {household: 2}
//	  day_rates: {monday: 0.15, saturday: 0.20}
//	tax:
//	  mode: combined
//	  standard_rate: 0.10
//	  standard_threshold: 100000
//	  category_rates: {food: 0.05}
//	  luxury_brackets: [{from: 0, rate: 0}, {from: 500000, rate: 0.05}]
//	loyalty:
//	  point_value: 1000
type PricingFile struct {
	Discount struct {
		SeniorAge                  *int               `yaml:"senior_age"`
		SeniorRate                 *float64           `yaml:"senior_rate"`
		CategoryRate               *float64           `yaml:"category_rate"`
		CategoryMinItems           *int               `yaml:"category_min_items"`
		CategoryMinItemsByCategory map[string]int     `yaml:"category_min_items_by_category"`
		DayRates                   map[string]float64 `yaml:"day_rates"`
	} `yaml:"discount"`
	Tax struct {
		Mode              *string            `yaml:"mode"`
		StandardRate      *float64           `yaml:"standard_rate"`
		StandardThreshold *int64             `yaml:"standard_threshold"`
		CategoryRates     map[string]float64 `yaml:"category_rates"`
		LuxuryBrackets    []struct {
			From int64   `yaml:"from"`
			Rate float64 `yaml:"rate"`
		} `yaml:"luxury_brackets"`
	} `yaml:"tax"`
	Loyalty struct {
		PointValue *int64 `yaml:"point_value"`
	} `yaml:"loyalty"`
}

func (c *Config) applyPricingFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pricing file: %w", err)
	}
	return c.ApplyPricing(data)
}

// ApplyPricing overlays a YAML pricing document on the current discount, tax and loyalty settings.
func (c *Config) ApplyPricing(data []byte) error {
	var pf PricingFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: pricing file: %v", domain.ErrValidation, err)
	}

	d := pf.Discount
	if d.SeniorAge != nil {
		c.Discount.SeniorAge = *d.SeniorAge
	}
	if d.SeniorRate != nil {
		c.Discount.SeniorRate = decimal.NewFromFloat(*d.SeniorRate)
	}
	if d.CategoryRate != nil {
		c.Discount.CategoryRate = decimal.NewFromFloat(*d.CategoryRate)
	}
	if d.CategoryMinItems != nil {
		c.Discount.CategoryMinItems = *d.CategoryMinItems
	}
	if d.CategoryMinItemsByCategory != nil {
		c.Discount.CategoryMinItemsByCategory = make(map[domain.Category]int, len(d.CategoryMinItemsByCategory))
		for name, n := range d.CategoryMinItemsByCategory {
			cat, err := domain.ParseCategory(name)
			if err != nil {
				return err
			}
			c.Discount.CategoryMinItemsByCategory[cat] = n
		}
	}
	if d.DayRates != nil {
		c.Discount.DayRates = make(map[time.Weekday]decimal.Decimal, len(d.DayRates))
		for name, r := range d.DayRates {
			day, err := parseWeekday(name)
			if err != nil {
				return err
			}
			c.Discount.DayRates[day] = decimal.NewFromFloat(r)
		}
	}

	t := pf.Tax
	if t.Mode != nil {
		mode, err := tax.ParseMode(*t.Mode)
		if err != nil {
			return err
		}
		c.Tax.Mode = mode
	}
	if t.StandardRate != nil {
		c.Tax.StandardRate = decimal.NewFromFloat(*t.StandardRate)
	}
	if t.StandardThreshold != nil {
		c.Tax.StandardThreshold = *t.StandardThreshold
	}
	if t.CategoryRates != nil {
		c.Tax.CategoryRates = make(map[domain.Category]decimal.Decimal, len(t.CategoryRates))
		for name, r := range t.CategoryRates {
			cat, err := domain.ParseCategory(name)
			if err != nil {
				return err
			}
			c.Tax.CategoryRates[cat] = decimal.NewFromFloat(r)
		}
	}
	if t.LuxuryBrackets != nil {
		c.Tax.LuxuryBrackets = make([]tax.Bracket, len(t.LuxuryBrackets))
		for i, b := range t.LuxuryBrackets {
			c.Tax.LuxuryBrackets[i] = tax.Bracket{From: b.From, Rate: decimal.NewFromFloat(b.Rate)}
		}
	}

	if pf.Loyalty.PointValue != nil {
		c.PointValue = *pf.Loyalty.PointValue
	}
	return nil
}

func parseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", domain.ErrValidation, s)
}
