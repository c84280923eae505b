package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Category string

const (
	CategoryFood      Category = "food"
	CategoryBeverage  Category = "beverage"
	CategoryHousehold Category = "household"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryFood, CategoryBeverage, CategoryHousehold}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", validationf("unknown category %q", s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryBeverage, CategoryHousehold:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Product is an immutable catalog entry. Price is in minor units.
type Product struct {
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Unit     string   `json:"unit"`
	Category Category `json:"category"`
}

// NewProduct validates and normalizes a product; the name becomes the lower-cased catalog key.
func NewProduct(name string, price int64, unit string, category Category) (Product, error) {
	key := NormalizeName(name)
	if key == "" {
		return Product{}, validationf("product name must not be empty")
	}
	if err := ValidatePrice(key, price); err != nil {
		return Product{}, err
	}
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		return Product{}, validationf("unit of %q must not be empty", key)
	}
	if !category.Valid() {
		return Product{}, validationf("unknown category %q", category)
	}
	return Product{Name: key, Price: price, Unit: unit, Category: category}, nil
}

// ValidatePrice accepts prices in [0, MaxSubtotal].
func ValidatePrice(name string, price int64) error {
	if price < 0 {
		return validationf("price of %q must not be negative", name)
	}
	if price > MaxSubtotal {
		return validationf("price of %q exceeds %d", name, MaxSubtotal)
	}
	return nil
}

// NormalizeName turns user input into a catalog key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName renders "instant_noodles" as "Instant Noodles".
func (p Product) DisplayName() string {
	return cases.Title(language.English).String(strings.ReplaceAll(p.Name, "_", " "))
}
