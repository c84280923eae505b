package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/pos-service/internal/domain"
)

var ErrProductExists = errors.New("product already exists")

// Store persists catalog products keyed by normalized name.
type Store interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, name string) (domain.Product, error)
	Create(ctx context.Context, p domain.Product) error
	UpdatePrice(ctx context.Context, name string, price int64) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// DefaultProducts is the starter catalog; it matches the seed migration.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{Name: "rice", Price: 15000, Unit: "kg", Category: domain.CategoryFood},
		{Name: "eggs", Price: 20000, Unit: "kg", Category: domain.CategoryFood},
		{Name: "bread", Price: 8000, Unit: "piece", Category: domain.CategoryFood},
		{Name: "vegetables", Price: 5000, Unit: "kg", Category: domain.CategoryFood},
		{Name: "fruit", Price: 10000, Unit: "kg", Category: domain.CategoryFood},
		{Name: "sugar", Price: 12000, Unit: "kg", Category: domain.CategoryFood},
		{Name: "crackers", Price: 2000, Unit: "kg", Category: domain.CategoryFood},
		{Name: "instant_noodles", Price: 1500, Unit: "piece", Category: domain.CategoryFood},
		{Name: "milk", Price: 12000, Unit: "bottle", Category: domain.CategoryBeverage},
		{Name: "coffee", Price: 5000, Unit: "piece", Category: domain.CategoryBeverage},
		{Name: "tea", Price: 3000, Unit: "bag", Category: domain.CategoryBeverage},
		{Name: "cooking_oil", Price: 25000, Unit: "bottle", Category: domain.CategoryHousehold},
		{Name: "soap", Price: 5000, Unit: "bar", Category: domain.CategoryHousehold},
		{Name: "shampoo", Price: 10000, Unit: "bar", Category: domain.CategoryHousehold},
	}
}
