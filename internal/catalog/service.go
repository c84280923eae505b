// Package catalog serves product lookups and catalog maintenance over a Store, with an optional
// cache in front of single-product reads.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	store Store
	cache Cache
	sfg   singleflight.Group
}

// NewService wires a store with an optional cache; pass nil to read the store directly.
func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) GetProduct(ctx context.Context, name string) (domain.Product, error) {
	key := domain.NormalizeName(name)
	if key == "" {
		return domain.Product{}, fmt.Errorf("%w: product name must not be empty", domain.ErrValidation)
	}
	if s.cache == nil {
		return s.store.Get(ctx, key)
	}

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		p, err := s.cache.Get(ctx, key)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.FromContext(ctx).Warn("catalog cache get failed", zap.String("product", key), zap.Error(err))
		}

		p, err = s.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, p); err != nil {
			logger.FromContext(ctx).Warn("catalog cache set failed", zap.String("product", key), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.store.List(ctx)
}

// Search matches query as a case-insensitive substring of the product name.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := domain.NormalizeName(query)
	return s.filter(ctx, func(p domain.Product) bool {
		return strings.Contains(p.Name, q) || strings.Contains(strings.ToLower(p.DisplayName()), q)
	})
}

func (s *Service) FilterByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, category)
	}
	return s.filter(ctx, func(p domain.Product) bool { return p.Category == category })
}

// FilterByPriceRange returns products priced within [lo, hi].
func (s *Service) FilterByPriceRange(ctx context.Context, lo, hi int64) ([]domain.Product, error) {
	if lo < 0 || hi < lo {
		return nil, fmt.Errorf("%w: invalid price range %d..%d", domain.ErrValidation, lo, hi)
	}
	return s.filter(ctx, func(p domain.Product) bool { return p.Price >= lo && p.Price <= hi })
}

// Cheapest returns up to n products by ascending price, ties by name.
func (s *Service) Cheapest(ctx context.Context, n int) ([]domain.Product, error) {
	return s.ranked(ctx, n, func(a, b domain.Product) bool { return a.Price < b.Price })
}

// MostExpensive returns up to n products by descending price, ties by name.
func (s *Service) MostExpensive(ctx context.Context, n int) ([]domain.Product, error) {
	return s.ranked(ctx, n, func(a, b domain.Product) bool { return a.Price > b.Price })
}

// GroupedByCategory returns every category, including empty ones.
func (s *Service) GroupedByCategory(ctx context.Context) (map[domain.Category][]domain.Product, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Category][]domain.Product, len(domain.Categories()))
	for _, c := range domain.Categories() {
		out[c] = []domain.Product{}
	}
	for _, p := range products {
		out[p.Category] = append(out[p.Category], p)
	}
	return out, nil
}

func (s *Service) AddProduct(ctx context.Context, name string, price int64, unit string, category domain.Category) (domain.Product, error) {
	p, err := domain.NewProduct(name, price, unit, category)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	logger.FromContext(ctx).Info("product added", zap.String("product", p.Name), zap.Int64("price", p.Price))
	return p, nil
}

func (s *Service) UpdatePrice(ctx context.Context, name string, price int64) (domain.Product, error) {
	if err := domain.ValidatePrice(domain.NormalizeName(name), price); err != nil {
		return domain.Product{}, err
	}
	if err := s.store.UpdatePrice(ctx, name, price); err != nil {
		return domain.Product{}, err
	}
	s.invalidate(ctx, name)
	logger.FromContext(ctx).Info("product price updated", zap.String("product", domain.NormalizeName(name)), zap.Int64("price", price))
	return s.store.Get(ctx, name)
}

func (s *Service) DeleteProduct(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}
	s.invalidate(ctx, name)
	logger.FromContext(ctx).Info("product deleted", zap.String("product", domain.NormalizeName(name)))
	return nil
}

func (s *Service) filter(ctx context.Context, keep func(domain.Product) bool) ([]domain.Product, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) ranked(ctx context.Context, n int, less func(a, b domain.Product) bool) ([]domain.Product, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", domain.ErrValidation)
	}
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Price == products[j].Price {
			return products[i].Name < products[j].Name
		}
		return less(products[i], products[j])
	})
	return products[:min(n, len(products))], nil
}

func (s *Service) invalidate(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, name); err != nil {
		logger.FromContext(ctx).Warn("catalog cache invalidate failed", zap.String("product", name), zap.Error(err))
	}
}
