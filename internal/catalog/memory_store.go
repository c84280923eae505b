package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fjod/go_cart/pos-service/internal/domain"
)

type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryStore(seed ...domain.Product) *MemoryStore {
	s := &MemoryStore{products: make(map[string]domain.Product, len(seed))}
	for _, p := range seed {
		s.products[p.Name] = p
	}
	return s
}

// List returns products sorted by name.
func (s *MemoryStore) List(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[domain.NormalizeName(name)]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %q", domain.ErrNotFound, name)
	}
	return p, nil
}

func (s *MemoryStore) Create(_ context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.Name]; ok {
		return fmt.Errorf("%w: %q", ErrProductExists, p.Name)
	}
	s.products[p.Name] = p
	return nil
}

func (s *MemoryStore) UpdatePrice(_ context.Context, name string, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeName(name)
	p, ok := s.products[key]
	if !ok {
		return fmt.Errorf("%w: product %q", domain.ErrNotFound, name)
	}
	p.Price = price
	s.products[key] = p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeName(name)
	if _, ok := s.products[key]; !ok {
		return fmt.Errorf("%w: product %q", domain.ErrNotFound, name)
	}
	delete(s.products, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
