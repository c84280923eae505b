package transaction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
)

// Filter narrows List. Zero fields match everything; the period is [From, To).
type Filter struct {
	CustomerName string
	Status       domain.TransactionStatus
	From         time.Time
	To           time.Time
}

// DayFilter covers the calendar day of day in its own location.
func DayFilter(day time.Time) Filter {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return Filter{From: start, To: start.AddDate(0, 0, 1)}
}

func (f Filter) matches(tx domain.Transaction) bool {
	if f.CustomerName != "" && !strings.EqualFold(strings.TrimSpace(f.CustomerName), tx.Customer.Name) {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

type Store interface {
	Save(ctx context.Context, tx domain.Transaction) error
	Get(ctx context.Context, id string) (domain.Transaction, error)
	// Transition moves a transaction to status atomically, failing with domain.ErrInvalidTransition
	// when the current status does not allow it.
	Transition(ctx context.Context, id string, status domain.TransactionStatus, at time.Time) (domain.Transaction, error)
	List(ctx context.Context, f Filter) ([]domain.Transaction, error)
}

// MemoryStore keeps transactions in memory. Values going in and out are deep copies.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transactions: make(map[string]domain.Transaction)}
}

func (s *MemoryStore) Save(_ context.Context, tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.ID]; ok {
		return fmt.Errorf("%w: transaction %s already recorded", domain.ErrInvalidState, tx.ID)
	}
	s.transactions[tx.ID] = tx.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: transaction %q", domain.ErrNotFound, id)
	}
	return tx.Clone(), nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, status domain.TransactionStatus, at time.Time) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: transaction %q", domain.ErrNotFound, id)
	}
	if !tx.Status.CanTransitionTo(status) {
		return domain.Transaction{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, tx.Status, status)
	}
	tx.Status = status
	tx.UpdatedAt = at
	s.transactions[id] = tx
	return tx.Clone(), nil
}

// List returns matching transactions, oldest first.
func (s *MemoryStore) List(_ context.Context, f Filter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range s.transactions {
		if f.matches(tx) {
			out = append(out, tx.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
