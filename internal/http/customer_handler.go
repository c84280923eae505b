package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/cart"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/transaction"
	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	registry     *cart.Registry
	transactions *transaction.Service
	timeout      time.Duration
}

func NewCustomerHandler(registry *cart.Registry, transactions *transaction.Service, timeout time.Duration) *CustomerHandler {
	return &CustomerHandler{registry: registry, transactions: transactions, timeout: timeout}
}

type RegisterCustomerRequestDTO struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Member    bool   `json:"member"`
	Points    int64  `json:"points"`
	Assistant string `json:"assistant"`
}

// POST /api/v1/customers
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterCustomerRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	c, err := h.registry.RegisterCustomer(ctx, cart.CustomerSpec{
		Kind:      domain.CustomerKind(req.Kind),
		Name:      req.Name,
		Age:       req.Age,
		Member:    req.Member,
		Points:    req.Points,
		Assistant: req.Assistant,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, c)
}

// GET /api/v1/customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.registry.Customers())
}

// GET /api/v1/customers/{name}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.Customer(chi.URLParam(r, "name"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, c)
}

// POST /api/v1/customers/{name}/membership
func (h *CustomerHandler) UpgradeMembership(w http.ResponseWriter, r *http.Request) {
	c, err := h.registry.UpgradeMembership(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, c)
}

// GET /api/v1/customers/{name}/carts
func (h *CustomerHandler) Carts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.registry.CartsOf(chi.URLParam(r, "name"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	if carts == nil {
		carts = []cart.View{}
	}
	respondJSON(r.Context(), w, http.StatusOK, carts)
}

// GET /api/v1/customers/{name}/transactions
func (h *CustomerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	name := chi.URLParam(r, "name")
	if _, err := h.registry.Customer(name); err != nil {
		handleError(ctx, w, err)
		return
	}
	txs, err := h.transactions.ByCustomer(ctx, name)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(txs))
}

func nonNil(txs []domain.Transaction) []domain.Transaction {
	if txs == nil {
		return []domain.Transaction{}
	}
	return txs
}
