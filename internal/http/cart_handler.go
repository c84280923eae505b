package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/cart"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/receipt"
	"github.com/fjod/go_cart/pos-service/internal/transaction"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	registry     *cart.Registry
	transactions *transaction.Service
	renderer     *receipt.Renderer
	timeout      time.Duration
}

func NewCartHandler(registry *cart.Registry, transactions *transaction.Service, renderer *receipt.Renderer, timeout time.Duration) *CartHandler {
	return &CartHandler{
		registry:     registry,
		transactions: transactions,
		renderer:     renderer,
		timeout:      timeout,
	}
}

type OpenCartRequestDTO struct {
	Customer string `json:"customer"`
}

type AddItemRequestDTO struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CheckoutRequestDTO pays with Amount, or with the sum of Installments when any are given.
type CheckoutRequestDTO struct {
	Amount       int64   `json:"amount"`
	Method       string  `json:"method"`
	Installments []int64 `json:"installments,omitempty"`
}

type QuoteResponse struct {
	Cart   cart.View          `json:"cart"`
	Totals transaction.Totals `json:"totals"`
}

// POST /api/v1/carts
func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenCartRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(r.Context(), w, err)
		return
	}
	v, err := h.registry.OpenCart(r.Context(), req.Customer)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, v)
}

// GET /api/v1/carts/{id}
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.registry.Cart(chi.URLParam(r, "id"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, v)
}

// DELETE /api/v1/carts/{id}
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.RemoveCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/carts/{id}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}
	v, err := h.registry.AddItem(ctx, chi.URLParam(r, "id"), req.Product, req.Quantity)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, v)
}

// PUT /api/v1/carts/{id}/items/{product}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(r.Context(), w, err)
		return
	}
	v, err := h.registry.UpdateQuantity(chi.URLParam(r, "id"), chi.URLParam(r, "product"), req.Quantity)
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, v)
}

// DELETE /api/v1/carts/{id}/items/{product}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.registry.RemoveItem(chi.URLParam(r, "id"), chi.URLParam(r, "product"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, v)
}

// DELETE /api/v1/carts/{id}/items
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	v, err := h.registry.Clear(chi.URLParam(r, "id"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, v)
}

// GET /api/v1/carts/{id}/quote
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	v, totals, err := h.quote(chi.URLParam(r, "id"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, QuoteResponse{Cart: v, Totals: totals})
}

// GET /api/v1/carts/{id}/summary
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	v, totals, err := h.quote(chi.URLParam(r, "id"))
	if err != nil {
		handleError(r.Context(), w, err)
		return
	}
	respondText(w, http.StatusOK, h.renderer.CartSummary(v, totals))
}

func (h *CartHandler) quote(id string) (cart.View, transaction.Totals, error) {
	var totals transaction.Totals
	if err := h.registry.WithCart(id, func(c *domain.Cart) error {
		totals = h.transactions.Quote(c)
		return nil
	}); err != nil {
		return cart.View{}, transaction.Totals{}, err
	}
	v, err := h.registry.Cart(id)
	return v, totals, err
}

// POST /api/v1/carts/{id}/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}
	method := domain.PaymentMethod(req.Method)

	var tx domain.Transaction
	err := h.registry.WithCart(chi.URLParam(r, "id"), func(c *domain.Cart) error {
		var err error
		if len(req.Installments) > 0 {
			tx, err = h.transactions.CreateInstallmentTransaction(ctx, c, req.Installments, method)
		} else {
			tx, err = h.transactions.CreateTransaction(ctx, c, req.Amount, method)
		}
		return err
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, tx)
}
