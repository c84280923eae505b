package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/receipt"
	"github.com/fjod/go_cart/pos-service/internal/transaction"
	"github.com/go-chi/chi/v5"
)

const (
	dateLayout     = "2006-01-02"
	defaultTopSize = 5
)

type TransactionHandler struct {
	transactions *transaction.Service
	renderer     *receipt.Renderer
	timeout      time.Duration
}

func NewTransactionHandler(transactions *transaction.Service, renderer *receipt.Renderer, timeout time.Duration) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, renderer: renderer, timeout: timeout}
}

// GET /api/v1/transactions?customer=&status=&day=&from=&to=
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	txs, err := h.transactions.List(ctx, f)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, nonNil(txs))
}

func parseFilter(q url.Values) (transaction.Filter, error) {
	var f transaction.Filter
	if day := q.Get("day"); day != "" {
		t, err := parseTime(day)
		if err != nil {
			return f, err
		}
		f = transaction.DayFilter(t)
	}
	if from := q.Get("from"); from != "" {
		t, err := parseTime(from)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseTime(to)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	if s := q.Get("status"); s != "" {
		st, err := domain.ParseTransactionStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	f.CustomerName = q.Get("customer")
	return f, nil
}

// parseTime accepts a calendar date or an RFC 3339 timestamp. Dates are midnight UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither %s nor RFC 3339", domain.ErrValidation, s, dateLayout)
	}
	return t, nil
}

// GET /api/v1/transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.transactions.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tx)
}

// POST /api/v1/transactions/{id}/complete
func (h *TransactionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.transactions.CompleteTransaction(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tx)
}

// POST /api/v1/transactions/{id}/cancel
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.transactions.CancelTransaction(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tx)
}

// GET /api/v1/transactions/{id}/receipt
func (h *TransactionHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.transactions.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondText(w, http.StatusOK, h.renderer.Receipt(tx))
}

// GET /api/v1/reports/sales?from=&to=&top=&format=text
func (h *TransactionHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	top, err := queryInt64(q.Get("top"), defaultTopSize)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	rep, err := h.transactions.SalesReport(ctx, f.From, f.To, int(top))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if q.Get("format") == "text" {
		respondText(w, http.StatusOK, h.renderer.SalesReport(rep))
		return
	}
	respondJSON(ctx, w, http.StatusOK, rep)
}
