package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/catalog"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog *catalog.Service
	timeout time.Duration
}

func NewProductHandler(catalog *catalog.Service, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: catalog, timeout: timeout}
}

type ProductResponse struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Price       int64           `json:"price"`
	Unit        string          `json:"unit"`
	Category    domain.Category `json:"category"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

type AddProductRequestDTO struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

type UpdatePriceRequestDTO struct {
	Price int64 `json:"price"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		Name:        p.Name,
		DisplayName: p.DisplayName(),
		Price:       p.Price,
		Unit:        p.Unit,
		Category:    p.Category,
	}
}

func toProductsResponse(ps []domain.Product) ProductsResponse {
	out := make([]ProductResponse, len(ps))
	for i, p := range ps {
		out[i] = toProductResponse(p)
	}
	return ProductsResponse{Products: out}
}

// GET /api/v1/products
//
// At most one of q, category, min_price/max_price, cheapest or most_expensive narrows the list.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.query(ctx, r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toProductsResponse(products))
}

func (h *ProductHandler) query(ctx context.Context, r *http.Request) ([]domain.Product, error) {
	q := r.URL.Query()
	switch {
	case q.Has("q"):
		return h.catalog.Search(ctx, q.Get("q"))
	case q.Has("category"):
		cat, err := domain.ParseCategory(q.Get("category"))
		if err != nil {
			return nil, err
		}
		return h.catalog.FilterByCategory(ctx, cat)
	case q.Has("min_price") || q.Has("max_price"):
		lo, err := queryInt64(q.Get("min_price"), 0)
		if err != nil {
			return nil, err
		}
		hi, err := queryInt64(q.Get("max_price"), 1<<62)
		if err != nil {
			return nil, err
		}
		return h.catalog.FilterByPriceRange(ctx, lo, hi)
	case q.Has("cheapest"):
		n, err := queryInt64(q.Get("cheapest"), 0)
		if err != nil {
			return nil, err
		}
		return h.catalog.Cheapest(ctx, int(n))
	case q.Has("most_expensive"):
		n, err := queryInt64(q.Get("most_expensive"), 0)
		if err != nil {
			return nil, err
		}
		return h.catalog.MostExpensive(ctx, int(n))
	}
	return h.catalog.List(ctx)
}

// GET /api/v1/products/grouped
func (h *ProductHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	groups, err := h.catalog.GroupedByCategory(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	out := make(map[domain.Category][]ProductResponse, len(groups))
	for cat, ps := range groups {
		out[cat] = toProductsResponse(ps).Products
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// GET /api/v1/products/{name}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "name"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toProductResponse(p))
}

// POST /api/v1/products
func (h *ProductHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddProductRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}
	cat, err := domain.ParseCategory(req.Category)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	p, err := h.catalog.AddProduct(ctx, req.Name, req.Price, req.Unit, cat)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, toProductResponse(p))
}

// PUT /api/v1/products/{name}/price
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdatePriceRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	p, err := h.catalog.UpdatePrice(ctx, chi.URLParam(r, "name"), req.Price)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toProductResponse(p))
}

// DELETE /api/v1/products/{name}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "name")); err != nil {
		handleError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt64(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", domain.ErrValidation, s)
	}
	return n, nil
}
