package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Products     *ProductHandler
	Customers    *CustomerHandler
	Carts        *CartHandler
	Transactions *TransactionHandler
}

func NewRouter(h Handlers, log *zap.Logger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware(log))
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Post("/", h.Products.Add)
			r.Get("/grouped", h.Products.Grouped)
			r.Get("/{name}", h.Products.Get)
			r.Put("/{name}/price", h.Products.UpdatePrice)
			r.Delete("/{name}", h.Products.Delete)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.Customers.List)
			r.Post("/", h.Customers.Register)
			r.Get("/{name}", h.Customers.Get)
			r.Post("/{name}/membership", h.Customers.UpgradeMembership)
			r.Get("/{name}/carts", h.Customers.Carts)
			r.Get("/{name}/transactions", h.Customers.Transactions)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.Carts.Open)
			r.Get("/{id}", h.Carts.Get)
			r.Delete("/{id}", h.Carts.Delete)
			r.Post("/{id}/items", h.Carts.AddItem)
			r.Delete("/{id}/items", h.Carts.Clear)
			r.Put("/{id}/items/{product}", h.Carts.UpdateQuantity)
			r.Delete("/{id}/items/{product}", h.Carts.RemoveItem)
			r.Get("/{id}/quote", h.Carts.Quote)
			r.Get("/{id}/summary", h.Carts.Summary)
			r.Post("/{id}/checkout", h.Carts.Checkout)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.Transactions.List)
			r.Get("/{id}", h.Transactions.Get)
			r.Post("/{id}/complete", h.Transactions.Complete)
			r.Post("/{id}/cancel", h.Transactions.Cancel)
			r.Get("/{id}/receipt", h.Transactions.Receipt)
		})

		r.Get("/reports/sales", h.Transactions.SalesReport)
	})

	return r
}
