// Package handler exposes the domain services over HTTP. Routing is chi,
// bodies are plain JSON, and every domain error maps onto a distinct status
// class so clients can tell "fix your input" from "retry later".
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/kart-store/internal/domain/cart"
	"github.com/xenking/kart-store/internal/domain/checkout"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/domain/order"
	"github.com/xenking/kart-store/internal/domain/user"
)

// Handler bundles the HTTP endpoints over the domain services.
type Handler struct {
	users    *user.Service
	items    *item.Service
	orders   *order.Service
	cart     *cart.Service
	checkout *checkout.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	users *user.Service,
	items *item.Service,
	orders *order.Service,
	cartSvc *cart.Service,
	checkoutSvc *checkout.Service,
) *Handler {
	return &Handler{
		users:    users,
		items:    items,
		orders:   orders,
		cart:     cartSvc,
		checkout: checkoutSvc,
	}
}

// Routes returns the full API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.register)
		r.Post("/login", h.login)
		r.Get("/", h.listUsers)

		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.getUser)
			r.Delete("/", h.deleteUser)
			r.Post("/deposit", h.deposit)
			r.Get("/cart", h.getCart)
			r.Post("/cart", h.addItem)
			r.Delete("/cart/{itemID}", h.removeItem)
			r.Post("/checkout", h.checkoutCart)
			r.Get("/orders", h.orderHistory)
		})
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.listItems)
		r.Post("/", h.createItem)
		r.Get("/{itemID}", h.getItem)
		r.Put("/{itemID}", h.updateItem)
		r.Delete("/{itemID}", h.deleteItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Delete("/{orderID}", h.deleteOrder)
	})

	return r
}
