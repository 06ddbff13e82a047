package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the public, user, and admin surfaces.
func NewRouter(cart *CartHandler, orders *OrdersHandler, payments *PaymentsHandler, admin *AdminHandler, verifier UserTokenVerifier, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(verifier))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public: guest checkout, price revalidation, gateway callback,
		// capability-token lookups.
		r.Put("/cart/prices", cart.RevalidatePrices)
		r.Post("/orders", orders.CreateOrder)
		r.Get("/orders/status", orders.OrderStatus)
		r.Post("/orders/cancel", orders.CancelOrder)
		r.Get("/payments/session", payments.GetSession)
		r.Post("/payments/callback", payments.Callback)

		// Authenticated users.
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/cart", cart.GetCart)
			r.Post("/cart", cart.PutCart)
			r.Get("/orders", orders.ListOrders)
		})

		// Admin.
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/orders", admin.ListOrders)
			r.Post("/orders/{order_id}/ship", admin.ShipOrder)
			r.Post("/orders/{order_id}/deliver", admin.DeliverOrder)
			r.Post("/orders/{order_id}/cancel", admin.CancelOrder)
		})
	})

	return r
}
