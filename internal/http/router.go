package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Cart     *service.CartService
	Orders   *service.OrderService
	Auth     *service.AuthService
	Checkout *service.CheckoutService
	Products ProductSource
	Tracker  OrderTracker
	Logger   *zap.Logger

	// BaseCtx bounds background work started by requests.
	BaseCtx        context.Context
	RequestTimeout time.Duration
	PayTimeout     time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires every API route behind the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	validate := validator.New()

	productHandler := NewProductHandler(d.Products, d.RequestTimeout)
	cartHandler := NewCartHandler(d.Cart, d.Products, validate, d.RequestTimeout)
	authHandler := NewAuthHandler(d.Auth, validate, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.BaseCtx, d.Checkout, d.Tracker, validate, d.Logger, d.RequestTimeout, d.PayTimeout)
	ordersHandler := NewOrdersHandler(d.Orders, d.Tracker, validate, d.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(d.Logger))
	if d.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(d.MaxBodyBytes))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)
		r.Get("/categories", productHandler.ListCategories)
		r.Get("/shipping-options", ListShippingOptions)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/selection", cartHandler.SelectAll)
			r.Delete("/selection", cartHandler.DeselectAll)
			r.Post("/selection/{product_id}", cartHandler.ToggleSelection)
			r.Delete("/selected", cartHandler.RemoveSelected)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/quick-login", authHandler.QuickLogin)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Auth))

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", checkoutHandler.Prepare)
				r.Post("/pay", checkoutHandler.Pay)
				r.Get("/address", checkoutHandler.ShippingAddress)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{id}", ordersHandler.GetOrder)

				r.Group(func(r chi.Router) {
					r.Use(RequireAdmin)
					r.Put("/{id}/status", ordersHandler.UpdateStatus)
					r.Delete("/{id}/tracking", ordersHandler.StopTracking)
				})
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront-api")
}
