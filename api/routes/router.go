package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnldiecast/storefront-backend/api/controllers"
	cartcontrollers "github.com/mnldiecast/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/mnldiecast/storefront-backend/api/controllers/orders"
	shippingcontrollers "github.com/mnldiecast/storefront-backend/api/controllers/shipping"
	"github.com/mnldiecast/storefront-backend/api/middleware"
	"github.com/mnldiecast/storefront-backend/internal/cart"
	"github.com/mnldiecast/storefront-backend/internal/orders"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	deps map[string]controllers.Pinger,
	cartService cart.Service,
	orderService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Identity(cfg.JWT, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", cartcontrollers.GetCart(cartService, logg))
		r.Post("/items", cartcontrollers.AddItem(cartService, logg))
		r.Patch("/items/{variantID}", cartcontrollers.UpdateItem(cartService, logg))
		r.Delete("/items/{variantID}", cartcontrollers.RemoveItem(cartService, logg))
		r.Delete("/", cartcontrollers.ClearCart(cartService, logg))
		r.Post("/merge", cartcontrollers.MergeCart(cartService, logg))
	})

	r.Route("/api/v1/shipping", func(r chi.Router) {
		r.Post("/quote", shippingcontrollers.Quote(cfg.Shipping, cartService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/checkout", ordercontrollers.Checkout(orderService, logg))
		r.Get("/", ordercontrollers.ListOrders(orderService, logg))
		r.Get("/{orderID}", ordercontrollers.GetOrder(orderService, logg))
	})

	return r
}
