package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sefaaycicek/fakestore/internal/service"
	"github.com/sefaaycicek/fakestore/pkg/health"
	"github.com/sefaaycicek/fakestore/pkg/middleware"
)

const serviceName = "storefront"

// Services groups the services the router dispatches to.
type Services struct {
	Sessions  *service.SessionService
	Products  *service.ProductService
	Favorites *service.FavoriteService
	Basket    *service.BasketService
	Checkout  *service.CheckoutService
}

// RouterConfig tunes the router. Zero values select defaults.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	Heartbeat      time.Duration
	// RateLimit, when set, wraps every /api/v1 route.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all storefront routes registered.
// The listing event stream is registered outside the timeout and
// compression middleware since it stays open.
func NewRouter(svcs Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.CORS.AllowedOrigins == nil {
		cfg.CORS = middleware.DefaultCORSConfig()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Owner())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	listings := NewListingHandler(svcs.Sessions, cfg.Heartbeat, logger)
	products := NewProductHandler(svcs.Products, logger)
	favorites := NewFavoriteHandler(svcs.Favorites, logger)
	basket := NewBasketHandler(svcs.Basket, svcs.Checkout, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.Get("/listings/{id}/events", listings.Events)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(cfg.RequestTimeout))

			r.Post("/listings", listings.Create)
			r.Get("/listings/{id}", listings.Get)
			r.Delete("/listings/{id}", listings.Delete)
			r.Post("/listings/{id}/load", listings.Reload)
			r.Post("/listings/{id}/next", listings.Next)
			r.Post("/listings/{id}/refresh", listings.Refresh)
			r.Put("/listings/{id}/query", listings.Search)
			r.Put("/listings/{id}/filter", listings.Filter)
			r.Put("/listings/{id}/sort", listings.Sort)

			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(300))
				r.Get("/sort-options", products.SortOptions)
				r.Get("/categories", products.Categories)
			})
			r.Get("/categories/{slug}/products", products.CategoryProducts)
			r.Get("/products/{productId}", products.Get)

			r.Get("/favorites", favorites.List)
			r.Post("/favorites", favorites.Add)
			r.Delete("/favorites/{productId}", favorites.Remove)

			r.Get("/basket", basket.Get)
			r.Delete("/basket", basket.Clear)
			r.Post("/basket/items", basket.AddItem)
			r.Put("/basket/items/{productId}", basket.UpdateItem)
			r.Delete("/basket/items/{productId}", basket.RemoveItem)

			r.Post("/checkout", basket.Checkout)
		})
	})

	return r
}
