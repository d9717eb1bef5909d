package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopcart/api/controllers"
	cartcontrollers "github.com/angelmondragon/shopcart/api/controllers/cart"
	"github.com/angelmondragon/shopcart/api/middleware"
	"github.com/angelmondragon/shopcart/internal/cart"
	"github.com/angelmondragon/shopcart/pkg/config"
	"github.com/angelmondragon/shopcart/pkg/logger"
	"github.com/angelmondragon/shopcart/pkg/metrics"
	"github.com/angelmondragon/shopcart/pkg/redis"
)

// RedisStore is the Redis surface the router needs; *redis.Client satisfies it.
type RedisStore interface {
	redis.IdempotencyStore
	redis.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Deps carries the collaborators the router wires into handlers. Redis and Metrics are
// optional; nil disables idempotency replay, write throttling and /metrics.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	CartService cart.Service
	Redis       RedisStore
	Metrics     *metrics.HTTPMetrics
	Gatherer    http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ClientIP(cfg.App.TrustedProxies),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		readyPinger      redis.Pinger
		writeLimiter     func(http.Handler) http.Handler
	)
	if d.Redis != nil {
		idempotencyStore = d.Redis
		readyPinger = d.Redis
		policy := middleware.NewRateLimitPolicy("cart-writes", cfg.RateLimit.Window, cfg.RateLimit.Writes)
		writeLimiter = middleware.RateLimit(policy, d.Redis, logg)
	} else {
		writeLimiter = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyPinger))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", d.Gatherer)
	}

	r.Route("/cart", func(r chi.Router) {
		r.Use(writeLimiter)
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/", cartcontrollers.CartFetch(d.CartService, logg))
		r.Delete("/", cartcontrollers.CartClear(d.CartService, logg))
		r.Post("/item", cartcontrollers.ItemAdd(d.CartService, logg))
		r.Put("/item/{itemId}", cartcontrollers.ItemUpdate(d.CartService, logg))
		r.Delete("/item/{itemId}", cartcontrollers.ItemRemove(d.CartService, logg))
	})

	return r
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
