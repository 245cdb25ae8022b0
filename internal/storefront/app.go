package storefront

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/session"
	"Storefront/internal/storage"
	"Storefront/pkg/kit"
)

const (
	metricsNamespace = "storefront"
	readyTimeout     = 1 * time.Second
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	SessionSecret string
	SecureCookies bool

	AdminToken   string
	MetricsToken string

	CartRateLimit  int
	CartRateWindow time.Duration
	TrustProxy     bool
}

// OpenStore builds the backend named by cfg.Backend. The returned close
// function releases database connections and is never nil.
func OpenStore(ctx context.Context, cfg Config, log *zap.Logger) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	if cfg.Backend == BackendMemory {
		return storage.WithTracing(storage.NewMemStore(), otel.GetTracerProvider()), noop, nil
	}

	open := storage.OpenSQLite
	dsn := cfg.SQLitePath
	if cfg.Backend == BackendPostgres {
		open = storage.OpenPostgres
		dsn = cfg.DatabaseURL
	}

	db, err := open(dsn)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, noop, err
	}

	s := storage.NewDBStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, noop, fmt.Errorf("migrate: %w", err)
	}
	if err := s.Seed(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, noop, fmt.Errorf("seed: %w", err)
	}

	log.Info("store ready", zap.String("backend", cfg.Backend))
	return storage.WithTracing(s, otel.GetTracerProvider()), sqlDB.Close, nil
}

func NewHandler(store storage.Store, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(store, deps.Log))

	var cartMetrics *cart.Metrics
	if deps.Registry != nil {
		cartMetrics = cart.NewMetrics(deps.Registry, metricsNamespace)
	}

	products := &catalog.Server{
		Store: store,
		Log:   deps.Log,
		Admin: kit.TokenAuth(deps.AdminToken),
	}
	carts := &cart.Server{
		Store:   store,
		Log:     deps.Log,
		Metrics: cartMetrics,
	}
	if deps.CartRateLimit > 0 {
		limiter := kit.NewIPRateLimiter(deps.CartRateLimit, deps.CartRateWindow)
		limiter.TrustForwardedFor = deps.TrustProxy
		carts.Limit = limiter.Middleware
	}

	signer := session.NewSigner(deps.SessionSecret)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/products", products.Routes())
		api.With(session.Middleware(signer, deps.SecureCookies, deps.Log)).
			Mount("/cart", carts.Routes())
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry, metricsNamespace)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	r.With(kit.TokenAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(store storage.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
