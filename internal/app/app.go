package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MicroShop/internal/auth"
	"MicroShop/internal/cart"
	"MicroShop/internal/catalog"
	"MicroShop/internal/kv"
	"MicroShop/internal/notify"
	"MicroShop/internal/orders"
	"MicroShop/pkg/kit"
)

type Deps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	Users    auth.UserStore
	Products catalog.Store
	Orders   orders.Store
	KV       kv.Store
}

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindowSeconds  = 60
)

// App holds the wired components; tests reach through it to tweak clocks
// and budgets.
type App struct {
	Handler  http.Handler
	Tokens   *auth.Tokens
	Cache    *catalog.Cache
	Cart     *cart.Store
	Pipeline *notify.Pipeline
	Orders   *orders.Service
}

func New(d Deps) *App {
	tokenMetrics := kit.NewLookupMetrics(d.Registry,
		"token_lookups_total", "Token validations by outcome")
	cacheMetrics := kit.NewLookupMetrics(d.Registry,
		"catalog_cache_lookups_total", "Catalog cache lookups by key family and outcome")

	a := &App{
		Tokens:   auth.NewTokens(d.KV, d.Log, tokenMetrics),
		Cache:    catalog.NewCache(d.KV, d.Products, d.Log, cacheMetrics),
		Cart:     cart.NewStore(d.KV, d.Products),
		Pipeline: notify.NewPipeline(d.KV, d.Log),
	}
	a.Orders = &orders.Service{
		Store:  d.Orders,
		Cart:   a.Cart,
		Notify: a.Pipeline,
		Log:    d.Log,
	}

	a.Handler = a.routes(d)
	return a
}

func (a *App) routes(d Deps) http.Handler {
	authSrv := &auth.Server{Log: d.Log, Store: d.Users, Tokens: a.Tokens}
	catalogSrv := &catalog.Server{Store: d.Products, Cache: a.Cache, Log: d.Log}
	cartSrv := &cart.Server{Cart: a.Cart, Log: d.Log}
	orderSrv := &orders.Server{Service: a.Orders, Log: d.Log}
	notifySrv := &notify.Server{Pipeline: a.Pipeline, Log: d.Log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(d.Log))

	if d.Registry != nil {
		metrics := kit.NewMetrics(d.Registry)
		r.Use(metrics.Middleware(d.Service, kit.ChiRoutePatternOrPath))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", a.readyz(d))

	if d.MetricsEnabled && d.Registry != nil {
		r.With(kit.MetricsAuth(d.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}),
		)
	}

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindowSeconds)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindowSeconds)

	r.With(registerLimiter.Middleware).Post("/register", authSrv.RegisterHandler())
	r.With(loginLimiter.Middleware).Post("/login", authSrv.LoginHandler())

	r.Get("/products", catalogSrv.ListHandler())
	r.Get("/products/{id}", catalogSrv.GetHandler())

	r.Group(func(ur chi.Router) {
		ur.Use(auth.Require(a.Tokens, ""))
		ur.Post("/cart/add", cartSrv.AddHandler())
		ur.Get("/cart", cartSrv.GetHandler())
		ur.Delete("/cart", cartSrv.ClearHandler())
		ur.Post("/order", orderSrv.CreateHandler())
		ur.Get("/notifications", notifySrv.ListHandler())
		ur.Get("/notifications/stream", notifySrv.StreamHandler())
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.Require(a.Tokens, auth.RoleAdmin))
		ar.Post("/products", catalogSrv.CreateHandler())
		ar.Put("/products/{id}", catalogSrv.UpdateHandler())
		ar.Delete("/products/{id}", catalogSrv.DeleteHandler())
		ar.Put("/order/{id}/status", orderSrv.UpdateStatusHandler())
	})

	return r
}

func (a *App) readyz(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Users.Ping(ctx); err != nil {
			d.Log.Warn("readyz: database not ready", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", map[string]any{"dependency": "postgres"})
			return
		}
		if err := d.KV.Ping(ctx); err != nil {
			d.Log.Warn("readyz: key-value store not ready", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", map[string]any{"dependency": "redis"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
