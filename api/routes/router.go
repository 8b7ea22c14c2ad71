package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparible/storefront/api/controllers"
	"github.com/sparible/storefront/api/middleware"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/cart"
	"github.com/sparible/storefront/internal/catalog"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/config"
	"github.com/sparible/storefront/pkg/logger"
	"github.com/sparible/storefront/pkg/redis"
)

// Params carries everything the router wires into controllers.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Backend  *apiclient.Client
	Auth     auth.Service
	Sessions *session.Manager
	Facets   *catalog.FacetService
	Resolver *cart.Resolver
	Gatherer prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var pinger redis.Pinger
	authLimit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler { return next }
	}
	if p.Redis != nil {
		pinger = p.Redis
		authLimit = func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
			return middleware.AuthRateLimit(policy, p.Redis, logg)
		}
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pinger))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	rule := cart.DeliveryRule{
		FreeThreshold: cfg.Cart.FreeDeliveryThreshold,
		Charge:        cfg.Cart.DeliveryCharge,
	}
	cookie := middleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.SecureCookie,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(p.Sessions, cookie, logg))

		r.Get("/", controllers.Home(p.Backend, controllers.HomeLimits{
			Products: cfg.Catalog.HomeProductLimit,
			Blogs:    cfg.Catalog.HomeBlogLimit,
		}, logg))

		r.Get("/products", controllers.Products(p.Facets, logg))
		r.Post("/products/filters", controllers.ProductsSetFilter(p.Facets, logg))
		r.Post("/products/filters/clear", controllers.ProductsClearFilters(p.Facets, logg))
		r.Get("/product/{id}", controllers.ProductDetail(p.Backend, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(p.Resolver, rule, logg))
			r.Post("/add", controllers.CartAdd(p.Resolver, rule, logg))
			r.Post("/update", controllers.CartUpdate(p.Resolver, rule, logg))
			r.Post("/remove", controllers.CartRemove(p.Resolver, rule, logg))
			r.Post("/clear", controllers.CartClear(p.Resolver, rule, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistView(p.Resolver, logg))
			r.Post("/add", controllers.WishlistAdd(p.Resolver, logg))
			r.Post("/remove", controllers.WishlistRemove(p.Resolver, logg))
		})

		r.With(authLimit(loginPolicy)).Post("/login", controllers.AuthLogin(p.Auth, p.Sessions, logg))
		r.With(authLimit(registerPolicy)).Post("/register", controllers.AuthRegister(p.Auth, p.Sessions, logg))
		r.Post("/logout", controllers.AuthLogout(p.Sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/account", controllers.Account(p.Auth, p.Sessions, logg))
			r.Get("/orders", controllers.Orders(p.Backend, p.Sessions, logg))
		})

		r.With(middleware.RequireAdmin(logg)).
			Get("/admin", controllers.Admin(p.Backend, p.Sessions, logg))
	})

	return r
}
