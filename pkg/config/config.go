package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Backend       BackendConfig
	Redis         RedisConfig
	Session       SessionConfig
	Catalog       CatalogConfig
	Cart          CartConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the storefront REST API. URL falls back to DefaultBackendURL.
type BackendConfig struct {
	URL     string        `envconfig:"STOREFRONT_BACKEND_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"12s"`
}

// APIBase returns the backend base URL with the /api prefix applied.
func (b BackendConfig) APIBase() string {
	base := strings.TrimRight(strings.TrimSpace(b.URL), "/")
	if base == "" {
		base = DefaultBackendURL
	}
	return base + "/api"
}

func (b BackendConfig) validate() error {
	if b.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBackendTimeout)
	}
	raw := strings.TrimSpace(b.URL)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvBackendURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvBackendURL, raw)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sparible_session"`
	TTL          time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"168h"`
	GuestTTL     time.Duration `envconfig:"STOREFRONT_SESSION_GUEST_TTL" default:"30m"`
	MaxSessions  int           `envconfig:"STOREFRONT_SESSION_MAX" default:"10000"`
	SecureCookie bool          `envconfig:"STOREFRONT_SESSION_SECURE_COOKIE" default:"false"`
}

type CatalogConfig struct {
	HomeProductLimit int           `envconfig:"STOREFRONT_CATALOG_HOME_PRODUCTS" default:"12"`
	HomeBlogLimit    int           `envconfig:"STOREFRONT_CATALOG_HOME_BLOGS" default:"3"`
	FacetCacheTTL    time.Duration `envconfig:"STOREFRONT_CATALOG_FACET_CACHE_TTL" default:"10m"`
}

// CartConfig holds the display-side delivery rule of the cart page.
type CartConfig struct {
	FreeDeliveryThreshold decimal.Decimal `envconfig:"STOREFRONT_CART_FREE_DELIVERY_THRESHOLD" default:"500"`
	DeliveryCharge        decimal.Decimal `envconfig:"STOREFRONT_CART_DELIVERY_CHARGE" default:"40"`
	LookupConcurrency     int             `envconfig:"STOREFRONT_CART_LOOKUP_CONCURRENCY" default:"8"`
}

func (c CartConfig) validate() error {
	if c.FreeDeliveryThreshold.IsNegative() || c.DeliveryCharge.IsNegative() {
		return fmt.Errorf("cart delivery settings must be non-negative")
	}
	return nil
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"5"`
}

// CORSConfig lists the browser origins allowed to call the storefront with credentials.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
