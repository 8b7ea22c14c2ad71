package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	// DefaultBackendURL is used when STOREFRONT_BACKEND_URL is unset.
	DefaultBackendURL = "http://localhost:8000"

	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvBackendURL     = "STOREFRONT_BACKEND_URL"
	EnvBackendTimeout = "STOREFRONT_BACKEND_TIMEOUT"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvSessionTTL     = "STOREFRONT_SESSION_TTL"
	EnvFreeDelivery   = "STOREFRONT_CART_FREE_DELIVERY_THRESHOLD"
	EnvDeliveryCharge = "STOREFRONT_CART_DELIVERY_CHARGE"
	EnvCORSOrigins    = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)
