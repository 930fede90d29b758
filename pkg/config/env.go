package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Environment variable names referenced by validation messages and tests.
const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvCatalogBaseURL = "STOREFRONT_CATALOG_BASE_URL"
	EnvCatalogTimeout = "STOREFRONT_CATALOG_TIMEOUT"
	EnvSessionCookie  = "STOREFRONT_SESSION_COOKIE"
	EnvSessionTTL     = "STOREFRONT_SESSION_TTL"
	EnvSessionBackend = "STOREFRONT_SESSION_BACKEND"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvRedisAddr      = "STOREFRONT_REDIS_ADDR"
	EnvCORSOrigins    = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)
