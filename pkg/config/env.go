package config

const (
	EnvPrefix = "SHOPCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SHOPCART_APP_ENV"
	EnvPort     = "SHOPCART_APP_PORT"
	EnvLogLevel = "SHOPCART_LOG_LEVEL"
	EnvCurrency = "SHOPCART_CURRENCY"

	EnvRedisURL  = "SHOPCART_REDIS_URL"
	EnvRedisAddr = "SHOPCART_REDIS_ADDR"

	EnvAPIBaseURL = "SHOPCART_API_BASE_URL"
	EnvAPITimeout = "SHOPCART_API_TIMEOUT"
	EnvAPIRPS     = "SHOPCART_API_RPS"
	EnvAPIBurst   = "SHOPCART_API_BURST"

	EnvNotificationsChannel = "SHOPCART_NOTIFICATIONS_CHANNEL"
	EnvNotificationsRedis   = "SHOPCART_NOTIFICATIONS_REDIS"

	EnvRateLimitWindow = "SHOPCART_RATE_LIMIT_WINDOW"
	EnvRateLimitWrites = "SHOPCART_RATE_LIMIT_WRITES"
	EnvCORSOrigins     = "SHOPCART_CORS_ORIGINS"
	EnvTrustedProxies  = "SHOPCART_TRUSTED_PROXIES"
)
