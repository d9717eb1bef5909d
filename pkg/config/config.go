package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	CartAPI       CartAPIConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.CartAPI.validate(); err != nil {
		return nil, err
	}
	if err := cfg.App.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SHOPCART_APP_ENV" default:"dev"`
	Port         string   `envconfig:"SHOPCART_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"SHOPCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SHOPCART_LOG_WARN_STACK" default:"false"`
	Currency     string   `envconfig:"SHOPCART_CURRENCY" default:"USD"`
	CORSOrigins  []string `envconfig:"SHOPCART_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:8081"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For and X-Real-IP headers
	// are believed. Empty means the peer address is always the client.
	TrustedProxies []string `envconfig:"SHOPCART_TRUSTED_PROXIES"`
}

func (a *AppConfig) validate() error {
	for _, entry := range a.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(entry); err != nil {
			return fmt.Errorf("%s: invalid entry %q", EnvTrustedProxies, entry)
		}
	}
	return nil
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RedisConfig is optional: with neither URL nor address set, Redis-backed features are disabled.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPCART_REDIS_URL"`
	Address      string        `envconfig:"SHOPCART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// CartAPIConfig configures the HTTP client used by the cart mutation manager.
type CartAPIConfig struct {
	BaseURL           string        `envconfig:"SHOPCART_API_BASE_URL" default:"http://localhost:8080"`
	Timeout           time.Duration `envconfig:"SHOPCART_API_TIMEOUT" default:"15s"`
	RequestsPerSecond float64       `envconfig:"SHOPCART_API_RPS" default:"10"`
	Burst             int           `envconfig:"SHOPCART_API_BURST" default:"5"`
}

type NotificationsConfig struct {
	Channel      string `envconfig:"SHOPCART_NOTIFICATIONS_CHANNEL" default:"cart-notifications"`
	PublishRedis bool   `envconfig:"SHOPCART_NOTIFICATIONS_REDIS" default:"false"`
}

// RateLimitConfig throttles cart writes per client IP. Counters live in Redis, so the
// limit only applies when Redis is configured.
type RateLimitConfig struct {
	Window time.Duration `envconfig:"SHOPCART_RATE_LIMIT_WINDOW" default:"1m"`
	Writes int           `envconfig:"SHOPCART_RATE_LIMIT_WRITES" default:"120"`
}

func (c *CartAPIConfig) validate() error {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		return fmt.Errorf("%s is required", EnvAPIBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvAPIBaseURL)
	}
	c.BaseURL = strings.TrimRight(raw, "/")
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return nil
}
