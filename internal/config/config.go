package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Address string `env:"ADDRESS" envDefault:":8080"`
	DBDSN   string `env:"DB_DSN" envDefault:"marketplace.db"` // sqlite file in project root

	// AppURL is the public origin used for checkout redirects and onboarding links.
	AppURL           string `env:"APP_URL" envDefault:"http://localhost:8080"`
	RootDomain       string `env:"ROOT_DOMAIN" envDefault:"localhost:8080"`
	SubdomainRouting bool   `env:"SUBDOMAIN_ROUTING" envDefault:"false"`

	PlatformFeePercentage decimal.Decimal `env:"PLATFORM_FEE_PERCENTAGE" envDefault:"10"`
	RecheckPrices         bool            `env:"CHECKOUT_RECHECK_PRICES" envDefault:"true"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	RedisURL         string        `env:"REDIS_URL"`
	CategoryCacheTTL time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"5m"`

	LogFile  string `env:"LOG_FILE" envDefault:"./marketplace.log"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OTelExporter string `env:"OTEL_EXPORTER" envDefault:"none"` // none | stdout | otlp
	OTelEndpoint string `env:"OTEL_ENDPOINT" envDefault:"localhost:4317"`

	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	// Requests per minute per client IP.
	RateLimit      int  `env:"RATE_LIMIT" envDefault:"120"`
	LoginRateLimit int  `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	CookieSecure   bool `env:"COOKIE_SECURE" envDefault:"false"` // set true behind HTTPS

	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then the process environment.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PlatformFeePercentage.IsNegative() || cfg.PlatformFeePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return Config{}, fmt.Errorf("PLATFORM_FEE_PERCENTAGE must be within 0..100, got %s", cfg.PlatformFeePercentage)
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	return cfg, nil
}

// TenantURL is the storefront origin of a tenant. Subdomain routing is only used
// when enabled; otherwise storefronts live under /tenants/<slug>.
func (c Config) TenantURL(slug string) string {
	if !c.SubdomainRouting {
		return fmt.Sprintf("%s/tenants/%s", c.AppURL, slug)
	}
	return fmt.Sprintf("https://%s.%s", slug, c.RootDomain)
}
