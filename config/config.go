// Package config loads all runtime configuration from the environment into a
// single struct that is constructed once at startup and passed by reference.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DBHost     string `env:"DB_HOST" envDefault:"db"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBName     string `env:"DB_NAME,required"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Stripe
	StripeSecretKey      string        `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret  string        `env:"STRIPE_WEBHOOK_SECRET"`
	StripeTimeout        time.Duration `env:"STRIPE_TIMEOUT" envDefault:"15s"`
	StripeCurrency       string        `env:"STRIPE_CURRENCY" envDefault:"usd"`
	// InsecureWebhooks skips webhook signature verification. It exists for
	// local development against the Stripe CLI only and must never be set in
	// production; Validate refuses an empty webhook secret without it.
	InsecureWebhooks bool `env:"STRIPE_INSECURE_WEBHOOKS" envDefault:"false"`

	// PublicBaseURL is where Stripe redirects customers after checkout.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// HTTP limits
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS" envDefault:"*"`
	BodyLimitBytes  int           `env:"BODY_LIMIT_BYTES" envDefault:"4194304"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces settings that env tags cannot express.
func (c *Config) Validate() error {
	if c.StripeWebhookSecret == "" && !c.InsecureWebhooks {
		return errors.New("STRIPE_WEBHOOK_SECRET is not set; refusing to trust unsigned webhooks (set STRIPE_INSECURE_WEBHOOKS=true for local development)")
	}
	return nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
