package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	DatabaseURL   string        `env:"DATABASE_URL"`
	DBWaitTimeout time.Duration `env:"DB_WAIT_TIMEOUT" envDefault:"30s"`

	// RedisURL is optional. Without it, logout cannot revoke issued sessions.
	RedisURL string `env:"REDIS_URL"`

	SessionSecret       string        `env:"SESSION_SECRET"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// TrustedProxies lists the proxies whose X-Forwarded-For is believed.
	// Empty means the client IP is always the socket peer.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST" envDefault:"10"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadForCLI is Load for the migrate and manage tools, which only talk to
// the database and so need no session settings.
func LoadForCLI() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	return cfg, nil
}

func parse() (*Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	if len(c.SessionSecret) < minSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSecretLength)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
