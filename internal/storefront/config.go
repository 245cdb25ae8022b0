package storefront

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	devSessionSecret = "storefront-dev-session-secret-change-me"
	minSecretLen     = 32
)

type Config struct {
	Port     string
	LogLevel string

	Backend     string
	DatabaseURL string
	SQLitePath  string

	SessionSecret string
	SecureCookies bool

	AdminToken   string
	MetricsToken string

	CartRateLimit  int
	CartRateWindow time.Duration

	// TrustProxy keys the cart rate limit by X-Forwarded-For.
	TrustProxy bool
}

// LoadConfig reads the process environment. Call godotenv first to pick up a
// .env file.
func LoadConfig() (Config, error) {
	c := Config{
		Port:          getenv("PORT", "5000"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Backend:       strings.ToLower(getenv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getenv("SQLITE_PATH", "storefront.db"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		MetricsToken:  os.Getenv("METRICS_TOKEN"),
	}

	var err error
	if c.SecureCookies, err = strconv.ParseBool(getenv("SECURE_COOKIES", "false")); err != nil {
		return Config{}, fmt.Errorf("SECURE_COOKIES: %w", err)
	}
	if c.CartRateLimit, err = strconv.Atoi(getenv("CART_RATE_LIMIT", "120")); err != nil {
		return Config{}, fmt.Errorf("CART_RATE_LIMIT: %w", err)
	}
	if c.CartRateWindow, err = time.ParseDuration(getenv("CART_RATE_WINDOW", "1m")); err != nil {
		return Config{}, fmt.Errorf("CART_RATE_WINDOW: %w", err)
	}

	if c.TrustProxy, err = strconv.ParseBool(getenv("TRUST_PROXY", "false")); err != nil {
		return Config{}, fmt.Errorf("TRUST_PROXY: %w", err)
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Backend)
	}

	if c.SessionSecret == "" && c.Backend == BackendMemory {
		c.SessionSecret = devSessionSecret
	}
	if len(c.SessionSecret) < minSecretLen {
		return fmt.Errorf("SESSION_SECRET is required and must be at least %d chars", minSecretLen)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
