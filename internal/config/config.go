package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBDSN    string `env:"DB_DSN" envDefault:"bazaar.db"` // sqlite file in project root
	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CartStore selects where session carts live: "sql" or "redis".
	CartStore string        `env:"CART_STORE" envDefault:"sql"`
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	CartTTL   time.Duration `env:"CART_TTL" envDefault:"168h"`

	// RateLimit is the per-IP request budget per minute; 0 disables the limiter.
	RateLimit    int  `env:"RATE_LIMIT" envDefault:"60"`
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"false"`
	SeedDemo     bool `env:"SEED_DEMO" envDefault:"true"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@bazaar.test"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CartStore != "sql" && cfg.CartStore != "redis" {
		return Config{}, fmt.Errorf("parse config: CART_STORE must be sql or redis, got %q", cfg.CartStore)
	}
	return cfg, nil
}
