package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
)

// Session backends
const (
	SessionsInStore = "store"
	SessionsInRedis = "redis"
)

// Config holds application configuration
type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port uint16 `env:"PORT" envDefault:"5000"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseType string `env:"DB_TYPE" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./familyconnect.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	SessionBackend         string        `env:"SESSION_BACKEND" envDefault:"store"`
	RedisAddr              string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword          string        `env:"REDIS_PASSWORD"`
	RedisDB                int           `env:"REDIS_DB" envDefault:"0"`
	SessionDuration        time.Duration `env:"SESSION_DURATION" envDefault:"168h"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	SeedDemoData bool `env:"SEED_DEMO_DATA" envDefault:"true"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"FamilyConnect"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:5000"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment variables only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env config: %w", err)
	}

	cfg.StoreBackend = strings.ToLower(cfg.StoreBackend)
	cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and unusable durations
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreSQL:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: want %s or %s", c.StoreBackend, StoreMemory, StoreSQL)
	}

	switch c.SessionBackend {
	case SessionsInStore, SessionsInRedis:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q: want %s or %s", c.SessionBackend, SessionsInStore, SessionsInRedis)
	}

	if c.StoreBackend == StoreSQL {
		switch strings.ToLower(c.DatabaseType) {
		case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
		default:
			return fmt.Errorf("invalid DB_TYPE %q", c.DatabaseType)
		}
		if strings.ToLower(c.DatabaseType) != "sqlite" && strings.ToLower(c.DatabaseType) != "sqlite3" && c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres and mysql")
		}
	}

	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive, got %s", c.SessionDuration)
	}
	if c.SessionCleanupInterval <= 0 {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive, got %s", c.SessionCleanupInterval)
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.FormatUint(uint64(c.Port), 10)
}

// AlertsEnabled reports whether emergency emails can be sent
func (c *Config) AlertsEnabled() bool {
	return c.SESFromEmail != ""
}
