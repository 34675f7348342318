// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendSQL       = "sql"
	BackendFirestore = "firestore"
	BackendLocal     = "local"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `envconfig:"PORT" default:"8080"`
	ReadTimeout  int    `envconfig:"SERVER_READ_TIMEOUT" default:"15"`  // seconds
	WriteTimeout int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"` // seconds
	IdleTimeout  int    `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`  // seconds
}

// DatabaseConfig holds SQL connection settings.
type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"factures"`
	Password   string `envconfig:"DB_PASSWORD" default:"factures123"`
	DBName     string `envconfig:"DB_NAME" default:"factures"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"factures.db"`
	Debug      bool   `envconfig:"DB_DEBUG" default:"false"`
}

// StoreConfig selects and configures the invoice store.
type StoreConfig struct {
	Backend          string `envconfig:"STORE_BACKEND" default:"sql"`
	FirestoreProject string `envconfig:"FIRESTORE_PROJECT"`
	RedisAddr        string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword    string `envconfig:"REDIS_PASSWORD"`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix   string `envconfig:"REDIS_KEY_PREFIX" default:"factures"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev            bool   `envconfig:"DEV" default:"true"`
	Migrations     bool   `envconfig:"MIGRATIONS" default:"false"`
	SessionSecret  string `envconfig:"SESSION_SECRET"`
	LoginRateLimit int    `envconfig:"LOGIN_RATE_LIMIT" default:"10"` // attempts per minute and IP
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// SQLiteDSN returns the sqlite file path, cleaned.
func (d DatabaseConfig) SQLiteDSN() string {
	return filepath.Clean(d.SQLitePath)
}

// Load reads configuration from environment variables.
// Unset variables take the defaults above, tuned for local development.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQL, BackendLocal:
	case BackendFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.Database.Driver)
	}
	if !c.App.Dev && c.App.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET must be set outside dev mode")
	}
	return nil
}
