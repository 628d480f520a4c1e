package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/fairyhunter13/credicambios/pkg/database"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Admin  AdminConfig
	Ledger LedgerConfig
	Redis  RedisConfig
	Log    LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	AllowOrigins    string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// DBConfig holds database-related configuration.
// Driver "sqlite" uses the file at Path; "postgres" uses the network fields.
// WARNING: Default password is for local development only.
type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	Path     string `envconfig:"DB_PATH" default:"/tmp/database.sqlite"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"credicambios"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	Retries  int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`
}

// DSN returns the connection string for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
	}
	return database.SQLiteDSN(c.Path)
}

// Dialect maps Driver to the storage dialect.
func (c DBConfig) Dialect() database.Dialect {
	if c.Driver == "postgres" {
		return database.DialectPostgres
	}
	return database.DialectSQLite
}

// AdminConfig holds admin login and token settings.
// An empty Secret disables login.
type AdminConfig struct {
	Secret     string        `envconfig:"ADMIN_SECRET"`
	TokenKey   string        `envconfig:"ADMIN_TOKEN_KEY"`
	TokenTTL   time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"12h"`
	LoginRate  float64       `envconfig:"ADMIN_LOGIN_RATE" default:"0.2"`
	LoginBurst int           `envconfig:"ADMIN_LOGIN_BURST" default:"5"`
}

// LedgerConfig holds loyalty ledger settings.
type LedgerConfig struct {
	DefaultBranch string `envconfig:"LEDGER_DEFAULT_BRANCH" default:"principal"`
	HistoryLimit  int    `envconfig:"LEDGER_HISTORY_LIMIT" default:"20"`
	FeedLimit     int    `envconfig:"LEDGER_FEED_LIMIT" default:"50"`
}

// RedisConfig holds the optional profile cache settings. Empty Addr disables it.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_TTL" default:"5m"`
}

// Enabled reports whether a redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load reads an optional .env file and parses environment variables into Config.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	return &cfg, nil
}
