// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kelseyhightower/envconfig"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_DB_DRIVER=sqlite
type Config struct {
	// Server configuration (embedded to flatten env vars)
	Server ServerConfig

	// Database configuration (embedded to flatten env vars)
	Database DatabaseConfig

	// Logging configuration (embedded to flatten env vars)
	Log LogConfig
}

// ServerConfig holds diagnostics HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds connection and instrumentation settings.
type DatabaseConfig struct {
	// Driver selects the dialect: mysql, sqlite or postgres (default: mysql)
	Driver string `envconfig:"DB_DRIVER" default:"mysql"`

	// Host is the database host (default: localhost)
	Host string `envconfig:"DB_HOST" default:"localhost"`

	// Port is the database port. Zero selects the driver's default port.
	Port int `envconfig:"DB_PORT" default:"0"`

	// User is the database user
	User string `envconfig:"DB_USER" default:"root"`

	// Password is the database password (required in production)
	Password string `envconfig:"DB_PASSWORD" default:""`

	// Name is the database name
	Name string `envconfig:"DB_NAME" default:"app"`

	// Path is the database file, sqlite only
	Path string `envconfig:"DB_PATH" default:"dbkit.sqlite"`

	// Charset is the connection character set, mysql only (default: utf8mb4)
	Charset string `envconfig:"DB_CHARSET" default:"utf8mb4"`

	// SSLMode is the SSL mode, postgres only (default: disable)
	SSLMode string `envconfig:"DB_SSLMODE" default:"disable"`

	// ConnectTimeout bounds dialing and, for sqlite, the busy wait (default: 5s)
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`

	// SlowQueryThreshold marks queries at or above it as slow. Zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"DB_SLOW_QUERY_THRESHOLD" default:"500ms"`

	// QueryLog enables the per-query line on the database channel
	QueryLog bool `envconfig:"DB_QUERY_LOG" default:"true"`

	// Benchmark enables memory sampling around each query
	Benchmark bool `envconfig:"DB_BENCHMARK" default:"true"`

	IdentityColumn  string `envconfig:"DB_IDENTITY_COLUMN" default:"id"`
	CreatedAtColumn string `envconfig:"DB_CREATED_AT_COLUMN" default:"created_at"`
	UpdatedAtColumn string `envconfig:"DB_UPDATED_AT_COLUMN" default:"updated_at"`

	// TempTablePrefix prefixes tables created by CreateCloneTemporaryTable (default: TMP_)
	TempTablePrefix string `envconfig:"DB_TEMP_TABLE_PREFIX" default:"TMP_"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: plain)
	Format string `envconfig:"LOG_FORMAT" default:"plain"`

	// Dir receives one <channel>.log file per channel. Empty logs to stdout.
	Dir string `envconfig:"LOG_DIR" default:""`
}

// DriverName returns the database/sql driver name for the configured driver.
func (c *DatabaseConfig) DriverName() string {
	switch c.Driver {
	case DriverSQLite:
		return "sqlite3_dbkit"
	case DriverPostgres:
		return "pgx"
	default:
		return "mysql"
	}
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d",
			c.Path, c.ConnectTimeout.Milliseconds())
	case DriverPostgres:
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
			url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.port(), c.Name,
			c.SSLMode, int(c.ConnectTimeout.Seconds()),
		)
	default:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.port())
		mc.DBName = c.Name
		mc.Timeout = c.ConnectTimeout
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": c.Charset}
		return mc.FormatDSN()
	}
}

func (c *DatabaseConfig) port() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.Driver == DriverPostgres {
		return 5432
	}
	return 3306
}

// Validate checks values envconfig cannot.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverMySQL, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("database port out of range: %d", c.Port)
	}
	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("slow query threshold must not be negative: %s", c.SlowQueryThreshold)
	}
	if strings.TrimSpace(c.IdentityColumn) == "" {
		return fmt.Errorf("identity column must not be empty")
	}
	return nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	// Load each config section separately to flatten env var names
	// This allows env vars like APP_PORT instead of APP_SERVER_PORT
	if err := envconfig.Process("APP", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	return &cfg, nil
}
