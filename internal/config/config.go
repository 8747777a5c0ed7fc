// Package config loads service settings from environment variables.
//
// Every field carries an env tag; defaults are applied for unset variables
// and the assembled Config is validated once so the process refuses to start
// with a broken setup.
package config

import (
	"strconv"
	"time"
)

// Store drivers understood by the server and CLI.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Upload   UploadConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Audit    AuditConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8001"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every handler via chi's Timeout middleware.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	// Driver is one of mongo, postgres, memory (default: mongo)
	Driver string `env:"STORE_DRIVER" default:"mongo"`

	// URL is the connection string. MONGO_URL and DATABASE_URL are accepted
	// as alternates so existing deployment files keep working.
	URL string `env:"STORE_URL" envAlt:"MONGO_URL,DATABASE_URL"`

	// Database is the Mongo database name (default: conservation_dashboard)
	Database string `env:"DB_NAME" default:"conservation_dashboard"`

	// Collection is the Mongo collection or Postgres table name
	Collection string `env:"STORE_COLLECTION" default:"translocations"`

	// OpTimeout bounds a single store round trip (default: 10s)
	OpTimeout time.Duration `env:"STORE_OP_TIMEOUT" default:"10s"`

	MaxConns        int           `env:"STORE_MAX_CONNS" default:"20"`
	MinConns        int           `env:"STORE_MIN_CONNS" default:"2"`
	MaxConnIdleTime time.Duration `env:"STORE_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds file upload settings for the import endpoints.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the number of imports allowed to run at once (default: 1)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long an import waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a whole import including the commit (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// ImportConfig tunes the spreadsheet normalizer.
type ImportConfig struct {
	// MaxErrors is how many row errors an import summary returns (default: 10)
	MaxErrors int `env:"IMPORT_MAX_ERRORS" default:"10"`

	// FallbackYear is used when a row carries no recognizable year (default: 2024)
	FallbackYear int `env:"IMPORT_FALLBACK_YEAR" default:"2024"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ImportLimit is requests per minute for the import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSOrigins lists allowed origins; the default allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS" default:"*"`

	// RequireAPIKey enables X-API-Key authentication on mutating routes.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// AuditConfig sizes the in-process audit log.
type AuditConfig struct {
	// Capacity is how many recent changes are kept; 0 disables the log (default: 500)
	Capacity int `env:"AUDIT_CAPACITY" default:"500"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
