// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/modelcsv/internal/codec"
	"github.com/JonMunkholm/modelcsv/internal/keywords"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Codec    CodecConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// EnsureSchema creates the document tables on startup (default: true)
	EnsureSchema bool `env:"DB_ENSURE_SCHEMA" default:"true"`
}

// ImportConfig holds model file import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 64MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"67108864"`

	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single import (default: 5m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// CodecConfig holds the model file layout settings shared by import and export.
type CodecConfig struct {
	// Separator is the single-character CSV field separator (default: ",")
	Separator string `env:"CODEC_SEPARATOR" default:","`

	// KeyAndDataInSameRow writes values on the keyword's row (default: true)
	KeyAndDataInSameRow bool `env:"CODEC_KEY_AND_DATA_IN_SAME_ROW" default:"true"`

	// Indentation is the column of the first value (default: 1)
	Indentation int `env:"CODEC_INDENTATION" default:"1"`

	// ThrowOnDataErrors rejects incomplete data on export instead of repairing it (default: false)
	ThrowOnDataErrors bool `env:"CODEC_THROW_ON_DATA_ERRORS" default:"false"`

	// CaseSensitive matches keywords case-sensitively (default: false)
	CaseSensitive bool `env:"CODEC_CASE_SENSITIVE" default:"false"`

	// KeywordsFile is an optional HCL file overriding keyword texts
	KeywordsFile string `env:"CODEC_KEYWORDS_FILE"`
}

// AuditConfig holds audit log retention settings.
type AuditConfig struct {
	// PruneEnabled runs the background pruner (default: true)
	PruneEnabled bool `env:"AUDIT_PRUNE_ENABLED" default:"true"`

	// RetentionDays is how long audit entries are kept (default: 90)
	RetentionDays int `env:"AUDIT_RETENTION_DAYS" default:"90"`

	// PruneInterval is how often old entries are removed (default: 24h)
	PruneInterval time.Duration `env:"AUDIT_PRUNE_INTERVAL" default:"24h"`

	// PruneBatchSize is the number of rows deleted per statement (default: 5000)
	PruneBatchSize int `env:"AUDIT_PRUNE_BATCH_SIZE" default:"5000"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SeparatorRune returns the configured separator as a rune, or 0 when it is
// not exactly one character.
func (c *CodecConfig) SeparatorRune() rune {
	r, size := utf8.DecodeRuneInString(c.Separator)
	if size == 0 || size != len(c.Separator) || r == utf8.RuneError {
		return 0
	}
	return r
}

// Options builds codec options, loading the keyword file when one is set.
func (c *CodecConfig) Options() (codec.Options, error) {
	reg := keywords.NewRegistry()
	if c.CaseSensitive {
		if err := reg.SetCaseSensitive(true); err != nil {
			return codec.Options{}, err
		}
	}
	if c.KeywordsFile != "" {
		if err := reg.LoadFile(c.KeywordsFile); err != nil {
			return codec.Options{}, err
		}
	}

	return codec.Options{
		KeyAndDataInSameRow: c.KeyAndDataInSameRow,
		Indentation:         c.Indentation,
		ThrowOnDataErrors:   c.ThrowOnDataErrors,
		Keywords:            reg,
	}, nil
}

func validSeparator(c *CodecConfig) bool {
	return table.ValidSeparator(c.SeparatorRune())
}
