// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Catalog backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultAllowedExtensions is used when ALLOWED_EXTENSIONS is not set.
var DefaultAllowedExtensions = []string{"txt", "pdf", "png", "jpg", "jpeg", "gif", "csv", "xls", "xlsx"}

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Catalog storage
	CatalogBackend string `env:"CATALOG_BACKEND" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`

	// Sessions, rate limiting and the replication queue (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Secret key material used to sign session and flash cookies
	SecretKey  string        `env:"SECRET_KEY,required,notEmpty"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Upload intake
	UploadDir          string   `env:"UPLOAD_DIR" envDefault:"./uploads"`
	AllowedExtensions  []string `env:"ALLOWED_EXTENSIONS" envSeparator:","`
	MaxUploadSize      int64    `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`
	RecentUploadsLimit int      `env:"RECENT_UPLOADS_LIMIT" envDefault:"4"`

	// When false, uploads are attributed to the placeholder owner and no login is required
	AuthRequired     bool   `env:"AUTH_REQUIRED" envDefault:"true"`
	PlaceholderOwner string `env:"PLACEHOLDER_OWNER" envDefault:"test_client"`

	// Remote replication (S3 or S3-compatible). Disabled when S3Bucket is empty.
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	ReplicationMaxAttempts int `env:"REPLICATION_MAX_ATTEMPTS" envDefault:"5"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for credential endpoints (per client IP)
	RateLimitLoginEnabled bool `env:"RATE_LIMIT_LOGIN_ENABLED" envDefault:"true"`
	RateLimitLoginRPS     int  `env:"RATE_LIMIT_LOGIN_RPS" envDefault:"1"`
	RateLimitLoginBurst   int  `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"5"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ReplicationEnabled reports whether uploads are mirrored to object storage.
func (c *Config) ReplicationEnabled() bool {
	return c.S3Bucket != ""
}

// Extensions returns the normalized allow-set: lower-cased, without leading dots,
// deduplicated and sorted.
func (c *Config) Extensions() []string {
	raw := c.AllowedExtensions
	if len(raw) == 0 {
		raw = DefaultAllowedExtensions
	}

	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))
	for _, ext := range raw {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		result = append(result, ext)
	}
	sort.Strings(result)

	return result
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.CatalogBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres catalog backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_BACKEND %q", c.CatalogBackend))
	}

	if len(c.Extensions()) == 0 {
		errs = append(errs, errors.New("ALLOWED_EXTENSIONS must name at least one extension"))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}
	if c.RecentUploadsLimit < 0 {
		errs = append(errs, errors.New("RECENT_UPLOADS_LIMIT must not be negative"))
	}
	if !c.AuthRequired && strings.TrimSpace(c.PlaceholderOwner) == "" {
		errs = append(errs, errors.New("PLACEHOLDER_OWNER is required when AUTH_REQUIRED=false"))
	}
	if c.ReplicationEnabled() && c.S3Region == "" {
		errs = append(errs, errors.New("S3_REGION is required when S3_BUCKET is set"))
	}
	if c.ReplicationMaxAttempts < 1 {
		errs = append(errs, errors.New("REPLICATION_MAX_ATTEMPTS must be at least 1"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
