package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Upload   UploadConfig
	S3       S3Config
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"3000"`
}

// DatabaseConfig holds database-related configuration.
// URL takes precedence over the individual connection fields.
type DatabaseConfig struct {
	URL             string `envconfig:"DATABASE_URL"`
	Host            string `envconfig:"DB_HOST" default:"localhost"`
	Port            int    `envconfig:"DB_PORT" default:"5432"`
	User            string `envconfig:"DB_USER" default:"postgres"`
	Password        string `envconfig:"DB_PASSWORD"`
	Database        string `envconfig:"DB_NAME" default:"retail"`
	MaxConnections  int    `envconfig:"DB_MAX_CONNECTIONS" default:"25"`
	MinConnections  int    `envconfig:"DB_MIN_CONNECTIONS" default:"5"`
	MaxConnLifetime int    `envconfig:"DB_MAX_CONN_LIFETIME" default:"300"` // seconds
	AutoMigrate     bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // "json" or "console"
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret  string        `envconfig:"JWT_SECRET"`
	Issuer     string        `envconfig:"JWT_ISSUER" default:"retail-pos"`
	Expiration time.Duration `envconfig:"JWT_EXPIRATION" default:"24h"`
	// ProtectAPI puts every business route behind the bearer token check,
	// not just the profile endpoint.
	ProtectAPI bool `envconfig:"AUTH_PROTECT_API" default:"false"`
}

// UploadConfig holds product image upload configuration.
type UploadConfig struct {
	Dir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`
}

// S3Config holds AWS S3 configuration for product images.
type S3Config struct {
	Enabled bool   `envconfig:"S3_ENABLED" default:"false"`
	Bucket  string `envconfig:"S3_BUCKET"`
	Region  string `envconfig:"S3_REGION" default:"us-east-1"`
	Prefix  string `envconfig:"S3_PREFIX" default:"products/"`
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}

	if c.Database.URL == "" {
		if c.Database.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("database host is required"))
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			errs = multierr.Append(errs, fmt.Errorf("invalid database port: %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = multierr.Append(errs, fmt.Errorf("database user is required"))
		}
		if c.Database.Database == "" {
			errs = multierr.Append(errs, fmt.Errorf("database name is required"))
		}
	}

	if c.Database.MaxConnections < 1 {
		errs = multierr.Append(errs, fmt.Errorf("database max connections must be at least 1"))
	}

	if c.Database.MinConnections < 1 {
		errs = multierr.Append(errs, fmt.Errorf("database min connections must be at least 1"))
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		errs = multierr.Append(errs, fmt.Errorf("database min connections cannot exceed max connections"))
	}

	if c.Auth.JWTSecret == "" {
		errs = multierr.Append(errs, fmt.Errorf("JWT secret is required"))
	}

	if c.Auth.Expiration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("JWT expiration must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		errs = multierr.Append(errs, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level))
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		errs = multierr.Append(errs, fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format))
	}

	if c.Upload.Dir == "" {
		errs = multierr.Append(errs, fmt.Errorf("upload directory is required"))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("upload max bytes must be positive"))
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = multierr.Append(errs, fmt.Errorf("S3 bucket is required when S3 is enabled"))
		}
		if c.S3.Region == "" {
			errs = multierr.Append(errs, fmt.Errorf("S3 region is required when S3 is enabled"))
		}
	}

	return errs
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
