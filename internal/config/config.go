// Package config provides configuration management for the middleware pipeline.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	// DefaultListenAddr is the default HTTP listen address.
	DefaultListenAddr = ":8080"

	// DefaultMaxBodyCaptureBytes is the default maximum request body size
	// captured for audit metadata.
	DefaultMaxBodyCaptureBytes = 10 * 1024

	// DefaultMaxMetadataBytes is the hard cap on the serialized audit
	// metadata payload.
	DefaultMaxMetadataBytes = 2000

	// DefaultAuthenticatedLimit is the default request limit for
	// authenticated clients.
	DefaultAuthenticatedLimit = 300

	// DefaultAnonymousLimit is the default request limit for anonymous
	// clients.
	DefaultAnonymousLimit = 60

	// DefaultRateLimitWindow is the default rate limit window.
	DefaultRateLimitWindow = time.Minute
)

// Config is the root configuration for the service.
type Config struct {
	// ServiceName identifies the service in logs and metrics.
	ServiceName string `yaml:"serviceName" json:"serviceName"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listenAddr" json:"listenAddr"`

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string `yaml:"logLevel" json:"logLevel"`

	// LogFormat is the logging format (json, console).
	LogFormat string `yaml:"logFormat" json:"logFormat"`

	// Audit configures the audit trail pipeline.
	Audit AuditConfig `yaml:"audit" json:"audit"`

	// RateLimit configures request rate limiting.
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`

	// Redis configures the shared counter store.
	Redis *RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`

	// Database configures the durable audit store.
	Database *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ServiceName: "gatekit",
		ListenAddr:  DefaultListenAddr,
		LogLevel:    "info",
		LogFormat:   "json",
		Audit:       *DefaultAuditConfig(),
		RateLimit:   *DefaultRateLimitConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit config: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}
	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
	}
	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database config: %w", err)
		}
	}
	return nil
}

// RedisConfig holds connection settings for the shared counter store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	PoolSize     int      `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
	MinIdleConns int      `yaml:"minIdleConns,omitempty" json:"minIdleConns,omitempty"`
	DialTimeout  Duration `yaml:"dialTimeout,omitempty" json:"dialTimeout,omitempty"`
	ReadTimeout  Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
}

// DefaultRedisConfig returns a RedisConfig with default values.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Address:      "localhost:6379",
		Prefix:       "gatekit:",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  Duration(5 * time.Second),
		ReadTimeout:  Duration(3 * time.Second),
		WriteTimeout: Duration(3 * time.Second),
	}
}

// Validate checks the redis configuration.
func (c *RedisConfig) Validate() error {
	if c.Enabled && c.Address == "" {
		return fmt.Errorf("address is required when redis is enabled")
	}
	return nil
}

// DatabaseConfig holds connection settings for the durable audit store.
type DatabaseConfig struct {
	// Driver is the database driver name. Only "postgres" is supported.
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the database connection string.
	DSN string `yaml:"dsn" json:"dsn"`

	// MaxOpenConns limits the connection pool size.
	MaxOpenConns int `yaml:"maxOpenConns,omitempty" json:"maxOpenConns,omitempty"`

	// MaxIdleConns limits idle connections in the pool.
	MaxIdleConns int `yaml:"maxIdleConns,omitempty" json:"maxIdleConns,omitempty"`
}

// DefaultDatabaseConfig returns a DatabaseConfig with default values.
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver:       "postgres",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}
}

// Validate checks the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Driver != "" && c.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	return nil
}
