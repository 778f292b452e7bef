// Package config loads service configuration from the environment with an
// optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds connection settings for PostgreSQL.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

// AuthConfig holds identity-verification settings.
type AuthConfig struct {
	// PublicKeyPath points at the PEM-encoded RSA public key used to verify
	// bearer tokens issued by the identity provider.
	PublicKeyPath string `yaml:"public_key_path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig holds rate limiter settings.
type RateLimitConfig struct {
	WindowMinutes int `yaml:"window_minutes"`
	MaxRequests   int `yaml:"max_requests"`
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// MaxBodyBytes caps inbound request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Server:       ServerConfig{Host: "0.0.0.0", Port: 3000},
		Database:     DatabaseConfig{MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: 300},
		Logging:      LoggingConfig{Level: "info", Format: "json"},
		RateLimit:    RateLimitConfig{WindowMinutes: 15, MaxRequests: 100},
		MaxBodyBytes: 1 << 20,
	}
}

// Load builds a Config by applying defaults, then an optional YAML file named
// by USER_SERVICE_CONFIG, then environment variable overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("USER_SERVICE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.RateLimit.MaxRequests <= 0 || cfg.RateLimit.WindowMinutes <= 0 {
		return nil, fmt.Errorf("invalid rate limit: %d requests per %d minutes",
			cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowMinutes)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AUTH_PUBLIC_KEY_PATH"); v != "" {
		cfg.Auth.PublicKeyPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
