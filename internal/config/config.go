// Package config provides configuration loading for wardend.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/wardend/internal/logging"
)

// Config is the root wardend configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     logging.Config    `koanf:"logging"`
	Store       StoreConfig       `koanf:"store"`
	Enforcement EnforcementConfig `koanf:"enforcement"`
	Provider    ProviderConfig    `koanf:"provider"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings for health and metrics.
type ServerConfig struct {
	HTTPHost        string   `koanf:"http_host"`
	HTTPPort        int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// StoreConfig holds durable store settings.
type StoreConfig struct {
	// Path is the SQLite database file. ":memory:" is valid for tests.
	Path string `koanf:"path"`
}

// EnforcementConfig holds enforcement-gate settings.
type EnforcementConfig struct {
	// SessionTTL is the fixed lifetime of an enforcement session. A
	// validate call after this window returns SESSION_EXPIRED, permanently.
	SessionTTL Duration `koanf:"session_ttl"`
}

// ProviderConfig holds completion-provider settings.
type ProviderConfig struct {
	// Model is the completion model invoked once per build phase.
	Model string `koanf:"model"`
	// APIKey authenticates against the completion provider.
	APIKey Secret `koanf:"api_key"`
}

// TelemetryConfig holds OTEL metrics export settings.
type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
	// Endpoint is the OTLP collector address (host:port).
	Endpoint string `koanf:"endpoint"`
	// Protocol is "grpc" or "http/protobuf".
	Protocol       string   `koanf:"protocol"`
	Insecure       bool     `koanf:"insecure"`
	ExportInterval Duration `koanf:"export_interval"`
}

// Default returns a configuration with hardcoded defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPHost:        "localhost",
			HTTPPort:        9414,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Logging: *logging.NewDefaultConfig(),
		Store: StoreConfig{
			Path: "wardend.db",
		},
		Enforcement: EnforcementConfig{
			SessionTTL: Duration(30 * time.Minute),
		},
		Provider: ProviderConfig{
			Model: "gpt-4o-mini",
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Endpoint:       "localhost:4317",
			Protocol:       "grpc",
			Insecure:       true,
			ExportInterval: Duration(15 * time.Second),
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Enforcement.SessionTTL.Duration() <= 0 {
		return fmt.Errorf("enforcement.session_ttl must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
