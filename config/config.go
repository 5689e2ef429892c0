package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// AppConfig is the main configuration struct, composed from domain-specific
// config files:
//   - identity.go: identity backend configuration
//   - storage.go: credential store and Redis configuration
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library.
type AppConfig struct {
	// IsDev controls development mode behavior. Set DEV=true for dev mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Identity backend configuration
	Identity IdentityConfig

	// Credential store configuration
	Credentials CredentialsConfig `envPrefix:"CREDENTIALS_"`

	// Redis configuration (used when the credential backend is redis)
	Redis RedisConfig `envPrefix:"REDIS_"`
}

// Load parses configuration from the environment and applies guardrails.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AppConfig) Sanitize() {
	c.Identity.Sanitize()
	c.Credentials.Sanitize()

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
}
