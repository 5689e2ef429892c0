package config

import (
	"fmt"
	"strings"
	"time"
)

// IdentityMode selects the identity backend implementation.
type IdentityMode string

const (
	// IdentityModeHTTP talks to the real identity backend over HTTP.
	IdentityModeHTTP IdentityMode = "http"
	// IdentityModeDev uses the in-process dev backend (development only).
	IdentityModeDev IdentityMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentityMode.
func (m *IdentityMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "http", "dev":
		*m = IdentityMode(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentityMode: %q (valid options: http, dev)", v)
	}
}

// HTTPIdentityConfig configures the HTTP identity client (used when Mode=http).
type HTTPIdentityConfig struct {
	BaseURL      string        `env:"BASE_URL"`
	TokenURL     string        `env:"TOKEN_URL"`
	ClientID     string        `env:"CLIENT_ID"      envDefault:"sessionkit"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	Scope        string        `env:"SCOPE"          envDefault:"openid profile email roles"`
	DiscoveryURL string        `env:"DISCOVERY_URL"`
	Timeout      time.Duration `env:"TIMEOUT"        envDefault:"30s"`
}

// DevIdentityConfig seeds the in-process dev backend (used when Mode=dev).
type DevIdentityConfig struct {
	Email    string   `env:"EMAIL"    envDefault:"dev@example.com"`
	Password string   `env:"PASSWORD" envDefault:"dev"`
	Roles    []string `env:"ROLES"    envDefault:"learner;trainer" envSeparator:";"`
}

// IdentityConfig groups all identity backend configuration.
type IdentityConfig struct {
	// Mode determines which identity backend implementation to use.
	Mode IdentityMode `env:"IDENTITY_MODE" envDefault:"http"`

	// HTTP configuration (used when Mode=http).
	HTTP HTTPIdentityConfig `envPrefix:"IDENTITY_"`

	// Dev configuration (used when Mode=dev).
	Dev DevIdentityConfig `envPrefix:"DEV_IDENTITY_"`
}

// Sanitize applies guardrails to identity configuration.
func (c *IdentityConfig) Sanitize() {
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
}
