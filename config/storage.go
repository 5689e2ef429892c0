package config

import "strings"

// CredentialBackend selects where credentials persist across restarts.
type CredentialBackend string

const (
	// CredentialBackendFile stores credentials in a local JSON file.
	CredentialBackendFile CredentialBackend = "file"
	// CredentialBackendRedis stores credentials in Redis.
	CredentialBackendRedis CredentialBackend = "redis"
)

// CredentialsConfig configures the persisted-credential store.
type CredentialsConfig struct {
	// Backend is "file" or "redis".
	Backend CredentialBackend `env:"BACKEND" envDefault:"file"`

	// FilePath overrides the default credential file location (file backend).
	FilePath string `env:"FILE_PATH"`

	// RedisKey is the key credentials are stored under (redis backend).
	RedisKey string `env:"REDIS_KEY" envDefault:"sessionkit:credentials:default"`
}

// Sanitize applies guardrails to credential store configuration.
func (c *CredentialsConfig) Sanitize() {
	switch CredentialBackend(strings.ToLower(string(c.Backend))) {
	case CredentialBackendFile, CredentialBackendRedis:
		c.Backend = CredentialBackend(strings.ToLower(string(c.Backend)))
	default:
		c.Backend = CredentialBackendFile
	}
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
