package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"

	"github.com/edustack/sessionkit/config"
	"github.com/edustack/sessionkit/internal/adapters/credfile"
	"github.com/edustack/sessionkit/internal/adapters/devidentity"
	"github.com/edustack/sessionkit/internal/adapters/identityhttp"
	redisadapter "github.com/edustack/sessionkit/internal/adapters/redis"
	"github.com/edustack/sessionkit/internal/domain/session"
	"github.com/edustack/sessionkit/internal/ports"
	"github.com/edustack/sessionkit/internal/service"
)

// SessionConfig contains configuration for building the session manager.
type SessionConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// BuildManager wires the credential store and identity backend selected by
// configuration into a session Manager.
func BuildManager(cfg SessionConfig) (*service.Manager, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	creds, err := buildCredentialStore(cfg.Config, logger)
	if err != nil {
		return nil, err
	}

	identity, err := buildIdentity(cfg.Config, creds, logger)
	if err != nil {
		return nil, err
	}

	return service.NewManager(service.ManagerOptions{
		Identity: identity,
		Logger:   logger,
	}), nil
}

func buildCredentialStore(cfg *config.AppConfig, logger *slog.Logger) (ports.CredentialStore, error) {
	switch cfg.Credentials.Backend {
	case config.CredentialBackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisadapter.NewCredentialStore(client, cfg.Credentials.RedisKey), nil

	case config.CredentialBackendFile:
		path := cfg.Credentials.FilePath
		if path == "" {
			defaultPath, err := credfile.DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("resolve credential file path: %w", err)
			}
			path = defaultPath
		}
		logger.Debug("using file credential store", "path", path)
		return credfile.New(path)

	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.Credentials.Backend)
	}
}

func buildIdentity(cfg *config.AppConfig, creds ports.CredentialStore, logger *slog.Logger) (ports.Identity, error) {
	switch cfg.Identity.Mode {
	case config.IdentityModeDev:
		roles := make([]session.Role, 0, len(cfg.Identity.Dev.Roles))
		for _, r := range cfg.Identity.Dev.Roles {
			roles = append(roles, session.Role(r))
		}
		return devidentity.New(devidentity.Config{
			Users: []devidentity.SeedUser{{
				Email:    cfg.Identity.Dev.Email,
				Password: cfg.Identity.Dev.Password,
				Roles:    roles,
			}},
			Credentials: creds,
			Logger:      logger,
		})

	case config.IdentityModeHTTP:
		httpCfg := cfg.Identity.HTTP
		if httpCfg.BaseURL == "" {
			return nil, fmt.Errorf("IdentityModeHTTP selected but IDENTITY_BASE_URL is not set")
		}
		return identityhttp.NewClient(identityhttp.Config{
			BaseURL:      httpCfg.BaseURL,
			TokenURL:     httpCfg.TokenURL,
			ClientID:     httpCfg.ClientID,
			ClientSecret: httpCfg.ClientSecret,
			Scope:        httpCfg.Scope,
			DiscoveryURL: httpCfg.DiscoveryURL,
			Credentials:  creds,
			HTTPClient:   &http.Client{Timeout: httpCfg.Timeout},
			Logger:       logger,
		})

	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Identity.Mode)
	}
}
