package redis

// Package redis provides a Redis-backed persisted-credential store, for
// agents and multi-process clients that share one principal's session.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edustack/sessionkit/internal/ports"
)

// CredentialStore persists one principal's credentials under a fixed key.
// TTL semantics follow the token material: credentials without a refresh
// token expire with the access token; credentials with one persist until
// cleared, since they can always be refreshed.
type CredentialStore struct {
	client redis.UniversalClient
	key    string
}

// NewCredentialStore creates a Redis-backed credential store. The key should
// be unique per principal, e.g. "sessionkit:credentials:default".
func NewCredentialStore(client redis.UniversalClient, key string) *CredentialStore {
	if key == "" {
		key = "sessionkit:credentials:default"
	}
	return &CredentialStore{client: client, key: key}
}

func (s *CredentialStore) Save(ctx context.Context, creds ports.Credentials) error {
	if creds.Empty() {
		return errors.New("credentials cannot be empty")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	var ttl time.Duration // 0 = no expiry
	if creds.RefreshToken == "" && !creds.ExpiresAt.IsZero() {
		ttl = time.Until(creds.ExpiresAt)
		if ttl <= 0 {
			return errors.New("credentials are already expired")
		}
	}

	return s.client.Set(ctx, s.key, data, ttl).Err()
}

func (s *CredentialStore) Load(ctx context.Context) (ports.Credentials, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.Credentials{}, ports.ErrNoCredentials
		}
		return ports.Credentials{}, fmt.Errorf("redis get: %w", err)
	}

	var creds ports.Credentials
	if unmarshalErr := json.Unmarshal([]byte(data), &creds); unmarshalErr != nil {
		return ports.Credentials{}, fmt.Errorf("unmarshal credentials: %w", unmarshalErr)
	}

	// Redis TTL covers refresh-less credentials, but a key written by an
	// older process may have outlived its expiry.
	if creds.RefreshToken == "" && creds.Expired(time.Now()) {
		if deleteErr := s.Clear(ctx); deleteErr != nil {
			return ports.Credentials{}, fmt.Errorf("cleanup expired credentials: %w", deleteErr)
		}
		return ports.Credentials{}, ports.ErrNoCredentials
	}

	return creds, nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
