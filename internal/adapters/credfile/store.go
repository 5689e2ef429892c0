package credfile

// Package credfile provides a file-backed persisted-credential store: the
// desktop/CLI analog of a browser's durable origin-scoped storage. The file
// holds token material and is created owner-readable only.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/edustack/sessionkit/internal/ports"
)

// Store persists credentials as a JSON file at a fixed path.
type Store struct {
	path string
}

// New creates a file-backed credential store.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("credfile: path is required")
	}
	return &Store{path: path}, nil
}

// DefaultPath returns the conventional credential file location under the
// user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "sessionkit", "credentials.json"), nil
}

func (s *Store) Save(_ context.Context, creds ports.Credentials) error {
	if creds.Empty() {
		return errors.New("credentials cannot be empty")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}
	return nil
}

func (s *Store) Load(_ context.Context) (ports.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.Credentials{}, ports.ErrNoCredentials
		}
		return ports.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds ports.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ports.Credentials{}, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return creds, nil
}

func (s *Store) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
