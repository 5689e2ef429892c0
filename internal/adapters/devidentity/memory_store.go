package devidentity

import (
	"context"
	"sync"

	"github.com/edustack/sessionkit/internal/ports"
)

// memoryCredentialStore is the default in-process credential store for the
// dev backend. It does not survive restarts.
type memoryCredentialStore struct {
	mu    sync.Mutex
	creds ports.Credentials
	set   bool
}

func newMemoryCredentialStore() *memoryCredentialStore {
	return &memoryCredentialStore{}
}

func (m *memoryCredentialStore) Save(_ context.Context, creds ports.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.set = true
	return nil
}

func (m *memoryCredentialStore) Load(_ context.Context) (ports.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return ports.Credentials{}, ports.ErrNoCredentials
	}
	return m.creds, nil
}

func (m *memoryCredentialStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = ports.Credentials{}
	m.set = false
	return nil
}
