package identity

// Package identity contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	"github.com/edustack/sessionkit/internal/domain/session"
	"github.com/edustack/sessionkit/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Identity        = (*MockIdentity)(nil)
	_ ports.CredentialStore = (*MemoryCredentialStore)(nil)
)

// MockIdentity simulates an identity backend for tests. Each method delegates
// to the corresponding Func field when set, otherwise returns a deterministic
// default built around DefaultUser.
type MockIdentity struct {
	LoginFunc           func(ctx context.Context, email, password string) (session.User, error)
	LogoutFunc          func(ctx context.Context) error
	SwitchRoleFunc      func(ctx context.Context, role session.Role) (session.User, error)
	RefreshTokenFunc    func(ctx context.Context) (ports.Credentials, error)
	ValidateTokenFunc   func(ctx context.Context) (bool, error)
	ChangePasswordFunc  func(ctx context.Context, in ports.ChangePasswordInput) error
	ResetPasswordFunc   func(ctx context.Context, in ports.ResetPasswordInput) error
	CurrentUserFunc     func(ctx context.Context) (session.User, error)
	IsAuthenticatedFunc func(ctx context.Context) (bool, error)
	PermissionsFunc     func(ctx context.Context) ([]string, error)
	CheckSessionFunc    func(ctx context.Context) (bool, error)
	ClearAuthDataFunc   func(ctx context.Context) error

	// DefaultUser is returned by Login, SwitchRole and CurrentUser when no
	// Func override is set.
	DefaultUser session.User

	// Authenticated controls the default IsAuthenticated answer.
	Authenticated bool

	mu    sync.Mutex
	calls map[string]int
}

// NewMockIdentity creates a MockIdentity with a sensible default user.
func NewMockIdentity() *MockIdentity {
	return &MockIdentity{
		DefaultUser: session.User{
			ID:         "mock-user-1",
			Email:      "mock.user@example.com",
			Roles:      []session.Role{session.RoleLearner, session.RoleTrainer},
			ActiveRole: session.RoleLearner,
		},
	}
}

// Calls reports how many times the named method has been invoked.
func (m *MockIdentity) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockIdentity) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockIdentity) Login(ctx context.Context, email, password string) (session.User, error) {
	m.record("Login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	u := m.DefaultUser.Clone()
	u.Email = email
	return u, nil
}

func (m *MockIdentity) Logout(ctx context.Context) error {
	m.record("Logout")
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockIdentity) SwitchRole(ctx context.Context, role session.Role) (session.User, error) {
	m.record("SwitchRole")
	if m.SwitchRoleFunc != nil {
		return m.SwitchRoleFunc(ctx, role)
	}
	u := m.DefaultUser.Clone()
	u.ActiveRole = role
	return u, nil
}

func (m *MockIdentity) RefreshToken(ctx context.Context) (ports.Credentials, error) {
	m.record("RefreshToken")
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx)
	}
	return ports.Credentials{AccessToken: "mock-access", RefreshToken: "mock-refresh"}, nil
}

func (m *MockIdentity) ValidateToken(ctx context.Context) (bool, error) {
	m.record("ValidateToken")
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx)
	}
	return m.Authenticated, nil
}

func (m *MockIdentity) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	m.record("ChangePassword")
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, in)
	}
	return nil
}

func (m *MockIdentity) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	m.record("ResetPassword")
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, in)
	}
	return nil
}

func (m *MockIdentity) CurrentUser(ctx context.Context) (session.User, error) {
	m.record("CurrentUser")
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return m.DefaultUser.Clone(), nil
}

func (m *MockIdentity) IsAuthenticated(ctx context.Context) (bool, error) {
	m.record("IsAuthenticated")
	if m.IsAuthenticatedFunc != nil {
		return m.IsAuthenticatedFunc(ctx)
	}
	return m.Authenticated, nil
}

func (m *MockIdentity) Permissions(ctx context.Context) ([]string, error) {
	m.record("Permissions")
	if m.PermissionsFunc != nil {
		return m.PermissionsFunc(ctx)
	}
	return []string{"courses.view"}, nil
}

func (m *MockIdentity) CheckSession(ctx context.Context) (bool, error) {
	m.record("CheckSession")
	if m.CheckSessionFunc != nil {
		return m.CheckSessionFunc(ctx)
	}
	return true, nil
}

func (m *MockIdentity) ClearAuthData(ctx context.Context) error {
	m.record("ClearAuthData")
	if m.ClearAuthDataFunc != nil {
		return m.ClearAuthDataFunc(ctx)
	}
	return nil
}

// MemoryCredentialStore is an in-memory credential store for unit tests.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds ports.Credentials
	set   bool
}

// NewMemoryCredentialStore creates a new in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (m *MemoryCredentialStore) Save(_ context.Context, creds ports.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.set = true
	return nil
}

func (m *MemoryCredentialStore) Load(_ context.Context) (ports.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return ports.Credentials{}, ports.ErrNoCredentials
	}
	return m.creds, nil
}

func (m *MemoryCredentialStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = ports.Credentials{}
	m.set = false
	return nil
}
