package ports

// Package ports defines interfaces (hexagonal ports) for the session core.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	"github.com/edustack/sessionkit/internal/domain/session"
)

// ErrNoCredentials is returned by a CredentialStore when nothing is persisted.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is the persisted token material that lets a session outlive the
// process. IDToken is optional and only present for OIDC-backed adapters.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Empty reports whether no token material is present.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Expired reports whether the access token has passed its expiry. A zero
// ExpiresAt means the backend did not communicate one and the token is
// treated as live.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ChangePasswordInput carries a password-change request.
type ChangePasswordInput struct {
	Current string
	New     string
}

// ResetPasswordInput carries a password-reset request.
type ResetPasswordInput struct {
	Email string
}

// Identity is the remote identity backend the session core consumes. Its
// internals are opaque: every method is a remote procedure that can fail or
// time out, and errors carry a human-readable reason the core displays
// without further interpretation.
//
// Adapters own the persisted-credential store; the orchestrator never touches
// token material directly.
type Identity interface {
	// Login authenticates with email and password and returns the user.
	Login(ctx context.Context, email, password string) (session.User, error)

	// Logout terminates the backend session.
	Logout(ctx context.Context) error

	// SwitchRole changes the active role and returns the updated user.
	SwitchRole(ctx context.Context, role session.Role) (session.User, error)

	// RefreshToken exchanges the stored refresh token for fresh credentials.
	RefreshToken(ctx context.Context) (Credentials, error)

	// ValidateToken reports whether the current token is valid.
	ValidateToken(ctx context.Context) (bool, error)

	// ChangePassword changes the current user's password.
	ChangePassword(ctx context.Context, in ChangePasswordInput) error

	// ResetPassword initiates a password reset for the given email.
	ResetPassword(ctx context.Context, in ResetPasswordInput) error

	// CurrentUser fetches the user attached to the stored credentials.
	CurrentUser(ctx context.Context) (session.User, error)

	// IsAuthenticated reports whether a usable persisted session exists.
	// This is a local credential check, not a backend round-trip.
	IsAuthenticated(ctx context.Context) (bool, error)

	// Permissions returns the permission strings granted to the current user.
	Permissions(ctx context.Context) ([]string, error)

	// CheckSession asks the backend whether the session is still valid.
	CheckSession(ctx context.Context) (bool, error)

	// ClearAuthData wipes persisted credentials without a backend call.
	ClearAuthData(ctx context.Context) error
}

// CredentialStore is a durable key-value surface holding one principal's
// Credentials across restarts. Load returns ErrNoCredentials when nothing is
// stored; Clear is a no-op when nothing is stored.
type CredentialStore interface {
	Save(ctx context.Context, creds Credentials) error
	Load(ctx context.Context) (Credentials, error)
	Clear(ctx context.Context) error
}
