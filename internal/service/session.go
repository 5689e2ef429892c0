package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/edustack/sessionkit/internal/domain/session"
	apperrors "github.com/edustack/sessionkit/internal/errors"
	"github.com/edustack/sessionkit/internal/ports"
)

// ManagerOptions groups dependencies for Manager.
type ManagerOptions struct {
	Identity ports.Identity
	Store    *session.Store // optional; a fresh store is created when nil
	Logger   *slog.Logger   // optional; defaults to slog.Default()
}

// Manager orchestrates the session lifecycle against the identity backend.
// Every operation is a scoped sequence: clear the stale error, mark loading,
// make one remote call, dispatch exactly one terminal event, and release
// loading on the way out (via defer, so no failure path can skip it).
//
// Error policy is deliberately asymmetric, mirroring how consumers react:
//
//   - Login and SwitchRole are user-initiated and recoverable. They record
//     failures in session state and return a nil user; callers read
//     State().Err for display and must check the returned user.
//   - RefreshToken, ValidateToken, ChangePassword, ResetPassword,
//     ClearSession, and CheckSessionValidity are session-integrity
//     operations. They record the failure and also return the error, because
//     their callers (route guards) must react, not merely display text.
//   - Logout never surfaces a failure: local session state must not survive a
//     known logout intent, even when the backend call fails.
type Manager struct {
	identity ports.Identity
	store    *session.Store
	logger   *slog.Logger

	initGroup singleflight.Group
	initDone  atomic.Bool
}

// NewManager constructs a Manager. It panics if no identity backend is wired,
// since every operation would fail anyway and the misconfiguration should
// surface at startup, not on first use.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Identity == nil {
		panic("sessionkit: ManagerOptions.Identity is required")
	}
	store := opts.Store
	if store == nil {
		store = session.NewStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		identity: opts.Identity,
		store:    store,
		logger:   logger,
	}
}

// Store exposes the underlying session store for consumers that subscribe or
// evaluate guard decisions. The store is read-only for them by contract: all
// mutation goes through Manager operations.
func (m *Manager) Store() *session.Store { return m.store }

// State returns a snapshot of the current session state.
func (m *Manager) State() session.State { return m.store.State() }

// Subscribe registers a listener for state changes; the returned function
// unsubscribes it.
func (m *Manager) Subscribe(fn func(session.State)) func() {
	return m.store.Subscribe(fn)
}

// begin starts an operation scope: stale error cleared, loading marked, and
// the session generation captured so a stale result can be recognized later.
func (m *Manager) begin() uint64 {
	m.store.Dispatch(session.ErrorCleared{})
	m.store.Dispatch(session.BeginLoading{})
	return m.store.Generation()
}

// end releases the loading mark. Deferred by every operation.
func (m *Manager) end() {
	m.store.Dispatch(session.EndLoading{})
}

// Initialize restores a persisted session, if any, into the store. It runs
// its probe once per Manager lifetime no matter how many consumers call it:
// concurrent callers are coalesced and later calls return immediately, so a
// UI remount never re-triggers network calls or flickers loading state.
// A failed restore does not latch; the next caller retries.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.initDone.Load() {
		return nil
	}
	_, err, _ := m.initGroup.Do("initialize", func() (any, error) {
		if m.initDone.Load() {
			return nil, nil
		}
		if err := m.restore(ctx); err != nil {
			return nil, err
		}
		m.initDone.Store(true)
		return nil, nil
	})
	return err
}

func (m *Manager) restore(ctx context.Context) error {
	m.store.Dispatch(session.BeginLoading{})
	defer m.end()

	ok, err := m.identity.IsAuthenticated(ctx)
	if err != nil {
		m.store.Dispatch(session.SessionRestored{User: nil})
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "probe persisted session")
	}
	if !ok {
		m.store.Dispatch(session.SessionRestored{User: nil})
		return nil
	}

	user, err := m.identity.CurrentUser(ctx)
	if err != nil {
		m.logger.Warn("session restore: fetching current user failed", "error", err)
		m.store.Dispatch(session.SessionRestored{User: nil})
		return fmt.Errorf("restore session: %w", err)
	}

	m.store.Dispatch(session.SessionRestored{User: &user})
	return nil
}

// Login authenticates with the identity backend. On success the user enters
// the session and is returned; on failure Login returns nil and records the
// reason in State().Err — it does not return an error. See the Manager doc
// for the rationale.
func (m *Manager) Login(ctx context.Context, email, password string) *session.User {
	gen := m.begin()
	defer m.end()

	user, err := m.identity.Login(ctx, email, password)
	if err != nil {
		m.logger.Warn("login failed", "email", email, "error", err)
		m.store.DispatchIf(gen, session.LoginFailed{Reason: apperrors.Reason(err)})
		return nil
	}

	if !m.store.DispatchIf(gen, session.LoginSucceeded{User: user}) {
		// The session moved on (e.g. a logout raced us); drop the result.
		m.logger.Debug("login result discarded as stale", "email", email)
		return nil
	}
	return m.store.State().User
}

// Logout terminates the session. The backend call is best-effort: local state
// is reset unconditionally, because a client stuck "authenticated" after a
// known logout intent is worse than a backend session that briefly outlives
// the client's belief about it.
func (m *Manager) Logout(ctx context.Context) {
	m.store.Dispatch(session.ErrorCleared{})
	m.store.Dispatch(session.BeginLoading{})
	defer m.end()

	if err := m.identity.Logout(ctx); err != nil {
		m.logger.Warn("backend logout failed; clearing local session anyway", "error", err)
	}
	if err := m.identity.ClearAuthData(ctx); err != nil {
		m.logger.Warn("clearing persisted credentials failed", "error", err)
	}

	// Unconditional: bumps the generation so any in-flight operation's
	// terminal event is discarded and cannot resurrect the session.
	m.store.Dispatch(session.LoggedOut{})
}

// SwitchRole changes the active role. On success the updated user enters the
// session and is returned; on failure SwitchRole returns nil and records the
// reason in State().Err, leaving the previously active role untouched.
func (m *Manager) SwitchRole(ctx context.Context, role session.Role) *session.User {
	gen := m.begin()
	defer m.end()

	user, err := m.identity.SwitchRole(ctx, role)
	if err != nil {
		m.logger.Warn("role switch failed", "role", role, "error", err)
		m.store.DispatchIf(gen, session.RoleSwitchFailed{Reason: apperrors.Reason(err)})
		return nil
	}

	if !m.store.DispatchIf(gen, session.RoleSwitchSucceeded{User: user}) {
		m.logger.Debug("role switch result discarded as stale", "role", role)
		return nil
	}
	return m.store.State().User
}

// RefreshToken exchanges the refresh token for fresh credentials. A session
// whose refresh fails is treated as terminated: the store is reset, persisted
// credentials are cleared, and the failure is returned so callers can react
// (e.g. redirect to login).
func (m *Manager) RefreshToken(ctx context.Context) (ports.Credentials, error) {
	m.store.Dispatch(session.ErrorCleared{})
	m.store.Dispatch(session.BeginLoading{})
	defer m.end()

	creds, err := m.identity.RefreshToken(ctx)
	if err != nil {
		m.logger.Warn("token refresh failed; ending session", "error", err)
		if clearErr := m.identity.ClearAuthData(ctx); clearErr != nil {
			m.logger.Warn("clearing persisted credentials failed", "error", clearErr)
		}
		m.store.Dispatch(session.LoggedOut{})
		return ports.Credentials{}, fmt.Errorf("refresh token: %w", err)
	}
	return creds, nil
}

// ValidateToken reports whether the current token is valid. Failures are
// recorded in session state and returned.
func (m *Manager) ValidateToken(ctx context.Context) (bool, error) {
	gen := m.begin()
	defer m.end()

	valid, err := m.identity.ValidateToken(ctx)
	if err != nil {
		m.store.DispatchIf(gen, session.ErrorSet{Reason: apperrors.Reason(err)})
		return false, fmt.Errorf("validate token: %w", err)
	}
	return valid, nil
}

// ChangePassword changes the current user's password. Failures are recorded
// in session state and returned.
func (m *Manager) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	gen := m.begin()
	defer m.end()

	if err := m.identity.ChangePassword(ctx, in); err != nil {
		m.store.DispatchIf(gen, session.ErrorSet{Reason: apperrors.Reason(err)})
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// ResetPassword initiates a password reset. Failures are recorded in session
// state and returned.
func (m *Manager) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	gen := m.begin()
	defer m.end()

	if err := m.identity.ResetPassword(ctx, in); err != nil {
		m.store.DispatchIf(gen, session.ErrorSet{Reason: apperrors.Reason(err)})
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// ClearSession wipes persisted credentials and resets the session without a
// backend call.
func (m *Manager) ClearSession(ctx context.Context) error {
	gen := m.begin()
	defer m.end()

	if err := m.identity.ClearAuthData(ctx); err != nil {
		m.store.DispatchIf(gen, session.ErrorSet{Reason: apperrors.Reason(err)})
		return fmt.Errorf("clear session: %w", err)
	}
	m.store.Dispatch(session.LoggedOut{})
	return nil
}

// CheckSessionValidity asks the backend whether the session is still valid.
// Failures are recorded in session state and returned.
func (m *Manager) CheckSessionValidity(ctx context.Context) (bool, error) {
	gen := m.begin()
	defer m.end()

	valid, err := m.identity.CheckSession(ctx)
	if err != nil {
		m.store.DispatchIf(gen, session.ErrorSet{Reason: apperrors.Reason(err)})
		return false, fmt.Errorf("check session validity: %w", err)
	}
	return valid, nil
}

// IsAuthenticated reports whether a user is attached to the session.
func (m *Manager) IsAuthenticated() bool {
	return m.store.State().Authenticated()
}

// HasRole reports whether the session user holds the given role. It reads
// local state only.
func (m *Manager) HasRole(role session.Role) bool {
	s := m.store.State()
	return s.User != nil && s.User.HasRole(role)
}

// Permissions returns the permission strings the backend grants the current
// user. It is a read passthrough and does not touch session state.
func (m *Manager) Permissions(ctx context.Context) ([]string, error) {
	perms, err := m.identity.Permissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch permissions: %w", err)
	}
	return perms, nil
}
