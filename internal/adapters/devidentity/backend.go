package devidentity

// Package devidentity provides a config-driven, in-process implementation of
// the Identity port for local development and tests. It issues opaque tokens,
// keeps seeded users in memory, and fails the same ways the real backend does
// (bad password, unassigned role, unknown email), so consumers exercise their
// error paths without a network.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edustack/sessionkit/internal/domain/session"
	apperrors "github.com/edustack/sessionkit/internal/errors"
	"github.com/edustack/sessionkit/internal/ports"
)

// SeedUser declares a user the dev backend starts with.
type SeedUser struct {
	ID         string // optional; generated when empty
	Email      string
	Password   string
	Roles      []session.Role
	ActiveRole session.Role // optional; defaults to the first role
}

// Config controls the dev backend.
type Config struct {
	Users []SeedUser
	// Credentials is where issued tokens are persisted; defaults to an
	// in-memory store when nil.
	Credentials ports.CredentialStore
	// SessionTTL bounds issued access tokens; default 8h.
	SessionTTL time.Duration
	Logger     *slog.Logger
}

type userRecord struct {
	user     session.User
	password string
}

type tokenRecord struct {
	email     string
	expiresAt time.Time
}

// Backend implements ports.Identity in memory.
type Backend struct {
	mu      sync.Mutex
	users   map[string]*userRecord // keyed by email
	tokens  map[string]tokenRecord // access token -> session
	refresh map[string]string      // refresh token -> email
	creds   ports.CredentialStore
	ttl     time.Duration
	logger  *slog.Logger
	nowFunc func() time.Time
}

var _ ports.Identity = (*Backend)(nil)

// New constructs a dev backend from Config.
func New(cfg Config) (*Backend, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("devidentity: at least one seed user is required")
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	creds := cfg.Credentials
	if creds == nil {
		creds = newMemoryCredentialStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Backend{
		users:   make(map[string]*userRecord, len(cfg.Users)),
		tokens:  make(map[string]tokenRecord),
		refresh: make(map[string]string),
		creds:   creds,
		ttl:     ttl,
		logger:  logger,
		nowFunc: time.Now,
	}

	for _, seed := range cfg.Users {
		if seed.Email == "" || seed.Password == "" {
			return nil, errors.New("devidentity: seed users need email and password")
		}
		id := seed.ID
		if id == "" {
			id = uuid.NewString()
		}
		user := session.Reconcile(session.User{
			ID:         id,
			Email:      seed.Email,
			Roles:      seed.Roles,
			ActiveRole: seed.ActiveRole,
		})
		b.users[seed.Email] = &userRecord{user: user, password: seed.Password}
	}

	return b, nil
}

func (b *Backend) Login(ctx context.Context, email, password string) (session.User, error) {
	b.mu.Lock()
	rec, ok := b.users[email]
	if !ok || rec.password != password {
		b.mu.Unlock()
		return session.User{}, apperrors.InvalidCredentials("invalid email or password")
	}

	access := uuid.NewString()
	refreshTok := uuid.NewString()
	expires := b.nowFunc().Add(b.ttl)
	b.tokens[access] = tokenRecord{email: email, expiresAt: expires}
	b.refresh[refreshTok] = email
	user := rec.user.Clone()
	b.mu.Unlock()

	err := b.creds.Save(ctx, ports.Credentials{
		AccessToken:  access,
		RefreshToken: refreshTok,
		ExpiresAt:    expires,
	})
	if err != nil {
		return session.User{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist credentials")
	}
	return user, nil
}

func (b *Backend) Logout(ctx context.Context) error {
	stored, err := b.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			return nil
		}
		return err
	}
	b.mu.Lock()
	delete(b.tokens, stored.AccessToken)
	delete(b.refresh, stored.RefreshToken)
	b.mu.Unlock()
	return nil
}

func (b *Backend) SwitchRole(ctx context.Context, role session.Role) (session.User, error) {
	rec, err := b.currentRecord(ctx)
	if err != nil {
		return session.User{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !rec.user.HasRole(role) {
		return session.User{}, apperrors.Forbiddenf("role %q is not assigned to this account", role)
	}
	rec.user.ActiveRole = role
	return rec.user.Clone(), nil
}

func (b *Backend) RefreshToken(ctx context.Context) (ports.Credentials, error) {
	stored, err := b.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			return ports.Credentials{}, apperrors.Unauthenticated("no session to refresh")
		}
		return ports.Credentials{}, err
	}

	b.mu.Lock()
	email, ok := b.refresh[stored.RefreshToken]
	if !ok {
		b.mu.Unlock()
		return ports.Credentials{}, apperrors.Unauthenticated("refresh token revoked")
	}
	delete(b.refresh, stored.RefreshToken)
	delete(b.tokens, stored.AccessToken)

	access := uuid.NewString()
	refreshTok := uuid.NewString()
	expires := b.nowFunc().Add(b.ttl)
	b.tokens[access] = tokenRecord{email: email, expiresAt: expires}
	b.refresh[refreshTok] = email
	b.mu.Unlock()

	fresh := ports.Credentials{
		AccessToken:  access,
		RefreshToken: refreshTok,
		ExpiresAt:    expires,
	}
	if err := b.creds.Save(ctx, fresh); err != nil {
		return ports.Credentials{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist credentials")
	}
	return fresh, nil
}

func (b *Backend) ValidateToken(ctx context.Context) (bool, error) {
	_, err := b.currentRecord(ctx)
	if err != nil {
		if apperrors.IsUnauthenticated(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	if in.Current == "" || in.New == "" {
		return apperrors.Validation("current and new password are required")
	}
	rec, err := b.currentRecord(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec.password != in.Current {
		return apperrors.InvalidCredentials("current password is incorrect")
	}
	rec.password = in.New
	return nil
}

func (b *Backend) ResetPassword(_ context.Context, in ports.ResetPasswordInput) error {
	if in.Email == "" {
		return apperrors.Validation("email is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[in.Email]; !ok {
		return apperrors.Validation("unknown email")
	}
	b.logger.Info("password reset requested", "email", in.Email)
	return nil
}

func (b *Backend) CurrentUser(ctx context.Context) (session.User, error) {
	rec, err := b.currentRecord(ctx)
	if err != nil {
		return session.User{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return rec.user.Clone(), nil
}

func (b *Backend) IsAuthenticated(ctx context.Context) (bool, error) {
	stored, err := b.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			return false, nil
		}
		return false, err
	}
	if stored.Empty() {
		return false, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec, ok := b.tokens[stored.AccessToken]; ok && b.nowFunc().Before(rec.expiresAt) {
		return true, nil
	}
	_, ok := b.refresh[stored.RefreshToken]
	return ok, nil
}

func (b *Backend) Permissions(ctx context.Context) ([]string, error) {
	rec, err := b.currentRecord(ctx)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var perms []string
	seen := make(map[string]struct{})
	for _, role := range rec.user.Roles {
		for _, p := range rolePermissions[role] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	return perms, nil
}

func (b *Backend) CheckSession(ctx context.Context) (bool, error) {
	return b.ValidateToken(ctx)
}

func (b *Backend) ClearAuthData(ctx context.Context) error {
	return b.creds.Clear(ctx)
}

// currentRecord resolves the stored access token to its user record.
func (b *Backend) currentRecord(ctx context.Context) (*userRecord, error) {
	stored, err := b.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoCredentials) {
			return nil, apperrors.Unauthenticated("not logged in")
		}
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tok, ok := b.tokens[stored.AccessToken]
	if !ok || b.nowFunc().After(tok.expiresAt) {
		return nil, apperrors.Unauthenticated("token expired or revoked")
	}
	rec, ok := b.users[tok.email]
	if !ok {
		return nil, apperrors.Unauthenticated("user no longer exists")
	}
	return rec, nil
}

// rolePermissions is the dev backend's static permission grants per role.
var rolePermissions = map[session.Role][]string{
	session.RoleLearner:    {"courses.view", "progress.view"},
	session.RoleTrainer:    {"courses.view", "courses.teach", "progress.review"},
	session.RoleOrgAdmin:   {"courses.view", "org.manage", "members.manage"},
	session.RoleSuperAdmin: {"*"},
}
