package devidentity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/sessionkit/internal/domain/session"
	apperrors "github.com/edustack/sessionkit/internal/errors"
	"github.com/edustack/sessionkit/internal/ports"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{
		Users: []SeedUser{{
			Email:    "dev@example.com",
			Password: "dev",
			Roles:    []session.Role{session.RoleLearner, session.RoleTrainer},
		}},
	})
	require.NoError(t, err)
	return b
}

func TestNew_RequiresSeedUsers(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{Users: []SeedUser{{Email: "x@example.com"}}})
	require.Error(t, err)
}

func TestBackend_Login(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	user, err := b.Login(ctx, "dev@example.com", "dev")

	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, session.RoleLearner, user.ActiveRole)
	assert.NotEmpty(t, user.ID)

	ok, err := b.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBackend_Login_WrongPassword(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Login(context.Background(), "dev@example.com", "nope")

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestBackend_Login_UnknownEmail(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Login(context.Background(), "ghost@example.com", "dev")

	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestBackend_Logout_RevokesTokens(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	require.NoError(t, b.Logout(ctx))

	// Tokens are revoked server-side even though credentials are still stored.
	valid, err := b.ValidateToken(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestBackend_Logout_WithoutSession(t *testing.T) {
	b := newTestBackend(t)

	assert.NoError(t, b.Logout(context.Background()))
}

func TestBackend_SwitchRole(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	user, err := b.SwitchRole(ctx, session.RoleTrainer)

	require.NoError(t, err)
	assert.Equal(t, session.RoleTrainer, user.ActiveRole)

	// The switch sticks for subsequent reads.
	user, err = b.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.RoleTrainer, user.ActiveRole)
}

func TestBackend_SwitchRole_UnassignedRole(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	_, err = b.SwitchRole(ctx, session.RoleSuperAdmin)

	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Contains(t, err.Error(), "super_admin")
}

func TestBackend_RefreshToken_RotatesPair(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	before, err := b.creds.Load(ctx)
	require.NoError(t, err)

	fresh, err := b.RefreshToken(ctx)

	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, fresh.AccessToken)
	assert.NotEqual(t, before.RefreshToken, fresh.RefreshToken)

	// The old refresh token is single-use: restoring it must fail.
	require.NoError(t, b.creds.Save(ctx, before))
	_, err = b.RefreshToken(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestBackend_RefreshToken_NoSession(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.RefreshToken(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestBackend_ValidateToken_ExpiredToken(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	b.nowFunc = func() time.Time { return time.Now().Add(9 * time.Hour) }

	valid, err := b.ValidateToken(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestBackend_ChangePassword(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	err = b.ChangePassword(ctx, ports.ChangePasswordInput{Current: "wrong", New: "next"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))

	err = b.ChangePassword(ctx, ports.ChangePasswordInput{Current: "dev", New: "next"})
	require.NoError(t, err)

	// The old password no longer works.
	_, err = b.Login(ctx, "dev@example.com", "dev")
	require.Error(t, err)
	_, err = b.Login(ctx, "dev@example.com", "next")
	require.NoError(t, err)
}

func TestBackend_ChangePassword_MissingFields(t *testing.T) {
	b := newTestBackend(t)

	err := b.ChangePassword(context.Background(), ports.ChangePasswordInput{})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBackend_ResetPassword(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	assert.NoError(t, b.ResetPassword(ctx, ports.ResetPasswordInput{Email: "dev@example.com"}))

	err := b.ResetPassword(ctx, ports.ResetPasswordInput{Email: "ghost@example.com"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBackend_Permissions_UnionAcrossRoles(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	perms, err := b.Permissions(ctx)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"courses.view", "progress.view", "courses.teach", "progress.review",
	}, perms)
}

func TestBackend_ClearAuthData(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	_, err := b.Login(ctx, "dev@example.com", "dev")
	require.NoError(t, err)

	require.NoError(t, b.ClearAuthData(ctx))

	ok, err := b.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
