package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/sessionkit/internal/domain/session"
	apperrors "github.com/edustack/sessionkit/internal/errors"
	mocks "github.com/edustack/sessionkit/internal/mocks/identity"
	"github.com/edustack/sessionkit/internal/ports"
)

func newTestManager(identity *mocks.MockIdentity) *Manager {
	return NewManager(ManagerOptions{Identity: identity})
}

func TestNewManager_RequiresIdentity(t *testing.T) {
	assert.Panics(t, func() {
		NewManager(ManagerOptions{})
	})
}

func TestManager_Login_Success(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	user := mgr.Login(context.Background(), "mock.user@example.com", "pw")

	require.NotNil(t, user)
	assert.Equal(t, "mock.user@example.com", user.Email)

	state := mgr.State()
	assert.True(t, state.Authenticated())
	assert.False(t, state.Loading())
	assert.Empty(t, state.Err)
}

func TestManager_Login_FailureThenSuccess(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.LoginFunc = func(_ context.Context, _, _ string) (session.User, error) {
		return session.User{}, apperrors.InvalidCredentials("invalid credentials")
	}
	mgr := newTestManager(identity)

	user := mgr.Login(context.Background(), "a@example.com", "wrong")

	assert.Nil(t, user)
	state := mgr.State()
	assert.False(t, state.Authenticated())
	assert.False(t, state.Loading())
	assert.Equal(t, "invalid credentials", state.Err)

	// The next attempt clears the stale error before the call resolves.
	identity.LoginFunc = nil
	user = mgr.Login(context.Background(), "a@example.com", "right")

	require.NotNil(t, user)
	state = mgr.State()
	assert.True(t, state.Authenticated())
	assert.Empty(t, state.Err)
}

func TestManager_Login_ReleasesLoadingOnFailure(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.LoginFunc = func(_ context.Context, _, _ string) (session.User, error) {
		return session.User{}, errors.New("boom")
	}
	mgr := newTestManager(identity)

	mgr.Login(context.Background(), "a@example.com", "pw")

	assert.False(t, mgr.State().Loading())
}

func TestManager_Logout_AlwaysResetsLocalState(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.LogoutFunc = func(context.Context) error {
		return errors.New("backend unreachable")
	}
	mgr := newTestManager(identity)

	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	mgr.Logout(context.Background())

	state := mgr.State()
	assert.False(t, state.Authenticated())
	assert.Empty(t, state.Err)
	assert.False(t, state.Loading())
	assert.Equal(t, 1, identity.Calls("ClearAuthData"))
}

func TestManager_Logout_WinsOverInFlightLogin(t *testing.T) {
	identity := mocks.NewMockIdentity()

	loginStarted := make(chan struct{})
	releaseLogin := make(chan struct{})
	identity.LoginFunc = func(_ context.Context, email, _ string) (session.User, error) {
		close(loginStarted)
		<-releaseLogin
		u := identity.DefaultUser.Clone()
		u.Email = email
		return u, nil
	}
	mgr := newTestManager(identity)

	var wg sync.WaitGroup
	var loginResult *session.User
	wg.Add(1)
	go func() {
		defer wg.Done()
		loginResult = mgr.Login(context.Background(), "a@example.com", "pw")
	}()

	<-loginStarted
	mgr.Logout(context.Background())
	close(releaseLogin)
	wg.Wait()

	// The late login result must not resurrect the session.
	assert.Nil(t, loginResult)
	assert.False(t, mgr.State().Authenticated())
}

func TestManager_Logout_WinsOverInFlightRoleSwitch(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)
	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	switchStarted := make(chan struct{})
	releaseSwitch := make(chan struct{})
	identity.SwitchRoleFunc = func(_ context.Context, role session.Role) (session.User, error) {
		close(switchStarted)
		<-releaseSwitch
		u := identity.DefaultUser.Clone()
		u.ActiveRole = role
		return u, nil
	}

	var wg sync.WaitGroup
	var switchResult *session.User
	wg.Add(1)
	go func() {
		defer wg.Done()
		switchResult = mgr.SwitchRole(context.Background(), session.RoleTrainer)
	}()

	<-switchStarted
	mgr.Logout(context.Background())
	close(releaseSwitch)
	wg.Wait()

	assert.Nil(t, switchResult)
	assert.False(t, mgr.State().Authenticated())
}

func TestManager_SwitchRole_Success(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)
	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	user := mgr.SwitchRole(context.Background(), session.RoleTrainer)

	require.NotNil(t, user)
	assert.Equal(t, session.RoleTrainer, user.ActiveRole)
	assert.Empty(t, mgr.State().Err)
}

func TestManager_SwitchRole_FailureKeepsActiveRole(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)
	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	identity.SwitchRoleFunc = func(_ context.Context, _ session.Role) (session.User, error) {
		return session.User{}, apperrors.Forbidden("role not assigned")
	}

	user := mgr.SwitchRole(context.Background(), session.RoleSuperAdmin)

	assert.Nil(t, user)
	state := mgr.State()
	require.NotNil(t, state.User)
	assert.Equal(t, session.RoleLearner, state.User.ActiveRole)
	assert.Equal(t, "role not assigned", state.Err)
	assert.False(t, state.Loading())
}

func TestManager_RefreshToken_Success(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	creds, err := mgr.RefreshToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "mock-access", creds.AccessToken)
}

func TestManager_RefreshToken_FailureEndsSession(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)
	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	identity.RefreshTokenFunc = func(context.Context) (ports.Credentials, error) {
		return ports.Credentials{}, apperrors.Unauthenticated("refresh token revoked")
	}

	_, err := mgr.RefreshToken(context.Background())

	require.Error(t, err)
	assert.False(t, mgr.State().Authenticated())
	assert.Equal(t, 1, identity.Calls("ClearAuthData"))
}

func TestManager_ValidateToken_ErrorRecordedAndReturned(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.ValidateTokenFunc = func(context.Context) (bool, error) {
		return false, apperrors.Wrap(errors.New("dial tcp: connection refused"), apperrors.ErrCodeNetwork, "identity backend unreachable")
	}
	mgr := newTestManager(identity)

	valid, err := mgr.ValidateToken(context.Background())

	require.Error(t, err)
	assert.False(t, valid)
	assert.Equal(t, "identity backend unreachable", mgr.State().Err)
	assert.False(t, mgr.State().Loading())
}

func TestManager_ChangePassword_ErrorRecordedAndReturned(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.ChangePasswordFunc = func(_ context.Context, _ ports.ChangePasswordInput) error {
		return apperrors.InvalidCredentials("current password is incorrect")
	}
	mgr := newTestManager(identity)

	err := mgr.ChangePassword(context.Background(), ports.ChangePasswordInput{Current: "x", New: "y"})

	require.Error(t, err)
	assert.Equal(t, "current password is incorrect", mgr.State().Err)
}

func TestManager_ResetPassword_Success(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	err := mgr.ResetPassword(context.Background(), ports.ResetPasswordInput{Email: "a@example.com"})

	require.NoError(t, err)
	assert.Empty(t, mgr.State().Err)
}

func TestManager_ClearSession(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)
	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	err := mgr.ClearSession(context.Background())

	require.NoError(t, err)
	assert.False(t, mgr.State().Authenticated())
	assert.Equal(t, 1, identity.Calls("ClearAuthData"))
}

func TestManager_CheckSessionValidity(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	valid, err := mgr.CheckSessionValidity(context.Background())

	require.NoError(t, err)
	assert.True(t, valid)
}

func TestManager_Initialize_RestoresPersistedSession(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.Authenticated = true
	mgr := newTestManager(identity)

	err := mgr.Initialize(context.Background())

	require.NoError(t, err)
	state := mgr.State()
	require.NotNil(t, state.User)
	assert.Equal(t, identity.DefaultUser.ID, state.User.ID)
	assert.False(t, state.Loading())
}

func TestManager_Initialize_NoPersistedSession(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	err := mgr.Initialize(context.Background())

	require.NoError(t, err)
	assert.False(t, mgr.State().Authenticated())
	assert.Equal(t, 0, identity.Calls("CurrentUser"))
}

func TestManager_Initialize_RunsOnce(t *testing.T) {
	identity := mocks.NewMockIdentity()
	identity.Authenticated = true
	mgr := newTestManager(identity)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.Initialize(context.Background())
		}()
	}
	wg.Wait()
	require.NoError(t, mgr.Initialize(context.Background()))

	assert.Equal(t, 1, identity.Calls("IsAuthenticated"))
	assert.Equal(t, 1, identity.Calls("CurrentUser"))
}

func TestManager_Initialize_FailureDoesNotLatch(t *testing.T) {
	identity := mocks.NewMockIdentity()
	probeErr := errors.New("store unavailable")
	identity.IsAuthenticatedFunc = func(context.Context) (bool, error) {
		return false, probeErr
	}
	mgr := newTestManager(identity)

	require.Error(t, mgr.Initialize(context.Background()))

	// The next caller retries the probe.
	identity.IsAuthenticatedFunc = nil
	require.NoError(t, mgr.Initialize(context.Background()))
	assert.Equal(t, 2, identity.Calls("IsAuthenticated"))
}

func TestManager_HasRole(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	assert.False(t, mgr.HasRole(session.RoleLearner))

	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	assert.True(t, mgr.HasRole(session.RoleLearner))
	assert.True(t, mgr.HasRole(session.RoleTrainer))
	assert.False(t, mgr.HasRole(session.RoleSuperAdmin))
}

func TestManager_Permissions_DoesNotTouchState(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)
	before := mgr.State()

	perms, err := mgr.Permissions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"courses.view"}, perms)
	assert.Equal(t, before, mgr.State())
}

func TestManager_Subscribe_SeesLifecycle(t *testing.T) {
	identity := mocks.NewMockIdentity()
	mgr := newTestManager(identity)

	var mu sync.Mutex
	var sawLoading, sawAuthed bool
	unsubscribe := mgr.Subscribe(func(s session.State) {
		mu.Lock()
		defer mu.Unlock()
		if s.Loading() {
			sawLoading = true
		}
		if s.Authenticated() {
			sawAuthed = true
		}
	})
	defer unsubscribe()

	require.NotNil(t, mgr.Login(context.Background(), "a@example.com", "pw"))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, sawLoading)
	assert.True(t, sawAuthed)
}
