package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/sessionkit/config"
	"github.com/edustack/sessionkit/internal/domain/session"
)

func devConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	t.Setenv("IDENTITY_MODE", "dev")
	t.Setenv("CREDENTIALS_FILE_PATH", t.TempDir()+"/credentials.json")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestBuildManager_RequiresConfig(t *testing.T) {
	_, err := BuildManager(SessionConfig{})
	require.Error(t, err)
}

func TestBuildManager_DevMode(t *testing.T) {
	cfg := devConfig(t)

	mgr, err := BuildManager(SessionConfig{Config: cfg})
	require.NoError(t, err)

	// The seeded dev user can log in end to end.
	user := mgr.Login(context.Background(), "dev@example.com", "dev")
	require.NotNil(t, user)
	assert.Equal(t, session.RoleLearner, user.ActiveRole)
	assert.True(t, mgr.HasRole(session.RoleTrainer))
}

func TestBuildManager_HTTPModeRequiresBaseURL(t *testing.T) {
	t.Setenv("IDENTITY_MODE", "http")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	_, err = BuildManager(SessionConfig{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDENTITY_BASE_URL")
}

func TestInitLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		logger := InitLogger(level)
		require.NotNil(t, logger, "level %s", level)
	}
}
