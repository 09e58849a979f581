package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Progression.LevelWidth)
	assert.Equal(t, 10, cfg.Progression.TaskReward)
	assert.Equal(t, 100, cfg.Progression.GoalBonusCoins)
	assert.Equal(t, 50, cfg.Progression.LoginBonusCoins)
	assert.Equal(t, 100, cfg.Progression.GachaCost)
	assert.False(t, cfg.Progression.AtomicLedger)
	assert.Equal(t, "Asia/Tokyo", cfg.App.Timezone)
	require.NotNil(t, cfg.App.Location)

	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.App.Location).Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("STORE_DRIVER=memory\nLOGIN_BONUS_COINS=100\nLEDGER_ATOMIC=true\n"), 0o600))

	// Load only sets variables that are not already present; clean up after it.
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("LOGIN_BONUS_COINS")
		os.Unsetenv("LEDGER_ATOMIC")
	})

	cfg, err := Load(envPath)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Progression.LoginBonusCoins)
	assert.True(t, cfg.Progression.AtomicLedger)
}

func TestValidate(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOGIN_BONUS_COINS", "500")
	t.Setenv("LEVEL_WIDTH", "0")

	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "LOGIN_BONUS_COINS must be 50-100")
	assert.Contains(t, err.Error(), "LEVEL_WIDTH must be positive")
}

func TestValidate_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoad_SessionDir(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	dir := t.TempDir()
	t.Setenv("SESSION_DIR", dir)
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load(filepath.Join(dir, "none.env"))
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Session.Dir)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}
