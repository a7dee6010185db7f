package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessEnvironmentVariables_Defaults(t *testing.T) {
	cfg, err := ProcessEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "9446", cfg.HTTPPort)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Equal(t, 5, cfg.WatchlistSize)
	assert.True(t, cfg.ApprovalThresholds.Ceiling("VND").Equal(decimal.NewFromInt(5_000_000)))
	assert.NoError(t, cfg.Validate())
}

func TestProcessEnvironmentVariables_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("APPROVAL_THRESHOLDS", "USD=1000")
	t.Setenv("STATIC_RATES", "USD=1,EUR=0.9")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("FIXED_COST_INTERVAL", "15m")
	t.Setenv("OPERATOR_WORKERS", "8")
	t.Setenv("ISSUE_ADMIN_TOKEN", "true")

	cfg, err := ProcessEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.True(t, cfg.ApprovalThresholds.Ceiling("USD").Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.ApprovalThresholds.Ceiling("VND").Equal(decimal.NewFromInt(5_000_000)), "unlisted currencies keep defaults")
	assert.True(t, cfg.StaticRates.Rate("EUR").Equal(decimal.RequireFromString("0.9")))
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.FixedCostInterval)
	assert.Equal(t, 8, cfg.OperatorWorkers)
	assert.True(t, cfg.IssueAdminToken)
}

func TestProcessEnvironmentVariables_ReportsAllErrors(t *testing.T) {
	t.Setenv("FIXED_COST_INTERVAL", "soon")
	t.Setenv("OPERATOR_WORKERS", "many")

	_, err := ProcessEnvironmentVariables()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIXED_COST_INTERVAL")
	assert.Contains(t, err.Error(), "OPERATOR_WORKERS")
}

func TestValidate(t *testing.T) {
	cfg, err := ProcessEnvironmentVariables()
	require.NoError(t, err)

	cfg.StorageBackend = "sqlite"
	cfg.ActivitySink = "email"
	cfg.OperatorWorkers = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
	assert.Contains(t, err.Error(), "ACTIVITY_SINK")
	assert.Contains(t, err.Error(), "OPERATOR_WORKERS")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WATCHLIST_SIZE=9\n"), 0o600))
	t.Setenv("WATCHLIST_SIZE", "")
	require.NoError(t, os.Unsetenv("WATCHLIST_SIZE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { _ = os.Unsetenv("WATCHLIST_SIZE") })

	cfg, err := ProcessEnvironmentVariables()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.WatchlistSize)
}
