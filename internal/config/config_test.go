package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	apperrors "equity-valuator/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "REDIS_PASSWORD", "VALUATOR_RISK_FREE_RATE",
		"VALUATOR_DATA_PROVIDER", "VALUATOR_SNAPSHOT_DIR", "VALUATOR_CACHE_BACKEND",
		"VALUATOR_REDIS_ADDR", "PORT", "VALUATOR_PORT", "CORS_ORIGINS", "VALUATOR_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_WritesTemplatesWhenMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Len(t, cfg.Created, 2)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.Equal(t, 0.045, cfg.Valuation.RiskFreeRate)
	assert.Equal(t, 5, cfg.Valuation.ProjectionYears)
	assert.Equal(t, 1.81, cfg.Risk.AltmanDistress)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, cfg.Data.Timeout)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.Cache.SQLitePath)
}

func TestLoad_ReadsWrittenTemplate(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(dir)
	require.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Created)
	assert.Equal(t, 0.055, cfg.Valuation.MarketRiskPremium)
	assert.Equal(t, 5, cfg.Peers.MaxPeers)
	assert.NotEmpty(t, cfg.Peers.Sectors)
	assert.Contains(t, cfg.Peers.Sectors["technology"], "MSFT")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
[valuation]
risk_free_rate = 0.05

[cache]
backend = "sqlite"
ttl = "30m"

[server]
port = 8080
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Valuation.RiskFreeRate)
	assert.Equal(t, 0.025, cfg.Valuation.TerminalGrowth, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("VALUATOR_RISK_FREE_RATE", "0.03")
	t.Setenv("VALUATOR_PORT", "9090")
	t.Setenv("VALUATOR_CACHE_BACKEND", "none")
	t.Setenv("VALUATOR_LOG_LEVEL", "DEBUG")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.03, cfg.Valuation.RiskFreeRate)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-test", cfg.Credentials.OpenAI.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidValueFails(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
[cache]
backend = "memcached"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
}

func TestLoad_MalformedFileFails(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[valuation\nbroken"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Valuation.RiskFreeRate = 0.5
	cfg.Valuation.MinGrowth = 0.3
	cfg.Risk.AltmanDistress = 3.5
	cfg.Cache.PruneSchedule = "not a schedule"
	cfg.Server.Port = 0
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
	for _, e := range multierr.Errors(err) {
		assert.ErrorIs(t, e, apperrors.ErrConfigInvalid)
	}
}

func TestValidate_BackendRequirements(t *testing.T) {
	cfg := Default()
	cfg.Data.Provider = "file"
	cfg.Data.SnapshotDir = ""
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "snapshot_dir")
	assert.Contains(t, err.Error(), "redis_addr")
}

func TestNarrativeEnabled(t *testing.T) {
	cfg := Default()
	cfg.Narrative.Enabled = true
	assert.False(t, cfg.NarrativeEnabled(), "no API key")

	cfg.Credentials.OpenAI.APIKey = "sk-test"
	assert.True(t, cfg.NarrativeEnabled())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "*****", MaskSecret("short"))
	assert.Equal(t, "sk-a********wxyz", MaskSecret("sk-a12345678wxyz"))
}
