package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-valuator/internal/config"
	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
	"equity-valuator/internal/report"
	"equity-valuator/internal/store"
)

const fixtures = "../../testdata/snapshots"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Data.Provider = "file"
	cfg.Data.SnapshotDir = fixtures
	cfg.Cache.Backend = store.BackendMemory
	return cfg
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd(WithConfig(cfg), WithLogger(zerolog.Nop()))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, testConfig(), "version", "--json")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := run(t, testConfig(), "analyze", "acme", "--json")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "ACME", r.BasicInfo.Ticker)
	assert.NotEqual(t, models.RatingUnknown, r.Recommendation.Rating)
	require.NotNil(t, r.Valuation.FairValueRange.Mid)
	assert.NotEmpty(t, r.FootballField.Bars)
	assert.NotEmpty(t, r.Summary)
}

func TestAnalyze_Text(t *testing.T) {
	out, err := run(t, testConfig(), "analyze", "ACME")
	require.NoError(t, err)

	assert.Contains(t, out, "Acme Corporation (ACME)")
	assert.Contains(t, out, "Football field")
	assert.Contains(t, out, "Fair value")
	assert.Contains(t, out, "Rating")
	assert.NotContains(t, out, "\x1b[", "colour is disabled off a terminal")
}

func TestAnalyze_CSV(t *testing.T) {
	out, err := run(t, testConfig(), "analyze", "ACME", "--csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "method,low,mid,high", lines[0])
	assert.Equal(t, report.MethodBlended, strings.Split(lines[len(lines)-1], ",")[0])
}

func TestAnalyze_SnapshotFile(t *testing.T) {
	path := filepath.Join(fixtures, "ACME.json")
	out, err := run(t, testConfig(), "analyze", "--snapshot", path, "--json")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "ACME", r.BasicInfo.Ticker)
	assert.Equal(t, 2, r.Valuation.Relative.PeerCount)
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := run(t, testConfig(), "analyze")
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	_, err = run(t, testConfig(), "analyze", "MISSING")
	assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)

	_, err = run(t, testConfig(), "analyze", "--snapshot", filepath.Join(fixtures, "MISSING.json"))
	assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
}

func TestRisk(t *testing.T) {
	out, err := run(t, testConfig(), "risk", "ACME", "--json")
	require.NoError(t, err)

	var r models.RiskScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.NotEqual(t, models.ZoneError, r.Altman.Zone)
	require.NotNil(t, r.Piotroski.Score)
	assert.Equal(t, 9, r.Piotroski.MaxScore)

	text, err := run(t, testConfig(), "risk", "ACME")
	require.NoError(t, err)
	assert.Contains(t, text, "Altman Z-Score")
	assert.Contains(t, text, "Piotroski F-Score")
}

func TestDCF(t *testing.T) {
	out, err := run(t, testConfig(), "dcf", "ACME", "--json")
	require.NoError(t, err)

	var d models.DCFResult
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.NotNil(t, d.IntrinsicValue)
	assert.Greater(t, *d.IntrinsicValue, 0.0)
	assert.Greater(t, d.WACC, d.TerminalGrowth)

	text, err := run(t, testConfig(), "dcf", "ACME")
	require.NoError(t, err)
	assert.Contains(t, text, "Intrinsic value")
	assert.Contains(t, text, "Terminal")
}

func TestRelative(t *testing.T) {
	out, err := run(t, testConfig(), "relative", "ACME", "--json")
	require.NoError(t, err)

	var r models.RelativeResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, models.SourcePeerAnalysis, r.PeerMultiples.Source)
	require.NotNil(t, r.PE.ImpliedPrice)
	assert.InDelta(t, 158.4, *r.PE.ImpliedPrice, 0.01)

	text, err := run(t, testConfig(), "relative", "ACME")
	require.NoError(t, err)
	assert.Contains(t, text, "EV/EBITDA")
	assert.Contains(t, text, "peer_analysis")
}

func TestQuote(t *testing.T) {
	out, err := run(t, testConfig(), "quote", "ACME", "--json")
	require.NoError(t, err)

	var q models.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, 100.0, q.Price)
	assert.Equal(t, "Acme Corporation", q.Name)

	text, err := run(t, testConfig(), "quote", "ACME")
	require.NoError(t, err)
	assert.Contains(t, text, "$100.00")
}

func TestCacheCommands(t *testing.T) {
	out, err := run(t, testConfig(), "cache", "invalidate", "acme", "peer1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ACME"`)
	assert.Contains(t, out, `"PEER1"`)

	out, err = run(t, testConfig(), "cache", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 expired entries from memory cache")

	_, err = run(t, testConfig(), "cache", "invalidate", "   ")
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)
}

func TestConfigCommands(t *testing.T) {
	cfg := testConfig()
	cfg.Credentials.OpenAI.APIKey = "sk-test-secret"

	out, err := run(t, cfg, "config", "show", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-test-secret")
	assert.Contains(t, out, `"Provider": "file"`)

	out, err = run(t, cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend:")
	assert.Contains(t, out, "memory")
	assert.Contains(t, out, "sk-t******cret")
	assert.NotContains(t, out, "sk-test-secret")
	assert.Contains(t, out, "(not set)")

	out, err = run(t, cfg, "config", "validate", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	bad := testConfig()
	bad.Cache.Backend = "tape"
	_, err = run(t, bad, "config", "validate")
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestConfigLoadsDirectory(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"config", "path", "--config", dir})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, dir, strings.TrimSpace(buf.String()))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.FileExists(t, filepath.Join(dir, "credentials.toml"))
}
