package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-valuator/internal/config"
	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
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

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestParamsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Valuation.RiskFreeRate = 0.04
	cfg.Valuation.ProjectionYears = 7
	cfg.Risk.WACCDistressPremium = 0.05
	cfg.Risk.AltmanSafe = 3.1
	cfg.Peers.MaxPeers = 3
	cfg.Peers.DefaultPE = 18

	d := DCFParams(cfg)
	assert.Equal(t, 0.04, d.RiskFreeRate)
	assert.Equal(t, 7, d.ProjectionYears)
	assert.Equal(t, 10.0, d.DefaultCoverage)

	f := ForensicParams(cfg)
	assert.Equal(t, 0.05, f.DistressPremium)
	assert.Equal(t, 3.1, f.Thresholds.Safe)
	assert.Equal(t, 1.81, f.Thresholds.Distress)

	r := RelativeParams(cfg)
	assert.Equal(t, 3, r.MaxPeers)
	assert.Equal(t, 18.0, r.DefaultPE)
	assert.Equal(t, 12.0, r.DefaultEVEBITDA)

	y := YahooConfig(cfg)
	assert.Equal(t, 3, y.MaxPeers)
	assert.Equal(t, cfg.Data.MaxRetries, y.MaxRetries)

	o := StoreOptions(cfg)
	assert.Equal(t, "memory", o.Backend)
	assert.Equal(t, "valuator:", o.KeyPrefix)
}

func TestPeerTable_FallsBackToDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Peers.Sectors = nil
	assert.Contains(t, PeerTable(cfg).Peers("Energy", "XOM", 5), "CVX")

	cfg.Peers.Sectors = map[string][]string{"energy": {"AAA", "BBB"}}
	assert.Equal(t, []string{"AAA", "BBB"}, PeerTable(cfg).Peers("Energy", "XOM", 5))
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Data.Provider = "bloomberg"
	_, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestService_Analyze(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	r, err := a.Service.Analyze(ctx, " acme ")
	require.NoError(t, err)

	assert.Equal(t, "ACME", r.BasicInfo.Ticker)
	assert.NotEmpty(t, r.ID)
	assert.NotEqual(t, models.RatingUnknown, r.Recommendation.Rating)
	assert.NotNil(t, r.Valuation.FairValueRange.Mid)
	assert.NotEmpty(t, r.Summary)
	assert.Contains(t, r.SummaryHTML, "<strong>")

	// Second call is served from the snapshot cache.
	_, err = a.Service.Analyze(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.CacheLookups.WithLabelValues("memory", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.CacheLookups.WithLabelValues("memory", "miss")))
}

func TestService_Valuate(t *testing.T) {
	a := newTestApp(t)

	snap, v, err := a.Service.Valuate(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, []string{"PEER1", "PEER2"}, snap.Peers)
	assert.True(t, v.DCF.OK())
	require.NotNil(t, v.Relative.PE.ImpliedPrice)
	assert.InDelta(t, 158.4, *v.Relative.PE.ImpliedPrice, 0.01)
	assert.NotNil(t, v.WACCUsed)
}

func TestService_Errors(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.Service.Analyze(ctx, "   ")
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	_, err = a.Service.Analyze(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
	assert.Contains(t, err.Error(), "fetch NOPE")

	_, err = a.Service.Quote(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
	assert.Contains(t, err.Error(), "quote NOPE")

	_, err = a.Service.Quote(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)
}

func TestService_Quote(t *testing.T) {
	a := newTestApp(t)

	q, err := a.Service.Quote(context.Background(), "peer1")
	require.NoError(t, err)
	assert.Equal(t, "PEER1", q.Ticker)
	assert.Equal(t, 50.0, q.Price)
}

func TestLoadSnapshot(t *testing.T) {
	a := newTestApp(t)

	s, err := a.LoadSnapshot(filepath.Join(fixtures, "PEER1.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "META", "NVDA"}, s.Peers)

	_, err = a.LoadSnapshot(filepath.Join(fixtures, "MISSING.json"))
	assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
}

func TestBreakerState(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, "n/a", a.BreakerState())

	cfg := config.Default()
	cfg.Cache.Backend = store.BackendNone
	y, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "closed", y.BreakerState())
}
