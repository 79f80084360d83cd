package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
)

func writeSnapshot(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "KO.json", `{
		"company_name": "Coca-Cola",
		"sector": "Consumer Defensive",
		"current_price": 60,
		"market_cap": 260000,
		"income_statement": {"revenue": 45000, "ebitda": 15000, "ebit": 13000, "interest_expense": 1000},
		"cash_flow": {"free_cash_flow": 9500},
		"metrics": {"pe_ratio": 24.5, "pb_ratio": 10.2}
	}`)

	p := NewFileProvider(dir, nil, 5)
	ctx := context.Background()

	s, err := p.Snapshot(ctx, "ko")
	require.NoError(t, err)
	assert.Equal(t, "KO", s.Ticker)
	assert.Equal(t, []string{"PG", "PEP", "WMT", "COST"}, s.Peers)
	assert.Equal(t, 13.0, s.Metrics[models.MetricInterestCoverage])
	assert.InDelta(t, 1.0/3.0, s.Metrics[models.MetricEBITDAMargin], 1e-12)

	pq, err := p.PeerQuote(ctx, "KO")
	require.NoError(t, err)
	assert.Equal(t, 24.5, pq.PE)
	assert.Equal(t, 10.2, pq.PB)
	assert.Zero(t, pq.EVEBITDA)

	q, err := p.Quote(ctx, "KO")
	require.NoError(t, err)
	assert.Equal(t, "Coca-Cola", q.Name)
	assert.Equal(t, 60.0, q.Price)

	_, err = p.Snapshot(ctx, "PEP")
	assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
}

func TestLoadSnapshotFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "BAD.json", `{"ticker":`)

	_, err := LoadSnapshotFile(filepath.Join(dir, "BAD.json"))
	var derr *apperrors.DataError
	assert.ErrorAs(t, err, &derr)
}

func TestDeriveMetrics_KeepsUpstreamValues(t *testing.T) {
	s := &models.FinancialSnapshot{
		MarketCap:       1000,
		EnterpriseValue: 1200,
		Income:          models.IncomeStatement{Revenue: 500, EBITDA: 100, OperatingIncome: 80, InterestExpense: -20},
		CashFlow:        models.CashFlow{FreeCashFlow: 50},
		Metrics:         models.Metrics{models.MetricInterestCoverage: 7},
	}

	DeriveMetrics(s)

	assert.Equal(t, 7.0, s.Metrics[models.MetricInterestCoverage])
	assert.Equal(t, 0.2, s.Metrics[models.MetricEBITDAMargin])
	assert.Equal(t, 0.05, s.Metrics[models.MetricFCFYield])
	assert.Equal(t, 1200.0, s.Metrics[models.MetricEnterpriseValue])

	empty := &models.FinancialSnapshot{}
	DeriveMetrics(empty)
	assert.NotNil(t, empty.Metrics)
	assert.Empty(t, empty.Metrics)
}
