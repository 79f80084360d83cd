// Package marketdata fetches financial snapshots, quotes and peer multiples
// from upstream sources.
package marketdata

import (
	"context"
	"regexp"
	"strings"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
)

// Provider is a source of market and fundamental data. Implementations
// return ErrTickerNotFound for unknown symbols and ErrRateLimited when the
// upstream throttles.
type Provider interface {
	Snapshot(ctx context.Context, ticker string) (*models.FinancialSnapshot, error)
	PeerQuote(ctx context.Context, ticker string) (models.PeerQuote, error)
	Quote(ctx context.Context, ticker string) (*models.Quote, error)
}

// Exchange suffixes (RELIANCE.NS), share classes (BRK-B), indices (^GSPC)
// and currency pairs (EURUSD=X).
var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.&=-]{0,19}$`)

// NormalizeTicker trims and upper-cases a ticker symbol and rejects
// anything that is not a plausible symbol, since tickers end up in file
// paths, cache keys and upstream URLs.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", apperrors.NewValidationError("ticker", ticker, "ticker is required")
	}
	if len(t) > 20 {
		return "", apperrors.NewValidationError("ticker", ticker, "ticker too long (max 20 characters)")
	}
	if !symbolPattern.MatchString(t) {
		return "", apperrors.NewValidationError("ticker", ticker, "invalid ticker format")
	}
	return t, nil
}

// PeerTable maps a sector name to candidate peer tickers.
type PeerTable map[string][]string

// DefaultPeerTable returns the built-in sector peer lists.
func DefaultPeerTable() PeerTable {
	return PeerTable{
		"Technology":             {"AAPL", "MSFT", "GOOGL", "META", "NVDA", "AMD", "INTC"},
		"Consumer Cyclical":      {"AMZN", "TSLA", "HD", "NKE", "MCD", "SBUX"},
		"Financial Services":     {"JPM", "BAC", "WFC", "GS", "MS", "C"},
		"Healthcare":             {"JNJ", "UNH", "PFE", "ABBV", "MRK", "LLY"},
		"Communication Services": {"GOOGL", "META", "DIS", "NFLX", "CMCSA"},
		"Energy":                 {"XOM", "CVX", "COP", "SLB", "EOG"},
		"Industrials":            {"CAT", "BA", "HON", "UPS", "RTX"},
		"Consumer Defensive":     {"PG", "KO", "PEP", "WMT", "COST"},
	}
}

// Peers returns up to max peers for sector, excluding self. Sector lookup
// ignores case since config loaders lower-case map keys.
func (t PeerTable) Peers(sector, self string, max int) []string {
	candidates, ok := t[sector]
	if !ok {
		for name, list := range t {
			if strings.EqualFold(name, sector) {
				candidates = list
				break
			}
		}
	}
	peers := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if strings.EqualFold(p, self) {
			continue
		}
		peers = append(peers, p)
		if max > 0 && len(peers) == max {
			break
		}
	}
	return peers
}

// DeriveMetrics fills ratios that can be computed from the statements when
// the upstream did not supply them.
func DeriveMetrics(s *models.FinancialSnapshot) {
	if s.Metrics == nil {
		s.Metrics = models.Metrics{}
	}
	m := s.Metrics

	if _, ok := m[models.MetricEBITDAMargin]; !ok && s.Income.EBITDA != 0 && s.Income.Revenue != 0 {
		m.Set(models.MetricEBITDAMargin, s.Income.EBITDA/s.Income.Revenue)
	}
	if _, ok := m[models.MetricFCFYield]; !ok && s.CashFlow.FreeCashFlow != 0 && s.MarketCap != 0 {
		m.Set(models.MetricFCFYield, s.CashFlow.FreeCashFlow/s.MarketCap)
	}
	if _, ok := m[models.MetricInterestCoverage]; !ok {
		ebit := s.Income.OperatingProfit()
		if ebit != 0 && s.Income.InterestExpense != 0 {
			interest := s.Income.InterestExpense
			if interest < 0 {
				interest = -interest
			}
			m.Set(models.MetricInterestCoverage, ebit/interest)
		}
	}
	if _, ok := m[models.MetricEnterpriseValue]; !ok {
		m.Set(models.MetricEnterpriseValue, s.EnterpriseValue)
	}
}
