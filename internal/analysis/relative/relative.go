// Package relative values a company from the trading multiples of its peers.
package relative

import (
	"context"
	"fmt"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// Params configures the relative valuation engine.
type Params struct {
	MaxPeers         int
	DefaultPE        float64
	DefaultEVEBITDA  float64
	DefaultEVRevenue float64
	DefaultPB        float64
}

// DefaultParams returns the market-average defaults.
func DefaultParams() Params {
	return Params{
		MaxPeers:         5,
		DefaultPE:        20,
		DefaultEVEBITDA:  12,
		DefaultEVRevenue: 3,
		DefaultPB:        3,
	}
}

// Engine performs peer-multiple valuations. It is safe for concurrent use.
type Engine struct {
	params Params
	source MultiplesSource
}

// NewEngine creates a relative valuation engine. source may be nil, in
// which case market averages are always used.
func NewEngine(params Params, source MultiplesSource) *Engine {
	if params.MaxPeers <= 0 {
		params.MaxPeers = 5
	}
	return &Engine{params: params, source: source}
}

// Analyze fetches peer multiples for the snapshot's peers and values it.
func (e *Engine) Analyze(ctx context.Context, s *models.FinancialSnapshot) (res models.RelativeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.RelativeResult{Error: fmt.Sprintf("relative valuation fault: %v", r)}
		}
	}()
	return e.Value(s, e.PeerMultiples(ctx, s.Peers))
}

// Value computes implied prices under P/E, EV/EBITDA, EV/Revenue and P/B.
// Each multiple succeeds or fails on its own.
func (e *Engine) Value(s *models.FinancialSnapshot, pm models.PeerMultiples) models.RelativeResult {
	shares := s.SharesOutstanding
	debt := s.Balance.TotalDebt
	cash := s.Balance.Cash

	res := models.RelativeResult{PeerMultiples: pm}

	res.PE = guard(func() models.MultipleResult {
		out := models.MultipleResult{
			CurrentMultiple: s.Metrics.Ptr(models.MetricPERatio),
			PeerMultiple:    pm.MedianPE,
		}
		ni := s.Income.NetIncome
		if ni <= 0 || shares <= 0 {
			return out
		}
		eps := ni / shares
		res.EPS = utils.RoundPtr(eps, 2)
		out.ImpliedPrice = utils.RoundPtr(eps*pm.MedianPE, 2)
		return out
	}, pm.MedianPE, s.Metrics.Ptr(models.MetricPERatio))

	res.EVEBITDA = guard(func() models.MultipleResult {
		out, impliedEV := enterpriseMultiple(s.Metrics.Ptr(models.MetricEVEBITDA), s.Income.EBITDA, pm.MedianEVEBITDA, debt, cash, shares)
		if out.ImpliedPrice != nil {
			res.ImpliedEV = utils.RoundPtr(impliedEV, 0)
		}
		return out
	}, pm.MedianEVEBITDA, s.Metrics.Ptr(models.MetricEVEBITDA))

	res.EVRevenue = guard(func() models.MultipleResult {
		out, _ := enterpriseMultiple(s.Metrics.Ptr(models.MetricEVRevenue), s.Income.Revenue, pm.MedianEVRevenue, debt, cash, shares)
		return out
	}, pm.MedianEVRevenue, s.Metrics.Ptr(models.MetricEVRevenue))

	res.PB = guard(func() models.MultipleResult {
		out := models.MultipleResult{
			CurrentMultiple: s.Metrics.Ptr(models.MetricPBRatio),
			PeerMultiple:    pm.MedianPB,
		}
		book := s.Balance.StockholdersEquity
		if book <= 0 || shares <= 0 {
			return out
		}
		bvps := book / shares
		if implied := bvps * pm.MedianPB; implied > 0 {
			out.ImpliedPrice = utils.RoundPtr(implied, 2)
			res.BVPS = utils.RoundPtr(bvps, 2)
		}
		return out
	}, pm.MedianPB, s.Metrics.Ptr(models.MetricPBRatio))

	return res
}

// enterpriseMultiple prices an EV-based multiple: driver × multiple gives an
// implied EV, bridged to equity by subtracting debt and adding cash.
func enterpriseMultiple(current *float64, driver, multiple, debt, cash, shares float64) (models.MultipleResult, float64) {
	out := models.MultipleResult{CurrentMultiple: current, PeerMultiple: multiple}
	if driver <= 0 || shares <= 0 {
		return out, 0
	}
	impliedEV := driver * multiple
	price := (impliedEV - debt + cash) / shares
	if price > 0 {
		out.ImpliedPrice = utils.RoundPtr(price, 2)
	}
	return out, impliedEV
}

// guard runs fn and turns a fault into a result without an implied price.
func guard(fn func() models.MultipleResult, peer float64, current *float64) (out models.MultipleResult) {
	defer func() {
		if r := recover(); r != nil {
			out = models.MultipleResult{CurrentMultiple: current, PeerMultiple: peer}
		}
	}()
	return fn()
}
