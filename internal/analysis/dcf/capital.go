package dcf

import (
	"math"

	"equity-valuator/internal/models"
)

// CostOfEquityCAPM returns r_f + β × MRP.
func CostOfEquityCAPM(riskFreeRate, beta, marketRiskPremium float64) float64 {
	return riskFreeRate + beta*marketRiskPremium
}

// CreditSpread maps interest coverage to a synthetic-rating spread.
func CreditSpread(coverage float64) float64 {
	switch {
	case coverage > 8:
		return 0.01
	case coverage > 4:
		return 0.02
	case coverage > 2:
		return 0.04
	default:
		return 0.08
	}
}

// InterestCoverage returns the interest_coverage metric when present, then
// EBIT over interest expense, then def.
func InterestCoverage(s *models.FinancialSnapshot, def float64) float64 {
	if c, ok := s.Metrics.Get(models.MetricInterestCoverage); ok {
		return c
	}
	ebit := s.Income.OperatingProfit()
	interest := math.Abs(s.Income.InterestExpense)
	if ebit != 0 && interest > 0 {
		return ebit / interest
	}
	return def
}

// WACC computes the weighted average cost of capital plus adjustment.
// Without debt or without a market cap it is the cost of equity plus
// adjustment.
func (e *Engine) WACC(s *models.FinancialSnapshot, adjustment float64) float64 {
	beta := s.Beta
	if beta <= 0 {
		beta = 1.0
	}
	costOfEquity := CostOfEquityCAPM(e.params.RiskFreeRate, beta, e.params.MarketRiskPremium)

	debt := s.Balance.TotalDebt
	if debt <= 0 {
		return costOfEquity + adjustment
	}

	coverage := InterestCoverage(s, e.params.DefaultCoverage)
	costOfDebt := e.params.RiskFreeRate + CreditSpread(coverage)

	marketCap := s.MarketCap
	if marketCap <= 0 {
		return costOfEquity + adjustment
	}

	total := marketCap + debt
	wEquity := marketCap / total
	wDebt := debt / total

	return wEquity*costOfEquity + wDebt*costOfDebt*(1-e.params.TaxRate) + adjustment
}

// TerminalValueGordonGrowth returns FCF_n × (1+g) / (r − g). Callers must
// ensure r > g.
func TerminalValueGordonGrowth(finalFCF, discountRate, growth float64) float64 {
	return finalFCF * (1 + growth) / (discountRate - growth)
}

// PresentValueOfCashFlows discounts end-of-period cash flows.
func PresentValueOfCashFlows(cashFlows []float64, discountRate float64) float64 {
	var pv float64
	for t, cf := range cashFlows {
		pv += cf / math.Pow(1+discountRate, float64(t+1))
	}
	return pv
}
