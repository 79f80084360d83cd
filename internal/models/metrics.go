package models

// Metric keys used in Metrics.
const (
	MetricPERatio          = "pe_ratio"
	MetricForwardPE        = "forward_pe"
	MetricPBRatio          = "pb_ratio"
	MetricPSRatio          = "ps_ratio"
	MetricEVEBITDA         = "ev_ebitda"
	MetricEVRevenue        = "ev_revenue"
	MetricProfitMargin     = "profit_margin"
	MetricOperatingMargin  = "operating_margin"
	MetricEBITDAMargin     = "ebitda_margin"
	MetricROE              = "roe"
	MetricROA              = "roa"
	MetricDebtEquity       = "debt_equity" // percent-scaled, 150 means 1.5x
	MetricCurrentRatio     = "current_ratio"
	MetricDividendYield    = "dividend_yield"
	MetricPayoutRatio      = "payout_ratio"
	MetricRevenueGrowth    = "revenue_growth"
	MetricEarningsGrowth   = "earnings_growth"
	MetricFCFYield         = "fcf_yield"
	MetricEnterpriseValue  = "enterprise_value"
	MetricInterestCoverage = "interest_coverage"
)

// Metrics is a sparse map of derived ratios. Absent keys are unknown.
type Metrics map[string]float64

// Get returns the metric value and whether it is present.
func (m Metrics) Get(key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key]
	return v, ok
}

// Ptr returns the metric as a pointer, nil when absent.
func (m Metrics) Ptr(key string) *float64 {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	return &v
}

// Set stores v under key, skipping zero values.
func (m Metrics) Set(key string, v float64) {
	if v == 0 {
		return
	}
	m[key] = v
}
