package models

import "time"

// DCFResult is the outcome of a discounted cash flow valuation. When the
// model is infeasible IntrinsicValue is nil and Error is set.
type DCFResult struct {
	IntrinsicValue  *float64  `json:"intrinsic_value"`
	EnterpriseValue float64   `json:"enterprise_value,omitempty"`
	EquityValue     float64   `json:"equity_value,omitempty"`
	WACC            float64   `json:"wacc,omitempty"`
	TerminalGrowth  float64   `json:"terminal_growth,omitempty"`
	FCFGrowth       float64   `json:"fcf_growth,omitempty"`
	BaseFCF         float64   `json:"base_fcf,omitempty"`
	TerminalValue   float64   `json:"terminal_value,omitempty"`
	PVFCF           float64   `json:"pv_fcf,omitempty"`
	PVTerminal      float64   `json:"pv_terminal,omitempty"`
	ProjectedFCF    []float64 `json:"projected_fcf,omitempty"`
	ProjectionYears int       `json:"projection_years,omitempty"`
	Error           string    `json:"error,omitempty"`

	// Err carries the typed cause of Error.
	Err error `json:"-"`
}

// OK reports whether the valuation produced an intrinsic value.
func (r *DCFResult) OK() bool {
	return r != nil && r.IntrinsicValue != nil
}

// PeerSource tells where peer multiples came from.
type PeerSource string

const (
	SourcePeerAnalysis  PeerSource = "peer_analysis"
	SourceMarketAverage PeerSource = "market_average"
)

// PeerMultiples is the aggregate of peer valuation multiples.
type PeerMultiples struct {
	MedianPE        float64    `json:"median_pe"`
	MedianEVEBITDA  float64    `json:"median_ev_ebitda"`
	MedianEVRevenue float64    `json:"median_ev_revenue"`
	MedianPB        float64    `json:"median_pb"`
	PeerCount       int        `json:"peer_count"`
	Source          PeerSource `json:"source"`
	PEValues        []float64  `json:"pe_values,omitempty"`
	EVEBITDAValues  []float64  `json:"ev_ebitda_values,omitempty"`
	EVRevenueValues []float64  `json:"ev_revenue_values,omitempty"`
	PBValues        []float64  `json:"pb_values,omitempty"`
}

// MultipleResult is the valuation under a single multiple.
type MultipleResult struct {
	CurrentMultiple *float64 `json:"current_multiple"`
	PeerMultiple    float64  `json:"peer_median_multiple"`
	ImpliedPrice    *float64 `json:"implied_price"`
}

// RelativeResult is the outcome of a peer-multiple valuation.
type RelativeResult struct {
	PE            MultipleResult `json:"pe"`
	EVEBITDA      MultipleResult `json:"ev_ebitda"`
	EVRevenue     MultipleResult `json:"ev_revenue"`
	PB            MultipleResult `json:"pb"`
	EPS           *float64       `json:"eps,omitempty"`
	BVPS          *float64       `json:"bvps,omitempty"`
	ImpliedEV     *float64       `json:"implied_ev,omitempty"`
	PeerMultiples PeerMultiples  `json:"peer_multiples"`
	Error         string         `json:"error,omitempty"`
}

// FairValueRange is the blended valuation band.
type FairValueRange struct {
	Low        *float64 `json:"low"`
	Mid        *float64 `json:"mid"`
	High       *float64 `json:"high"`
	ValuesUsed int      `json:"values_used"`
}

// Rating is a discrete investment recommendation.
type Rating string

const (
	RatingStrongBuy  Rating = "STRONG_BUY"
	RatingBuy        Rating = "BUY"
	RatingAccumulate Rating = "ACCUMULATE"
	RatingHold       Rating = "HOLD"
	RatingReduce     Rating = "REDUCE"
	RatingSell       Rating = "SELL"
	RatingUnknown    Rating = "UNKNOWN"
)

// Recommendation compares the current price with the fair value range.
// UpsidePct is a percentage rounded to one decimal.
type Recommendation struct {
	Rating       Rating   `json:"rating"`
	Description  string   `json:"description"`
	UpsidePct    *float64 `json:"upside_pct"`
	CurrentPrice float64  `json:"current_price,omitempty"`
	TargetPrice  *float64 `json:"target_price,omitempty"`
}

// Valuation is the combined output of one analysis run.
type Valuation struct {
	ID                 string             `json:"id"`
	Ticker             string             `json:"ticker"`
	Risk               RiskScoreResult    `json:"risk"`
	DCF                DCFResult          `json:"dcf"`
	Relative           RelativeResult     `json:"relative"`
	FairValueRange     FairValueRange     `json:"fair_value_range"`
	Recommendation     Recommendation     `json:"recommendation"`
	WACCUsed           *float64           `json:"wacc_used"`
	MethodologyWeights map[string]float64 `json:"methodology_weights"`
	GeneratedAt        time.Time          `json:"generated_at"`
	Duration           time.Duration      `json:"duration_ns"`
}
