package models

// AltmanZone classifies an Altman Z-Score.
type AltmanZone string

const (
	ZoneDistress AltmanZone = "DISTRESS"
	ZoneGrey     AltmanZone = "GREY"
	ZoneSafe     AltmanZone = "SAFE"
	ZoneUnknown  AltmanZone = "UNKNOWN"
	ZoneError    AltmanZone = "ERROR"
)

// AltmanComponents are the five weighted ratios of the Z-Score.
type AltmanComponents struct {
	X1 float64 `json:"X1"` // working capital / total assets
	X2 float64 `json:"X2"` // retained earnings / total assets
	X3 float64 `json:"X3"` // EBIT / total assets
	X4 float64 `json:"X4"` // market cap / total liabilities
	X5 float64 `json:"X5"` // revenue / total assets
}

// AltmanResult is the outcome of an Altman Z-Score calculation.
type AltmanResult struct {
	Score       *float64          `json:"score"`
	Zone        AltmanZone        `json:"zone"`
	Description string            `json:"description,omitempty"`
	Components  *AltmanComponents `json:"components,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// PiotroskiRating classifies a Piotroski F-Score.
type PiotroskiRating string

const (
	PiotroskiStrong   PiotroskiRating = "STRONG"
	PiotroskiModerate PiotroskiRating = "MODERATE"
	PiotroskiWeak     PiotroskiRating = "WEAK"
	PiotroskiError    PiotroskiRating = "ERROR"
)

// PiotroskiComponents holds the nine binary tests, each 0 or 1.
type PiotroskiComponents struct {
	ROAPositive        int `json:"roa_positive"`
	CFOPositive        int `json:"cfo_positive"`
	ROAIncreasing      int `json:"roa_increasing"`
	Accruals           int `json:"accruals"`
	LeverageDecreasing int `json:"leverage_decreasing"`
	LiquidityImproving int `json:"liquidity_improving"`
	NoDilution         int `json:"no_dilution"`
	MarginImproving    int `json:"margin_improving"`
	TurnoverImproving  int `json:"turnover_improving"`
}

// Sum returns the F-Score.
func (c PiotroskiComponents) Sum() int {
	return c.ROAPositive + c.CFOPositive + c.ROAIncreasing + c.Accruals +
		c.LeverageDecreasing + c.LiquidityImproving + c.NoDilution +
		c.MarginImproving + c.TurnoverImproving
}

// PiotroskiResult is the outcome of a Piotroski F-Score calculation.
type PiotroskiResult struct {
	Score       *int                 `json:"score"`
	MaxScore    int                  `json:"max_score"`
	Rating      PiotroskiRating      `json:"rating"`
	Description string               `json:"description,omitempty"`
	Components  *PiotroskiComponents `json:"components,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// BeneishFlag classifies a Beneish M-Score.
type BeneishFlag string

const (
	BeneishRedFlag BeneishFlag = "RED_FLAG"
	BeneishNormal  BeneishFlag = "NORMAL"
)

// BeneishRatios are the eight indices feeding the M-Score.
type BeneishRatios struct {
	DSRI float64 `json:"dsri"`
	GMI  float64 `json:"gmi"`
	AQI  float64 `json:"aqi"`
	SGI  float64 `json:"sgi"`
	DEPI float64 `json:"depi"`
	SGAI float64 `json:"sgai"`
	TATA float64 `json:"tata"`
	LVGI float64 `json:"lvgi"`
}

// BeneishResult is the outcome of a Beneish M-Score calculation.
type BeneishResult struct {
	Score          float64        `json:"score"`
	Flag           BeneishFlag    `json:"flag"`
	Threshold      float64        `json:"threshold"`
	Interpretation string         `json:"interpretation"`
	Ratios         *BeneishRatios `json:"ratios,omitempty"`
}

// Severity of a risk flag.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Risk flag codes.
const (
	FlagBankruptcyRisk   = "BANKRUPTCY_RISK"
	FlagFinancialStress  = "FINANCIAL_STRESS"
	FlagWeakFundamentals = "WEAK_FUNDAMENTALS"
	FlagHighLeverage     = "HIGH_LEVERAGE"
	FlagNegativeROE      = "NEGATIVE_ROE"
)

// RiskFlag is a single forensic finding.
type RiskFlag struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// RiskLevel is the aggregated risk classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskElevated RiskLevel = "ELEVATED"
	RiskHigh     RiskLevel = "HIGH"
)

// OverallRisk aggregates the risk flags into a level and a WACC premium.
type OverallRisk struct {
	Level          RiskLevel `json:"level"`
	WACCAdjustment float64   `json:"wacc_adjustment"`
	Description    string    `json:"description"`
	CriticalCount  int       `json:"critical_count"`
	WarningCount   int       `json:"warning_count"`
}

// RiskScoreResult is the forensic assessment of one snapshot.
type RiskScoreResult struct {
	Altman    AltmanResult    `json:"altman_z"`
	Piotroski PiotroskiResult `json:"piotroski_f"`
	Beneish   *BeneishResult  `json:"beneish_m,omitempty"`
	RiskFlags []RiskFlag      `json:"risk_flags"`
	Overall   OverallRisk     `json:"overall_risk"`
}
