// Package dcf values a company by discounting projected free cash flow to
// the firm.
package dcf

import (
	"math"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// Params configures the DCF engine.
type Params struct {
	RiskFreeRate      float64
	MarketRiskPremium float64
	TerminalGrowth    float64
	ProjectionYears   int
	TaxRate           float64
	DefaultGrowth     float64 // used when no growth metric is usable
	MinGrowth         float64
	MaxGrowth         float64
	GrowthSignalCap   float64 // growth metrics at or above this are ignored
	DefaultCoverage   float64 // interest coverage when it cannot be derived
}

// DefaultParams returns the standard DCF parameters.
func DefaultParams() Params {
	return Params{
		RiskFreeRate:      0.045,
		MarketRiskPremium: 0.055,
		TerminalGrowth:    0.025,
		ProjectionYears:   5,
		TaxRate:           0.21,
		DefaultGrowth:     0.05,
		MinGrowth:         0.02,
		MaxGrowth:         0.20,
		GrowthSignalCap:   0.5,
		DefaultCoverage:   10,
	}
}

// Engine performs DCF valuations. It is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates a DCF engine.
func NewEngine(params Params) *Engine {
	if params.ProjectionYears <= 0 {
		params.ProjectionYears = 5
	}
	return &Engine{params: params}
}

// Params returns the engine parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Value runs the DCF pipeline. Model infeasibility and unexpected faults are
// returned as an error result; Value itself never panics.
func (e *Engine) Value(s *models.FinancialSnapshot, waccAdjustment float64) (res models.DCFResult) {
	stage := "wacc"
	defer func() {
		if r := recover(); r != nil {
			res = failure(apperrors.FromPanic("dcf", stage, r))
		}
	}()

	// Compared at reported precision so float noise cannot leave a
	// near-zero Gordon denominator.
	wacc := e.WACC(s, waccAdjustment)
	if math.IsNaN(wacc) || utils.Round(wacc, 4) <= e.params.TerminalGrowth {
		return failure(apperrors.NewModelError("dcf", stage, apperrors.ErrWACCInfeasible))
	}

	stage = "base_fcf"
	baseFCF, err := e.BaseFCF(s)
	if err != nil {
		return failure(apperrors.NewModelError("dcf", stage, err))
	}

	stage = "projection"
	growth := e.GrowthEstimate(s.Metrics)
	projected := e.Project(baseFCF, growth)
	pvFCF := PresentValueOfCashFlows(projected, wacc)

	years := e.params.ProjectionYears
	terminalValue := TerminalValueGordonGrowth(projected[len(projected)-1], wacc, e.params.TerminalGrowth)
	pvTerminal := terminalValue / math.Pow(1+wacc, float64(years))

	stage = "equity_bridge"
	enterpriseValue := pvFCF + pvTerminal
	equityValue := enterpriseValue - s.Balance.TotalDebt + s.Balance.Cash

	if s.SharesOutstanding <= 0 {
		return failure(apperrors.NewModelError("dcf", stage, apperrors.ErrNonPositiveShares))
	}
	intrinsic := equityValue / s.SharesOutstanding

	rounded := make([]float64, len(projected))
	for i, f := range projected {
		rounded[i] = utils.Round(f, 0)
	}

	return models.DCFResult{
		IntrinsicValue:  utils.RoundPtr(intrinsic, 2),
		EnterpriseValue: utils.Round(enterpriseValue, 0),
		EquityValue:     utils.Round(equityValue, 0),
		WACC:            utils.Round(wacc, 4),
		TerminalGrowth:  e.params.TerminalGrowth,
		FCFGrowth:       utils.Round(growth, 4),
		BaseFCF:         utils.Round(baseFCF, 0),
		TerminalValue:   utils.Round(terminalValue, 0),
		PVFCF:           utils.Round(pvFCF, 0),
		PVTerminal:      utils.Round(pvTerminal, 0),
		ProjectedFCF:    rounded,
		ProjectionYears: years,
	}
}

func failure(err error) models.DCFResult {
	return models.DCFResult{Error: err.Error(), Err: err}
}

// BaseFCF picks the starting cash flow: reported free cash flow, then FCFF
// from EBIT, then operating cash flow less capex.
func (e *Engine) BaseFCF(s *models.FinancialSnapshot) (float64, error) {
	switch fcf := s.CashFlow.FreeCashFlow; {
	case fcf > 0:
		return fcf, nil
	case fcf == 0:
		if fcff := e.FCFF(s); fcff > 0 {
			return fcff, nil
		}
	}

	fallback := s.CashFlow.OperatingCashFlow - s.CashFlow.CapitalExpenditure
	if fallback <= 0 {
		return 0, apperrors.ErrNonPositiveFCF
	}
	return fallback, nil
}

// FCFF returns EBIT·(1−t) + D&A − CapEx − ΔNWC.
func (e *Engine) FCFF(s *models.FinancialSnapshot) float64 {
	nopat := s.Income.OperatingProfit() * (1 - e.params.TaxRate)

	dep := s.CashFlow.Depreciation
	if dep == 0 {
		dep = s.Income.Depreciation
	}

	return nopat + dep - s.CashFlow.CapitalExpenditure - s.CashFlow.ChangeInWorkingCapital
}

// GrowthEstimate prefers revenue growth, then earnings growth, then the
// default, and clamps the result.
func (e *Engine) GrowthEstimate(m models.Metrics) float64 {
	usable := func(key string) (float64, bool) {
		g, ok := m.Get(key)
		return g, ok && g > 0 && g < e.params.GrowthSignalCap
	}

	growth := e.params.DefaultGrowth
	if g, ok := usable(models.MetricRevenueGrowth); ok {
		growth = g
	} else if g, ok := usable(models.MetricEarningsGrowth); ok {
		growth = g
	}
	return utils.Clamp(growth, e.params.MinGrowth, e.params.MaxGrowth)
}

// Project compounds base FCF forward with a growth rate that tapers
// linearly toward half its starting value, never below terminal growth.
func (e *Engine) Project(baseFCF, growth float64) []float64 {
	years := e.params.ProjectionYears
	projected := make([]float64, 0, years)

	fcf := baseFCF
	for i := 0; i < years; i++ {
		yearGrowth := growth * (1 - float64(i)/float64(2*years))
		yearGrowth = math.Max(yearGrowth, e.params.TerminalGrowth)
		fcf *= 1 + yearGrowth
		projected = append(projected, fcf)
	}
	return projected
}
