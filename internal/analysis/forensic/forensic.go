// Package forensic turns a financial snapshot into risk scores, risk flags
// and an overall risk level with a matching WACC premium.
package forensic

import (
	"fmt"

	"equity-valuator/internal/analysis/riskscore"
	"equity-valuator/internal/models"
)

// Params configures the forensic engine.
type Params struct {
	Thresholds       riskscore.Thresholds
	DistressPremium  float64 // applied when any CRITICAL flag is raised
	ElevatedPremium  float64 // applied for two or more warnings
	ModeratePremium  float64 // applied for a single warning
	HighLeverage     float64 // debt_equity metric, percent-scaled
	WeakFundamentals int     // Piotroski score below this is a warning
}

// DefaultParams returns the standard forensic parameters.
func DefaultParams() Params {
	return Params{
		Thresholds:       riskscore.DefaultThresholds(),
		DistressPremium:  0.03,
		ElevatedPremium:  0.015,
		ModeratePremium:  0.005,
		HighLeverage:     200,
		WeakFundamentals: 4,
	}
}

// Engine assesses financial risk. It is safe for concurrent use.
type Engine struct {
	calc   *riskscore.Calculator
	params Params
}

// NewEngine creates a forensic engine.
func NewEngine(params Params) *Engine {
	return &Engine{
		calc:   riskscore.NewCalculator(params.Thresholds),
		params: params,
	}
}

// Assess scores the snapshot. It never fails: faults become ERROR variants
// of the individual scores.
func (e *Engine) Assess(s *models.FinancialSnapshot) (res models.RiskScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			res = models.RiskScoreResult{
				Altman:    models.AltmanResult{Zone: models.ZoneError, Error: msg},
				Piotroski: models.PiotroskiResult{Rating: models.PiotroskiError, MaxScore: 9, Error: msg},
				RiskFlags: []models.RiskFlag{},
			}
			res.Overall = e.Overall(res.RiskFlags)
		}
	}()

	res.Altman = e.calc.AltmanZ(riskscore.AltmanInputsFromSnapshot(s))
	res.Piotroski = e.calc.PiotroskiF(s.Balance, s.Income, s.CashFlow)

	// Beneish is informational; it never raises a flag.
	if s.HasPriorPeriod() {
		cur, prev := riskscore.PeriodsFromSnapshot(s)
		b := riskscore.BeneishM(riskscore.BeneishRatios(cur, prev))
		res.Beneish = &b
	}

	res.RiskFlags = e.Flags(res.Altman, res.Piotroski, s.Metrics)
	res.Overall = e.Overall(res.RiskFlags)
	return res
}

// Flags derives the ordered risk flags.
func (e *Engine) Flags(altman models.AltmanResult, piotroski models.PiotroskiResult, metrics models.Metrics) []models.RiskFlag {
	flags := []models.RiskFlag{}

	switch altman.Zone {
	case models.ZoneDistress:
		flags = append(flags, models.RiskFlag{
			Severity: models.SeverityCritical,
			Code:     models.FlagBankruptcyRisk,
			Message:  "Altman Z-Score indicates high bankruptcy risk; avoid valuation or apply a large risk premium",
		})
	case models.ZoneGrey:
		flags = append(flags, models.RiskFlag{
			Severity: models.SeverityWarning,
			Code:     models.FlagFinancialStress,
			Message:  "Altman Z-Score is in the grey zone; financial condition needs close monitoring",
		})
	}

	if piotroski.Score != nil && *piotroski.Score < e.params.WeakFundamentals {
		flags = append(flags, models.RiskFlag{
			Severity: models.SeverityWarning,
			Code:     models.FlagWeakFundamentals,
			Message:  "Piotroski F-Score is low, indicating weak fundamentals",
		})
	}

	if de, ok := metrics.Get(models.MetricDebtEquity); ok && de > e.params.HighLeverage {
		flags = append(flags, models.RiskFlag{
			Severity: models.SeverityWarning,
			Code:     models.FlagHighLeverage,
			Message:  fmt.Sprintf("Debt/equity of %.1f%% is high; elevated financial leverage risk", de),
		})
	}

	if roe, ok := metrics.Get(models.MetricROE); ok && roe < 0 {
		flags = append(flags, models.RiskFlag{
			Severity: models.SeverityWarning,
			Code:     models.FlagNegativeROE,
			Message:  "Return on equity is negative; the company is loss-making",
		})
	}

	return flags
}

// Overall aggregates flags into a risk level and WACC adjustment.
func (e *Engine) Overall(flags []models.RiskFlag) models.OverallRisk {
	var critical, warning int
	for _, f := range flags {
		switch f.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityWarning:
			warning++
		}
	}

	out := models.OverallRisk{CriticalCount: critical, WarningCount: warning}
	switch {
	case critical > 0:
		out.Level = models.RiskHigh
		out.WACCAdjustment = e.params.DistressPremium
		out.Description = "High risk - material financial risk present, value with caution"
	case warning >= 2:
		out.Level = models.RiskElevated
		out.WACCAdjustment = e.params.ElevatedPremium
		out.Description = "Elevated risk - multiple warnings, extra risk premium applied"
	case warning == 1:
		out.Level = models.RiskModerate
		out.WACCAdjustment = e.params.ModeratePremium
		out.Description = "Moderate risk - some warnings present"
	default:
		out.Level = models.RiskLow
		out.Description = "Low risk - sound financial condition"
	}
	return out
}
