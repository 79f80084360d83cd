// Package riskscore implements the Altman Z, Piotroski F and Beneish M
// scoring models. Every function is pure; faults are reported through the
// result value and never escape to the caller.
package riskscore

import (
	"fmt"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// Thresholds are the Altman zone boundaries.
type Thresholds struct {
	Distress float64 // Z below this is DISTRESS
	Safe     float64 // Z at or above this is SAFE
}

// DefaultThresholds returns the classic Altman boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Distress: 1.81, Safe: 2.99}
}

// Calculator computes risk scores against a fixed set of thresholds.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	thresholds Thresholds
}

// NewCalculator creates a Calculator.
func NewCalculator(t Thresholds) *Calculator {
	return &Calculator{thresholds: t}
}

// AltmanInputs are the raw figures for the Z-Score.
type AltmanInputs struct {
	WorkingCapital   float64
	RetainedEarnings float64
	EBIT             float64
	MarketCap        float64
	TotalLiabilities float64
	Revenue          float64
	TotalAssets      float64
}

// AltmanZ computes Z = 1.2·X1 + 1.4·X2 + 3.3·X3 + 0.6·X4 + 1.0·X5.
func (c *Calculator) AltmanZ(in AltmanInputs) (res models.AltmanResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.AltmanResult{Zone: models.ZoneError, Error: fmt.Sprint(r)}
		}
	}()

	if in.TotalAssets <= 0 {
		return models.AltmanResult{Zone: models.ZoneUnknown}
	}

	ta := in.TotalAssets
	x1 := in.WorkingCapital / ta
	x2 := in.RetainedEarnings / ta
	x3 := in.EBIT / ta
	x4 := 0.0
	if in.TotalLiabilities > 0 {
		x4 = in.MarketCap / in.TotalLiabilities
	}
	x5 := in.Revenue / ta

	z := 1.2*x1 + 1.4*x2 + 3.3*x3 + 0.6*x4 + 1.0*x5
	zone := c.Zone(z)

	return models.AltmanResult{
		Score:       utils.RoundPtr(z, 2),
		Zone:        zone,
		Description: zoneDescription(zone),
		Components: &models.AltmanComponents{
			X1: utils.Round(x1, 4),
			X2: utils.Round(x2, 4),
			X3: utils.Round(x3, 4),
			X4: utils.Round(x4, 4),
			X5: utils.Round(x5, 4),
		},
	}
}

// Zone classifies an unrounded Z-Score.
func (c *Calculator) Zone(z float64) models.AltmanZone {
	switch {
	case z < c.thresholds.Distress:
		return models.ZoneDistress
	case z < c.thresholds.Safe:
		return models.ZoneGrey
	default:
		return models.ZoneSafe
	}
}

func zoneDescription(zone models.AltmanZone) string {
	switch zone {
	case models.ZoneDistress:
		return "Distress zone - high bankruptcy risk"
	case models.ZoneGrey:
		return "Grey zone - monitor closely"
	case models.ZoneSafe:
		return "Safe zone - financially healthy"
	default:
		return ""
	}
}

// AltmanInputsFromSnapshot extracts the Z-Score inputs from a snapshot.
func AltmanInputsFromSnapshot(s *models.FinancialSnapshot) AltmanInputs {
	return AltmanInputs{
		WorkingCapital:   s.Balance.WorkingCapital,
		RetainedEarnings: s.Balance.RetainedEarnings,
		EBIT:             s.Income.OperatingProfit(),
		MarketCap:        s.MarketCap,
		TotalLiabilities: s.Balance.TotalLiabilities,
		Revenue:          s.Income.Revenue,
		TotalAssets:      s.Balance.TotalAssets,
	}
}
