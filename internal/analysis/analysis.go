// Package analysis defines the valuation engine contracts shared by the
// forensic, DCF and relative valuation packages.
package analysis

import (
	"context"

	"equity-valuator/internal/models"
)

// RiskAssessor scores a snapshot for solvency and quality risk.
type RiskAssessor interface {
	Assess(s *models.FinancialSnapshot) models.RiskScoreResult
}

// IntrinsicValuer values a snapshot from its own cash flows. waccAdjustment
// is the risk premium added to the discount rate.
type IntrinsicValuer interface {
	Value(s *models.FinancialSnapshot, waccAdjustment float64) models.DCFResult
}

// RelativeValuer values a snapshot against its peers.
type RelativeValuer interface {
	Analyze(ctx context.Context, s *models.FinancialSnapshot) models.RelativeResult
}

// Engine names used in logs and metrics.
const (
	EngineForensic = "forensic"
	EngineDCF      = "dcf"
	EngineRelative = "relative"
)
