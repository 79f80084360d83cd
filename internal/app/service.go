package app

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/logging"
	"equity-valuator/internal/marketdata"
	"equity-valuator/internal/models"
	"equity-valuator/internal/report"
	"equity-valuator/internal/valuation"
)

// Service runs the fetch, value and report pipeline for a ticker.
type Service struct {
	provider     marketdata.Provider
	orchestrator *valuation.Orchestrator
	builder      *report.Builder
	logger       zerolog.Logger
	onAnalysis   func(v *models.Valuation)
}

// NewService creates a pipeline service.
func NewService(provider marketdata.Provider, orchestrator *valuation.Orchestrator, builder *report.Builder, logger zerolog.Logger) *Service {
	return &Service{
		provider:     provider,
		orchestrator: orchestrator,
		builder:      builder,
		logger:       logger,
	}
}

// OnAnalysis registers a hook run after every valuation.
func (s *Service) OnAnalysis(fn func(v *models.Valuation)) {
	s.onAnalysis = fn
}

// Valuate fetches the ticker's snapshot and values it. Fetch errors carry
// ErrInputValidation, ErrTickerNotFound or ErrRateLimited where applicable.
func (s *Service) Valuate(ctx context.Context, ticker string) (*models.FinancialSnapshot, *models.Valuation, error) {
	ticker, err := marketdata.NormalizeTicker(ticker)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.WithTicker(s.logger, ticker)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}
	ctx = logging.WithLogger(ctx, logger)

	snap, err := s.provider.Snapshot(ctx, ticker)
	if err != nil {
		logger.Warn().Err(err).Msg("Snapshot fetch failed")
		return nil, nil, apperrors.Wrapf(err, "fetch %s", ticker)
	}
	return snap, s.ValuateSnapshot(ctx, snap), nil
}

// ValuateSnapshot values an already loaded snapshot.
func (s *Service) ValuateSnapshot(ctx context.Context, snap *models.FinancialSnapshot) *models.Valuation {
	v := s.orchestrator.Analyze(ctx, snap)
	if s.onAnalysis != nil {
		s.onAnalysis(v)
	}
	return v
}

// Analyze returns the full report for ticker.
func (s *Service) Analyze(ctx context.Context, ticker string) (*report.Report, error) {
	snap, v, err := s.Valuate(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, snap, v), nil
}

// Report builds the report for a valued snapshot.
func (s *Service) Report(ctx context.Context, snap *models.FinancialSnapshot, v *models.Valuation) *report.Report {
	return s.builder.Build(ctx, snap, v)
}

// Quote returns the latest price for ticker.
func (s *Service) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker, err := marketdata.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	q, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return nil, apperrors.Wrapf(err, "quote %s", ticker)
	}
	return q, nil
}
