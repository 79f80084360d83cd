// Package valuation runs the forensic, DCF and relative engines over a
// snapshot and blends their outputs into a fair value range and rating.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"equity-valuator/internal/analysis"
	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/logging"
	"equity-valuator/internal/models"
)

// Observer receives per-engine timings. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveEngine(engine string, ok bool, duration time.Duration)
}

// Orchestrator coordinates the valuation engines for one snapshot at a time.
// It holds no per-request state and may serve concurrent analyses.
type Orchestrator struct {
	forensic analysis.RiskAssessor
	dcf      analysis.IntrinsicValuer
	relative analysis.RelativeValuer
	observer Observer
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver attaches an engine timing observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates a valuation orchestrator.
func NewOrchestrator(
	forensic analysis.RiskAssessor,
	dcf analysis.IntrinsicValuer,
	relative analysis.RelativeValuer,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		forensic: forensic,
		dcf:      dcf,
		relative: relative,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Analyze runs the full pipeline. The forensic assessment runs first since
// its WACC adjustment feeds the DCF; the DCF and relative engines then run
// concurrently. A failed engine never blocks the other from contributing.
func (o *Orchestrator) Analyze(ctx context.Context, s *models.FinancialSnapshot) *models.Valuation {
	start := o.now()
	logger := logging.WithTicker(logging.FromContext(ctx), s.Ticker)

	t0 := o.now()
	risk := o.forensic.Assess(s)
	o.observe(analysis.EngineForensic, risk.Altman.Zone != models.ZoneError, t0)
	logging.LogRiskAssessment(logger, s.Ticker, string(risk.Altman.Zone), risk.Piotroski.Score,
		string(risk.Overall.Level), risk.Overall.WACCAdjustment)

	var (
		dcfRes  models.DCFResult
		relRes  models.RelativeResult
		dcfDone bool
		relDone bool
		wg      conc.WaitGroup
	)
	wg.Go(func() {
		t := o.now()
		dcfRes = o.dcf.Value(s, risk.Overall.WACCAdjustment)
		dcfDone = true
		o.observe(analysis.EngineDCF, dcfRes.OK(), t)
	})
	wg.Go(func() {
		t := o.now()
		relRes = o.relative.Analyze(ctx, s)
		relDone = true
		o.observe(analysis.EngineRelative, relRes.Error == "", t)
	})
	if r := wg.WaitAndRecover(); r != nil {
		err := fmt.Errorf("%w: %v", apperrors.ErrUnexpectedFault, r.Value)
		if !dcfDone {
			dcfRes = models.DCFResult{Error: err.Error(), Err: err}
		}
		if !relDone {
			relRes = models.RelativeResult{Error: err.Error()}
		}
	}

	if !dcfRes.OK() {
		logging.LogEngineFailure(logging.WithEngine(logger, analysis.EngineDCF), s.Ticker, dcfErr(dcfRes))
	}
	if relRes.Error != "" {
		logging.LogEngineFailure(logging.WithEngine(logger, analysis.EngineRelative), s.Ticker, errors.New(relRes.Error))
	}

	fv := FairValue(BlendInputs(dcfRes, relRes))
	rec := Recommend(s.CurrentPrice, fv)

	var waccUsed *float64
	if dcfRes.OK() {
		w := dcfRes.WACC
		waccUsed = &w
	}

	v := &models.Valuation{
		ID:             uuid.NewString(),
		Ticker:         s.Ticker,
		Risk:           risk,
		DCF:            dcfRes,
		Relative:       relRes,
		FairValueRange: fv,
		Recommendation: rec,
		WACCUsed:       waccUsed,
		MethodologyWeights: map[string]float64{
			"dcf":      0.5,
			"relative": 0.5,
		},
		GeneratedAt: start,
		Duration:    o.now().Sub(start),
	}

	logging.LogValuation(logger, s.Ticker, string(rec.Rating), fv.Mid, fv.ValuesUsed, v.Duration)
	return v
}

func (o *Orchestrator) observe(engine string, ok bool, start time.Time) {
	if o.observer != nil {
		o.observer.ObserveEngine(engine, ok, o.now().Sub(start))
	}
}

func dcfErr(r models.DCFResult) error {
	if r.Err != nil {
		return r.Err
	}
	return errors.New(r.Error)
}
