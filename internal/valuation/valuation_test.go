package valuation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-valuator/internal/analysis/dcf"
	"equity-valuator/internal/analysis/forensic"
	"equity-valuator/internal/analysis/relative"
	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

type stubRisk struct{ adj float64 }

func (s stubRisk) Assess(*models.FinancialSnapshot) models.RiskScoreResult {
	return models.RiskScoreResult{
		Altman:  models.AltmanResult{Zone: models.ZoneGrey},
		Overall: models.OverallRisk{Level: models.RiskModerate, WACCAdjustment: s.adj},
	}
}

type stubDCF struct {
	value   float64
	gotAdj  float64
	panics  bool
	failErr error
}

func (s *stubDCF) Value(_ *models.FinancialSnapshot, adj float64) models.DCFResult {
	s.gotAdj = adj
	if s.panics {
		panic("boom")
	}
	if s.failErr != nil {
		return models.DCFResult{Error: s.failErr.Error(), Err: s.failErr}
	}
	return models.DCFResult{IntrinsicValue: utils.Ptr(s.value), WACC: 0.1}
}

type stubRelative struct{ pe, evEBITDA, evRevenue, pb *float64 }

func (s stubRelative) Analyze(context.Context, *models.FinancialSnapshot) models.RelativeResult {
	return models.RelativeResult{
		PE:            models.MultipleResult{ImpliedPrice: s.pe},
		EVEBITDA:      models.MultipleResult{ImpliedPrice: s.evEBITDA},
		EVRevenue:     models.MultipleResult{ImpliedPrice: s.evRevenue},
		PB:            models.MultipleResult{ImpliedPrice: s.pb},
		PeerMultiples: models.PeerMultiples{Source: models.SourceMarketAverage},
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]bool
}

func (r *recordingObserver) ObserveEngine(engine string, ok bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]bool{}
	}
	r.calls[engine] = ok
}

func TestAnalyze_BlendsAllEngines(t *testing.T) {
	d := &stubDCF{value: 120}
	rel := stubRelative{pe: utils.Ptr(100.0), evEBITDA: utils.Ptr(110.0), evRevenue: utils.Ptr(90.0), pb: utils.Ptr(500.0)}
	obs := &recordingObserver{}
	o := NewOrchestrator(stubRisk{adj: 0.015}, d, rel, WithObserver(obs))

	v := o.Analyze(context.Background(), &models.FinancialSnapshot{Ticker: "ACME", CurrentPrice: 100})

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "ACME", v.Ticker)
	assert.Equal(t, 0.015, d.gotAdj, "forensic premium feeds the DCF")

	fv := v.FairValueRange
	assert.Equal(t, 4, fv.ValuesUsed, "P/B is not blended")
	assert.Equal(t, 90.0, *fv.Low)
	assert.Equal(t, 105.0, *fv.Mid)
	assert.Equal(t, 120.0, *fv.High)

	assert.Equal(t, models.RatingAccumulate, v.Recommendation.Rating)
	assert.Equal(t, 5.0, *v.Recommendation.UpsidePct)
	assert.Equal(t, 105.0, *v.Recommendation.TargetPrice)

	require.NotNil(t, v.WACCUsed)
	assert.Equal(t, 0.1, *v.WACCUsed)
	assert.Equal(t, map[string]float64{"dcf": 0.5, "relative": 0.5}, v.MethodologyWeights)

	assert.Len(t, obs.calls, 3)
	assert.True(t, obs.calls["dcf"])
}

func TestAnalyze_DCFFailureDoesNotBlockRelative(t *testing.T) {
	d := &stubDCF{failErr: apperrors.ErrNonPositiveFCF}
	rel := stubRelative{pe: utils.Ptr(80.0), evEBITDA: utils.Ptr(120.0)}
	obs := &recordingObserver{}
	o := NewOrchestrator(stubRisk{}, d, rel, WithObserver(obs))

	v := o.Analyze(context.Background(), &models.FinancialSnapshot{Ticker: "ACME", CurrentPrice: 50})

	assert.Nil(t, v.WACCUsed)
	assert.NotEmpty(t, v.DCF.Error)
	assert.Equal(t, 2, v.FairValueRange.ValuesUsed)
	assert.Equal(t, 100.0, *v.FairValueRange.Mid)
	assert.Equal(t, models.RatingStrongBuy, v.Recommendation.Rating)
	assert.False(t, obs.calls["dcf"])
	assert.True(t, obs.calls["relative"])
}

func TestAnalyze_EnginePanicIsContained(t *testing.T) {
	d := &stubDCF{panics: true}
	rel := stubRelative{pe: utils.Ptr(100.0)}
	o := NewOrchestrator(stubRisk{}, d, rel)

	v := o.Analyze(context.Background(), &models.FinancialSnapshot{Ticker: "ACME", CurrentPrice: 100})

	assert.ErrorIs(t, v.DCF.Err, apperrors.ErrUnexpectedFault)
	assert.Equal(t, 1, v.FairValueRange.ValuesUsed)
	assert.Equal(t, 85.0, *v.FairValueRange.Low)
	assert.Equal(t, 115.0, *v.FairValueRange.High)
	assert.Equal(t, models.RatingHold, v.Recommendation.Rating)
}

func TestAnalyze_NothingToBlend(t *testing.T) {
	d := &stubDCF{failErr: apperrors.ErrNonPositiveShares}
	o := NewOrchestrator(stubRisk{}, d, stubRelative{})

	v := o.Analyze(context.Background(), &models.FinancialSnapshot{Ticker: "ACME", CurrentPrice: 100})

	assert.Equal(t, 0, v.FairValueRange.ValuesUsed)
	assert.Nil(t, v.FairValueRange.Mid)
	assert.Equal(t, models.RatingUnknown, v.Recommendation.Rating)
	assert.Nil(t, v.Recommendation.UpsidePct)
}

func TestAnalyze_WithRealEngines(t *testing.T) {
	s := &models.FinancialSnapshot{
		Ticker:            "REAL",
		CurrentPrice:      100,
		SharesOutstanding: 10,
		MarketCap:         1000,
		Beta:              1,
		Income:            models.IncomeStatement{Revenue: 1000, EBIT: 150, EBITDA: 200, NetIncome: 100},
		Balance: models.BalanceSheet{
			TotalAssets: 1000, TotalLiabilities: 400, WorkingCapital: 200,
			RetainedEarnings: 300, StockholdersEquity: 600, Cash: 50,
		},
		CashFlow: models.CashFlow{FreeCashFlow: 100, OperatingCashFlow: 150},
		Metrics:  models.Metrics{},
	}
	o := NewOrchestrator(
		forensic.NewEngine(forensic.DefaultParams()),
		dcf.NewEngine(dcf.DefaultParams()),
		relative.NewEngine(relative.DefaultParams(), nil),
	)

	v := o.Analyze(context.Background(), s)

	require.True(t, v.DCF.OK(), v.DCF.Error)
	assert.Equal(t, models.SourceMarketAverage, v.Relative.PeerMultiples.Source)
	assert.Equal(t, 4, v.FairValueRange.ValuesUsed)
	assert.LessOrEqual(t, *v.FairValueRange.Low, *v.FairValueRange.Mid)
	assert.LessOrEqual(t, *v.FairValueRange.Mid, *v.FairValueRange.High)
	assert.NotEqual(t, models.RatingUnknown, v.Recommendation.Rating)
}

func TestFairValue(t *testing.T) {
	tests := []struct {
		name           string
		in             []*float64
		low, mid, high float64
		used           int
	}{
		{"single", []*float64{utils.Ptr(100.0)}, 85, 100, 115, 1},
		{"pair", []*float64{utils.Ptr(120.0), utils.Ptr(80.0)}, 80, 100, 120, 2},
		{"three", []*float64{utils.Ptr(10.0), utils.Ptr(20.0), utils.Ptr(40.0)}, 10, 23.33, 40, 3},
		{"filters nil and non-positive", []*float64{nil, utils.Ptr(-5.0), utils.Ptr(0.0), utils.Ptr(50.0)}, 42.5, 50, 57.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := FairValue(tt.in)
			assert.Equal(t, tt.used, fv.ValuesUsed)
			assert.Equal(t, tt.low, *fv.Low)
			assert.Equal(t, tt.mid, *fv.Mid)
			assert.Equal(t, tt.high, *fv.High)
		})
	}

	empty := FairValue([]*float64{nil, utils.Ptr(-1.0)})
	assert.Nil(t, empty.Low)
	assert.Nil(t, empty.Mid)
	assert.Nil(t, empty.High)
}

func TestRate_Tiers(t *testing.T) {
	low, mid, high := 90.0, 100.0, 110.0
	tests := []struct {
		price float64
		want  models.Rating
	}{
		{80, models.RatingStrongBuy},
		{81, models.RatingBuy},
		{89.99, models.RatingBuy},
		{90, models.RatingAccumulate},
		{100, models.RatingHold},
		{110, models.RatingHold},
		{121, models.RatingReduce},
		{121.01, models.RatingSell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rate(tt.price, low, mid, high), "price %v", tt.price)
	}
}

func TestRecommend(t *testing.T) {
	fv := FairValue([]*float64{utils.Ptr(150.0)})

	rec := Recommend(100, fv)
	assert.Equal(t, models.RatingStrongBuy, rec.Rating)
	assert.Equal(t, 50.0, *rec.UpsidePct)
	assert.Equal(t, 150.0, *rec.TargetPrice)
	assert.Equal(t, 100.0, rec.CurrentPrice)

	unknown := Recommend(0, fv)
	assert.Equal(t, models.RatingUnknown, unknown.Rating)
	assert.Nil(t, unknown.UpsidePct)
	assert.Nil(t, unknown.TargetPrice)
}
