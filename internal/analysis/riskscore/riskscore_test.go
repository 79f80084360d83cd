package riskscore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-valuator/internal/models"
)

func TestAltmanZ_GreyZoneScenario(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())

	res := calc.AltmanZ(AltmanInputs{
		WorkingCapital:   200,
		RetainedEarnings: 150,
		EBIT:             100,
		MarketCap:        800,
		TotalLiabilities: 400,
		Revenue:          900,
		TotalAssets:      1000,
	})

	require.NotNil(t, res.Score)
	assert.Equal(t, 2.88, *res.Score)
	assert.Equal(t, models.ZoneGrey, res.Zone)
	require.NotNil(t, res.Components)
	assert.Equal(t, models.AltmanComponents{X1: 0.2, X2: 0.15, X3: 0.1, X4: 2.0, X5: 0.9}, *res.Components)
}

func TestAltmanZ_NonPositiveAssets(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())

	for _, ta := range []float64{0, -10} {
		res := calc.AltmanZ(AltmanInputs{TotalAssets: ta, Revenue: 100})
		assert.Nil(t, res.Score)
		assert.Equal(t, models.ZoneUnknown, res.Zone)
	}
}

func TestAltmanZ_ZeroLiabilitiesDropsX4(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())

	res := calc.AltmanZ(AltmanInputs{TotalAssets: 100, MarketCap: 500, Revenue: 100})

	require.NotNil(t, res.Components)
	assert.Equal(t, 0.0, res.Components.X4)
	assert.Equal(t, 1.0, *res.Score)
	assert.Equal(t, models.ZoneDistress, res.Zone)
}

func TestZoneBoundaries(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())

	assert.Equal(t, models.ZoneDistress, calc.Zone(1.80999))
	assert.Equal(t, models.ZoneGrey, calc.Zone(1.81))
	assert.Equal(t, models.ZoneGrey, calc.Zone(2.98999))
	assert.Equal(t, models.ZoneSafe, calc.Zone(2.99))
}

func healthyStatements() (models.BalanceSheet, models.IncomeStatement, models.CashFlow) {
	bal := models.BalanceSheet{
		TotalAssets:            1000,
		TotalAssetsPrev:        1000,
		CurrentAssets:          500,
		CurrentAssetsPrev:      400,
		CurrentLiabilities:     200,
		CurrentLiabilitiesPrev: 200,
		TotalDebt:              100,
		StockholdersEquity:     600,
	}
	inc := models.IncomeStatement{
		Revenue:       1000,
		RevenuePrev:   1000,
		GrossProfit:   400,
		NetIncome:     120,
		NetIncomePrev: 80,
	}
	cf := models.CashFlow{OperatingCashFlow: 180}
	return bal, inc, cf
}

func TestPiotroskiF_AllTestsPass(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())
	bal, inc, cf := healthyStatements()

	res := calc.PiotroskiF(bal, inc, cf)

	require.NotNil(t, res.Score)
	assert.Equal(t, 9, *res.Score)
	assert.Equal(t, models.PiotroskiStrong, res.Rating)
	assert.Equal(t, 9, res.MaxScore)
}

func TestPiotroskiF_EmptyStatements(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())

	res := calc.PiotroskiF(models.BalanceSheet{}, models.IncomeStatement{}, models.CashFlow{})

	// Only the leverage proxy, no-dilution and the two ">=" comparisons pass.
	require.NotNil(t, res.Score)
	assert.Equal(t, 4, *res.Score)
	assert.Equal(t, models.PiotroskiWeak, res.Rating)
	assert.Equal(t, 1, res.Components.LeverageDecreasing)
	assert.Equal(t, 1, res.Components.NoDilution)
}

func TestPiotroskiF_HighLeverageFails(t *testing.T) {
	calc := NewCalculator(DefaultThresholds())
	bal, inc, cf := healthyStatements()
	bal.TotalDebt = 600

	res := calc.PiotroskiF(bal, inc, cf)

	assert.Equal(t, 0, res.Components.LeverageDecreasing)
	assert.Equal(t, 8, *res.Score)
}

func TestRatePiotroski(t *testing.T) {
	assert.Equal(t, models.PiotroskiStrong, RatePiotroski(8))
	assert.Equal(t, models.PiotroskiModerate, RatePiotroski(7))
	assert.Equal(t, models.PiotroskiModerate, RatePiotroski(5))
	assert.Equal(t, models.PiotroskiWeak, RatePiotroski(4))
}

func TestBeneishM_NeutralIndices(t *testing.T) {
	ratios := models.BeneishRatios{DSRI: 1, GMI: 1, AQI: 1, SGI: 1, DEPI: 1, SGAI: 1, TATA: 0, LVGI: 1}

	res := BeneishM(ratios)

	// -4.84 + 0.92 + 0.528 + 0.404 + 0.892 + 0.115 - 0.172 - 0.327 = -2.48
	assert.Equal(t, -2.48, res.Score)
	assert.Equal(t, models.BeneishNormal, res.Flag)
	assert.Equal(t, -1.78, res.Threshold)
}

func TestBeneishM_RedFlag(t *testing.T) {
	ratios := models.BeneishRatios{DSRI: 1.5, GMI: 1.2, AQI: 1, SGI: 1.6, DEPI: 1, SGAI: 1, TATA: 0.1, LVGI: 1}

	res := BeneishM(ratios)

	assert.Greater(t, res.Score, BeneishThreshold)
	assert.Equal(t, models.BeneishRedFlag, res.Flag)
}

func TestBeneishRatios_MissingDataDefaultsToOne(t *testing.T) {
	r := BeneishRatios(Period{}, Period{})

	assert.Equal(t, 1.0, r.SGI)
	assert.Equal(t, 1.0, r.LVGI)
	assert.Equal(t, 1.0, r.DSRI)
	assert.Equal(t, 1.0, r.TATA)
}

func TestBeneishRatios_TwoPeriods(t *testing.T) {
	cur := Period{
		Revenue: 1100, Receivables: 220, GrossProfit: 330, CurrentAssets: 400, PPE: 300,
		TotalAssets: 1000, Depreciation: 50, SGA: 110, NetIncome: 100, OperatingCashFlow: 80, TotalDebt: 300,
	}
	prev := Period{
		Revenue: 1000, Receivables: 100, GrossProfit: 400, CurrentAssets: 400, PPE: 300,
		TotalAssets: 1000, Depreciation: 50, SGA: 100, TotalDebt: 300,
	}

	r := BeneishRatios(cur, prev)

	assert.InDelta(t, 2.0, r.DSRI, 1e-9)
	assert.InDelta(t, (400.0/1000)/(330.0/1100), r.GMI, 1e-9)
	assert.InDelta(t, 1.1, r.SGI, 1e-9)
	assert.InDelta(t, 1.0, r.SGAI, 1e-9)
	assert.InDelta(t, 0.02, r.TATA, 1e-9)
	assert.InDelta(t, 1.0, r.LVGI, 1e-9)
	assert.False(t, math.IsNaN(r.AQI))
}
