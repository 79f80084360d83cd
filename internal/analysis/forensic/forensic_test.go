package forensic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-valuator/internal/models"
)

func flagCodes(flags []models.RiskFlag) []string {
	codes := make([]string, 0, len(flags))
	for _, f := range flags {
		codes = append(codes, f.Code)
	}
	return codes
}

func greySnapshot() *models.FinancialSnapshot {
	return &models.FinancialSnapshot{
		Ticker:    "GREY",
		MarketCap: 800,
		Income: models.IncomeStatement{
			Revenue:       900,
			RevenuePrev:   900,
			EBIT:          100,
			GrossProfit:   300,
			NetIncome:     60,
			NetIncomePrev: 50,
		},
		Balance: models.BalanceSheet{
			TotalAssets:            1000,
			TotalAssetsPrev:        1000,
			WorkingCapital:         200,
			RetainedEarnings:       150,
			TotalLiabilities:       400,
			CurrentAssets:          300,
			CurrentAssetsPrev:      250,
			CurrentLiabilities:     150,
			CurrentLiabilitiesPrev: 150,
			TotalDebt:              100,
			StockholdersEquity:     600,
		},
		CashFlow: models.CashFlow{OperatingCashFlow: 90},
		Metrics:  models.Metrics{},
	}
}

func TestAssess_GreyZoneIsModerate(t *testing.T) {
	engine := NewEngine(DefaultParams())

	res := engine.Assess(greySnapshot())

	assert.Equal(t, models.ZoneGrey, res.Altman.Zone)
	require.NotNil(t, res.Piotroski.Score)
	assert.Equal(t, 9, *res.Piotroski.Score)
	assert.Equal(t, []string{models.FlagFinancialStress}, flagCodes(res.RiskFlags))
	assert.Equal(t, models.RiskModerate, res.Overall.Level)
	assert.Equal(t, 0.005, res.Overall.WACCAdjustment)
	assert.Equal(t, 1, res.Overall.WarningCount)
	require.NotNil(t, res.Beneish)
}

func TestAssess_FlagOrderAndElevatedLevel(t *testing.T) {
	engine := NewEngine(DefaultParams())
	s := greySnapshot()
	s.Metrics = models.Metrics{models.MetricDebtEquity: 250, models.MetricROE: -0.05}

	res := engine.Assess(s)

	assert.Equal(t,
		[]string{models.FlagFinancialStress, models.FlagHighLeverage, models.FlagNegativeROE},
		flagCodes(res.RiskFlags))
	assert.Equal(t, models.RiskElevated, res.Overall.Level)
	assert.Equal(t, 0.015, res.Overall.WACCAdjustment)
}

func TestAssess_DistressIsHigh(t *testing.T) {
	engine := NewEngine(DefaultParams())
	s := greySnapshot()
	s.Balance.WorkingCapital = -300
	s.Balance.RetainedEarnings = -400
	s.MarketCap = 50

	res := engine.Assess(s)

	assert.Equal(t, models.ZoneDistress, res.Altman.Zone)
	require.NotEmpty(t, res.RiskFlags)
	assert.Equal(t, models.SeverityCritical, res.RiskFlags[0].Severity)
	assert.Equal(t, models.FlagBankruptcyRisk, res.RiskFlags[0].Code)
	assert.Equal(t, models.RiskHigh, res.Overall.Level)
	assert.Equal(t, 0.03, res.Overall.WACCAdjustment)
}

func TestAssess_NoAssetsIsUnknownWithoutZoneFlag(t *testing.T) {
	engine := NewEngine(DefaultParams())

	res := engine.Assess(&models.FinancialSnapshot{Ticker: "EMPTY"})

	assert.Equal(t, models.ZoneUnknown, res.Altman.Zone)
	assert.Nil(t, res.Altman.Score)
	assert.Nil(t, res.Beneish)
	// Empty statements score 4, which is not below the weak threshold.
	assert.Empty(t, res.RiskFlags)
	assert.Equal(t, models.RiskLow, res.Overall.Level)
	assert.Equal(t, 0.0, res.Overall.WACCAdjustment)
}

func TestFlags_WeakFundamentals(t *testing.T) {
	engine := NewEngine(DefaultParams())
	score := 3

	flags := engine.Flags(
		models.AltmanResult{Zone: models.ZoneSafe},
		models.PiotroskiResult{Score: &score},
		nil,
	)

	assert.Equal(t, []string{models.FlagWeakFundamentals}, flagCodes(flags))
}

func TestFlags_ErrorPiotroskiRaisesNothing(t *testing.T) {
	engine := NewEngine(DefaultParams())

	flags := engine.Flags(
		models.AltmanResult{Zone: models.ZoneError},
		models.PiotroskiResult{Rating: models.PiotroskiError},
		models.Metrics{models.MetricDebtEquity: 200},
	)

	assert.Empty(t, flags)
}

func TestOverall_CustomDistressPremium(t *testing.T) {
	params := DefaultParams()
	params.DistressPremium = 0.05
	engine := NewEngine(params)

	out := engine.Overall([]models.RiskFlag{
		{Severity: models.SeverityCritical, Code: models.FlagBankruptcyRisk},
		{Severity: models.SeverityWarning, Code: models.FlagNegativeROE},
	})

	assert.Equal(t, models.RiskHigh, out.Level)
	assert.Equal(t, 0.05, out.WACCAdjustment)
	assert.Equal(t, 1, out.CriticalCount)
	assert.Equal(t, 1, out.WarningCount)
}
