package riskscore

import (
	"fmt"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// PiotroskiF runs the nine binary quality tests.
//
// Two tests are proxies: leverage passes when debt/equity is below 0.5, and
// no-dilution always passes because share count history is not tracked.
// The prior gross margin is current gross profit over prior revenue.
func (c *Calculator) PiotroskiF(bal models.BalanceSheet, inc models.IncomeStatement, cf models.CashFlow) (res models.PiotroskiResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.PiotroskiResult{Rating: models.PiotroskiError, MaxScore: 9, Error: fmt.Sprint(r)}
		}
	}()

	totalAssets := bal.TotalAssets
	totalAssetsPrev := bal.TotalAssetsPrev
	if totalAssetsPrev == 0 {
		totalAssetsPrev = totalAssets
	}
	revenue := inc.Revenue
	revenuePrev := inc.RevenuePrev
	if revenuePrev == 0 {
		revenuePrev = revenue
	}
	cfo := cf.OperatingCashFlow

	roa := utils.Div(inc.NetIncome, totalAssets)
	roaPrev := utils.Div(inc.NetIncomePrev, totalAssetsPrev)
	debtEquity := utils.Div(bal.TotalDebt, bal.StockholdersEquity)
	currentRatio := utils.Div(bal.CurrentAssets, bal.CurrentLiabilities)
	currentRatioPrev := utils.Div(bal.CurrentAssetsPrev, bal.CurrentLiabilitiesPrev)
	grossMargin := utils.Div(inc.GrossProfit, revenue)
	grossMarginPrev := utils.Div(inc.GrossProfit, revenuePrev)
	turnover := utils.Div(revenue, totalAssets)
	turnoverPrev := utils.Div(revenuePrev, totalAssetsPrev)

	comp := models.PiotroskiComponents{
		ROAPositive:        flag(roa > 0),
		CFOPositive:        flag(cfo > 0),
		ROAIncreasing:      flag(roa > roaPrev),
		Accruals:           flag(cfo > inc.NetIncome),
		LeverageDecreasing: flag(debtEquity < 0.5),
		LiquidityImproving: flag(currentRatio > currentRatioPrev),
		NoDilution:         1,
		MarginImproving:    flag(grossMargin >= grossMarginPrev),
		TurnoverImproving:  flag(turnover >= turnoverPrev),
	}

	score := comp.Sum()
	rating := RatePiotroski(score)

	return models.PiotroskiResult{
		Score:       &score,
		MaxScore:    9,
		Rating:      rating,
		Description: piotroskiDescription(rating),
		Components:  &comp,
	}
}

// RatePiotroski maps an F-Score to its rating.
func RatePiotroski(score int) models.PiotroskiRating {
	switch {
	case score >= 8:
		return models.PiotroskiStrong
	case score >= 5:
		return models.PiotroskiModerate
	default:
		return models.PiotroskiWeak
	}
}

func piotroskiDescription(r models.PiotroskiRating) string {
	switch r {
	case models.PiotroskiStrong:
		return "Strong fundamentals"
	case models.PiotroskiModerate:
		return "Average fundamentals"
	default:
		return "Weak fundamentals"
	}
}

func flag(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
