package riskscore

import (
	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// BeneishThreshold is the M-Score above which earnings manipulation is likely.
const BeneishThreshold = -1.78

// BeneishM combines the eight indices into the M-Score.
func BeneishM(r models.BeneishRatios) models.BeneishResult {
	m := -4.84 +
		0.92*r.DSRI +
		0.528*r.GMI +
		0.404*r.AQI +
		0.892*r.SGI +
		0.115*r.DEPI -
		0.172*r.SGAI +
		4.679*r.TATA -
		0.327*r.LVGI

	res := models.BeneishResult{
		Score:          utils.Round(m, 2),
		Flag:           models.BeneishNormal,
		Threshold:      BeneishThreshold,
		Interpretation: "No obvious signs of earnings manipulation",
		Ratios:         &r,
	}
	if m > BeneishThreshold {
		res.Flag = models.BeneishRedFlag
		res.Interpretation = "Possible earnings manipulation"
	}
	return res
}

// Period is one fiscal year of the figures the Beneish indices need.
// Zero means not reported.
type Period struct {
	Revenue           float64
	Receivables       float64
	GrossProfit       float64
	CurrentAssets     float64
	PPE               float64
	TotalAssets       float64
	Depreciation      float64
	SGA               float64
	NetIncome         float64
	OperatingCashFlow float64
	TotalDebt         float64
}

// safeDiv returns a/b, or 1 when b is zero so that an index reads as
// "no change".
func safeDiv(a, b float64) float64 {
	return utils.DivOr(a, b, 1)
}

// BeneishRatios derives the eight indices from two fiscal periods.
func BeneishRatios(cur, prev Period) models.BeneishRatios {
	dsri := safeDiv(
		safeDiv(cur.Receivables, cur.Revenue),
		safeDiv(prev.Receivables, prev.Revenue),
	)

	gmi := safeDiv(
		safeDiv(prev.GrossProfit, prev.Revenue),
		safeDiv(cur.GrossProfit, cur.Revenue),
	)

	curAQ := 1 - safeDiv(cur.CurrentAssets+cur.PPE, cur.TotalAssets)
	prevAQ := 1 - safeDiv(prev.CurrentAssets+prev.PPE, prev.TotalAssets)
	aqi := safeDiv(curAQ, prevAQ)

	sgi := safeDiv(cur.Revenue, prev.Revenue)

	depi := safeDiv(
		safeDiv(prev.Depreciation, prev.Depreciation+prev.PPE),
		safeDiv(cur.Depreciation, cur.Depreciation+cur.PPE),
	)

	sgai := safeDiv(
		safeDiv(cur.SGA, cur.Revenue),
		safeDiv(prev.SGA, prev.Revenue),
	)

	tata := safeDiv(cur.NetIncome-cur.OperatingCashFlow, cur.TotalAssets)

	lvgi := safeDiv(
		safeDiv(cur.TotalDebt, cur.TotalAssets),
		safeDiv(prev.TotalDebt, prev.TotalAssets),
	)

	return models.BeneishRatios{
		DSRI: dsri,
		GMI:  gmi,
		AQI:  aqi,
		SGI:  sgi,
		DEPI: depi,
		SGAI: sgai,
		TATA: tata,
		LVGI: lvgi,
	}
}

// PeriodsFromSnapshot splits a snapshot into current and prior periods.
func PeriodsFromSnapshot(s *models.FinancialSnapshot) (cur, prev Period) {
	dep := s.CashFlow.Depreciation
	if dep == 0 {
		dep = s.Income.Depreciation
	}
	cur = Period{
		Revenue:           s.Income.Revenue,
		Receivables:       s.Balance.Receivables,
		GrossProfit:       s.Income.GrossProfit,
		CurrentAssets:     s.Balance.CurrentAssets,
		PPE:               s.Balance.PPE,
		TotalAssets:       s.Balance.TotalAssets,
		Depreciation:      dep,
		SGA:               s.Income.SGA,
		NetIncome:         s.Income.NetIncome,
		OperatingCashFlow: s.CashFlow.OperatingCashFlow,
		TotalDebt:         s.Balance.TotalDebt,
	}
	prev = Period{
		Revenue:           s.Income.RevenuePrev,
		Receivables:       s.Balance.ReceivablesPrev,
		GrossProfit:       s.Income.GrossProfitPrev,
		CurrentAssets:     s.Balance.CurrentAssetsPrev,
		PPE:               s.Balance.PPEPrev,
		TotalAssets:       s.Balance.TotalAssetsPrev,
		Depreciation:      s.CashFlow.DepreciationPrev,
		SGA:               s.Income.SGAPrev,
		NetIncome:         s.Income.NetIncomePrev,
		OperatingCashFlow: s.CashFlow.OperatingCashFlowPrev,
		TotalDebt:         s.Balance.TotalDebtPrev,
	}
	return cur, prev
}
