// Package models defines the financial snapshot and valuation result types
// shared by the data layer, the engines and the report.
package models

import "time"

// IncomeStatement holds the latest two fiscal years of income statement lines.
// A zero value means the line was not reported.
type IncomeStatement struct {
	Revenue         float64 `json:"revenue"`
	RevenuePrev     float64 `json:"revenue_prev"`
	GrossProfit     float64 `json:"gross_profit"`
	GrossProfitPrev float64 `json:"gross_profit_prev,omitempty"`
	OperatingIncome float64 `json:"operating_income"`
	EBIT            float64 `json:"ebit"`
	EBITDA          float64 `json:"ebitda"`
	NetIncome       float64 `json:"net_income"`
	NetIncomePrev   float64 `json:"net_income_prev"`
	InterestExpense float64 `json:"interest_expense"`
	TaxExpense      float64 `json:"tax_expense"`
	Depreciation    float64 `json:"depreciation"`
	SGA             float64 `json:"sga,omitempty"`
	SGAPrev         float64 `json:"sga_prev,omitempty"`
}

// OperatingProfit returns EBIT, falling back to operating income.
func (s IncomeStatement) OperatingProfit() float64 {
	if s.EBIT != 0 {
		return s.EBIT
	}
	return s.OperatingIncome
}

// BalanceSheet holds the latest two fiscal years of balance sheet lines.
type BalanceSheet struct {
	TotalAssets            float64 `json:"total_assets"`
	TotalAssetsPrev        float64 `json:"total_assets_prev"`
	CurrentAssets          float64 `json:"current_assets"`
	CurrentAssetsPrev      float64 `json:"current_assets_prev"`
	TotalLiabilities       float64 `json:"total_liabilities"`
	CurrentLiabilities     float64 `json:"current_liabilities"`
	CurrentLiabilitiesPrev float64 `json:"current_liabilities_prev"`
	TotalDebt              float64 `json:"total_debt"`
	TotalDebtPrev          float64 `json:"total_debt_prev,omitempty"`
	LongTermDebt           float64 `json:"long_term_debt"`
	StockholdersEquity     float64 `json:"stockholders_equity"`
	StockholdersEquityPrev float64 `json:"stockholders_equity_prev"`
	RetainedEarnings       float64 `json:"retained_earnings"`
	RetainedEarningsPrev   float64 `json:"retained_earnings_prev"`
	WorkingCapital         float64 `json:"working_capital"`
	WorkingCapitalPrev     float64 `json:"working_capital_prev"`
	Cash                   float64 `json:"cash"`
	Inventory              float64 `json:"inventory"`
	InventoryPrev          float64 `json:"inventory_prev"`
	Receivables            float64 `json:"receivables"`
	ReceivablesPrev        float64 `json:"receivables_prev"`
	Payables               float64 `json:"payables"`
	PPE                    float64 `json:"ppe,omitempty"`
	PPEPrev                float64 `json:"ppe_prev,omitempty"`
}

// CashFlow holds cash flow statement lines. CapitalExpenditure is stored as
// an absolute value.
type CashFlow struct {
	OperatingCashFlow      float64 `json:"operating_cash_flow"`
	OperatingCashFlowPrev  float64 `json:"operating_cash_flow_prev,omitempty"`
	CapitalExpenditure     float64 `json:"capital_expenditure"`
	FreeCashFlow           float64 `json:"free_cash_flow"`
	Depreciation           float64 `json:"depreciation"`
	DepreciationPrev       float64 `json:"depreciation_prev,omitempty"`
	ChangeInWorkingCapital float64 `json:"change_in_working_capital"`
}

// FinancialSnapshot is everything one analysis run needs about a company.
// It is treated as immutable once handed to the valuation engines.
type FinancialSnapshot struct {
	Ticker            string          `json:"ticker"`
	CompanyName       string          `json:"company_name"`
	Sector            string          `json:"sector"`
	Industry          string          `json:"industry"`
	Currency          string          `json:"currency"`
	CurrentPrice      float64         `json:"current_price"`
	SharesOutstanding float64         `json:"shares_outstanding"`
	MarketCap         float64         `json:"market_cap"`
	EnterpriseValue   float64         `json:"enterprise_value"`
	Beta              float64         `json:"beta"`
	Income            IncomeStatement `json:"income_statement"`
	Balance           BalanceSheet    `json:"balance_sheet"`
	CashFlow          CashFlow        `json:"cash_flow"`
	Metrics           Metrics         `json:"metrics"`
	Peers             []string        `json:"peers"`
	FetchedAt         time.Time       `json:"fetched_at"`
}

// HasPriorPeriod reports whether prior-year revenue and assets are known.
func (s *FinancialSnapshot) HasPriorPeriod() bool {
	return s.Income.RevenuePrev != 0 && s.Balance.TotalAssetsPrev != 0
}

// Quote is a lightweight price quote.
type Quote struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"market_cap"`
	Currency      string  `json:"currency,omitempty"`
}

// PeerQuote holds the trading multiples of a single peer company.
// Zero means the multiple is not available.
type PeerQuote struct {
	Ticker    string  `json:"ticker"`
	PE        float64 `json:"pe"`
	EVEBITDA  float64 `json:"ev_ebitda"`
	EVRevenue float64 `json:"ev_revenue"`
	PB        float64 `json:"pb"`
}
