package marketdata

// Yahoo quoteSummary payloads. Numeric fields arrive as {"raw": n, "fmt": s}
// objects, or {} when Yahoo has no value.

type yahooValue struct {
	Raw float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *yahooError          `json:"error"`
	} `json:"quoteSummary"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResult struct {
	Price                *priceModule         `json:"price"`
	SummaryDetail        summaryDetailModule  `json:"summaryDetail"`
	DefaultKeyStatistics keyStatisticsModule  `json:"defaultKeyStatistics"`
	FinancialData        financialDataModule  `json:"financialData"`
	AssetProfile         assetProfileModule   `json:"assetProfile"`
	IncomeHistory        incomeHistoryModule  `json:"incomeStatementHistory"`
	BalanceHistory       balanceHistoryModule `json:"balanceSheetHistory"`
	CashflowHistory      cashflowModule       `json:"cashflowStatementHistory"`
}

type priceModule struct {
	Symbol                     string     `json:"symbol"`
	LongName                   string     `json:"longName"`
	ShortName                  string     `json:"shortName"`
	Currency                   string     `json:"currency"`
	RegularMarketPrice         yahooValue `json:"regularMarketPrice"`
	RegularMarketChange        yahooValue `json:"regularMarketChange"`
	RegularMarketChangePercent yahooValue `json:"regularMarketChangePercent"`
	RegularMarketVolume        yahooValue `json:"regularMarketVolume"`
	MarketCap                  yahooValue `json:"marketCap"`
}

type summaryDetailModule struct {
	TrailingPE                   yahooValue `json:"trailingPE"`
	ForwardPE                    yahooValue `json:"forwardPE"`
	PriceToSalesTrailing12Months yahooValue `json:"priceToSalesTrailing12Months"`
	DividendYield                yahooValue `json:"dividendYield"`
	PayoutRatio                  yahooValue `json:"payoutRatio"`
	Beta                         yahooValue `json:"beta"`
	MarketCap                    yahooValue `json:"marketCap"`
}

type keyStatisticsModule struct {
	EnterpriseValue     yahooValue `json:"enterpriseValue"`
	PriceToBook         yahooValue `json:"priceToBook"`
	EnterpriseToRevenue yahooValue `json:"enterpriseToRevenue"`
	EnterpriseToEbitda  yahooValue `json:"enterpriseToEbitda"`
	SharesOutstanding   yahooValue `json:"sharesOutstanding"`
	Beta                yahooValue `json:"beta"`
	ForwardPE           yahooValue `json:"forwardPE"`
}

type financialDataModule struct {
	CurrentPrice      yahooValue `json:"currentPrice"`
	TotalCash         yahooValue `json:"totalCash"`
	TotalDebt         yahooValue `json:"totalDebt"`
	Ebitda            yahooValue `json:"ebitda"`
	FreeCashflow      yahooValue `json:"freeCashflow"`
	OperatingCashflow yahooValue `json:"operatingCashflow"`
	RevenueGrowth     yahooValue `json:"revenueGrowth"`
	EarningsGrowth    yahooValue `json:"earningsGrowth"`
	ReturnOnEquity    yahooValue `json:"returnOnEquity"`
	ReturnOnAssets    yahooValue `json:"returnOnAssets"`
	DebtToEquity      yahooValue `json:"debtToEquity"`
	CurrentRatio      yahooValue `json:"currentRatio"`
	ProfitMargins     yahooValue `json:"profitMargins"`
	OperatingMargins  yahooValue `json:"operatingMargins"`
}

type assetProfileModule struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

type incomeHistoryModule struct {
	Statements []incomeRow `json:"incomeStatementHistory"`
}

type incomeRow struct {
	TotalRevenue                 yahooValue `json:"totalRevenue"`
	GrossProfit                  yahooValue `json:"grossProfit"`
	OperatingIncome              yahooValue `json:"operatingIncome"`
	Ebit                         yahooValue `json:"ebit"`
	NetIncome                    yahooValue `json:"netIncome"`
	InterestExpense              yahooValue `json:"interestExpense"`
	IncomeTaxExpense             yahooValue `json:"incomeTaxExpense"`
	SellingGeneralAdministrative yahooValue `json:"sellingGeneralAdministrative"`
}

type balanceHistoryModule struct {
	Statements []balanceRow `json:"balanceSheetStatements"`
}

type balanceRow struct {
	TotalAssets             yahooValue `json:"totalAssets"`
	TotalCurrentAssets      yahooValue `json:"totalCurrentAssets"`
	TotalLiab               yahooValue `json:"totalLiab"`
	TotalCurrentLiabilities yahooValue `json:"totalCurrentLiabilities"`
	LongTermDebt            yahooValue `json:"longTermDebt"`
	ShortLongTermDebt       yahooValue `json:"shortLongTermDebt"`
	TotalStockholderEquity  yahooValue `json:"totalStockholderEquity"`
	RetainedEarnings        yahooValue `json:"retainedEarnings"`
	Cash                    yahooValue `json:"cash"`
	Inventory               yahooValue `json:"inventory"`
	NetReceivables          yahooValue `json:"netReceivables"`
	AccountsPayable         yahooValue `json:"accountsPayable"`
	PropertyPlantEquipment  yahooValue `json:"propertyPlantEquipment"`
}

type cashflowModule struct {
	Statements []cashflowRow `json:"cashflowStatements"`
}

type cashflowRow struct {
	TotalCashFromOperatingActivities yahooValue `json:"totalCashFromOperatingActivities"`
	CapitalExpenditures              yahooValue `json:"capitalExpenditures"`
	Depreciation                     yahooValue `json:"depreciation"`
	ChangeToOperatingActivities      yahooValue `json:"changeToOperatingActivities"`
}

// statement returns row i, falling back to the latest row, or the zero row.
func statement[T any](rows []T, i int) T {
	var zero T
	if len(rows) == 0 {
		return zero
	}
	if i < len(rows) {
		return rows[i]
	}
	return rows[0]
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
