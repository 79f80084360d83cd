package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/logging"
	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

const (
	providerYahoo = "yahoo"

	// DefaultYahooBaseURL is the public Yahoo Finance API host.
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

	snapshotModules = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile," +
		"incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory"
	peerModules  = "summaryDetail,defaultKeyStatistics"
	quoteModules = "price"
)

// YahooConfig configures the Yahoo Finance client.
type YahooConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	RetryDelay    time.Duration
	Peers         PeerTable
	MaxPeers      int
	HTTPClient    *http.Client
}

// DefaultYahooConfig returns conservative client defaults.
func DefaultYahooConfig() YahooConfig {
	return YahooConfig{
		BaseURL:       DefaultYahooBaseURL,
		Timeout:       10 * time.Second,
		RatePerSecond: 2,
		Burst:         2,
		MaxRetries:    3,
		RetryDelay:    2 * time.Second,
		Peers:         DefaultPeerTable(),
		MaxPeers:      5,
	}
}

// YahooProvider reads fundamentals from the Yahoo Finance quoteSummary API.
// Requests are rate limited, guarded by a circuit breaker, and retried with
// backoff only when Yahoo throttles.
type YahooProvider struct {
	cfg     YahooConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retry   utils.RetryConfig
	logger  zerolog.Logger
	now     func() time.Time
}

// NewYahooProvider creates a Yahoo client.
func NewYahooProvider(cfg YahooConfig, logger zerolog.Logger) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.Peers == nil {
		cfg.Peers = DefaultPeerTable()
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	settings := gobreaker.Settings{
		Name:     providerYahoo,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Unknown tickers are the caller's problem, not an upstream fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrTickerNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &YahooProvider{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		retry:   yahooRetry(cfg),
		logger: logger,
		now:    time.Now,
	}
}

// yahooRetry retries only throttled requests.
func yahooRetry(cfg YahooConfig) utils.RetryConfig {
	rc := utils.DefaultRetryConfig()
	rc.MaxAttempts = cfg.MaxRetries
	rc.InitialDelay = cfg.RetryDelay
	rc.Retryable = func(err error) bool {
		return errors.Is(err, apperrors.ErrRateLimited)
	}
	return rc
}

// BreakerState reports the circuit breaker state for health checks.
func (p *YahooProvider) BreakerState() string {
	return p.breaker.State().String()
}

// Snapshot fetches statements, market data and peers for ticker.
func (p *YahooProvider) Snapshot(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	res, err := p.fetch(ctx, ticker, snapshotModules)
	if err != nil {
		return nil, err
	}
	if res.Price == nil || res.Price.RegularMarketPrice.Raw == 0 {
		return nil, apperrors.NewDataError("snapshot", ticker, "no market price", apperrors.ErrTickerNotFound)
	}

	s := buildSnapshot(ticker, res)
	s.FetchedAt = p.now()
	s.Peers = p.cfg.Peers.Peers(s.Sector, ticker, p.cfg.MaxPeers)
	DeriveMetrics(s)
	return s, nil
}

// PeerQuote fetches the valuation multiples of a single peer.
func (p *YahooProvider) PeerQuote(ctx context.Context, ticker string) (models.PeerQuote, error) {
	res, err := p.fetch(ctx, ticker, peerModules)
	if err != nil {
		return models.PeerQuote{}, err
	}
	return models.PeerQuote{
		Ticker:    ticker,
		PE:        res.SummaryDetail.TrailingPE.Raw,
		EVEBITDA:  res.DefaultKeyStatistics.EnterpriseToEbitda.Raw,
		EVRevenue: res.DefaultKeyStatistics.EnterpriseToRevenue.Raw,
		PB:        res.DefaultKeyStatistics.PriceToBook.Raw,
	}, nil
}

// Quote fetches the latest price.
func (p *YahooProvider) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	res, err := p.fetch(ctx, ticker, quoteModules)
	if err != nil {
		return nil, err
	}
	if res.Price == nil || res.Price.RegularMarketPrice.Raw == 0 {
		return nil, apperrors.NewDataError("quote", ticker, "no market price", apperrors.ErrTickerNotFound)
	}

	pr := res.Price
	return &models.Quote{
		Ticker:        ticker,
		Name:          firstNonEmpty(pr.LongName, pr.ShortName, ticker),
		Price:         pr.RegularMarketPrice.Raw,
		Change:        pr.RegularMarketChange.Raw,
		ChangePercent: pr.RegularMarketChangePercent.Raw,
		Volume:        int64(pr.RegularMarketVolume.Raw),
		MarketCap:     pr.MarketCap.Raw,
		Currency:      pr.Currency,
	}, nil
}

func (p *YahooProvider) fetch(ctx context.Context, ticker, modules string) (*quoteSummaryResult, error) {
	return utils.RetryWithResult(ctx, p.retry, func() (*quoteSummaryResult, error) {
		out, err := p.breaker.Execute(func() (interface{}, error) {
			return p.do(ctx, ticker, modules)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, apperrors.NewProviderError(providerYahoo, http.StatusServiceUnavailable,
					"circuit open", apperrors.ErrConnectionFailed)
			}
			if errors.Is(err, apperrors.ErrRateLimited) {
				p.logger.Warn().Str("ticker", ticker).Msg("Yahoo rate limited request")
			}
			return nil, err
		}
		return out.(*quoteSummaryResult), nil
	})
}

func (p *YahooProvider) do(ctx context.Context, ticker, modules string) (*quoteSummaryResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		p.cfg.BaseURL, url.PathEscape(ticker), url.QueryEscape(modules))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; equity-valuator)")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		logging.LogAPICall(p.logger, req.Method, endpoint, 0, time.Since(start), err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewProviderError(providerYahoo, 0, "request timed out", apperrors.ErrTimeout)
		}
		return nil, apperrors.NewProviderError(providerYahoo, 0, err.Error(), apperrors.ErrConnectionFailed)
	}
	defer resp.Body.Close()

	logging.LogAPICall(p.logger, req.Method, endpoint, resp.StatusCode, time.Since(start), nil)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, "too many requests", apperrors.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, ticker, apperrors.ErrTickerNotFound)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, string(body), apperrors.ErrConnectionFailed)
	}

	var payload quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, "invalid response", err)
	}

	if e := payload.QuoteSummary.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, e.Description, apperrors.ErrTickerNotFound)
		}
		return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, e.Description, apperrors.ErrConnectionFailed)
	}
	// Yahoo answers a throttled request with an empty result set.
	if len(payload.QuoteSummary.Result) == 0 {
		return nil, apperrors.NewProviderError(providerYahoo, resp.StatusCode, "empty result",
			fmt.Errorf("%w: %w", apperrors.ErrRateLimited, apperrors.ErrUpstreamEmpty))
	}

	return &payload.QuoteSummary.Result[0], nil
}

func buildSnapshot(ticker string, r *quoteSummaryResult) *models.FinancialSnapshot {
	inc, incPrev := statement(r.IncomeHistory.Statements, 0), statement(r.IncomeHistory.Statements, 1)
	bal, balPrev := statement(r.BalanceHistory.Statements, 0), statement(r.BalanceHistory.Statements, 1)
	cf, cfPrev := statement(r.CashflowHistory.Statements, 0), statement(r.CashflowHistory.Statements, 1)
	fd := r.FinancialData
	ks := r.DefaultKeyStatistics
	sd := r.SummaryDetail
	pr := r.Price

	s := &models.FinancialSnapshot{
		Ticker:            ticker,
		CompanyName:       firstNonEmpty(pr.LongName, pr.ShortName, ticker),
		Sector:            firstNonEmpty(r.AssetProfile.Sector, "N/A"),
		Industry:          firstNonEmpty(r.AssetProfile.Industry, "N/A"),
		Currency:          firstNonEmpty(pr.Currency, "USD"),
		CurrentPrice:      firstNonZero(pr.RegularMarketPrice.Raw, fd.CurrentPrice.Raw),
		SharesOutstanding: ks.SharesOutstanding.Raw,
		MarketCap:         firstNonZero(pr.MarketCap.Raw, sd.MarketCap.Raw),
		EnterpriseValue:   ks.EnterpriseValue.Raw,
		Beta:              firstNonZero(sd.Beta.Raw, ks.Beta.Raw, 1.0),
	}

	s.Income = models.IncomeStatement{
		Revenue:         inc.TotalRevenue.Raw,
		RevenuePrev:     incPrev.TotalRevenue.Raw,
		GrossProfit:     inc.GrossProfit.Raw,
		GrossProfitPrev: incPrev.GrossProfit.Raw,
		OperatingIncome: inc.OperatingIncome.Raw,
		EBIT:            inc.Ebit.Raw,
		EBITDA:          fd.Ebitda.Raw,
		NetIncome:       inc.NetIncome.Raw,
		NetIncomePrev:   incPrev.NetIncome.Raw,
		InterestExpense: inc.InterestExpense.Raw,
		TaxExpense:      inc.IncomeTaxExpense.Raw,
		Depreciation:    cf.Depreciation.Raw,
		SGA:             inc.SellingGeneralAdministrative.Raw,
		SGAPrev:         incPrev.SellingGeneralAdministrative.Raw,
	}

	debt := bal.LongTermDebt.Raw + bal.ShortLongTermDebt.Raw
	s.Balance = models.BalanceSheet{
		TotalAssets:            bal.TotalAssets.Raw,
		TotalAssetsPrev:        balPrev.TotalAssets.Raw,
		CurrentAssets:          bal.TotalCurrentAssets.Raw,
		CurrentAssetsPrev:      balPrev.TotalCurrentAssets.Raw,
		TotalLiabilities:       bal.TotalLiab.Raw,
		CurrentLiabilities:     bal.TotalCurrentLiabilities.Raw,
		CurrentLiabilitiesPrev: balPrev.TotalCurrentLiabilities.Raw,
		TotalDebt:              firstNonZero(fd.TotalDebt.Raw, debt),
		TotalDebtPrev:          balPrev.LongTermDebt.Raw + balPrev.ShortLongTermDebt.Raw,
		LongTermDebt:           bal.LongTermDebt.Raw,
		StockholdersEquity:     bal.TotalStockholderEquity.Raw,
		StockholdersEquityPrev: balPrev.TotalStockholderEquity.Raw,
		RetainedEarnings:       bal.RetainedEarnings.Raw,
		RetainedEarningsPrev:   balPrev.RetainedEarnings.Raw,
		WorkingCapital:         bal.TotalCurrentAssets.Raw - bal.TotalCurrentLiabilities.Raw,
		WorkingCapitalPrev:     balPrev.TotalCurrentAssets.Raw - balPrev.TotalCurrentLiabilities.Raw,
		Cash:                   firstNonZero(fd.TotalCash.Raw, bal.Cash.Raw),
		Inventory:              bal.Inventory.Raw,
		InventoryPrev:          balPrev.Inventory.Raw,
		Receivables:            bal.NetReceivables.Raw,
		ReceivablesPrev:        balPrev.NetReceivables.Raw,
		Payables:               bal.AccountsPayable.Raw,
		PPE:                    bal.PropertyPlantEquipment.Raw,
		PPEPrev:                balPrev.PropertyPlantEquipment.Raw,
	}

	ocf := cf.TotalCashFromOperatingActivities.Raw
	capex := math.Abs(cf.CapitalExpenditures.Raw)
	fcf := fd.FreeCashflow.Raw
	if ocf != 0 {
		fcf = ocf - capex
	}
	s.CashFlow = models.CashFlow{
		OperatingCashFlow:      firstNonZero(ocf, fd.OperatingCashflow.Raw),
		OperatingCashFlowPrev:  cfPrev.TotalCashFromOperatingActivities.Raw,
		CapitalExpenditure:     capex,
		FreeCashFlow:           fcf,
		Depreciation:           cf.Depreciation.Raw,
		DepreciationPrev:       cfPrev.Depreciation.Raw,
		ChangeInWorkingCapital: cf.ChangeToOperatingActivities.Raw,
	}

	m := models.Metrics{}
	m.Set(models.MetricPERatio, firstNonZero(sd.TrailingPE.Raw, sd.ForwardPE.Raw, ks.ForwardPE.Raw))
	m.Set(models.MetricForwardPE, firstNonZero(sd.ForwardPE.Raw, ks.ForwardPE.Raw))
	m.Set(models.MetricPBRatio, ks.PriceToBook.Raw)
	m.Set(models.MetricPSRatio, sd.PriceToSalesTrailing12Months.Raw)
	m.Set(models.MetricEVEBITDA, ks.EnterpriseToEbitda.Raw)
	m.Set(models.MetricEVRevenue, ks.EnterpriseToRevenue.Raw)
	m.Set(models.MetricProfitMargin, fd.ProfitMargins.Raw)
	m.Set(models.MetricOperatingMargin, fd.OperatingMargins.Raw)
	m.Set(models.MetricROE, fd.ReturnOnEquity.Raw)
	m.Set(models.MetricROA, fd.ReturnOnAssets.Raw)
	m.Set(models.MetricDebtEquity, fd.DebtToEquity.Raw)
	m.Set(models.MetricCurrentRatio, fd.CurrentRatio.Raw)
	m.Set(models.MetricDividendYield, sd.DividendYield.Raw)
	m.Set(models.MetricPayoutRatio, sd.PayoutRatio.Raw)
	m.Set(models.MetricRevenueGrowth, fd.RevenueGrowth.Raw)
	m.Set(models.MetricEarningsGrowth, fd.EarningsGrowth.Raw)
	m.Set(models.MetricEnterpriseValue, ks.EnterpriseValue.Raw)
	s.Metrics = m

	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
