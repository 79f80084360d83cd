// Package report turns a valuation into the presentation document served by
// the API and printed by the CLI.
package report

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// Disclaimer is attached to every report.
const Disclaimer = "This report is for informational purposes only and does not constitute " +
	"investment advice. Investing involves risk."

const methodologyNote = "Fair value blends DCF intrinsic value with peer-multiple implied prices."

// Report is the full valuation document. Percent fields hold percentages
// (12.5 means 12.5%) rounded to two decimals.
type Report struct {
	ID             string                `json:"id"`
	BasicInfo      BasicInfo             `json:"basic_info"`
	KeyMetrics     KeyMetrics            `json:"key_metrics"`
	Valuation      ValuationSummary      `json:"valuation"`
	Risk           RiskSummary           `json:"risk_assessment"`
	Recommendation models.Recommendation `json:"recommendation"`
	Summary        string                `json:"analysis_summary"`
	SummaryHTML    string                `json:"analysis_summary_html,omitempty"`
	FootballField  FootballField         `json:"football_field"`
	Methodology    Methodology           `json:"methodology"`
	Disclaimer     string                `json:"disclaimer"`
	DurationMs     int64                 `json:"duration_ms"`
}

type BasicInfo struct {
	Ticker       string    `json:"ticker"`
	CompanyName  string    `json:"company_name"`
	Sector       string    `json:"sector"`
	Industry     string    `json:"industry"`
	Currency     string    `json:"currency"`
	CurrentPrice float64   `json:"current_price"`
	MarketCap    float64   `json:"market_cap"`
	AnalysisDate time.Time `json:"analysis_date"`
}

type KeyMetrics struct {
	ValuationRatios ValuationRatios `json:"valuation_ratios"`
	Profitability   Profitability   `json:"profitability"`
	FinancialHealth FinancialHealth `json:"financial_health"`
	Growth          Growth          `json:"growth"`
	Yield           Yield           `json:"yield"`
}

type ValuationRatios struct {
	PE        *float64 `json:"pe_ratio"`
	ForwardPE *float64 `json:"forward_pe"`
	PB        *float64 `json:"pb_ratio"`
	PS        *float64 `json:"ps_ratio"`
	EVEBITDA  *float64 `json:"ev_ebitda"`
	EVRevenue *float64 `json:"ev_revenue"`
}

type Profitability struct {
	ProfitMargin    *float64 `json:"profit_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	EBITDAMargin    *float64 `json:"ebitda_margin"`
	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`
}

type FinancialHealth struct {
	DebtEquity   *float64 `json:"debt_equity"`
	CurrentRatio *float64 `json:"current_ratio"`
}

type Growth struct {
	RevenueGrowth  *float64 `json:"revenue_growth"`
	EarningsGrowth *float64 `json:"earnings_growth"`
}

type Yield struct {
	DividendYield *float64 `json:"dividend_yield"`
	FCFYield      *float64 `json:"fcf_yield"`
}

type ValuationSummary struct {
	DCF            DCFSummary            `json:"dcf_valuation"`
	Relative       RelativeSummary       `json:"relative_valuation"`
	FairValueRange models.FairValueRange `json:"fair_value_range"`
	WACCUsed       *float64              `json:"wacc_used"`
}

type DCFSummary struct {
	IntrinsicValue *float64 `json:"intrinsic_value"`
	WACC           *float64 `json:"wacc"`
	TerminalGrowth *float64 `json:"terminal_growth"`
	FCFGrowth      *float64 `json:"fcf_growth_assumed"`
	Error          string   `json:"error,omitempty"`
}

type RelativeSummary struct {
	PEImplied          *float64          `json:"pe_implied"`
	EVEBITDAImplied    *float64          `json:"ev_ebitda_implied"`
	EVRevenueImplied   *float64          `json:"ev_revenue_implied"`
	PBImplied          *float64          `json:"pb_implied"`
	PeerMedianPE       float64           `json:"peer_median_pe"`
	PeerMedianEVEBITDA float64           `json:"peer_median_ev_ebitda"`
	PeerCount          int               `json:"peer_count"`
	Source             models.PeerSource `json:"source"`
	Error              string            `json:"error,omitempty"`
}

type RiskSummary struct {
	Altman         AltmanSummary         `json:"altman_z_score"`
	Piotroski      PiotroskiSummary      `json:"piotroski_f_score"`
	Beneish        *models.BeneishResult `json:"beneish_m_score,omitempty"`
	Overall        OverallSummary        `json:"overall_risk"`
	Flags          []models.RiskFlag     `json:"risk_flags"`
	WACCAdjustment *float64              `json:"wacc_adjustment"`
}

type AltmanSummary struct {
	Score          *float64          `json:"score"`
	Zone           models.AltmanZone `json:"zone"`
	Interpretation string            `json:"interpretation"`
}

type PiotroskiSummary struct {
	Score          *int                   `json:"score"`
	MaxScore       int                    `json:"max_score"`
	Rating         models.PiotroskiRating `json:"rating"`
	Interpretation string                 `json:"interpretation"`
}

type OverallSummary struct {
	Level       models.RiskLevel `json:"level"`
	Description string           `json:"description"`
}

type Methodology struct {
	DCFWeight      float64 `json:"dcf_weight"`
	RelativeWeight float64 `json:"relative_weight"`
	Note           string  `json:"note"`
}

// Builder assembles reports. The narrator writes the summary; when it fails
// the deterministic template is used instead.
type Builder struct {
	narrator Narrator
	html     bool
	logger   zerolog.Logger
	now      func() time.Time
}

// NewBuilder creates a report builder. A nil narrator means the template.
func NewBuilder(narrator Narrator, renderHTML bool, logger zerolog.Logger) *Builder {
	if narrator == nil {
		narrator = TemplateNarrator{}
	}
	return &Builder{narrator: narrator, html: renderHTML, logger: logger, now: time.Now}
}

// Build assembles the report for snapshot s and its valuation v.
func (b *Builder) Build(ctx context.Context, s *models.FinancialSnapshot, v *models.Valuation) *Report {
	r := &Report{
		ID:             v.ID,
		BasicInfo:      basicInfo(s, b.now()),
		KeyMetrics:     keyMetrics(s.Metrics),
		Valuation:      valuationSummary(v),
		Risk:           riskSummary(v.Risk),
		Recommendation: v.Recommendation,
		FootballField:  BuildFootballField(v, s.CurrentPrice),
		Methodology: Methodology{
			DCFWeight:      v.MethodologyWeights["dcf"],
			RelativeWeight: v.MethodologyWeights["relative"],
			Note:           methodologyNote,
		},
		Disclaimer: Disclaimer,
		DurationMs: v.Duration.Milliseconds(),
	}

	summary, err := b.narrator.Narrate(ctx, r)
	if err != nil || summary == "" {
		b.logger.Warn().Err(err).Str("ticker", s.Ticker).Msg("Narrator failed, using template summary")
		summary, _ = TemplateNarrator{}.Narrate(ctx, r)
	}
	r.Summary = summary

	if b.html {
		html, err := RenderHTML(summary)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Failed to render summary HTML")
		} else {
			r.SummaryHTML = html
		}
	}

	return r
}

func basicInfo(s *models.FinancialSnapshot, now time.Time) BasicInfo {
	name := s.CompanyName
	if name == "" {
		name = s.Ticker
	}
	return BasicInfo{
		Ticker:       s.Ticker,
		CompanyName:  name,
		Sector:       orNA(s.Sector),
		Industry:     orNA(s.Industry),
		Currency:     orDefault(s.Currency, "USD"),
		CurrentPrice: s.CurrentPrice,
		MarketCap:    s.MarketCap,
		AnalysisDate: now,
	}
}

func keyMetrics(m models.Metrics) KeyMetrics {
	ratio := func(key string) *float64 {
		if p := m.Ptr(key); p != nil {
			return utils.RoundPtr(*p, 2)
		}
		return nil
	}
	pct := func(key string) *float64 {
		if p := m.Ptr(key); p != nil {
			return utils.RoundPtr(*p*100, 2)
		}
		return nil
	}

	return KeyMetrics{
		ValuationRatios: ValuationRatios{
			PE:        ratio(models.MetricPERatio),
			ForwardPE: ratio(models.MetricForwardPE),
			PB:        ratio(models.MetricPBRatio),
			PS:        ratio(models.MetricPSRatio),
			EVEBITDA:  ratio(models.MetricEVEBITDA),
			EVRevenue: ratio(models.MetricEVRevenue),
		},
		Profitability: Profitability{
			ProfitMargin:    pct(models.MetricProfitMargin),
			OperatingMargin: pct(models.MetricOperatingMargin),
			EBITDAMargin:    pct(models.MetricEBITDAMargin),
			ROE:             pct(models.MetricROE),
			ROA:             pct(models.MetricROA),
		},
		FinancialHealth: FinancialHealth{
			DebtEquity:   ratio(models.MetricDebtEquity),
			CurrentRatio: ratio(models.MetricCurrentRatio),
		},
		Growth: Growth{
			RevenueGrowth:  pct(models.MetricRevenueGrowth),
			EarningsGrowth: pct(models.MetricEarningsGrowth),
		},
		Yield: Yield{
			DividendYield: pct(models.MetricDividendYield),
			FCFYield:      pct(models.MetricFCFYield),
		},
	}
}

func percentPtr(v float64) *float64 {
	return utils.RoundPtr(v*100, 2)
}

func valuationSummary(v *models.Valuation) ValuationSummary {
	out := ValuationSummary{
		FairValueRange: v.FairValueRange,
		Relative: RelativeSummary{
			PEImplied:          v.Relative.PE.ImpliedPrice,
			EVEBITDAImplied:    v.Relative.EVEBITDA.ImpliedPrice,
			EVRevenueImplied:   v.Relative.EVRevenue.ImpliedPrice,
			PBImplied:          v.Relative.PB.ImpliedPrice,
			PeerMedianPE:       v.Relative.PeerMultiples.MedianPE,
			PeerMedianEVEBITDA: v.Relative.PeerMultiples.MedianEVEBITDA,
			PeerCount:          v.Relative.PeerMultiples.PeerCount,
			Source:             v.Relative.PeerMultiples.Source,
			Error:              v.Relative.Error,
		},
	}
	if v.WACCUsed != nil {
		out.WACCUsed = percentPtr(*v.WACCUsed)
	}

	if v.DCF.OK() {
		out.DCF = DCFSummary{
			IntrinsicValue: v.DCF.IntrinsicValue,
			WACC:           percentPtr(v.DCF.WACC),
			TerminalGrowth: percentPtr(v.DCF.TerminalGrowth),
			FCFGrowth:      percentPtr(v.DCF.FCFGrowth),
		}
	} else {
		out.DCF = DCFSummary{Error: v.DCF.Error}
	}
	return out
}

func riskSummary(r models.RiskScoreResult) RiskSummary {
	flags := r.RiskFlags
	if flags == nil {
		flags = []models.RiskFlag{}
	}
	return RiskSummary{
		Altman: AltmanSummary{
			Score:          r.Altman.Score,
			Zone:           r.Altman.Zone,
			Interpretation: r.Altman.Description,
		},
		Piotroski: PiotroskiSummary{
			Score:          r.Piotroski.Score,
			MaxScore:       9,
			Rating:         r.Piotroski.Rating,
			Interpretation: r.Piotroski.Description,
		},
		Beneish: r.Beneish,
		Overall: OverallSummary{
			Level:       r.Overall.Level,
			Description: r.Overall.Description,
		},
		Flags:          flags,
		WACCAdjustment: percentPtr(r.Overall.WACCAdjustment),
	}
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
