// Package app wires configuration into the data layer, the valuation
// engines and the report builder.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"equity-valuator/internal/analysis/dcf"
	"equity-valuator/internal/analysis/forensic"
	"equity-valuator/internal/analysis/relative"
	"equity-valuator/internal/config"
	"equity-valuator/internal/marketdata"
	"equity-valuator/internal/models"
	"equity-valuator/internal/report"
	"equity-valuator/internal/store"
	"equity-valuator/internal/telemetry"
	"equity-valuator/internal/valuation"
)

// App is the assembled service graph.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Cache    store.SnapshotCache
	Provider *marketdata.CachedProvider
	Metrics  *telemetry.Metrics
	Service  *Service

	upstream marketdata.Provider
}

// Option customises New.
type Option func(*options)

type options struct {
	upstream marketdata.Provider
	cache    store.SnapshotCache
	narrator report.Narrator
}

// WithUpstream replaces the configured data provider.
func WithUpstream(p marketdata.Provider) Option {
	return func(o *options) { o.upstream = p }
}

// WithCache replaces the configured cache backend.
func WithCache(c store.SnapshotCache) Option {
	return func(o *options) { o.cache = c }
}

// WithNarrator replaces the configured narrator.
func WithNarrator(n report.Narrator) Option {
	return func(o *options) { o.narrator = n }
}

// New builds the service graph from cfg.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	upstream := o.upstream
	if upstream == nil {
		var err error
		upstream, err = newUpstream(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	cache := o.cache
	if cache == nil {
		var err error
		cache, err = store.New(StoreOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
		}
	}

	metrics := telemetry.NewMetrics()

	provider := marketdata.NewCachedProvider(upstream, cache, cfg.Cache.TTL, logger.With().Str("component", "marketdata").Logger())
	provider.SetObserver(metrics)

	orchestrator := valuation.NewOrchestrator(
		forensic.NewEngine(ForensicParams(cfg)),
		dcf.NewEngine(DCFParams(cfg)),
		relative.NewEngine(RelativeParams(cfg), provider),
		valuation.WithObserver(metrics),
	)

	narrator := o.narrator
	if narrator == nil {
		narrator = newNarrator(cfg)
	}
	builder := report.NewBuilder(narrator, cfg.Narrative.RenderHTML, logger.With().Str("component", "report").Logger())

	svc := NewService(provider, orchestrator, builder, logger.With().Str("component", "valuation").Logger())
	svc.OnAnalysis(func(v *models.Valuation) {
		metrics.ObserveAnalysis(string(v.Recommendation.Rating), v.Duration)
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Cache:    cache,
		Provider: provider,
		Metrics:  metrics,
		Service:  svc,
		upstream: upstream,
	}, nil
}

func newUpstream(cfg *config.Config, logger zerolog.Logger) (marketdata.Provider, error) {
	switch cfg.Data.Provider {
	case "file":
		return marketdata.NewFileProvider(cfg.Data.SnapshotDir, PeerTable(cfg), RelativeParams(cfg).MaxPeers), nil
	case "yahoo", "":
		return marketdata.NewYahooProvider(YahooConfig(cfg), logger.With().Str("component", "yahoo").Logger()), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.Data.Provider)
	}
}

func newNarrator(cfg *config.Config) report.Narrator {
	if cfg.NarrativeEnabled() {
		return report.NewOpenAINarrator(cfg.Credentials.OpenAI.APIKey, cfg.Narrative.Model)
	}
	return report.TemplateNarrator{}
}

// BreakerState reports the upstream circuit breaker state, or "n/a" when
// the provider has none.
func (a *App) BreakerState() string {
	if b, ok := a.upstream.(interface{ BreakerState() string }); ok {
		return b.BreakerState()
	}
	return "n/a"
}

// LoadSnapshot reads a snapshot file and prepares it like a fetched one.
func (a *App) LoadSnapshot(path string) (*models.FinancialSnapshot, error) {
	s, err := marketdata.LoadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	if s.Ticker != "" {
		if t, err := marketdata.NormalizeTicker(s.Ticker); err == nil {
			s.Ticker = t
		}
	}
	if len(s.Peers) == 0 {
		s.Peers = PeerTable(a.Config).Peers(s.Sector, s.Ticker, RelativeParams(a.Config).MaxPeers)
	}
	marketdata.DeriveMetrics(s)
	return s, nil
}

// Close releases the cache.
func (a *App) Close() error {
	return a.Cache.Close()
}
