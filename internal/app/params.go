package app

import (
	"equity-valuator/internal/analysis/dcf"
	"equity-valuator/internal/analysis/forensic"
	"equity-valuator/internal/analysis/relative"
	"equity-valuator/internal/analysis/riskscore"
	"equity-valuator/internal/config"
	"equity-valuator/internal/logging"
	"equity-valuator/internal/marketdata"
	"equity-valuator/internal/store"
)

// DCFParams maps the [valuation] section onto engine parameters.
func DCFParams(cfg *config.Config) dcf.Params {
	v := cfg.Valuation
	p := dcf.DefaultParams()
	p.RiskFreeRate = v.RiskFreeRate
	p.MarketRiskPremium = v.MarketRiskPremium
	p.TerminalGrowth = v.TerminalGrowth
	p.ProjectionYears = v.ProjectionYears
	p.TaxRate = v.TaxRate
	p.DefaultGrowth = v.DefaultGrowth
	p.MinGrowth = v.MinGrowth
	p.MaxGrowth = v.MaxGrowth
	if v.GrowthSignalCap > 0 {
		p.GrowthSignalCap = v.GrowthSignalCap
	}
	if v.DefaultCoverage > 0 {
		p.DefaultCoverage = v.DefaultCoverage
	}
	return p
}

// Thresholds maps the Altman zone boundaries.
func Thresholds(cfg *config.Config) riskscore.Thresholds {
	return riskscore.Thresholds{
		Distress: cfg.Risk.AltmanDistress,
		Safe:     cfg.Risk.AltmanSafe,
	}
}

// ForensicParams maps the [risk] section.
func ForensicParams(cfg *config.Config) forensic.Params {
	p := forensic.DefaultParams()
	p.Thresholds = Thresholds(cfg)
	p.DistressPremium = cfg.Risk.WACCDistressPremium
	p.ElevatedPremium = cfg.Risk.ElevatedPremium
	p.ModeratePremium = cfg.Risk.ModeratePremium
	if cfg.Risk.HighLeverage > 0 {
		p.HighLeverage = cfg.Risk.HighLeverage
	}
	if cfg.Risk.WeakFundamentals > 0 {
		p.WeakFundamentals = cfg.Risk.WeakFundamentals
	}
	return p
}

// RelativeParams maps the [peers] section.
func RelativeParams(cfg *config.Config) relative.Params {
	p := relative.DefaultParams()
	if cfg.Peers.MaxPeers > 0 {
		p.MaxPeers = cfg.Peers.MaxPeers
	}
	if cfg.Peers.DefaultPE > 0 {
		p.DefaultPE = cfg.Peers.DefaultPE
	}
	if cfg.Peers.DefaultEVEBITDA > 0 {
		p.DefaultEVEBITDA = cfg.Peers.DefaultEVEBITDA
	}
	if cfg.Peers.DefaultEVRevenue > 0 {
		p.DefaultEVRevenue = cfg.Peers.DefaultEVRevenue
	}
	if cfg.Peers.DefaultPB > 0 {
		p.DefaultPB = cfg.Peers.DefaultPB
	}
	return p
}

// PeerTable returns the configured sector table, or the built-in one.
func PeerTable(cfg *config.Config) marketdata.PeerTable {
	if len(cfg.Peers.Sectors) == 0 {
		return marketdata.DefaultPeerTable()
	}
	return marketdata.PeerTable(cfg.Peers.Sectors)
}

// StoreOptions maps the [cache] section.
func StoreOptions(cfg *config.Config) store.Options {
	return store.Options{
		Backend:       cfg.Cache.Backend,
		SQLitePath:    cfg.Cache.SQLitePath,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Credentials.Redis.Password,
		RedisDB:       cfg.Cache.RedisDB,
		KeyPrefix:     cfg.Cache.KeyPrefix,
	}
}

// YahooConfig maps the [data] section.
func YahooConfig(cfg *config.Config) marketdata.YahooConfig {
	y := marketdata.DefaultYahooConfig()
	d := cfg.Data
	if d.BaseURL != "" {
		y.BaseURL = d.BaseURL
	}
	if d.Timeout > 0 {
		y.Timeout = d.Timeout
	}
	if d.RatePerSecond > 0 {
		y.RatePerSecond = d.RatePerSecond
	}
	if d.Burst > 0 {
		y.Burst = d.Burst
	}
	y.MaxRetries = d.MaxRetries
	if d.RetryDelay > 0 {
		y.RetryDelay = d.RetryDelay
	}
	y.Peers = PeerTable(cfg)
	y.MaxPeers = RelativeParams(cfg).MaxPeers
	return y
}

// LogConfig maps the [log] section.
func LogConfig(cfg *config.Config) logging.LogConfig {
	l := logging.DefaultLogConfig()
	l.Level = cfg.Log.Level
	l.Console = cfg.Log.Console
	l.File = cfg.Log.File
	if cfg.Log.FilePath != "" {
		l.FilePath = cfg.Log.FilePath
	}
	if cfg.Log.MaxSizeMB > 0 {
		l.MaxSize = cfg.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups > 0 {
		l.MaxBackups = cfg.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays > 0 {
		l.MaxAge = cfg.Log.MaxAgeDays
	}
	return l
}
