// Package config provides configuration management for the valuation service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	apperrors "equity-valuator/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Valuation   ValuationConfig `mapstructure:"valuation"`
	Risk        RiskConfig      `mapstructure:"risk"`
	Peers       PeersConfig     `mapstructure:"peers"`
	Data        DataConfig      `mapstructure:"data"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Server      ServerConfig    `mapstructure:"server"`
	Narrative   NarrativeConfig `mapstructure:"narrative"`
	Log         LogConfig       `mapstructure:"log"`
	UI          UIConfig        `mapstructure:"ui"`
	Credentials Credentials     `mapstructure:"-" json:"-"` // Loaded separately

	// Created lists template files written because they were missing.
	Created []string `mapstructure:"-" json:"-"`
}

// ValuationConfig holds DCF model parameters.
type ValuationConfig struct {
	RiskFreeRate      float64 `mapstructure:"risk_free_rate"`
	MarketRiskPremium float64 `mapstructure:"market_risk_premium"`
	TerminalGrowth    float64 `mapstructure:"terminal_growth"`
	ProjectionYears   int     `mapstructure:"projection_years"`
	TaxRate           float64 `mapstructure:"tax_rate"`
	DefaultGrowth     float64 `mapstructure:"default_growth"`
	MinGrowth         float64 `mapstructure:"min_growth"`
	MaxGrowth         float64 `mapstructure:"max_growth"`
	GrowthSignalCap   float64 `mapstructure:"growth_signal_cap"`
	DefaultCoverage   float64 `mapstructure:"default_interest_coverage"`
}

// RiskConfig holds forensic thresholds and WACC premiums.
type RiskConfig struct {
	AltmanDistress      float64 `mapstructure:"altman_distress"`
	AltmanSafe          float64 `mapstructure:"altman_safe"`
	WACCDistressPremium float64 `mapstructure:"wacc_distress_premium"`
	ElevatedPremium     float64 `mapstructure:"elevated_premium"`
	ModeratePremium     float64 `mapstructure:"moderate_premium"`
	HighLeverage        float64 `mapstructure:"high_leverage"`
	WeakFundamentals    int     `mapstructure:"weak_fundamentals"`
}

// PeersConfig holds relative valuation settings.
type PeersConfig struct {
	MaxPeers         int                 `mapstructure:"max_peers"`
	DefaultPE        float64             `mapstructure:"default_pe"`
	DefaultEVEBITDA  float64             `mapstructure:"default_ev_ebitda"`
	DefaultEVRevenue float64             `mapstructure:"default_ev_revenue"`
	DefaultPB        float64             `mapstructure:"default_pb"`
	Sectors          map[string][]string `mapstructure:"sectors"`
}

// DataConfig selects and tunes the market data provider.
type DataConfig struct {
	Provider      string        `mapstructure:"provider"` // "yahoo", "file"
	SnapshotDir   string        `mapstructure:"snapshot_dir"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory", "sqlite", "redis", "none"
	TTL           time.Duration `mapstructure:"ttl"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	PruneSchedule string        `mapstructure:"prune_schedule"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// NarrativeConfig controls the LLM narrative summary.
type NarrativeConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Model      string `mapstructure:"model"`
	RenderHTML bool   `mapstructure:"render_html"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// Credentials holds secrets kept out of config.toml.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
	Redis  RedisCredentials  `mapstructure:"redis"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// RedisCredentials holds the Redis password.
type RedisCredentials struct {
	Password string `mapstructure:"password"`
}

// Backends and providers accepted by Validate.
var (
	validProviders = []string{"yahoo", "file"}
	validBackends  = []string{"memory", "sqlite", "redis", "none"}
	validLevels    = []string{"debug", "info", "warn", "error"}
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/equity-valuator"
	}
	return filepath.Join(home, ".config", "equity-valuator")
}

// Default returns the configuration used when no file overrides a key.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	// Unmarshal of defaults alone cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads config.toml and credentials.toml from configDir. Missing files
// are written from templates and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	created, err := loadConfigFile(configDir, "config", cfg)
	if err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	if created != "" {
		cfg.Created = append(cfg.Created, created)
	}

	created, err = loadCredentials(configDir, &cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}
	if created != "" {
		cfg.Created = append(cfg.Created, created)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("valuation.risk_free_rate", 0.045)
	v.SetDefault("valuation.market_risk_premium", 0.055)
	v.SetDefault("valuation.terminal_growth", 0.025)
	v.SetDefault("valuation.projection_years", 5)
	v.SetDefault("valuation.tax_rate", 0.21)
	v.SetDefault("valuation.default_growth", 0.05)
	v.SetDefault("valuation.min_growth", 0.02)
	v.SetDefault("valuation.max_growth", 0.20)
	v.SetDefault("valuation.growth_signal_cap", 0.5)
	v.SetDefault("valuation.default_interest_coverage", 10.0)

	v.SetDefault("risk.altman_distress", 1.81)
	v.SetDefault("risk.altman_safe", 2.99)
	v.SetDefault("risk.wacc_distress_premium", 0.03)
	v.SetDefault("risk.elevated_premium", 0.015)
	v.SetDefault("risk.moderate_premium", 0.005)
	v.SetDefault("risk.high_leverage", 200.0)
	v.SetDefault("risk.weak_fundamentals", 4)

	v.SetDefault("peers.max_peers", 5)
	v.SetDefault("peers.default_pe", 20.0)
	v.SetDefault("peers.default_ev_ebitda", 12.0)
	v.SetDefault("peers.default_ev_revenue", 3.0)
	v.SetDefault("peers.default_pb", 3.0)

	v.SetDefault("data.provider", "yahoo")
	v.SetDefault("data.snapshot_dir", filepath.Join(configDir, "snapshots"))
	v.SetDefault("data.base_url", "https://query2.finance.yahoo.com")
	v.SetDefault("data.timeout", "10s")
	v.SetDefault("data.rate_per_second", 2.0)
	v.SetDefault("data.burst", 2)
	v.SetDefault("data.max_retries", 3)
	v.SetDefault("data.retry_delay", "2s")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.sqlite_path", filepath.Join(configDir, "cache.db"))
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "valuator:")
	v.SetDefault("cache.prune_schedule", "*/15 * * * *")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "60s")

	v.SetDefault("narrative.enabled", false)
	v.SetDefault("narrative.model", "gpt-4o-mini")
	v.SetDefault("narrative.render_html", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", true)
	v.SetDefault("log.file_path", filepath.Join(configDir, "logs", "valuator.log"))
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("ui.color_enabled", true)
}

// loadConfigFile reads name.toml into target. When the file is missing the
// template is written and the returned path names it.
func loadConfigFile(configDir, name string, target *Config) (string, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	var created string
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return "", err
		}
		path, err := createTemplateConfig(configDir, name)
		if err != nil {
			return "", err
		}
		created = path
	}

	if err := v.Unmarshal(target); err != nil {
		return "", err
	}
	return created, nil
}

func loadCredentials(configDir string, creds *Credentials) (string, error) {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return "", err
	}

	return "", v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	// Credentials
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Credentials.Redis.Password = v
	}

	if v := os.Getenv("VALUATOR_RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Valuation.RiskFreeRate = f
		}
	}

	// Data and cache
	if v := os.Getenv("VALUATOR_DATA_PROVIDER"); v != "" {
		cfg.Data.Provider = v
	}
	if v := os.Getenv("VALUATOR_SNAPSHOT_DIR"); v != "" {
		cfg.Data.SnapshotDir = v
	}
	if v := os.Getenv("VALUATOR_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("VALUATOR_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}

	// Server; PORT and CORS_ORIGINS are honoured for container platforms.
	for _, key := range []string{"PORT", "VALUATOR_PORT"} {
		if v := os.Getenv(key); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				cfg.Server.Port = p
			}
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("VALUATOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConfigInvalid, fmt.Sprintf(format, args...))
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate validates the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs error

	// Valuation parameters
	val := c.Valuation
	if val.RiskFreeRate < 0 || val.RiskFreeRate > 0.2 {
		errs = multierr.Append(errs, invalid("valuation.risk_free_rate must be between 0 and 0.2"))
	}
	if val.MarketRiskPremium < 0 || val.MarketRiskPremium > 0.2 {
		errs = multierr.Append(errs, invalid("valuation.market_risk_premium must be between 0 and 0.2"))
	}
	if val.TerminalGrowth < 0 || val.TerminalGrowth >= 0.1 {
		errs = multierr.Append(errs, invalid("valuation.terminal_growth must be in [0, 0.1)"))
	}
	if val.ProjectionYears < 1 || val.ProjectionYears > 30 {
		errs = multierr.Append(errs, invalid("valuation.projection_years must be between 1 and 30"))
	}
	if val.TaxRate < 0 || val.TaxRate >= 1 {
		errs = multierr.Append(errs, invalid("valuation.tax_rate must be in [0, 1)"))
	}
	if val.MinGrowth > val.MaxGrowth {
		errs = multierr.Append(errs, invalid("valuation.min_growth %.3f exceeds max_growth %.3f", val.MinGrowth, val.MaxGrowth))
	}

	// Risk thresholds
	if c.Risk.AltmanDistress >= c.Risk.AltmanSafe {
		errs = multierr.Append(errs, invalid("risk.altman_distress must be below risk.altman_safe"))
	}
	if c.Risk.WACCDistressPremium < 0 || c.Risk.ElevatedPremium < 0 || c.Risk.ModeratePremium < 0 {
		errs = multierr.Append(errs, invalid("risk premiums must be non-negative"))
	}

	if c.Peers.MaxPeers < 0 || c.Peers.MaxPeers > 20 {
		errs = multierr.Append(errs, invalid("peers.max_peers must be between 0 and 20"))
	}

	// Data provider
	if !oneOf(c.Data.Provider, validProviders) {
		errs = multierr.Append(errs, invalid("data.provider %q (must be one of %s)", c.Data.Provider, strings.Join(validProviders, ", ")))
	}
	if c.Data.Provider == "file" && c.Data.SnapshotDir == "" {
		errs = multierr.Append(errs, invalid("data.snapshot_dir is required for the file provider"))
	}
	if c.Data.MaxRetries < 0 {
		errs = multierr.Append(errs, invalid("data.max_retries must be non-negative"))
	}

	// Cache
	if !oneOf(c.Cache.Backend, validBackends) {
		errs = multierr.Append(errs, invalid("cache.backend %q (must be one of %s)", c.Cache.Backend, strings.Join(validBackends, ", ")))
	}
	if c.Cache.Backend == "sqlite" && c.Cache.SQLitePath == "" {
		errs = multierr.Append(errs, invalid("cache.sqlite_path is required for the sqlite backend"))
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		errs = multierr.Append(errs, invalid("cache.redis_addr is required for the redis backend"))
	}
	if c.Cache.TTL < 0 {
		errs = multierr.Append(errs, invalid("cache.ttl must be non-negative"))
	}
	if c.Cache.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.Cache.PruneSchedule); err != nil {
			errs = multierr.Append(errs, invalid("cache.prune_schedule: %v", err))
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, invalid("server.port %d out of range", c.Server.Port))
	}

	if !oneOf(c.Log.Level, validLevels) {
		errs = multierr.Append(errs, invalid("log.level %q (must be one of %s)", c.Log.Level, strings.Join(validLevels, ", ")))
	}

	return errs
}

// NarrativeEnabled reports whether the LLM narrative can run.
func (c *Config) NarrativeEnabled() bool {
	return c.Narrative.Enabled && c.Credentials.OpenAI.APIKey != ""
}

// MaskSecret hides all but the first and last four characters of a secret.
// Short values are hidden entirely.
func MaskSecret(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 8:
		return strings.Repeat("*", len(value))
	default:
		return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
	}
}
