package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Equity Valuator Configuration

[valuation]
# Risk-free rate used in CAPM
risk_free_rate = 0.045
# Equity market risk premium
market_risk_premium = 0.055
# Perpetual growth rate after the projection window
terminal_growth = 0.025
# Years of explicit free cash flow projection
projection_years = 5
# Marginal tax rate applied to the cost of debt
tax_rate = 0.21
# Growth used when no growth metric is usable
default_growth = 0.05
# Clamp for projected growth
min_growth = 0.02
max_growth = 0.20
# Interest coverage assumed when it cannot be derived
default_interest_coverage = 10.0

[risk]
# Altman Z-Score zone boundaries
altman_distress = 1.81
altman_safe = 2.99
# WACC premium when any critical flag is raised
wacc_distress_premium = 0.03
# WACC premium for two or more warnings
elevated_premium = 0.015
# WACC premium for a single warning
moderate_premium = 0.005
# Debt/equity (percent) above which leverage is flagged
high_leverage = 200.0
# Piotroski score below which fundamentals are flagged
weak_fundamentals = 4

[peers]
# Maximum peers queried for relative valuation
max_peers = 5
# Market averages used when no peer supplies a multiple
default_pe = 20.0
default_ev_ebitda = 12.0
default_ev_revenue = 3.0
default_pb = 3.0

[peers.sectors]
"Technology" = ["AAPL", "MSFT", "GOOGL", "META", "NVDA", "AMD", "INTC"]
"Consumer Cyclical" = ["AMZN", "TSLA", "HD", "NKE", "MCD", "SBUX"]
"Financial Services" = ["JPM", "BAC", "WFC", "GS", "MS", "C"]
"Healthcare" = ["JNJ", "UNH", "PFE", "ABBV", "MRK", "LLY"]
"Communication Services" = ["GOOGL", "META", "DIS", "NFLX", "CMCSA"]
"Energy" = ["XOM", "CVX", "COP", "SLB", "EOG"]
"Industrials" = ["CAT", "BA", "HON", "UPS", "RTX"]
"Consumer Defensive" = ["PG", "KO", "PEP", "WMT", "COST"]

[data]
# Data provider: "yahoo" or "file"
provider = "yahoo"
# Directory of <TICKER>.json snapshots for the file provider
# snapshot_dir = "~/.config/equity-valuator/snapshots"
# Request timeout (e.g., "10s")
timeout = "10s"
# Outbound request rate
rate_per_second = 2.0
burst = 2
# Retries when the upstream rate-limits
max_retries = 3
retry_delay = "2s"

[cache]
# Snapshot cache backend: memory, sqlite, redis, none
backend = "memory"
# How long a fetched snapshot stays fresh
ttl = "1h"
# sqlite_path = "~/.config/equity-valuator/cache.db"
redis_addr = "localhost:6379"
redis_db = 0
key_prefix = "valuator:"
# Cron schedule for purging expired entries while serving
prune_schedule = "*/15 * * * *"

[server]
host = "0.0.0.0"
port = 5000
cors_origins = ["*"]
request_timeout = "60s"

[narrative]
# Rewrite the summary with an LLM (requires openai.api_key in credentials.toml)
enabled = false
model = "gpt-4o-mini"
# Include an HTML rendering of the summary in reports
render_html = true

[log]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
max_size_mb = 100
max_backups = 7
max_age_days = 30

[ui]
# Enable colored output
color_enabled = true
`

const credentialsTemplate = `# Equity Valuator Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[openai]
api_key = ""

[redis]
password = ""
`

func createTemplateConfig(configDir, name string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}

	return path, nil
}

func createTemplateCredentials(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing credentials template: %w", err)
	}

	return path, nil
}
