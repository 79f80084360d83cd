// Package cli provides the command-line interface for the valuation service.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"equity-valuator/internal/app"
	"equity-valuator/internal/config"
	"equity-valuator/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-01-01"
)

// CLI holds the state shared by every command. The service graph is built
// on first use so that config and version commands never open a cache.
type CLI struct {
	Config *config.Config
	Logger zerolog.Logger

	configDir string
	preset    bool
	appOpts   []app.Option
	app       *app.App
}

// Option customises the root command.
type Option func(*CLI)

// WithConfig uses cfg instead of loading the config directory.
func WithConfig(cfg *config.Config) Option {
	return func(c *CLI) {
		c.Config = cfg
		c.preset = true
	}
}

// WithLogger replaces the logger built from the config.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *CLI) { c.Logger = logger }
}

// WithAppOptions passes options through to app.New.
func WithAppOptions(opts ...app.Option) Option {
	return func(c *CLI) { c.appOpts = append(c.appOpts, opts...) }
}

// App returns the service graph, building it on first call.
func (c *CLI) App() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(c.Config, c.Logger, c.appOpts...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Close releases the service graph if one was built.
func (c *CLI) Close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// output creates the command's output honouring ui.color_enabled.
func (c *CLI) output(cmd *cobra.Command) *Output {
	colorAllowed := c.Config == nil || c.Config.UI.ColorEnabled
	return NewOutput(cmd, colorAllowed)
}

func (c *CLI) load(cmd *cobra.Command) error {
	if !c.preset {
		dir, _ := cmd.Flags().GetString("config")
		if dir == "" {
			dir = config.DefaultConfigDir()
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		c.Config = cfg
		c.configDir = dir
		c.Logger = logging.NewLoggerWithConfig(app.LogConfig(cfg))

		for _, path := range cfg.Created {
			c.Logger.Info().Str("path", path).Msg("Created template configuration file")
		}
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		c.Logger = c.Logger.Level(zerolog.DebugLevel)
	}
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(opts ...Option) *cobra.Command {
	c := &CLI{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd := &cobra.Command{
		Use:   "valuator",
		Short: "Equity valuation from forensic, DCF and relative analysis",
		Long: `Valuator estimates the fair value of a listed company.

It screens the financial statements for distress and manipulation risk
(Altman Z, Piotroski F, Beneish M), runs a risk-adjusted discounted cash
flow model and a peer-multiple comparison, then blends them into a fair
value range and a rating against the current price.

Use 'valuator serve' to expose the same analysis over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/equity-valuator)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd(c))
	rootCmd.AddCommand(newConfigCmd(c))
	addAnalysisCommands(rootCmd, c)
	rootCmd.AddCommand(newQuoteCmd(c))
	rootCmd.AddCommand(newCacheCmd(c))
	rootCmd.AddCommand(newServeCmd(c))

	return rootCmd
}

// Execute runs the CLI against os.Args and returns the process exit code.
// SIGINT and SIGTERM cancel the command context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newVersionCmd(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Equity Valuator v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			if output.IsJSON() {
				return output.JSON(c.Config)
			}
			showConfig(output, c.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			dir := c.configDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": dir})
			}
			output.Println(dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			if err := c.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Section("Valuation", [][2]string{
		{"Risk-free rate", fmt.Sprintf("%.2f%%", cfg.Valuation.RiskFreeRate*100)},
		{"Market risk premium", fmt.Sprintf("%.2f%%", cfg.Valuation.MarketRiskPremium*100)},
		{"Terminal growth", fmt.Sprintf("%.2f%%", cfg.Valuation.TerminalGrowth*100)},
		{"Projection years", fmt.Sprintf("%d", cfg.Valuation.ProjectionYears)},
		{"Tax rate", fmt.Sprintf("%.0f%%", cfg.Valuation.TaxRate*100)},
	})

	output.Section("Peers", [][2]string{
		{"Max peers", fmt.Sprintf("%d", cfg.Peers.MaxPeers)},
		{"Sectors", fmt.Sprintf("%d", len(cfg.Peers.Sectors))},
		{"Fallback P/E", fmt.Sprintf("%.1f", cfg.Peers.DefaultPE)},
		{"Fallback EV/EBITDA", fmt.Sprintf("%.1f", cfg.Peers.DefaultEVEBITDA)},
	})

	output.Section("Data", [][2]string{
		{"Provider", cfg.Data.Provider},
		{"Snapshot dir", cfg.Data.SnapshotDir},
		{"Timeout", cfg.Data.Timeout.String()},
		{"Rate limit", fmt.Sprintf("%.1f/s burst %d", cfg.Data.RatePerSecond, cfg.Data.Burst)},
	})

	output.Section("Cache", [][2]string{
		{"Backend", cfg.Cache.Backend},
		{"TTL", cfg.Cache.TTL.String()},
		{"Purge schedule", cfg.Cache.PruneSchedule},
	})

	output.Section("Server", [][2]string{
		{"Address", cfg.Server.Addr()},
		{"Request timeout", cfg.Server.RequestTimeout.String()},
	})

	narrative := "template"
	if cfg.NarrativeEnabled() {
		narrative = cfg.Narrative.Model
	}
	output.Section("Narrative", [][2]string{
		{"Writer", narrative},
		{"Render HTML", fmt.Sprintf("%v", cfg.Narrative.RenderHTML)},
	})

	output.Section("Credentials", [][2]string{
		{"OpenAI API key", orNotSet(config.MaskSecret(cfg.Credentials.OpenAI.APIKey))},
		{"Redis password", orNotSet(config.MaskSecret(cfg.Credentials.Redis.Password))},
	})
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
