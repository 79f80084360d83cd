package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"equity-valuator/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the valuation API over HTTP",
		Long: `Start the HTTP API:

  GET  /                   endpoint index
  GET  /api/health         component health
  POST /api/analyze        {"ticker": "AAPL"} -> full report
  GET  /api/quick-quote    ?ticker=AAPL
  GET  /metrics            Prometheus metrics

Expired snapshot cache entries are purged on cache.prune_schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App()
			if err != nil {
				return err
			}
			cfg := c.Config

			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				cfg.Server.Host = host
			}

			health := server.NewHealth()
			health.Register("cache", server.CacheHealthCheck(a.Cache))
			health.Register("market_data", server.BreakerHealthCheck(a.BreakerState))

			purger, err := server.NewPurger(a.Cache, cfg.Cache.PruneSchedule, a.Logger)
			if err != nil {
				return err
			}
			purger.Start()
			defer purger.Stop()

			srv := server.New(server.Config{
				Host:           cfg.Server.Host,
				Port:           cfg.Server.Port,
				CORSOrigins:    cfg.Server.CORSOrigins,
				RequestTimeout: cfg.Server.RequestTimeout,
				Version:        Version,
				Analyzer:       a.Service,
				Health:         health,
				Metrics:        a.Metrics,
				Log:            a.Logger,
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			c.output(cmd).Info("Listening on http://%s", srv.Addr())

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("Server forced to shutdown")
				return err
			}
			a.Logger.Info().Msg("Server stopped")
			return nil
		},
	}
	cmd.Flags().Int("port", 0, "listen port (default from config)")
	cmd.Flags().String("host", "", "listen host (default from config)")
	return cmd
}
