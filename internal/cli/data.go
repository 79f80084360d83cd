package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"equity-valuator/internal/marketdata"
	"equity-valuator/pkg/utils"
)

func newQuoteCmd(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <ticker>",
		Short: "Get the latest price for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			a, err := c.App()
			if err != nil {
				return err
			}

			q, err := a.Service.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(q)
			}

			name := q.Name
			if name == "" {
				name = q.Ticker
			}
			output.Bold("%s (%s)", name, q.Ticker)
			output.Printf("  %s  %s\n",
				utils.FormatMoney(q.Price, q.Currency),
				output.Signed(q.ChangePercent))
			if q.MarketCap > 0 {
				output.Dim("  Market cap %s", utils.FormatCompact(q.MarketCap))
			}
			return nil
		},
	}
}

func newCacheCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Snapshot cache maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired snapshot cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			a, err := c.App()
			if err != nil {
				return err
			}

			n, err := a.Cache.Purge(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"backend": a.Cache.Name(), "removed": n})
			}
			output.Success("✓ Removed %d expired entries from %s cache", n, a.Cache.Name())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "invalidate <ticker>...",
		Short: "Drop cached snapshots so the next analysis refetches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			a, err := c.App()
			if err != nil {
				return err
			}

			var dropped []string
			for _, arg := range args {
				ticker, err := marketdata.NormalizeTicker(arg)
				if err != nil {
					return err
				}
				if err := a.Provider.Invalidate(cmd.Context(), ticker); err != nil {
					return fmt.Errorf("invalidating %s: %w", ticker, err)
				}
				dropped = append(dropped, ticker)
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"invalidated": dropped})
			}
			output.Success("✓ Invalidated %s", strings.Join(dropped, ", "))
			return nil
		},
	})

	return cmd
}
