package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
	"equity-valuator/internal/report"
	"equity-valuator/pkg/utils"
)

// addAnalysisCommands adds the valuation commands.
func addAnalysisCommands(rootCmd *cobra.Command, c *CLI) {
	rootCmd.AddCommand(newAnalyzeCmd(c))
	rootCmd.AddCommand(newRiskCmd(c))
	rootCmd.AddCommand(newDCFCmd(c))
	rootCmd.AddCommand(newRelativeCmd(c))
}

// valuate values the ticker in args, or the --snapshot file when given.
func (c *CLI) valuate(cmd *cobra.Command, args []string) (*models.FinancialSnapshot, *models.Valuation, error) {
	a, err := c.App()
	if err != nil {
		return nil, nil, err
	}

	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		if len(args) == 0 {
			return nil, nil, fmt.Errorf("%w: ticker is required", apperrors.ErrInputValidation)
		}
		return a.Service.Valuate(cmd.Context(), args[0])
	}

	snap, err := a.LoadSnapshot(path)
	if err != nil {
		return nil, nil, err
	}
	if snap.Ticker == "" && len(args) > 0 {
		snap.Ticker = strings.ToUpper(args[0])
	}
	return snap, a.Service.ValuateSnapshot(cmd.Context(), snap), nil
}

func addSnapshotFlag(cmd *cobra.Command) {
	cmd.Flags().String("snapshot", "", "value a snapshot JSON file instead of fetching")
}

func newAnalyzeCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Run the full valuation and print the report",
		Long: `Run the forensic screen, DCF and relative valuation for a ticker and
print the blended fair value range with a rating.

Examples:
  valuator analyze AAPL
  valuator analyze AAPL --json
  valuator analyze AAPL --csv > football.csv
  valuator analyze --snapshot ./ACME.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)

			snap, v, err := c.valuate(cmd, args)
			if err != nil {
				return err
			}
			a, err := c.App()
			if err != nil {
				return err
			}
			rep := a.Service.Report(cmd.Context(), snap, v)

			if csv, _ := cmd.Flags().GetBool("csv"); csv {
				out, err := report.FootballFieldCSV(rep.FootballField)
				if err != nil {
					return err
				}
				output.Printf("%s", out)
				return nil
			}
			if output.IsJSON() {
				return output.JSON(rep)
			}

			renderReport(output, rep)
			return nil
		},
	}
	addSnapshotFlag(cmd)
	cmd.Flags().Bool("csv", false, "print the football field as CSV")
	return cmd
}

func newRiskCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk <ticker>",
		Short: "Show the forensic risk assessment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			snap, v, err := c.valuate(cmd, args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(v.Risk)
			}
			output.Bold("%s", heading(snap))
			output.Println()
			renderRisk(output, v.Risk)
			return nil
		},
	}
	addSnapshotFlag(cmd)
	return cmd
}

func newDCFCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dcf <ticker>",
		Short: "Show the risk-adjusted DCF valuation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			snap, v, err := c.valuate(cmd, args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(v.DCF)
			}
			output.Bold("%s", heading(snap))
			output.Println()
			renderDCF(output, v.DCF, snap)
			return nil
		},
	}
	addSnapshotFlag(cmd)
	return cmd
}

func newRelativeCmd(c *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relative <ticker>",
		Short: "Show the peer-multiple valuation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := c.output(cmd)
			snap, v, err := c.valuate(cmd, args)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(v.Relative)
			}
			output.Bold("%s", heading(snap))
			output.Println()
			renderRelative(output, v.Relative, snap.Currency)
			return nil
		},
	}
	addSnapshotFlag(cmd)
	return cmd
}

func heading(s *models.FinancialSnapshot) string {
	name := s.CompanyName
	if name == "" {
		name = s.Ticker
	}
	h := fmt.Sprintf("%s (%s)", name, s.Ticker)
	if s.Sector != "" {
		h += " · " + s.Sector
	}
	return h
}

func renderReport(output *Output, r *report.Report) {
	info := r.BasicInfo
	name := info.CompanyName
	if name == "" {
		name = info.Ticker
	}
	output.Bold("%s (%s)", name, info.Ticker)
	output.Dim("%s · %s · market cap %s", info.Sector, info.Industry, utils.FormatCompact(info.MarketCap))
	output.Println()

	dcf := r.Valuation.DCF
	dcfValue := FormatPrice(dcf.IntrinsicValue, info.Currency)
	if dcf.Error != "" {
		dcfValue = output.DimText("unavailable: " + dcf.Error)
	}
	output.Section("DCF", [][2]string{
		{"Intrinsic value", dcfValue},
		{"WACC", FormatRate(dcf.WACC)},
		{"FCF growth", FormatRate(dcf.FCFGrowth)},
		{"Terminal growth", FormatRate(dcf.TerminalGrowth)},
	})

	rel := r.Valuation.Relative
	output.Bold("Relative (%d peers, %s)", rel.PeerCount, rel.Source)
	table := NewTable(output, "Method", "Peer multiple", "Implied price")
	table.AddRow("P/E", fmt.Sprintf("%.1fx", rel.PeerMedianPE), FormatPrice(rel.PEImplied, info.Currency))
	table.AddRow("EV/EBITDA", fmt.Sprintf("%.1fx", rel.PeerMedianEVEBITDA), FormatPrice(rel.EVEBITDAImplied, info.Currency))
	table.AddRow("EV/Revenue", "", FormatPrice(rel.EVRevenueImplied, info.Currency))
	table.AddRow("P/B", "", FormatPrice(rel.PBImplied, info.Currency))
	table.Render()
	output.Println()

	output.Bold("Football field")
	ff := NewTable(output, "Method", "Low", "Mid", "High")
	for _, b := range r.FootballField.Bars {
		ff.AddRow(b.Method,
			utils.FormatMoney(b.Low, info.Currency),
			utils.FormatMoney(b.Mid, info.Currency),
			utils.FormatMoney(b.High, info.Currency))
	}
	ff.Render()
	output.Println()

	risk := r.Risk
	output.Section("Risk", [][2]string{
		{"Altman Z", fmt.Sprintf("%s %s", FormatScore(risk.Altman.Score), output.Zone(risk.Altman.Zone))},
		{"Piotroski F", fmt.Sprintf("%s %s", FormatFScore(risk.Piotroski.Score, risk.Piotroski.MaxScore), risk.Piotroski.Rating)},
		{"Overall", output.RiskLevel(risk.Overall.Level)},
	})

	rec := r.Recommendation
	lines := [][2]string{
		{"Current price", utils.FormatMoney(info.CurrentPrice, info.Currency)},
		{"Fair value", FormatRange(r.Valuation.FairValueRange, info.Currency)},
		{"Rating", output.Rating(rec.Rating)},
	}
	if rec.UpsidePct != nil {
		lines = append(lines, [2]string{"Upside", output.Signed(*rec.UpsidePct)})
	}
	output.Section("Recommendation", lines)

	if r.Summary != "" {
		output.Println(r.Summary)
		output.Println()
	}
	output.Dim("%s", r.Disclaimer)
}

func renderRisk(output *Output, risk models.RiskScoreResult) {
	altman := [][2]string{
		{"Score", FormatScore(risk.Altman.Score)},
		{"Zone", output.Zone(risk.Altman.Zone)},
	}
	if risk.Altman.Description != "" {
		altman = append(altman, [2]string{"Reading", risk.Altman.Description})
	}
	if risk.Altman.Error != "" {
		altman = append(altman, [2]string{"Error", risk.Altman.Error})
	}
	output.Section("Altman Z-Score", altman)

	piotroski := [][2]string{
		{"Score", FormatFScore(risk.Piotroski.Score, risk.Piotroski.MaxScore)},
		{"Rating", string(risk.Piotroski.Rating)},
	}
	if risk.Piotroski.Error != "" {
		piotroski = append(piotroski, [2]string{"Error", risk.Piotroski.Error})
	}
	output.Section("Piotroski F-Score", piotroski)

	if b := risk.Beneish; b != nil {
		output.Section("Beneish M-Score", [][2]string{
			{"Score", fmt.Sprintf("%.2f (threshold %.2f)", b.Score, b.Threshold)},
			{"Flag", string(b.Flag)},
		})
	}

	if len(risk.RiskFlags) > 0 {
		output.Bold("Flags")
		table := NewTable(output, "Severity", "Code", "Message")
		for _, f := range risk.RiskFlags {
			table.AddRow(output.Severity(f.Severity), f.Code, f.Message)
		}
		table.Render()
		output.Println()
	}

	output.Section("Overall", [][2]string{
		{"Level", output.RiskLevel(risk.Overall.Level)},
		{"WACC premium", fmt.Sprintf("%+.2f%%", risk.Overall.WACCAdjustment*100)},
	})
}

func renderDCF(output *Output, d models.DCFResult, snap *models.FinancialSnapshot) {
	if !d.OK() {
		output.Warning("DCF unavailable: %s", d.Error)
		return
	}
	output.Section("DCF", [][2]string{
		{"Intrinsic value", FormatPrice(d.IntrinsicValue, snap.Currency)},
		{"Current price", utils.FormatMoney(snap.CurrentPrice, snap.Currency)},
		{"WACC", utils.FormatRatio(d.WACC)},
		{"FCF growth", utils.FormatRatio(d.FCFGrowth)},
		{"Terminal growth", utils.FormatRatio(d.TerminalGrowth)},
		{"Enterprise value", utils.FormatCompact(d.EnterpriseValue)},
		{"Equity value", utils.FormatCompact(d.EquityValue)},
	})

	table := NewTable(output, "Year", "Projected FCF")
	for i, fcf := range d.ProjectedFCF {
		table.AddRow(fmt.Sprintf("%d", i+1), utils.FormatCompact(fcf))
	}
	table.AddRow("Terminal", utils.FormatCompact(d.TerminalValue))
	table.Render()
}

func renderRelative(output *Output, r models.RelativeResult, currency string) {
	if r.Error != "" {
		output.Warning("Relative valuation unavailable: %s", r.Error)
		return
	}
	pm := r.PeerMultiples
	output.Dim("%d peers, source %s", pm.PeerCount, pm.Source)

	table := NewTable(output, "Multiple", "Company", "Peer median", "Implied price")
	rows := []struct {
		name string
		m    models.MultipleResult
	}{
		{"P/E", r.PE},
		{"EV/EBITDA", r.EVEBITDA},
		{"EV/Revenue", r.EVRevenue},
		{"P/B", r.PB},
	}
	for _, row := range rows {
		table.AddRow(row.name,
			FormatMultiple(row.m.CurrentMultiple),
			fmt.Sprintf("%.1fx", row.m.PeerMultiple),
			FormatPrice(row.m.ImpliedPrice, currency))
	}
	table.Render()
}
