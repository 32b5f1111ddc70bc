package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/exposure"
)

var exposureCmd = &cobra.Command{
	Use:   "exposure",
	Short: "Analyze currency exposure of open trades",
	Long: `Break open trades down into per-currency exposure, flag currencies over
the limit and, for a proposed trade, suggest a reduced risk.

Example positions.yaml:
  open_trades:
    - {symbol: EURUSD, direction: BUY, risk_percent: 1}
    - {symbol: GBPUSD, direction: BUY, risk_percent: 0.8}
  proposed: {symbol: AUDUSD, direction: BUY, risk_percent: 0.5}

Example:
  tradeguard exposure -f positions.yaml`,
	RunE: runExposure,
}

var (
	exposurePath string
	exposureJSON bool
)

type exposureFile struct {
	OpenTrades          []exposure.Trade `yaml:"open_trades" json:"open_trades"`
	Proposed            *exposure.Trade  `yaml:"proposed,omitempty" json:"proposed,omitempty"`
	MaxCurrencyExposure float64          `yaml:"max_currency_exposure,omitempty" json:"max_currency_exposure,omitempty"`
}

func init() {
	rootCmd.AddCommand(exposureCmd)

	exposureCmd.Flags().StringVarP(&exposurePath, "file", "f", "", "positions file, YAML or JSON (required)")
	exposureCmd.Flags().BoolVar(&exposureJSON, "json", false, "print JSON")
	_ = exposureCmd.MarkFlagRequired("file")
}

func runExposure(cmd *cobra.Command, args []string) error {
	var in exposureFile
	if err := readInput(exposurePath, &in); err != nil {
		return err
	}
	limit := orDefault(in.MaxCurrencyExposure, cfg.Risk.MaxCurrencyExposure)

	a := exposure.AnalyzeExposure(in.OpenTrades, in.Proposed, limit)
	var sug *exposure.Suggestion
	if in.Proposed != nil && !a.Valid {
		s := exposure.SuggestReducedRisk(*in.Proposed, in.OpenTrades, limit)
		sug = &s
	}

	if exposureJSON {
		return printJSON(struct {
			exposure.Analysis
			Suggestion *exposure.Suggestion `json:"suggestion,omitempty"`
		}{a, sug})
	}

	mark := "✓"
	if !a.Valid {
		mark = "✗"
	}
	fmt.Printf("%s Exposure (limit %.2f%% per currency)\n", mark, limit)
	fmt.Printf("  %-8s %8s %8s %8s %5s\n", "CCY", "LONG", "SHORT", "NET", "POS")
	for _, e := range a.Exposures {
		fmt.Printf("  %-8s %8.2f %8.2f %+8.2f %5d\n", e.Currency, e.LongExposure, e.ShortExposure, e.NetExposure, e.OpenPositions)
	}
	fmt.Printf("  Total risk: %.2f%%  Correlation-adjusted: %.2f%%\n", a.TotalRisk, a.EffectiveRisk)
	for _, v := range a.Violations {
		fmt.Printf("  ✗ %s\n", v.Msg)
	}
	for _, w := range a.Warnings {
		fmt.Printf("  ! %s\n", w.Msg)
	}
	if sug != nil && sug.Reduced {
		fmt.Printf("  → %s\n", sug.Reason)
	}
	return nil
}
