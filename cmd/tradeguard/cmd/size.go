package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/risk"
)

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Calculate a risk-based lot size",
	Long: `Calculate the lot size that risks a fixed percentage of the account
between entry and stop.

Examples:
  tradeguard size --symbol EURUSD --entry 1.0850 --stop 1.0800 --risk 1
  tradeguard size --symbol USDJPY --entry 150.00 --stop 149.50 --balance 25000`,
	RunE: runSize,
}

var (
	sizeSymbol  string
	sizeEntry   float64
	sizeStop    float64
	sizeRisk    float64
	sizeBalance float64
	sizeJSON    bool
)

func init() {
	rootCmd.AddCommand(sizeCmd)

	sizeCmd.Flags().StringVarP(&sizeSymbol, "symbol", "s", "", "symbol, e.g. EURUSD (required)")
	sizeCmd.Flags().Float64VarP(&sizeEntry, "entry", "e", 0, "entry price (required)")
	sizeCmd.Flags().Float64Var(&sizeStop, "stop", 0, "stop loss price (required)")
	sizeCmd.Flags().Float64VarP(&sizeRisk, "risk", "r", 0, "risk percent (default risk.default_risk_percent)")
	sizeCmd.Flags().Float64VarP(&sizeBalance, "balance", "b", 0, "account balance (default account.balance)")
	sizeCmd.Flags().BoolVar(&sizeJSON, "json", false, "print JSON")
	_ = sizeCmd.MarkFlagRequired("symbol")
	_ = sizeCmd.MarkFlagRequired("entry")
	_ = sizeCmd.MarkFlagRequired("stop")
}

func runSize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	specs, done, err := buildSpecs(ctx, cfg)
	if err != nil {
		return err
	}
	defer done.Close()

	in := risk.SizingInput{
		AccountBalance: orDefault(sizeBalance, cfg.Account.Balance),
		RiskPercent:    orDefault(sizeRisk, cfg.Risk.DefaultRiskPercent),
		EntryPrice:     sizeEntry,
		StopLoss:       sizeStop,
		Symbol:         sizeSymbol,
	}
	res := risk.NewSizer(specs).Calculate(ctx, in)
	if sizeJSON {
		return printJSON(res)
	}
	if !res.Valid {
		return fmt.Errorf("sizing failed: %s", res.Error)
	}

	fmt.Printf("✓ %s: %.2f lots\n", in.Symbol, res.LotSize)
	fmt.Printf("  Risk: $%.2f (%.2f%% of $%.2f)\n", res.RiskAmount, in.RiskPercent, in.AccountBalance)
	fmt.Printf("  Stop distance: %.1f pips @ $%.2f/pip/lot (%s)\n", res.PipDistance, res.PipValue, res.SpecSource)
	if res.SpecFallback {
		fmt.Println("  ! broker spec unavailable, used static pip table")
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}
