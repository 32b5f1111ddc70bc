package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/metrics"
	"github.com/rustyeddy/tradeguard/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a proposed trade",
	Long: `Run sizing, stop/target placement, currency exposure and prop-firm checks
on a trade described in a YAML or JSON file.

Account balance and prop-firm rules fall back to the config when the file
omits them.

Example trade.yaml:
  trade:
    symbol: EURUSD
    direction: BUY
    entry_price: 1.0850
    stop_loss: 1.0800
    take_profits: [1.0950]
    risk_percent: 1
  account:
    balance: 10000
    open_trades:
      - {symbol: GBPUSD, direction: BUY, risk_percent: 1}

Examples:
  tradeguard validate -f trade.yaml
  tradeguard validate -f trade.yaml --json --record`,
	RunE: runValidate,
}

var (
	validatePath   string
	validateJSON   bool
	validateRecord bool
	validateStrict bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validatePath, "file", "f", "", "trade file, YAML or JSON, '-' for stdin (required)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print JSON instead of an Org report")
	validateCmd.Flags().BoolVar(&validateRecord, "record", false, "record the decision in the journal")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit non-zero when the trade cannot be executed")
	_ = validateCmd.MarkFlagRequired("file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	var in validation.Input
	if err := readInput(validatePath, &in); err != nil {
		return err
	}
	if err := fillAccount(&in); err != nil {
		return err
	}

	ctx := context.Background()
	specs, done, err := buildSpecs(ctx, cfg)
	if err != nil {
		return err
	}
	defer done.Close()

	var rec validation.Recorder
	if validateRecord {
		_, tee, jdone, err := openJournal(cfg)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jdone.Close()
		rec = tee
	}

	res := buildValidator(specs, rec, metrics.New()).Validate(ctx, in)

	if validateJSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Print(validation.FormatReportOrg(in, res))
	}

	if validateStrict && !res.CanExecute {
		return fmt.Errorf("trade rejected: %d violation(s)", len(res.Violations))
	}
	return nil
}

// fillAccount applies config defaults to fields the trade file left empty.
func fillAccount(in *validation.Input) error {
	a := &in.Account
	if a.ID == "" {
		a.ID = cfg.Account.ID
	}
	if a.Balance == 0 {
		a.Balance = cfg.Account.Balance
	}
	if a.Currency == "" {
		a.Currency = cfg.Account.Currency
	}
	if in.Trade.RiskPercent == 0 {
		in.Trade.RiskPercent = cfg.Risk.DefaultRiskPercent
	}
	if a.PropFirm == nil {
		rules, err := cfg.PropFirmRules()
		if err != nil {
			return err
		}
		a.PropFirm = rules
	}
	if a.PropFirm != nil {
		return a.PropFirm.FillPreset()
	}
	return nil
}
