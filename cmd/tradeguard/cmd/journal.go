package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Record and query the trade journal",
	Long: `Record closed trades and drawdown readings, and query stored decisions.

Subcommands:
  validation - Show a stored validation decision by ID
  trades     - List trades closed on a UTC day
  trade      - Record a closed trade
  drawdown   - Record a daily drawdown reading

Examples:
  tradeguard journal validation 01HV...
  tradeguard journal trades 2026-03-04 --account ftmo-1
  tradeguard journal trade --symbol EURUSD --direction BUY --risk 1 --pl 120
  tradeguard journal drawdown --dd 2.5 --max 5`,
}

var journalValidationCmd = &cobra.Command{
	Use:   "validation <id>",
	Short: "Show a stored validation decision",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalValidation,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades [YYYY-MM-DD]",
	Short: "List trades closed on a day (default today, UTC)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Record a closed trade",
	Args:  cobra.NoArgs,
	RunE:  runJournalTrade,
}

var journalDrawdownCmd = &cobra.Command{
	Use:   "drawdown",
	Short: "Record a daily drawdown reading",
	Args:  cobra.NoArgs,
	RunE:  runJournalDrawdown,
}

var (
	jAccount   string
	jTrade     journal.TradeRecord
	jDirection string
	jDrawdown  journal.DrawdownSnapshot
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalValidationCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDrawdownCmd)

	journalCmd.PersistentFlags().StringVarP(&jAccount, "account", "a", "", "account ID (default account.id)")

	tf := journalTradeCmd.Flags()
	tf.StringVar(&jTrade.TradeID, "id", "", "trade ID (generated when empty)")
	tf.StringVarP(&jTrade.Symbol, "symbol", "s", "", "symbol (required)")
	tf.StringVar(&jDirection, "direction", "BUY", "BUY or SELL")
	tf.Float64VarP(&jTrade.RiskPercent, "risk", "r", 0, "risk percent taken")
	tf.Float64Var(&jTrade.RealizedPL, "pl", 0, "realized profit or loss")
	_ = journalTradeCmd.MarkFlagRequired("symbol")

	df := journalDrawdownCmd.Flags()
	df.Float64Var(&jDrawdown.DailyDrawdown, "dd", 0, "daily drawdown percent")
	df.Float64Var(&jDrawdown.MaxDailyDrawdown, "max", 0, "daily drawdown limit percent")
	df.BoolVar(&jDrawdown.Breached, "breached", false, "challenge limit breached")
}

func openSQLite() (*journal.SQLite, error) {
	if cfg.Journal.DBPath == "" {
		return nil, fmt.Errorf("journal.db_path is not set")
	}
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func account() string {
	if jAccount != "" {
		return jAccount
	}
	return cfg.Account.ID
}

func runJournalValidation(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetValidation(context.Background(), args[0])
	if errors.Is(err, journal.ErrNotFound) {
		return fmt.Errorf("no validation %q", args[0])
	}
	if err != nil {
		return fmt.Errorf("get validation: %w", err)
	}
	return printJSON(rec)
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if len(args) == 1 {
		if start, err = time.Parse(time.DateOnly, args[0]); err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}

	recs, err := j.ListTradesClosedBetween(context.Background(), account(), start, start.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Printf("%-26s %-8s %-4s %6s %6s %10s\n", "ID", "SYMBOL", "DIR", "RISK%", "OK", "P/L")
	for _, r := range recs {
		ok := "✓"
		if !r.WithinRisk {
			ok = "✗"
		}
		fmt.Printf("%-26s %-8s %-4s %6.2f %6s %10.2f\n", r.TradeID, r.Symbol, r.Direction, r.RiskPercent, ok, r.RealizedPL)
	}
	fmt.Printf("%d trade(s)\n", len(recs))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	t := jTrade
	t.AccountID = account()
	if err := t.Direction.UnmarshalText([]byte(jDirection)); err != nil {
		return err
	}
	if !t.Direction.Valid() {
		return fmt.Errorf("direction must be BUY or SELL, got %q", jDirection)
	}
	now := time.Now().UTC()
	t.OpenTime, t.CloseTime = now, now
	t.WithinRisk = t.RiskPercent <= cfg.Risk.MaxRiskPercent

	if err := j.RecordTrade(context.Background(), t); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	fmt.Printf("✓ Recorded %s %s for %s\n", t.Direction, t.Symbol, t.AccountID)
	return nil
}

func runJournalDrawdown(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	d := jDrawdown
	d.AccountID = account()
	d.Time = time.Now().UTC()
	if d.MaxDailyDrawdown == 0 {
		if rules, err := cfg.PropFirmRules(); err == nil && rules != nil {
			d.MaxDailyDrawdown = rules.MaxDailyLossPercent
		}
	}

	if err := j.RecordDrawdown(context.Background(), d); err != nil {
		return fmt.Errorf("record drawdown: %w", err)
	}
	fmt.Printf("✓ Recorded drawdown %.2f%% for %s\n", d.DailyDrawdown, d.AccountID)
	return nil
}
