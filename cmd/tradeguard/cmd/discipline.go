package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/journal"
)

var disciplineCmd = &cobra.Command{
	Use:   "discipline",
	Short: "Daily discipline scores",
	Long: `Score a trading day from 0 to 100 with a letter grade.

Subcommands:
  score - Score counters given as flags or in a file
  day   - Score a day from the trade journal and store the result

Examples:
  tradeguard discipline score --trades 4 --wins 3 --within-risk 4
  tradeguard discipline score -f day.yaml
  tradeguard discipline day ftmo-1 2026-03-04`,
}

var disciplineScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a day from explicit counters",
	Args:  cobra.NoArgs,
	RunE:  runDisciplineScore,
}

var disciplineDayCmd = &cobra.Command{
	Use:   "day <account> [YYYY-MM-DD]",
	Short: "Score a journaled day (default yesterday, UTC)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDisciplineDay,
}

var (
	dsIn   discipline.Input
	dsFile string
	dsJSON bool
)

func init() {
	rootCmd.AddCommand(disciplineCmd)
	disciplineCmd.AddCommand(disciplineScoreCmd)
	disciplineCmd.AddCommand(disciplineDayCmd)

	f := disciplineScoreCmd.Flags()
	f.StringVarP(&dsFile, "file", "f", "", "counters file, YAML or JSON")
	f.IntVar(&dsIn.CriticalViolations, "critical", 0, "critical rule violations")
	f.IntVar(&dsIn.WarningViolations, "warnings", 0, "rule warnings")
	f.IntVar(&dsIn.TotalTrades, "trades", 0, "trades closed")
	f.IntVar(&dsIn.WinningTrades, "wins", 0, "winning trades")
	f.IntVar(&dsIn.LosingTrades, "losses", 0, "losing trades")
	f.IntVar(&dsIn.TradesWithinRisk, "within-risk", 0, "trades within the risk limit")
	f.IntVar(&dsIn.TradesOverRisk, "over-risk", 0, "trades over the risk limit")
	f.Float64Var(&dsIn.DailyDrawdown, "drawdown", 0, "daily drawdown percent")
	f.Float64Var(&dsIn.MaxDailyDrawdown, "max-drawdown", 0, "daily drawdown limit percent")
	f.BoolVar(&dsIn.ChallengeBreached, "breached", false, "challenge limit breached")
	disciplineCmd.PersistentFlags().BoolVar(&dsJSON, "json", false, "print JSON")
}

func runDisciplineScore(cmd *cobra.Command, args []string) error {
	in := dsIn
	if dsFile != "" {
		in = discipline.Input{}
		if err := readInput(dsFile, &in); err != nil {
			return err
		}
	}
	return printDiscipline("", "", discipline.Calculate(in))
}

func runDisciplineDay(cmd *cobra.Command, args []string) error {
	day := discipline.Day(time.Now()).AddDate(0, 0, -1)
	if len(args) == 2 {
		d, err := time.Parse(time.DateOnly, args[1])
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		day = d
	}
	if cfg.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is not set")
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	r, err := discipline.NewService(j, j).ScoreDay(context.Background(), args[0], day)
	if err != nil {
		return err
	}
	return printDiscipline(args[0], day.Format(time.DateOnly), r)
}

func printDiscipline(account, day string, r discipline.Result) error {
	if dsJSON {
		return printJSON(r)
	}
	if account != "" {
		fmt.Printf("%s %s\n", account, day)
	}
	fmt.Printf("Discipline: %d/100 (%s)\n", r.Total, r.Grade)
	for _, s := range []struct {
		name string
		sub  discipline.SubScore
	}{
		{"Violations", r.Violations},
		{"Risk management", r.RiskManagement},
		{"Drawdown", r.Drawdown},
		{"Trading quality", r.TradingQuality},
	} {
		fmt.Printf("  %-16s %2d/%-2d  %s\n", s.name, s.sub.Score, s.sub.Max, s.sub.Tier)
	}
	for _, f := range r.Feedback {
		fmt.Printf("  • %s\n", f)
	}
	for _, rec := range r.Recommendations {
		fmt.Printf("  → %s\n", rec)
	}
	return nil
}
