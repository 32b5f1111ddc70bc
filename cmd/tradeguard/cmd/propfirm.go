package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/propfirm"
)

var propfirmCmd = &cobra.Command{
	Use:   "propfirm",
	Short: "Prop-firm challenge presets and health",
	Long: `Inspect prop-firm challenge rules.

Subcommands:
  presets - List every provider/phase preset
  health  - Assess how close an account is to its loss limits

Examples:
  tradeguard propfirm presets
  tradeguard propfirm health --provider FTMO --balance 100000 --daily-loss 3200`,
}

var propfirmPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List prop-firm presets",
	Args:  cobra.NoArgs,
	RunE:  runPropfirmPresets,
}

var propfirmHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Assess challenge health",
	Args:  cobra.NoArgs,
	RunE:  runPropfirmHealth,
}

var (
	pfProvider  string
	pfPhase     string
	pfBalance   float64
	pfDailyLoss float64
	pfTotalDD   float64
	pfProfit    float64
	pfDays      int
	pfRisk      float64
	pfJSON      bool
)

func init() {
	rootCmd.AddCommand(propfirmCmd)
	propfirmCmd.AddCommand(propfirmPresetsCmd)
	propfirmCmd.AddCommand(propfirmHealthCmd)

	f := propfirmHealthCmd.Flags()
	f.StringVarP(&pfProvider, "provider", "p", "", "FTMO|MYFOREXFUNDS|THE5ERS|FUNDEDNEXT (default propfirm.provider)")
	f.StringVar(&pfPhase, "phase", "", "PHASE_1|PHASE_2|FUNDED (default propfirm.phase)")
	f.Float64VarP(&pfBalance, "balance", "b", 0, "starting balance (default account.balance)")
	f.Float64Var(&pfDailyLoss, "daily-loss", 0, "amount lost today")
	f.Float64Var(&pfTotalDD, "total-dd", 0, "amount below starting balance")
	f.Float64Var(&pfProfit, "profit", 0, "current profit")
	f.IntVar(&pfDays, "days", 0, "trading days so far")
	f.Float64VarP(&pfRisk, "risk", "r", 0, "also check a new trade risking this percent")
	propfirmCmd.PersistentFlags().BoolVar(&pfJSON, "json", false, "print JSON")
}

func runPropfirmPresets(cmd *cobra.Command, args []string) error {
	presets := propfirm.Presets()
	if pfJSON {
		return printJSON(presets)
	}
	fmt.Printf("%-14s %-8s %10s %10s %8s %8s\n", "PROVIDER", "PHASE", "DAILY %", "TOTAL %", "TARGET %", "MIN DAYS")
	for _, p := range presets {
		fmt.Printf("%-14s %-8s %10.1f %10.1f %8.1f %8d\n",
			p.Provider, p.Phase, p.MaxDailyLossPercent, p.MaxTotalLossPercent, p.ProfitTargetPercent, p.MinTradingDays)
	}
	return nil
}

func runPropfirmHealth(cmd *cobra.Command, args []string) error {
	rules := propfirm.Rules{
		Provider: propfirm.Provider(pfProvider),
		Phase:    propfirm.Phase(pfPhase),
	}
	if rules.Provider == "" {
		rules.Provider = propfirm.Provider(cfg.PropFirm.Provider)
		if rules.Phase == "" {
			rules.Phase = propfirm.Phase(cfg.PropFirm.Phase)
		}
	}
	if rules.Provider == "" {
		return fmt.Errorf("no prop firm: pass --provider or set propfirm.provider")
	}
	if err := rules.FillPreset(); err != nil {
		return err
	}
	rules.StartingBalance = orDefault(pfBalance, orDefault(cfg.PropFirm.StartingBalance, cfg.Account.Balance))
	rules.CurrentDailyLoss = pfDailyLoss
	rules.CurrentTotalDrawdown = pfTotalDD
	rules.CurrentProfit = pfProfit
	rules.TradingDays = pfDays

	h := propfirm.AssessChallengeHealth(rules)
	var check *propfirm.Result
	if pfRisk > 0 {
		r := propfirm.ValidateTrade(rules, pfRisk)
		check = &r
	}

	if pfJSON {
		return printJSON(struct {
			Health propfirm.Health   `json:"health"`
			Trade  *propfirm.Result `json:"trade,omitempty"`
		}{h, check})
	}

	fmt.Printf("%s %s: %s\n", rules.Provider, rules.Phase, h.Status)
	fmt.Printf("  Daily loss: %.2f%% of %.0f%% (%.0f%% of limit)\n", h.Usage.DailyLossUsed, rules.MaxDailyLossPercent, h.DailyLimitUsage)
	fmt.Printf("  Drawdown:   %.2f%% of %.0f%% (%.0f%% of limit)\n", h.Usage.TotalDrawdownUsed, rules.MaxTotalLossPercent, h.TotalLimitUsage)
	if rules.ProfitTargetPercent > 0 {
		fmt.Printf("  Profit:     %.2f%% of %.0f%% target\n", h.Usage.ProfitProgress, rules.ProfitTargetPercent)
	}
	fmt.Printf("  Suggested max risk per trade: %.1f%%\n", h.SuggestedMaxRisk)
	for _, r := range h.Recommendations {
		fmt.Printf("  → %s\n", r)
	}
	if check != nil {
		mark := "✓"
		if !check.Valid {
			mark = "✗"
		}
		fmt.Printf("\n%s Trade risking %.2f%%\n", mark, pfRisk)
		for _, v := range check.Violations {
			fmt.Printf("  ✗ %s\n", v.Msg)
		}
		for _, w := range check.Warnings {
			fmt.Printf("  ! %s\n", w.Msg)
		}
	}
	return nil
}
