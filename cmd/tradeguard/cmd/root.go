package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/config"
)

var rootCmd = &cobra.Command{
	Use:   "tradeguard",
	Short: "Pre-trade risk and prop-firm compliance checks",
	Long: `Tradeguard validates a proposed trade before it is placed.

It provides tools for:
  - Risk-based position sizing
  - Currency exposure and correlation analysis
  - Prop-firm challenge rule checks (FTMO, MyForexFunds, The5ers, FundedNext)
  - A combined validation verdict with recommendations
  - Daily discipline scoring from the trade journal
  - An HTTP API with Prometheus metrics

Complete documentation is available at https://github.com/rustyeddy/tradeguard`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); TRADEGUARD_* env vars override it")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error), overrides log.level")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Log.SetupLogging(nil); err != nil {
		return err
	}
	cfg = c
	return nil
}
