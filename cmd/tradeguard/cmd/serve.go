package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/metrics"
	"github.com/rustyeddy/tradeguard/scheduler"
	"github.com/rustyeddy/tradeguard/server"
	"github.com/rustyeddy/tradeguard/validation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP API",
	Long: `Serve the validation engine over HTTP with Prometheus metrics at /metrics.

Every decision is recorded in the configured journal. When scheduler.accounts
is set, each account's previous day is scored on the scheduler.spec cron.

Examples:
  tradeguard serve
  tradeguard serve --addr :9090 -c tradeguard.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	specs, sdone, err := buildSpecs(ctx, cfg)
	if err != nil {
		return err
	}
	defer sdone.Close()

	db, tee, jdone, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jdone.Close()

	var rec validation.Recorder
	if len(tee) > 0 {
		rec = tee
	}

	var svc *discipline.Service
	if db != nil {
		svc = discipline.NewService(db, db)
	}

	if svc != nil && len(cfg.Scheduler.Accounts) > 0 && cfg.Scheduler.Spec != "" {
		runner := scheduler.New(ctx)
		job := scheduler.DailyScores{Service: svc, Accounts: cfg.Scheduler.Accounts, Metrics: m}
		if _, err := job.Schedule(runner, cfg.Scheduler.Spec); err != nil {
			return fmt.Errorf("schedule discipline job: %w", err)
		}
		runner.Start()
		defer runner.Stop()
		log.Info().Str("spec", cfg.Scheduler.Spec).Strs("accounts", cfg.Scheduler.Accounts).Msg("discipline job scheduled")
	}

	sc := server.DefaultConfig()
	sc.Addr = orString(serveAddr, cfg.Server.Addr)
	sc.RateLimit = cfg.Server.RateLimit
	sc.Burst = cfg.Server.Burst

	srv := server.New(sc, server.Deps{
		Validator:           buildValidator(specs, rec, m),
		Discipline:          svc,
		Metrics:             m,
		MaxCurrencyExposure: cfg.Risk.MaxCurrencyExposure,
	})
	return srv.Run(ctx)
}

func orString(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
