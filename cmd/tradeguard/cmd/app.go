package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradeguard/broker"
	"github.com/rustyeddy/tradeguard/broker/oanda"
	"github.com/rustyeddy/tradeguard/config"
	"github.com/rustyeddy/tradeguard/journal"
	"github.com/rustyeddy/tradeguard/market"
	"github.com/rustyeddy/tradeguard/metrics"
	"github.com/rustyeddy/tradeguard/validation"
)

// closers runs cleanups in reverse order.
type closers []func() error

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

// buildSpecs assembles the symbol spec chain. Static specs from config are
// always the last resort before the built-in pip table.
func buildSpecs(ctx context.Context, c *config.Config) (market.SpecProvider, closers, error) {
	var (
		chain broker.Chain
		done  closers
	)

	if c.Broker.Source == "oanda" {
		client, err := oanda.NewClient(c.Broker.OANDA.Env, c.Broker.OANDA.Token, c.Broker.OANDA.AccountID)
		if err != nil {
			return nil, nil, err
		}
		var upstream market.SpecProvider = broker.NewBreaker(
			"oanda-specs",
			broker.WithTimeout(oanda.NewSpecs(client, c.Account.Currency), c.Broker.Timeout),
			c.Broker.Breaker,
		)

		if c.Broker.Redis.Addr != "" {
			rdb, err := broker.DialRedis(ctx, c.Broker.Redis.Addr, c.Broker.Redis.Password, c.Broker.Redis.DB)
			if err != nil {
				log.Warn().Err(err).Msg("spec cache disabled")
			} else {
				done = append(done, rdb.Close)
				upstream = broker.NewRedisCache(rdb, upstream, c.Broker.Redis.TTL)
			}
		}
		chain = append(chain, upstream)
	}

	if len(c.Broker.Specs) > 0 {
		chain = append(chain, market.NewMapProvider(c.Broker.Specs))
	}
	if len(chain) == 0 {
		return nil, done, nil
	}
	return chain, done, nil
}

// openJournal opens the configured sinks. The SQLite journal is nil when no
// db path is set.
func openJournal(c *config.Config) (*journal.SQLite, journal.Tee, closers, error) {
	var (
		tee  journal.Tee
		done closers
		db   *journal.SQLite
	)

	if c.Journal.DBPath != "" {
		j, err := journal.NewSQLite(c.Journal.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		db = j
		tee = append(tee, j)
		done = append(done, j.Close)
	}
	if c.Journal.ValidationsFile != "" && c.Journal.TradesFile != "" {
		j, err := journal.NewCSV(c.Journal.ValidationsFile, c.Journal.TradesFile)
		if err != nil {
			done.Close()
			return nil, nil, nil, err
		}
		tee = append(tee, j)
		done = append(done, j.Close)
	}
	return db, tee, done, nil
}

func buildValidator(specs market.SpecProvider, rec validation.Recorder, m *metrics.Collector) *validation.Validator {
	opts := []validation.Option{
		validation.WithMaxCurrencyExposure(cfg.Risk.MaxCurrencyExposure),
		validation.WithMetrics(m),
	}
	if specs != nil {
		opts = append(opts, validation.WithSpecs(specs))
	}
	if rec != nil {
		opts = append(opts, validation.WithRecorder(rec))
	}
	return validation.New(opts...)
}

// readInput decodes a YAML or JSON file ("-" reads stdin).
func readInput(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, v); err != nil {
		if jerr := json.Unmarshal(data, v); jerr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): %w", path, jerr)
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
