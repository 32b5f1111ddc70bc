package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradeguard/broker"
	"github.com/rustyeddy/tradeguard/exposure"
	"github.com/rustyeddy/tradeguard/market"
	"github.com/rustyeddy/tradeguard/propfirm"
	"github.com/rustyeddy/tradeguard/risk"
)

// EnvPrefix prefixes every environment override, e.g. TRADEGUARD_ACCOUNT_BALANCE.
const EnvPrefix = "TRADEGUARD_"

// Config represents the complete engine configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account" envPrefix:"ACCOUNT_"`
	Risk      RiskConfig      `json:"risk" yaml:"risk" envPrefix:"RISK_"`
	PropFirm  PropFirmConfig  `json:"propfirm" yaml:"propfirm" envPrefix:"PROPFIRM_"`
	Broker    BrokerConfig    `json:"broker" yaml:"broker" envPrefix:"BROKER_"`
	Journal   JournalConfig   `json:"journal" yaml:"journal" envPrefix:"JOURNAL_"`
	Server    ServerConfig    `json:"server" yaml:"server" envPrefix:"SERVER_"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler" envPrefix:"SCHEDULER_"`
	Log       LogConfig       `json:"log" yaml:"log" envPrefix:"LOG_"`
}

// AccountConfig contains the default trading account
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id" env:"ID"`
	Currency string  `json:"currency" yaml:"currency" env:"CURRENCY"`
	Balance  float64 `json:"balance" yaml:"balance" env:"BALANCE"`
}

// RiskConfig contains per-trade and portfolio limits
type RiskConfig struct {
	DefaultRiskPercent  float64 `json:"default_risk_percent" yaml:"default_risk_percent" env:"DEFAULT_PERCENT"`
	MaxRiskPercent      float64 `json:"max_risk_percent" yaml:"max_risk_percent" env:"MAX_PERCENT"`
	MaxCurrencyExposure float64 `json:"max_currency_exposure" yaml:"max_currency_exposure" env:"MAX_CURRENCY_EXPOSURE"`
}

// PropFirmConfig selects a challenge preset. Empty provider disables rules.
type PropFirmConfig struct {
	Provider        string  `json:"provider,omitempty" yaml:"provider,omitempty" env:"PROVIDER"`
	Phase           string  `json:"phase,omitempty" yaml:"phase,omitempty" env:"PHASE"`
	StartingBalance float64 `json:"starting_balance,omitempty" yaml:"starting_balance,omitempty" env:"STARTING_BALANCE"`
}

// BrokerConfig selects where symbol specs come from
type BrokerConfig struct {
	Source string              `json:"source" yaml:"source" env:"SOURCE"` // "static" or "oanda"
	Specs  []market.SymbolSpec `json:"specs,omitempty" yaml:"specs,omitempty" envPrefix:"SPECS_"`

	OANDA   OANDAConfig            `json:"oanda" yaml:"oanda" envPrefix:"OANDA_"`
	Redis   RedisConfig            `json:"redis" yaml:"redis" envPrefix:"REDIS_"`
	Breaker broker.BreakerSettings `json:"breaker" yaml:"breaker"`
	Timeout time.Duration          `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

type OANDAConfig struct {
	Env       string `json:"env" yaml:"env" env:"ENV"`
	AccountID string `json:"account_id" yaml:"account_id" env:"ACCOUNT_ID"`
	Token     string `json:"token,omitempty" yaml:"token,omitempty" env:"TOKEN"`
}

// RedisConfig enables the spec cache when Addr is set
type RedisConfig struct {
	Addr     string        `json:"addr,omitempty" yaml:"addr,omitempty" env:"ADDR"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty" env:"PASSWORD"`
	DB       int           `json:"db" yaml:"db" env:"DB"`
	TTL      time.Duration `json:"ttl" yaml:"ttl" env:"TTL"`
}

// JournalConfig contains journaling parameters. Empty paths disable a sink.
type JournalConfig struct {
	DBPath          string `json:"db_path,omitempty" yaml:"db_path,omitempty" env:"DB_PATH"`
	ValidationsFile string `json:"validations_file,omitempty" yaml:"validations_file,omitempty" env:"VALIDATIONS_FILE"`
	TradesFile      string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" env:"TRADES_FILE"`
}

type ServerConfig struct {
	Addr      string  `json:"addr" yaml:"addr" env:"ADDR"`
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"` // requests per second, 0 disables
	Burst     int     `json:"burst" yaml:"burst" env:"BURST"`
}

// SchedulerConfig drives the daily discipline job
type SchedulerConfig struct {
	Spec     string   `json:"spec" yaml:"spec" env:"SPEC"` // cron expression
	Accounts []string `json:"accounts,omitempty" yaml:"accounts,omitempty" env:"ACCOUNTS" envSeparator:","`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Pretty bool   `json:"pretty" yaml:"pretty" env:"PRETTY"`
}

// LoadFromFile loads configuration from a file (YAML or JSON), applies
// environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load returns the file config when path is set, otherwise defaults with
// environment overrides.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays TRADEGUARD_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance < 0 {
		return fmt.Errorf("account.balance must not be negative")
	}
	if c.Risk.MaxRiskPercent <= 0 || c.Risk.MaxRiskPercent > risk.MaxRiskPercent {
		return fmt.Errorf("risk.max_risk_percent must be between 0 and %.0f", risk.MaxRiskPercent)
	}
	if c.Risk.DefaultRiskPercent <= 0 || c.Risk.DefaultRiskPercent > c.Risk.MaxRiskPercent {
		return fmt.Errorf("risk.default_risk_percent must be between 0 and risk.max_risk_percent")
	}
	if c.Risk.MaxCurrencyExposure <= 0 {
		return fmt.Errorf("risk.max_currency_exposure must be positive")
	}
	if c.PropFirm.Provider != "" {
		if _, err := c.PropFirmRules(); err != nil {
			return err
		}
	}
	switch c.Broker.Source {
	case "static":
		for _, s := range c.Broker.Specs {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("broker.specs: %w", err)
			}
		}
	case "oanda":
		if c.Broker.OANDA.AccountID == "" {
			return fmt.Errorf("broker.oanda.account_id required for oanda source")
		}
		if c.Broker.OANDA.Token == "" {
			return fmt.Errorf("broker.oanda.token required for oanda source (or set %sBROKER_OANDA_TOKEN)", EnvPrefix)
		}
	default:
		return fmt.Errorf("broker.source must be 'static' or 'oanda'")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Scheduler.Spec != "" {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("scheduler.spec: %w", err)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// PropFirmRules builds fresh challenge rules from the configured preset.
func (c *Config) PropFirmRules() (*propfirm.Rules, error) {
	if c.PropFirm.Provider == "" {
		return nil, nil
	}
	p, err := propfirm.ParseProvider(c.PropFirm.Provider)
	if err != nil {
		return nil, fmt.Errorf("propfirm.provider: %w", err)
	}
	phase := propfirm.Phase1
	if c.PropFirm.Phase != "" {
		if phase, err = propfirm.ParsePhase(c.PropFirm.Phase); err != nil {
			return nil, fmt.Errorf("propfirm.phase: %w", err)
		}
	}
	start := c.PropFirm.StartingBalance
	if start <= 0 {
		start = c.Account.Balance
	}
	r, err := propfirm.NewRules(p, phase, start)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "default",
			Currency: "USD",
			Balance:  10000,
		},
		Risk: RiskConfig{
			DefaultRiskPercent:  1,
			MaxRiskPercent:      2,
			MaxCurrencyExposure: exposure.DefaultMaxCurrencyExposure,
		},
		Broker: BrokerConfig{
			Source:  "static",
			OANDA:   OANDAConfig{Env: "practice"},
			Redis:   RedisConfig{TTL: broker.DefaultCacheTTL},
			Breaker: broker.DefaultBreakerSettings(),
			Timeout: broker.DefaultLookupTimeout,
		},
		Journal: JournalConfig{
			DBPath: "./tradeguard.db",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 20,
			Burst:     40,
		},
		Scheduler: SchedulerConfig{
			Spec: "5 0 * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
