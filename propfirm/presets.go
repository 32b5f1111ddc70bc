package propfirm

import (
	"fmt"
	"sort"
	"strings"
)

type Provider string

const (
	FTMO         Provider = "FTMO"
	MyForexFunds Provider = "MYFOREXFUNDS"
	The5ers      Provider = "THE5ERS"
	FundedNext   Provider = "FUNDEDNEXT"
)

type Phase string

const (
	Phase1 Phase = "PHASE_1"
	Phase2 Phase = "PHASE_2"
	Funded Phase = "FUNDED"
)

// Limits is the fixed part of a challenge: loss caps, target and minimum days.
// All percentages are relative to the starting balance.
type Limits struct {
	MaxDailyLossPercent float64 `json:"max_daily_loss_percent" yaml:"max_daily_loss_percent"`
	MaxTotalLossPercent float64 `json:"max_total_loss_percent" yaml:"max_total_loss_percent"`
	ProfitTargetPercent float64 `json:"profit_target_percent" yaml:"profit_target_percent"` // 0 when funded
	MinTradingDays      int     `json:"min_trading_days" yaml:"min_trading_days"`           // 0 when not required
}

type presetKey struct {
	provider Provider
	phase    Phase
}

var presets = map[presetKey]Limits{
	{FTMO, Phase1}: {5, 10, 10, 4},
	{FTMO, Phase2}: {5, 10, 5, 4},
	{FTMO, Funded}: {5, 10, 0, 0},

	{MyForexFunds, Phase1}: {5, 12, 8, 5},
	{MyForexFunds, Phase2}: {5, 12, 5, 5},
	{MyForexFunds, Funded}: {5, 12, 0, 0},

	{The5ers, Phase1}: {5, 10, 8, 3},
	{The5ers, Phase2}: {5, 10, 5, 3},
	{The5ers, Funded}: {5, 10, 0, 0},

	{FundedNext, Phase1}: {5, 10, 10, 5},
	{FundedNext, Phase2}: {5, 10, 5, 5},
	{FundedNext, Funded}: {5, 10, 0, 0},
}

func ParseProvider(s string) (Provider, error) {
	norm := strings.NewReplacer(" ", "", "_", "", "-", "", "%", "").Replace(strings.ToUpper(s))
	switch norm {
	case "FTMO":
		return FTMO, nil
	case "MYFOREXFUNDS", "MFF":
		return MyForexFunds, nil
	case "THE5ERS", "5ERS", "THE5PERCENTERS":
		return The5ers, nil
	case "FUNDEDNEXT":
		return FundedNext, nil
	}
	return "", fmt.Errorf("unknown prop firm %q", s)
}

func ParsePhase(s string) (Phase, error) {
	norm := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToUpper(s))
	switch norm {
	case "PHASE1", "1", "CHALLENGE", "STEP1":
		return Phase1, nil
	case "PHASE2", "2", "VERIFICATION", "STEP2":
		return Phase2, nil
	case "FUNDED", "LIVE":
		return Funded, nil
	}
	return "", fmt.Errorf("unknown challenge phase %q", s)
}

// Preset returns the limits for a provider and phase.
func Preset(provider Provider, phase Phase) (Limits, error) {
	l, ok := presets[presetKey{provider, phase}]
	if !ok {
		return Limits{}, fmt.Errorf("no preset for %s %s", provider, phase)
	}
	return l, nil
}

// PresetInfo is a flattened preset entry for listings.
type PresetInfo struct {
	Provider Provider `json:"provider"`
	Phase    Phase    `json:"phase"`
	Limits
}

// Presets lists every known preset ordered by provider then phase.
func Presets() []PresetInfo {
	out := make([]PresetInfo, 0, len(presets))
	for k, l := range presets {
		out = append(out, PresetInfo{Provider: k.provider, Phase: k.phase, Limits: l})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Phase < out[j].Phase
	})
	return out
}

// Rules is a challenge preset plus the live account counters.
type Rules struct {
	Provider Provider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Phase    Phase    `json:"phase,omitempty" yaml:"phase,omitempty"`
	Limits   `yaml:",inline"`

	StartingBalance      float64 `json:"starting_balance" yaml:"starting_balance"`
	CurrentDailyLoss     float64 `json:"current_daily_loss" yaml:"current_daily_loss"`         // positive amount lost today
	CurrentTotalDrawdown float64 `json:"current_total_drawdown" yaml:"current_total_drawdown"` // positive amount below start
	CurrentProfit        float64 `json:"current_profit" yaml:"current_profit"`
	TradingDays          int     `json:"trading_days" yaml:"trading_days"`
}

// NewRules builds rules from a preset with zeroed counters.
func NewRules(provider Provider, phase Phase, startingBalance float64) (Rules, error) {
	l, err := Preset(provider, phase)
	if err != nil {
		return Rules{}, err
	}
	return Rules{Provider: provider, Phase: phase, Limits: l, StartingBalance: startingBalance}, nil
}

// FillPreset loads the provider's preset limits when none were supplied.
// Explicit limits are left alone.
func (r *Rules) FillPreset() error {
	if r.Limits != (Limits{}) || r.Provider == "" {
		return nil
	}
	p, err := ParseProvider(string(r.Provider))
	if err != nil {
		return err
	}
	phase := Phase1
	if r.Phase != "" {
		if phase, err = ParsePhase(string(r.Phase)); err != nil {
			return err
		}
	}
	r.Provider, r.Phase = p, phase
	l, err := Preset(p, phase)
	if err != nil {
		return err
	}
	r.Limits = l
	return nil
}
