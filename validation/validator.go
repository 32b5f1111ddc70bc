package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeguard/exposure"
	"github.com/rustyeddy/tradeguard/market"
	"github.com/rustyeddy/tradeguard/metrics"
	"github.com/rustyeddy/tradeguard/pkg/id"
	"github.com/rustyeddy/tradeguard/propfirm"
	"github.com/rustyeddy/tradeguard/risk"
)

// Advisory thresholds.
const (
	CombinedRiskAdvice   = 3.0   // percent
	ThinDailyBudget      = 2.0   // percent
	ThinTotalBudget      = 3.0   // percent
	HighRiskPercent      = 2.0   // percent per trade
	WidePipDistance      = 100.0 // pips
	defaultExposureLimit = exposure.DefaultMaxCurrencyExposure
)

type TradeProposal struct {
	Symbol      string         `json:"symbol" yaml:"symbol"`
	Direction   risk.Direction `json:"direction" yaml:"direction"`
	EntryPrice  float64        `json:"entry_price" yaml:"entry_price"`
	StopLoss    float64        `json:"stop_loss" yaml:"stop_loss"`
	TakeProfits []float64      `json:"take_profits,omitempty" yaml:"take_profits,omitempty"`
	RiskPercent float64        `json:"risk_percent" yaml:"risk_percent"`
}

type AccountState struct {
	ID         string           `json:"id,omitempty" yaml:"id,omitempty"`
	Balance    float64          `json:"balance" yaml:"balance"`
	Currency   string           `json:"currency" yaml:"currency"`
	OpenTrades []exposure.Trade `json:"open_trades,omitempty" yaml:"open_trades,omitempty"`
	PropFirm   *propfirm.Rules  `json:"prop_firm,omitempty" yaml:"prop_firm,omitempty"`
}

type Input struct {
	Trade   TradeProposal `json:"trade" yaml:"trade"`
	Account AccountState  `json:"account" yaml:"account"`

	// MaxCurrencyExposure overrides the validator default when > 0.
	MaxCurrencyExposure float64 `json:"max_currency_exposure,omitempty" yaml:"max_currency_exposure,omitempty"`
}

type Result struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Severity  risk.Severity `json:"severity"`

	IsValid    bool `json:"is_valid"`
	CanExecute bool `json:"can_execute"`

	LotSize     float64 `json:"lot_size"`
	RiskAmount  float64 `json:"risk_amount"`
	PipDistance float64 `json:"pip_distance"`
	RiskReward  float64 `json:"risk_reward,omitempty"`

	Violations      []risk.Violation `json:"violations"`
	Warnings        []risk.Violation `json:"warnings"`
	Recommendations []string         `json:"recommendations"`

	Sizing          risk.SizingResult    `json:"sizing"`
	Exposure        *exposure.Analysis   `json:"exposure,omitempty"`
	ExposureAdvice  *exposure.Suggestion `json:"exposure_advice,omitempty"`
	PropFirm        *propfirm.Result     `json:"prop_firm,omitempty"`
	RemainingTrades *int                 `json:"remaining_trades,omitempty"`
}

func (r *Result) violate(sev risk.Severity, vs ...risk.Violation) {
	if len(vs) == 0 {
		return
	}
	r.Violations = append(r.Violations, vs...)
	r.Severity.Raise(sev)
}

func (r *Result) warn(sev risk.Severity, ws ...risk.Violation) {
	if len(ws) == 0 {
		return
	}
	r.Warnings = append(r.Warnings, ws...)
	r.Severity.Raise(sev)
}

func (r *Result) recommend(format string, args ...any) {
	r.Recommendations = append(r.Recommendations, fmt.Sprintf(format, args...))
}

// Recorder persists decisions. Errors are logged and never change the result.
type Recorder interface {
	RecordValidation(ctx context.Context, in Input, res Result) error
}

// Validator composes sizing, exposure and prop-firm checks into one decision.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	Sizer               *risk.Sizer
	MaxCurrencyExposure float64
	Recorder            Recorder
	Metrics             *metrics.Collector
	Now                 func() time.Time
}

type Option func(*Validator)

func WithSpecs(p market.SpecProvider) Option {
	return func(v *Validator) { v.Sizer = risk.NewSizer(p) }
}

func WithMaxCurrencyExposure(pct float64) Option {
	return func(v *Validator) { v.MaxCurrencyExposure = pct }
}

func WithRecorder(r Recorder) Option {
	return func(v *Validator) { v.Recorder = r }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(v *Validator) { v.Metrics = c }
}

func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.Now = now }
}

func New(opts ...Option) *Validator {
	v := &Validator{
		Sizer:               risk.NewSizer(nil),
		MaxCurrencyExposure: defaultExposureLimit,
		Now:                 time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// ValidateTrade runs the full pipeline with a default Validator.
func ValidateTrade(in Input) Result {
	return New().Validate(context.Background(), in)
}

// Validate decides whether the proposed trade may be executed. Severity only
// ever rises across steps; CanExecute is false whenever any violation exists.
func (v *Validator) Validate(ctx context.Context, in Input) Result {
	start := time.Now()
	now := start
	if v.Now != nil {
		now = v.Now()
	}
	res := Result{
		ID:              id.At(now),
		Timestamp:       now.UTC(),
		Violations:      []risk.Violation{},
		Warnings:        []risk.Violation{},
		Recommendations: []string{},
	}
	t := in.Trade

	// 1. position sizing
	res.Sizing = v.Sizer.Calculate(ctx, risk.SizingInput{
		AccountBalance: in.Account.Balance,
		RiskPercent:    t.RiskPercent,
		EntryPrice:     t.EntryPrice,
		StopLoss:       t.StopLoss,
		Symbol:         t.Symbol,
	})
	res.LotSize = res.Sizing.LotSize
	res.RiskAmount = res.Sizing.RiskAmount
	res.PipDistance = res.Sizing.PipDistance
	if !res.Sizing.Valid {
		res.violate(risk.Blocked, risk.Violation{Code: "SIZING", Msg: res.Sizing.Error})
	}
	if res.Sizing.SpecFallback {
		res.warn(risk.Error, risk.Violation{
			Code: "SPEC_FALLBACK",
			Msg:  fmt.Sprintf("Broker symbol spec unavailable for %s - used static pip table", t.Symbol),
		})
	}

	// 2. stop / target placement and reward:risk
	res.violate(risk.Blocked, risk.CheckSides(t.Direction, t.EntryPrice, t.StopLoss, t.TakeProfits)...)
	if rr, w := risk.CheckRR(t.EntryPrice, t.StopLoss, t.TakeProfits); len(t.TakeProfits) > 0 {
		res.RiskReward = rr
		if w != nil {
			res.warn(risk.Warning, *w)
		}
	}

	// 3. lot bounds
	if res.Sizing.Valid && (res.LotSize < risk.MinLotSize || res.LotSize > risk.MaxLotSize) {
		res.violate(risk.Blocked, risk.Violation{
			Code: "LOT_BOUNDS",
			Msg:  fmt.Sprintf("Lot size %.2f outside allowed range %.2f-%.0f", res.LotSize, risk.MinLotSize, risk.MaxLotSize),
		})
	}

	// 4. currency exposure
	if len(in.Account.OpenTrades) > 0 {
		limit := in.MaxCurrencyExposure
		if limit <= 0 {
			limit = v.MaxCurrencyExposure
		}
		proposed := exposure.Trade{Symbol: t.Symbol, Direction: t.Direction, RiskPercent: t.RiskPercent}
		a := exposure.AnalyzeExposure(in.Account.OpenTrades, &proposed, limit)
		res.Exposure = &a

		res.violate(risk.Blocked, a.Violations...)
		res.warn(risk.Warning, a.Warnings...)
		if !a.Valid {
			s := exposure.SuggestReducedRisk(proposed, in.Account.OpenTrades, limit)
			if s.Reduced {
				res.ExposureAdvice = &s
				res.Recommendations = append(res.Recommendations, s.Reason)
			}
		}
		if a.TotalRisk > CombinedRiskAdvice {
			res.recommend("Combined portfolio risk is %.2f%% - consider reducing position sizes", a.TotalRisk)
		}
	}

	// 5. prop-firm rules
	if rules := in.Account.PropFirm; rules != nil {
		pf := propfirm.ValidateTrade(*rules, t.RiskPercent)
		res.PropFirm = &pf

		res.violate(risk.Blocked, pf.Violations...)
		res.warn(risk.Warning, pf.Warnings...)

		if rules.StartingBalance > 0 {
			if pf.Usage.DailyLossRemaining < ThinDailyBudget {
				res.recommend("Only %.2f%% daily loss budget remaining - reduce position size", pf.Usage.DailyLossRemaining)
			}
			if pf.Usage.TotalDrawdownRemaining < ThinTotalBudget {
				res.recommend("Only %.2f%% total drawdown budget remaining - trade defensively", pf.Usage.TotalDrawdownRemaining)
			}
			n := propfirm.RemainingTrades(*rules, t.RiskPercent)
			res.RemainingTrades = &n
		}
	}

	// 6. advisories
	if t.RiskPercent > HighRiskPercent {
		res.recommend("Risk of %.2f%% per trade is high - consider 1-2%%", t.RiskPercent)
	}
	if res.PipDistance > WidePipDistance {
		res.recommend("Stop loss is %.1f pips away - consider a tighter stop", res.PipDistance)
	}

	res.CanExecute = len(res.Violations) == 0
	res.IsValid = res.Severity < risk.Blocked && res.CanExecute

	v.observe(ctx, in, res, time.Since(start))
	return res
}

func (v *Validator) observe(ctx context.Context, in Input, res Result, took time.Duration) {
	source := res.Sizing.SpecSource
	if res.Sizing.SpecFallback {
		source = "fallback"
	}
	codes := make([]string, 0, len(res.Violations))
	for _, vi := range res.Violations {
		codes = append(codes, vi.Code)
	}
	v.Metrics.ObserveDecision(res.Severity.String(), codes, source, took.Seconds())

	log.Debug().
		Str("id", res.ID).
		Str("symbol", in.Trade.Symbol).
		Str("severity", res.Severity.String()).
		Int("violations", len(res.Violations)).
		Float64("lot_size", res.LotSize).
		Msg("trade validated")

	if v.Recorder == nil {
		return
	}
	if err := v.Recorder.RecordValidation(ctx, in, res); err != nil {
		log.Warn().Err(err).Str("id", res.ID).Msg("record validation")
	}
}
