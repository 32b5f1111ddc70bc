package exposure

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeguard/market"
	"github.com/rustyeddy/tradeguard/risk"
)

const (
	DefaultMaxCurrencyExposure = 2.0 // percent
	ApproachingRatio           = 0.7
	MaxPositionsPerCurrency    = 4
	MaxPortfolioRisk           = 5.0 // percent
	MinSuggestedRisk           = 0.5
)

// Trade is an open or proposed position as seen by the exposure engine.
type Trade struct {
	Symbol      string         `json:"symbol" yaml:"symbol"`
	Direction   risk.Direction `json:"direction" yaml:"direction"`
	RiskPercent float64        `json:"risk_percent" yaml:"risk_percent"`
}

type CurrencyExposure struct {
	Currency      string  `json:"currency"`
	LongExposure  float64 `json:"long_exposure"`
	ShortExposure float64 `json:"short_exposure"`
	NetExposure   float64 `json:"net_exposure"`
	OpenPositions int     `json:"open_positions"`
	TotalRisk     float64 `json:"total_risk"`
}

type Analysis struct {
	Valid         bool               `json:"is_valid"`
	Exposures     []CurrencyExposure `json:"exposures"`
	Violations    []risk.Violation   `json:"violations"`
	Warnings      []risk.Violation   `json:"warnings"`
	TotalRisk     float64            `json:"total_risk"`
	EffectiveRisk float64            `json:"effective_risk"`
	MaxExposure   float64            `json:"max_exposure"`
}

// Lookup returns the exposure row for currency.
func (a Analysis) Lookup(currency string) (CurrencyExposure, bool) {
	for _, e := range a.Exposures {
		if e.Currency == currency {
			return e, true
		}
	}
	return CurrencyExposure{}, false
}

type legs struct {
	long, short, total decimal.Decimal
	positions          int
}

// CalculateCurrencyExposure aggregates per-currency exposure. BUY adds risk to
// the base currency's long side and the quote currency's short side; SELL
// mirrors. Sums are exact decimals, so the result does not depend on trade
// order. The result is sorted by currency.
func CalculateCurrencyExposure(trades []Trade) []CurrencyExposure {
	acc := map[string]*legs{}
	get := func(c string) *legs {
		l, ok := acc[c]
		if !ok {
			l = &legs{}
			acc[c] = l
		}
		return l
	}

	for _, t := range trades {
		if !validRisk(t.RiskPercent) {
			continue
		}
		r := decimal.NewFromFloat(t.RiskPercent)
		p := market.ParseCurrencyPair(t.Symbol)
		long, short := get(p.Base), get(p.Quote)
		if t.Direction == risk.Sell {
			long, short = short, long
		}
		long.long = long.long.Add(r)
		short.short = short.short.Add(r)
		for _, l := range []*legs{long, short} {
			l.positions++
			l.total = l.total.Add(r)
		}
	}

	out := make([]CurrencyExposure, 0, len(acc))
	for c, l := range acc {
		out = append(out, CurrencyExposure{
			Currency:      c,
			LongExposure:  l.long.InexactFloat64(),
			ShortExposure: l.short.InexactFloat64(),
			NetExposure:   l.long.Sub(l.short).InexactFloat64(),
			OpenPositions: l.positions,
			TotalRisk:     l.total.InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

func validRisk(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}

func fmtLimit(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// AnalyzeExposure merges proposed (may be nil) into existing and checks every
// currency against maxExposure. Inputs are not modified.
func AnalyzeExposure(existing []Trade, proposed *Trade, maxExposure float64) Analysis {
	if maxExposure <= 0 {
		maxExposure = DefaultMaxCurrencyExposure
	}

	all := make([]Trade, 0, len(existing)+1)
	all = append(all, existing...)
	if proposed != nil {
		all = append(all, *proposed)
	}

	a := Analysis{MaxExposure: maxExposure}
	for _, t := range all {
		if !validRisk(t.RiskPercent) {
			a.Violations = append(a.Violations, risk.Violation{
				Code: "EXPOSURE_BAD_INPUT",
				Msg:  fmt.Sprintf("%s: risk percent must be a finite, non-negative number", t.Symbol),
			})
		}
	}
	if len(a.Violations) > 0 {
		return a
	}

	a.Exposures = CalculateCurrencyExposure(all)
	a.EffectiveRisk = EffectiveRisk(all)

	// Combined risk across currencies: each trade counts on both of its legs.
	total := decimal.Zero
	for _, e := range a.Exposures {
		total = total.Add(decimal.NewFromFloat(e.TotalRisk))
	}
	a.TotalRisk = total.InexactFloat64()

	limit := fmtLimit(maxExposure)
	for _, e := range a.Exposures {
		net := math.Abs(e.NetExposure)
		switch {
		case net > maxExposure:
			a.Violations = append(a.Violations, risk.Violation{
				Code: "CURRENCY_EXPOSURE",
				Msg:  fmt.Sprintf("%s: %.2f%% exposure exceeds limit of %s%%", e.Currency, net, limit),
			})
		case net >= maxExposure*ApproachingRatio:
			a.Warnings = append(a.Warnings, risk.Violation{
				Code: "CURRENCY_EXPOSURE_HIGH",
				Msg:  fmt.Sprintf("%s: %.2f%% exposure approaching limit of %s%%", e.Currency, net, limit),
			})
		}
		if e.OpenPositions >= MaxPositionsPerCurrency {
			a.Warnings = append(a.Warnings, risk.Violation{
				Code: "CURRENCY_CONCENTRATION",
				Msg:  fmt.Sprintf("%s: %d open positions - high concentration", e.Currency, e.OpenPositions),
			})
		}
	}
	if a.TotalRisk > MaxPortfolioRisk {
		a.Warnings = append(a.Warnings, risk.Violation{
			Code: "PORTFOLIO_RISK",
			Msg:  fmt.Sprintf("Total portfolio risk %.2f%% exceeds %s%%", a.TotalRisk, fmtLimit(MaxPortfolioRisk)),
		})
	}

	a.Valid = len(a.Violations) == 0
	return a
}

type Suggestion struct {
	Reduced       bool    `json:"reduced"`
	SuggestedRisk float64 `json:"suggested_risk"`
	Currency      string  `json:"currency,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// SuggestReducedRisk proposes a smaller risk for newTrade when adding it
// would breach maxExposure. The suggestion never drops below 0.5%.
func SuggestReducedRisk(newTrade Trade, existing []Trade, maxExposure float64) Suggestion {
	a := AnalyzeExposure(existing, &newTrade, maxExposure)
	if a.Valid {
		return Suggestion{SuggestedRisk: newTrade.RiskPercent}
	}

	p := market.ParseCurrencyPair(newTrade.Symbol)
	base, _ := a.Lookup(p.Base)
	quote, _ := a.Lookup(p.Quote)
	worst := base
	if math.Abs(quote.NetExposure) > math.Abs(base.NetExposure) {
		worst = quote
	}

	excess := math.Abs(worst.NetExposure) - a.MaxExposure
	if excess <= 0 {
		// The breach is in a currency this trade does not touch.
		return Suggestion{SuggestedRisk: newTrade.RiskPercent}
	}

	suggested := math.Max(MinSuggestedRisk, newTrade.RiskPercent-excess)
	suggested, _ = decimal.NewFromFloat(suggested).Round(1).Float64()

	return Suggestion{
		Reduced:       true,
		SuggestedRisk: suggested,
		Currency:      worst.Currency,
		Reason: fmt.Sprintf("Reduce risk to %.1f%% to keep %s exposure within %s%% (currently %.2f%%)",
			suggested, worst.Currency, fmtLimit(a.MaxExposure), math.Abs(worst.NetExposure)),
	}
}
