package risk

// EURUSD 1.10000 -> 5 digits -> pips = |entry-stop| * 10^4
// USDJPY 150.000 -> 3 digits -> pips = |entry-stop| * 10^2

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradeguard/market"
)

const (
	MinLotSize     = 0.01
	MaxLotSize     = 100.0
	MaxRiskPercent = 10.0
)

// Sizing error texts. Each failure has its own string.
const (
	ErrNonFinite      = "Invalid numeric input"
	ErrBalance        = "Account balance must be greater than 0"
	ErrRiskPercent    = "Risk percent must be greater than 0 and at most 10"
	ErrEntryEqualStop = "Entry price and stop loss cannot be the same"
	ErrZeroPips       = "Pip distance is zero"
)

type SizingInput struct {
	AccountBalance float64            `json:"account_balance"`
	RiskPercent    float64            `json:"risk_percent"` // 1 == 1%
	EntryPrice     float64            `json:"entry_price"`
	StopLoss       float64            `json:"stop_loss"`
	Symbol         string             `json:"symbol"`
	Spec           *market.SymbolSpec `json:"spec,omitempty"`
}

type SizingResult struct {
	Valid       bool    `json:"is_valid"`
	Error       string  `json:"error,omitempty"`
	LotSize     float64 `json:"lot_size"`
	RiskAmount  float64 `json:"risk_amount"`
	PipDistance float64 `json:"pip_distance"`
	PipValue    float64 `json:"pip_value"`
	Digits      int     `json:"digits"`

	// SpecSource is "broker" when a SymbolSpec drove the pip math, else "table".
	SpecSource   string `json:"spec_source"`
	SpecFallback bool   `json:"spec_fallback,omitempty"`
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func round(x float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}

// CalculateLotSize converts a risk percentage and stop distance into a lot
// size. Failures are reported through SizingResult.Error.
func CalculateLotSize(in SizingInput) SizingResult {
	res := SizingResult{SpecSource: "table"}

	fail := func(msg string) SizingResult {
		res.Valid = false
		res.Error = msg
		return res
	}

	if !finite(in.AccountBalance, in.RiskPercent, in.EntryPrice, in.StopLoss) {
		return fail(ErrNonFinite)
	}
	if in.AccountBalance <= 0 {
		return fail(ErrBalance)
	}
	if in.RiskPercent <= 0 || in.RiskPercent > MaxRiskPercent {
		return fail(ErrRiskPercent)
	}
	if in.EntryPrice == in.StopLoss {
		return fail(ErrEntryEqualStop)
	}

	meta := market.Instrument(in.Symbol)
	res.Digits = meta.Digits
	res.PipValue = meta.PipValue
	if in.Spec != nil {
		res.SpecSource = "broker"
		res.Digits = in.Spec.Digits
		res.PipValue = in.Spec.PipValue()
	}

	res.RiskAmount = round(in.AccountBalance*in.RiskPercent/100, 2)
	res.PipDistance = round(math.Abs(in.EntryPrice-in.StopLoss)*math.Pow(10, float64(market.PipExponent(res.Digits))), 1)
	if res.PipDistance == 0 {
		return fail(ErrZeroPips)
	}
	if res.PipValue <= 0 || !finite(res.PipValue) {
		return fail(ErrNonFinite)
	}

	raw := res.RiskAmount / (res.PipDistance * res.PipValue)
	if !finite(raw) {
		return fail(ErrNonFinite)
	}
	res.LotSize = round(raw, 2)

	if res.LotSize < MinLotSize {
		return fail(fmt.Sprintf("Calculated lot size %.4f is below minimum %.2f", raw, MinLotSize))
	}
	if res.LotSize > MaxLotSize {
		return fail(fmt.Sprintf("Calculated lot size %.2f exceeds maximum %.0f", res.LotSize, MaxLotSize))
	}

	res.Valid = true
	return res
}

// Sizer resolves broker specs before sizing. A nil provider, or any provider
// error, falls back to the static instrument table.
type Sizer struct {
	Specs market.SpecProvider
}

func NewSizer(p market.SpecProvider) *Sizer {
	return &Sizer{Specs: p}
}

func (s *Sizer) Calculate(ctx context.Context, in SizingInput) SizingResult {
	if in.Spec != nil || s == nil || s.Specs == nil {
		return CalculateLotSize(in)
	}

	fallback := false
	spec, err := s.Specs.Spec(ctx, in.Symbol)
	if err == nil {
		err = spec.Validate()
	}
	if err != nil {
		log.Warn().Err(err).Str("symbol", in.Symbol).Msg("symbol spec unavailable, using pip table")
		fallback = true
	} else {
		in.Spec = &spec
	}

	res := CalculateLotSize(in)
	res.SpecFallback = fallback
	return res
}
