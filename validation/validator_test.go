package validation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeguard/exposure"
	"github.com/rustyeddy/tradeguard/market"
	"github.com/rustyeddy/tradeguard/metrics"
	"github.com/rustyeddy/tradeguard/propfirm"
	"github.com/rustyeddy/tradeguard/risk"
)

var fixedNow = time.Date(2026, 5, 6, 13, 0, 0, 0, time.UTC)

func newTestValidator(opts ...Option) *Validator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(opts...)
}

func eurusdBuy() Input {
	return Input{
		Trade: TradeProposal{
			Symbol:      "EURUSD",
			Direction:   risk.Buy,
			EntryPrice:  1.10000,
			StopLoss:    1.09700,
			TakeProfits: []float64{1.10600},
			RiskPercent: 1,
		},
		Account: AccountState{ID: "acct-1", Balance: 10000, Currency: "USD"},
	}
}

func codes(vs []risk.Violation) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	t.Parallel()

	res := newTestValidator().Validate(context.Background(), eurusdBuy())

	assert.Equal(t, risk.OK, res.Severity)
	assert.True(t, res.IsValid)
	assert.True(t, res.CanExecute)
	assert.InDelta(t, 0.33, res.LotSize, 1e-9)
	assert.InDelta(t, 100.0, res.RiskAmount, 1e-9)
	assert.InDelta(t, 30.0, res.PipDistance, 1e-9)
	assert.InDelta(t, 2.0, res.RiskReward, 1e-9)
	assert.Empty(t, res.Violations)
	assert.Empty(t, res.Warnings)
	assert.Nil(t, res.Exposure)
	assert.Nil(t, res.PropFirm)
	assert.Equal(t, fixedNow, res.Timestamp)
	assert.Len(t, res.ID, 26)
}

func TestValidate_BuyStopAboveEntryBlocks(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Trade.StopLoss = 1.10300
	in.Trade.TakeProfits = []float64{1.11000}

	res := newTestValidator().Validate(context.Background(), in)

	assert.Equal(t, risk.Blocked, res.Severity)
	assert.False(t, res.CanExecute)
	assert.False(t, res.IsValid)
	assert.Contains(t, risk.Messages(res.Violations), "Stop Loss must be below Entry for BUY orders")
	// sizing itself is fine; the side check alone blocks
	assert.True(t, res.Sizing.Valid)
}

func TestValidate_SellSides(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Trade.Direction = risk.Sell
	in.Trade.StopLoss = 1.10300
	in.Trade.TakeProfits = []float64{1.09400, 1.10500}

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, []string{"TARGET_WRONG_SIDE"}, codes(res.Violations))
	assert.Equal(t, risk.Blocked, res.Severity)
}

func TestValidate_SizingErrorBlocks(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Account.Balance = 0

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, risk.Blocked, res.Severity)
	assert.Equal(t, []string{"SIZING"}, codes(res.Violations))
	assert.Equal(t, risk.ErrBalance, res.Violations[0].Msg)
}

func TestValidate_LowRRWarns(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Trade.TakeProfits = []float64{1.10150}

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, risk.Warning, res.Severity)
	assert.True(t, res.CanExecute)
	assert.Equal(t, []string{"RR_BELOW_ONE"}, codes(res.Warnings))
}

func TestValidate_ExposureViolation(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Trade.Symbol = "USDCAD"
	in.Trade.EntryPrice = 1.36000
	in.Trade.StopLoss = 1.35700
	in.Trade.TakeProfits = nil
	in.Trade.RiskPercent = 0.5
	in.Account.OpenTrades = []exposure.Trade{
		{Symbol: "EURUSD", Direction: risk.Sell, RiskPercent: 1.0},
		{Symbol: "USDJPY", Direction: risk.Buy, RiskPercent: 0.8},
	}

	res := newTestValidator().Validate(context.Background(), in)

	require.NotNil(t, res.Exposure)
	assert.Equal(t, risk.Blocked, res.Severity)
	assert.False(t, res.CanExecute)
	assert.Contains(t, risk.Messages(res.Violations), "USD: 2.30% exposure exceeds limit of 2%")
	require.NotNil(t, res.ExposureAdvice)
	assert.Equal(t, "USD", res.ExposureAdvice.Currency)
	assert.Contains(t, res.Recommendations, res.ExposureAdvice.Reason)
}

func TestValidate_ExposureLimitOverride(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Account.OpenTrades = []exposure.Trade{{Symbol: "GBPUSD", Direction: risk.Buy, RiskPercent: 1.5}}
	in.MaxCurrencyExposure = 5

	res := newTestValidator().Validate(context.Background(), in)
	assert.True(t, res.CanExecute)
	assert.Equal(t, risk.OK, res.Severity)
	assert.InDelta(t, 5.0, res.Exposure.TotalRisk, 1e-9)

	in.MaxCurrencyExposure = 0
	res = newTestValidator(WithMaxCurrencyExposure(2)).Validate(context.Background(), in)
	assert.False(t, res.CanExecute)
	assert.Contains(t, risk.Messages(res.Violations), "USD: 2.50% exposure exceeds limit of 2%")
}

func TestValidate_NonFiniteInputsBlock(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Account.OpenTrades = []exposure.Trade{{Symbol: "GBPUSD", Direction: risk.Buy, RiskPercent: math.NaN()}}
	res := ValidateTrade(in)
	assert.Equal(t, risk.Blocked, res.Severity)
	assert.False(t, res.CanExecute)
	assert.Contains(t, codes(res.Violations), "EXPOSURE_BAD_INPUT")

	rules, err := propfirm.NewRules(propfirm.FTMO, propfirm.Phase1, 100000)
	require.NoError(t, err)
	rules.CurrentDailyLoss = 4800
	rules.MaxDailyLossPercent = math.NaN()

	in = eurusdBuy()
	in.Account.PropFirm = &rules
	res = ValidateTrade(in)
	assert.Equal(t, risk.Blocked, res.Severity)
	assert.False(t, res.CanExecute)
	assert.Contains(t, codes(res.Violations), "PROP_BAD_INPUT")
}

func TestValidate_PropFirm(t *testing.T) {
	t.Parallel()

	rules, err := propfirm.NewRules(propfirm.FTMO, propfirm.Phase1, 100000)
	require.NoError(t, err)
	rules.CurrentDailyLoss = 4800
	rules.TradingDays = 5

	in := eurusdBuy()
	in.Account.Balance = 95200
	in.Account.PropFirm = &rules

	res := newTestValidator().Validate(context.Background(), in)

	require.NotNil(t, res.PropFirm)
	assert.Equal(t, risk.Blocked, res.Severity)
	assert.Contains(t, risk.Messages(res.Violations), "Daily loss would exceed limit: 5.8% > 5%")
	assert.Contains(t, res.Recommendations, "Only 0.20% daily loss budget remaining - reduce position size")
	require.NotNil(t, res.RemainingTrades)
	assert.Equal(t, 0, *res.RemainingTrades)
}

func TestValidate_PropFirmWarningsDoNotBlock(t *testing.T) {
	t.Parallel()

	rules, err := propfirm.NewRules(propfirm.FTMO, propfirm.Phase1, 100000)
	require.NoError(t, err)
	rules.TradingDays = 1

	in := eurusdBuy()
	in.Account.PropFirm = &rules

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, risk.Warning, res.Severity)
	assert.True(t, res.CanExecute)
	assert.Equal(t, []string{"PROP_MIN_DAYS"}, codes(res.Warnings))
}

func TestValidate_Advisories(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Trade.RiskPercent = 3
	in.Trade.StopLoss = 1.08500
	in.Trade.TakeProfits = nil

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, risk.OK, res.Severity)
	assert.Contains(t, res.Recommendations, "Risk of 3.00% per trade is high - consider 1-2%")
	assert.Contains(t, res.Recommendations, "Stop loss is 150.0 pips away - consider a tighter stop")
}

func TestValidate_SeverityNeverDowngrades(t *testing.T) {
	t.Parallel()

	// blocked at step 2, then only warnings afterwards
	in := eurusdBuy()
	in.Trade.StopLoss = 1.10300
	in.Trade.TakeProfits = []float64{1.11}
	in.Account.OpenTrades = []exposure.Trade{
		{Symbol: "EURGBP", Direction: risk.Buy, RiskPercent: 0.5},
		{Symbol: "EURJPY", Direction: risk.Buy, RiskPercent: 0.2},
	}

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, risk.Blocked, res.Severity)
	assert.NotEmpty(t, res.Warnings)
}

func TestValidate_KeepsAllViolations(t *testing.T) {
	t.Parallel()

	rules, _ := propfirm.NewRules(propfirm.FTMO, propfirm.Phase1, 10000)
	rules.CurrentDailyLoss = 480
	rules.CurrentTotalDrawdown = 960

	in := eurusdBuy()
	in.Trade.StopLoss = 1.10300
	in.Trade.TakeProfits = []float64{1.09}
	in.Trade.RiskPercent = 2
	in.Account.OpenTrades = []exposure.Trade{{Symbol: "EURGBP", Direction: risk.Buy, RiskPercent: 0.5}}
	in.Account.PropFirm = &rules

	res := newTestValidator().Validate(context.Background(), in)
	assert.Equal(t, []string{
		"STOP_WRONG_SIDE",
		"TARGET_WRONG_SIDE",
		"CURRENCY_EXPOSURE",
		"PROP_DAILY_LOSS",
		"PROP_TOTAL_LOSS",
	}, codes(res.Violations))
}

type fakeRecorder struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (f *fakeRecorder) RecordValidation(_ context.Context, _ Input, res Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, res.ID)
	if f.fail {
		return errors.New("disk full")
	}
	return nil
}

func TestValidate_RecorderAndMetrics(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{fail: true}
	m := metrics.New()
	v := newTestValidator(WithRecorder(rec), WithMetrics(m))

	res := v.Validate(context.Background(), eurusdBuy())
	assert.True(t, res.CanExecute, "recorder errors must not change the decision")
	assert.Equal(t, []string{res.ID}, rec.ids)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SpecLookups.WithLabelValues("table")))
}

func TestValidate_SpecFallbackIsAdvisory(t *testing.T) {
	t.Parallel()

	down := market.SpecFunc(func(context.Context, string) (market.SymbolSpec, error) {
		return market.SymbolSpec{}, errors.New("timeout")
	})

	res := newTestValidator(WithSpecs(down)).Validate(context.Background(), eurusdBuy())
	assert.Equal(t, risk.Error, res.Severity)
	assert.True(t, res.CanExecute)
	assert.True(t, res.IsValid)
	assert.Equal(t, []string{"SPEC_FALLBACK"}, codes(res.Warnings))
	assert.InDelta(t, 0.33, res.LotSize, 1e-9)
}

func TestValidate_Concurrent(t *testing.T) {
	t.Parallel()

	v := newTestValidator()
	in := eurusdBuy()
	in.Account.OpenTrades = []exposure.Trade{{Symbol: "GBPUSD", Direction: risk.Buy, RiskPercent: 0.5}}

	var wg sync.WaitGroup
	results := make([]Result, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = v.Validate(context.Background(), in)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0].Severity, r.Severity)
		assert.Equal(t, results[0].LotSize, r.LotSize)
	}
	assert.Len(t, in.Account.OpenTrades, 1)
}

func TestValidateTradeDefault(t *testing.T) {
	t.Parallel()

	res := ValidateTrade(eurusdBuy())
	assert.True(t, res.CanExecute)
}

func TestFormatReportOrg(t *testing.T) {
	t.Parallel()

	in := eurusdBuy()
	in.Trade.StopLoss = 1.10300
	in.Account.OpenTrades = []exposure.Trade{{Symbol: "GBPUSD", Direction: risk.Buy, RiskPercent: 0.5}}

	res := newTestValidator().Validate(context.Background(), in)
	out := FormatReportOrg(in, res)

	assert.Contains(t, out, "** Validation: BUY EURUSD REJECTED")
	assert.Contains(t, out, ":SEVERITY: BLOCKED\n")
	assert.Contains(t, out, "*** Violations\n- Stop Loss must be below Entry for BUY orders\n")
	assert.Contains(t, out, "| USD | ")
}
