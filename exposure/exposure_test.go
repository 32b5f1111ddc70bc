package exposure

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeguard/risk"
)

func TestCalculateCurrencyExposure(t *testing.T) {
	t.Parallel()

	got := CalculateCurrencyExposure([]Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1},
		{Symbol: "GBPUSD", Direction: risk.Sell, RiskPercent: 0.5},
	})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"EUR", "GBP", "USD"}, []string{got[0].Currency, got[1].Currency, got[2].Currency})

	eur, gbp, usd := got[0], got[1], got[2]
	assert.InDelta(t, 1.0, eur.LongExposure, 1e-9)
	assert.InDelta(t, 1.0, eur.NetExposure, 1e-9)
	assert.InDelta(t, 0.5, gbp.ShortExposure, 1e-9)
	assert.InDelta(t, -0.5, gbp.NetExposure, 1e-9)

	assert.InDelta(t, 0.5, usd.LongExposure, 1e-9)
	assert.InDelta(t, 1.0, usd.ShortExposure, 1e-9)
	assert.InDelta(t, -0.5, usd.NetExposure, 1e-9)
	assert.Equal(t, 2, usd.OpenPositions)
	assert.InDelta(t, 1.5, usd.TotalRisk, 1e-9)
}

func TestAnalyzeExposure_USDBreach(t *testing.T) {
	t.Parallel()

	existing := []Trade{
		{Symbol: "EURUSD", Direction: risk.Sell, RiskPercent: 1.0},
		{Symbol: "USDJPY", Direction: risk.Buy, RiskPercent: 0.8},
	}

	before := AnalyzeExposure(existing, nil, 2)
	usd, ok := before.Lookup("USD")
	require.True(t, ok)
	assert.InDelta(t, 1.8, usd.NetExposure, 1e-9)
	assert.True(t, before.Valid)
	assert.Equal(t, "USD: 1.80% exposure approaching limit of 2%", before.Warnings[0].Msg)

	proposed := &Trade{Symbol: "USDCAD", Direction: risk.Buy, RiskPercent: 0.5}
	after := AnalyzeExposure(existing, proposed, 2)

	assert.False(t, after.Valid)
	require.Len(t, after.Violations, 1)
	assert.Equal(t, "USD: 2.30% exposure exceeds limit of 2%", after.Violations[0].Msg)
	// every trade counts on both of its currencies
	assert.InDelta(t, 4.6, after.TotalRisk, 1e-9)

	// inputs are untouched
	assert.Len(t, existing, 2)
}

func TestAnalyzeExposure_Warnings(t *testing.T) {
	t.Parallel()

	existing := []Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1.5},
		{Symbol: "USDJPY", Direction: risk.Buy, RiskPercent: 1.5},
		{Symbol: "GBPUSD", Direction: risk.Buy, RiskPercent: 1.5},
		{Symbol: "AUDUSD", Direction: risk.Sell, RiskPercent: 1.0},
	}

	a := AnalyzeExposure(existing, nil, 3)

	codes := map[string]int{}
	for _, w := range a.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, 1, codes["CURRENCY_CONCENTRATION"])
	assert.Equal(t, 1, codes["PORTFOLIO_RISK"])
	assert.Contains(t, risk.Messages(a.Warnings), "USD: 4 open positions - high concentration")
	assert.Contains(t, risk.Messages(a.Warnings), "Total portfolio risk 11.00% exceeds 5%")
}

func TestAnalyzeExposure_DefaultLimit(t *testing.T) {
	t.Parallel()

	a := AnalyzeExposure(nil, &Trade{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1}, 0)
	assert.Equal(t, DefaultMaxCurrencyExposure, a.MaxExposure)
	assert.True(t, a.Valid)
}

func TestAnalyzeExposure_OrderInvariant(t *testing.T) {
	t.Parallel()

	trades := []Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1.0},
		{Symbol: "GBPJPY", Direction: risk.Sell, RiskPercent: 0.7},
		{Symbol: "XAUUSD", Direction: risk.Buy, RiskPercent: 0.4},
		{Symbol: "USDCHF", Direction: risk.Sell, RiskPercent: 1.2},
		{Symbol: "AUDNZD", Direction: risk.Buy, RiskPercent: 0.3},
		{Symbol: "US30", Direction: risk.Buy, RiskPercent: 0.5},
	}
	want := AnalyzeExposure(trades, nil, 2)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Trade(nil), trades...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := AnalyzeExposure(shuffled, nil, 2)
		require.Len(t, got.Exposures, len(want.Exposures))
		for k := range want.Exposures {
			assert.Equal(t, want.Exposures[k].Currency, got.Exposures[k].Currency)
			assert.InDelta(t, want.Exposures[k].NetExposure, got.Exposures[k].NetExposure, 1e-9)
			assert.InDelta(t, want.Exposures[k].TotalRisk, got.Exposures[k].TotalRisk, 1e-9)
			assert.Equal(t, want.Exposures[k].OpenPositions, got.Exposures[k].OpenPositions)
		}
		assert.Equal(t, risk.Messages(want.Violations), risk.Messages(got.Violations))
		assert.Equal(t, risk.Messages(want.Warnings), risk.Messages(got.Warnings))
		assert.InDelta(t, want.EffectiveRisk, got.EffectiveRisk, 1e-9)
	}
}

func TestAnalyzeExposure_OrderInvariantAtLimit(t *testing.T) {
	t.Parallel()

	// 0.1+0.2+0.3 lands exactly on the limit only when summed exactly.
	trades := []Trade{
		{Symbol: "EURUSD", Direction: risk.Sell, RiskPercent: 0.1},
		{Symbol: "GBPUSD", Direction: risk.Sell, RiskPercent: 0.2},
		{Symbol: "AUDUSD", Direction: risk.Sell, RiskPercent: 0.3},
	}
	reversed := []Trade{trades[2], trades[1], trades[0]}

	for _, in := range [][]Trade{trades, reversed} {
		a := AnalyzeExposure(in, nil, 0.6)
		assert.True(t, a.Valid)
		assert.Empty(t, a.Violations)
		assert.Equal(t, []string{"USD: 0.60% exposure approaching limit of 0.6%"}, risk.Messages(a.Warnings))

		usd, ok := a.Lookup("USD")
		require.True(t, ok)
		assert.Equal(t, 0.6, usd.NetExposure)
		assert.Equal(t, 0.6, usd.TotalRisk)
	}
}

func TestAnalyzeExposure_CombinedRiskCountsBothLegs(t *testing.T) {
	t.Parallel()

	trades := []Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1},
		{Symbol: "GBPJPY", Direction: risk.Buy, RiskPercent: 1},
		{Symbol: "AUDCAD", Direction: risk.Buy, RiskPercent: 1},
	}
	a := AnalyzeExposure(trades, nil, 2)

	assert.InDelta(t, 6.0, a.TotalRisk, 1e-9)
	assert.Equal(t, []string{"PORTFOLIO_RISK"}, codesOf(a.Warnings))
}

func TestAnalyzeExposure_BadRisk(t *testing.T) {
	t.Parallel()

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.5} {
		existing := []Trade{{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: bad}}
		a := AnalyzeExposure(existing, &Trade{Symbol: "GBPUSD", Direction: risk.Buy, RiskPercent: 1}, 2)

		assert.False(t, a.Valid, "risk %v", bad)
		assert.Equal(t, []string{"EXPOSURE_BAD_INPUT"}, codesOf(a.Violations), "risk %v", bad)
	}

	// the bad trade never reaches the totals
	got := CalculateCurrencyExposure([]Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: math.NaN()},
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].NetExposure)
	assert.Equal(t, 1, got[0].OpenPositions)
}

func codesOf(vs []risk.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestSuggestReducedRisk(t *testing.T) {
	t.Parallel()

	existing := []Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1.5},
	}

	s := SuggestReducedRisk(Trade{Symbol: "EURGBP", Direction: risk.Buy, RiskPercent: 1.0}, existing, 2)
	require.True(t, s.Reduced)
	assert.Equal(t, "EUR", s.Currency)
	assert.InDelta(t, 0.5, s.SuggestedRisk, 1e-9)
	assert.Contains(t, s.Reason, "EUR")

	s = SuggestReducedRisk(Trade{Symbol: "EURGBP", Direction: risk.Buy, RiskPercent: 2.0}, nil, 1.5)
	require.True(t, s.Reduced)
	assert.InDelta(t, 1.5, s.SuggestedRisk, 1e-9)

	s = SuggestReducedRisk(Trade{Symbol: "GBPJPY", Direction: risk.Buy, RiskPercent: 1.0}, existing, 2)
	assert.False(t, s.Reduced)
	assert.Equal(t, 1.0, s.SuggestedRisk)
}

func TestCorrelation(t *testing.T) {
	t.Parallel()

	syms := []string{"EURUSD", "GBPUSD", "USDCHF", "USDJPY", "XAUUSD", "AUDUSD", "NZDUSD", "EURJPY", "UNKNOWN", "US30"}
	for _, a := range syms {
		assert.Equal(t, 1.0, Correlation(a, a), a)
		for _, b := range syms {
			assert.Equal(t, Correlation(a, b), Correlation(b, a), "%s/%s", a, b)
		}
	}

	assert.Equal(t, 0.85, Correlation("EURUSD", "GBPUSD"))
	assert.Equal(t, -0.95, Correlation("usd_chf", "EUR/USD"))
	assert.Equal(t, 0.0, Correlation("EURUSD", "UNKNOWN"))

	for k, v := range correlations {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
		_, dup := correlations[pairKey{k.b, k.a}]
		assert.False(t, dup, "pair %v stored twice", k)
	}
}

func TestEffectiveRisk(t *testing.T) {
	t.Parallel()

	single := []Trade{{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1}}
	assert.InDelta(t, 1.0, EffectiveRisk(single), 1e-9)

	// two uncorrelated 1% trades: sqrt(1+1)
	unc := []Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1},
		{Symbol: "CADJPY", Direction: risk.Buy, RiskPercent: 1},
	}
	assert.InDelta(t, math.Sqrt(2), EffectiveRisk(unc), 1e-9)

	// EURUSD long + GBPUSD short: 1 + 1 - 2*0.85 = 0.3
	hedge := []Trade{
		{Symbol: "EURUSD", Direction: risk.Buy, RiskPercent: 1},
		{Symbol: "GBPUSD", Direction: risk.Sell, RiskPercent: 1},
	}
	assert.InDelta(t, math.Sqrt(0.3), EffectiveRisk(hedge), 1e-9)

	assert.Equal(t, 0.0, EffectiveRisk(nil))
}
