package propfirm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeguard/risk"
)

func ftmo(t *testing.T, phase Phase) Rules {
	t.Helper()
	r, err := NewRules(FTMO, phase, 100000)
	require.NoError(t, err)
	return r
}

func codes(vs []risk.Violation) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestPresets(t *testing.T) {
	t.Parallel()

	l, err := Preset(FTMO, Phase1)
	require.NoError(t, err)
	assert.Equal(t, Limits{5, 10, 10, 4}, l)

	_, err = Preset(Provider("ACME"), Phase1)
	assert.Error(t, err)

	all := Presets()
	assert.Len(t, all, 12)
	assert.Equal(t, FTMO, all[0].Provider)
	for _, p := range all {
		assert.Greater(t, p.MaxTotalLossPercent, p.MaxDailyLossPercent)
	}
}

func TestParseProviderPhase(t *testing.T) {
	t.Parallel()

	p, err := ParseProvider("The 5%ers")
	require.NoError(t, err)
	assert.Equal(t, The5ers, p)

	p, err = ParseProvider("funded-next")
	require.NoError(t, err)
	assert.Equal(t, FundedNext, p)

	_, err = ParseProvider("nobody")
	assert.Error(t, err)

	ph, err := ParsePhase("phase 2")
	require.NoError(t, err)
	assert.Equal(t, Phase2, ph)

	_, err = ParsePhase("phase 9")
	assert.Error(t, err)
}

func TestValidateTrade_DailyLossBreach(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase1)
	r.CurrentDailyLoss = 4800

	res := ValidateTrade(r, 1)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "Daily loss would exceed limit: 5.8% > 5%", res.Violations[0].Msg)
	assert.InDelta(t, 4.8, res.Usage.DailyLossUsed, 1e-9)
}

func TestValidateTrade_TotalBreach(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase1)
	r.CurrentTotalDrawdown = 9500

	res := ValidateTrade(r, 1)
	assert.Equal(t, []string{"PROP_TOTAL_LOSS", "PROP_MIN_DAYS"}, append(codes(res.Violations), codes(res.Warnings)...))
	assert.Equal(t, "Total drawdown would exceed limit: 10.5% > 10%", res.Violations[0].Msg)
}

func TestValidateTrade_Warnings(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase1)
	r.CurrentDailyLoss = 3600
	r.CurrentTotalDrawdown = 7600
	r.CurrentProfit = 8500
	r.TradingDays = 2

	res := ValidateTrade(r, 0.5)
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"PROP_DAILY_LOSS_HIGH", "PROP_TOTAL_LOSS_HIGH", "PROP_TARGET_NEAR", "PROP_MIN_DAYS"}, codes(res.Warnings))
	assert.Contains(t, risk.Messages(res.Warnings), "Minimum trading days not met: 2/4")
	assert.InDelta(t, 50.0, res.Usage.DaysProgress, 1e-9)

	r.CurrentProfit = 10200
	res = ValidateTrade(r, 0.5)
	assert.Contains(t, codes(res.Warnings), "PROP_TARGET_REACHED")

	funded := ftmo(t, Funded)
	funded.CurrentProfit = 50000
	res = ValidateTrade(funded, 1)
	assert.Empty(t, res.Warnings)
}

func TestValidateTrade_BadInput(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase1)
	r.StartingBalance = 0
	assert.False(t, ValidateTrade(r, 1).Valid)

	r = ftmo(t, Phase1)
	assert.False(t, ValidateTrade(r, math.NaN()).Valid)

	limits := []struct {
		name string
		set  func(*Rules)
	}{
		{"nan daily limit", func(r *Rules) { r.MaxDailyLossPercent = math.NaN() }},
		{"inf total limit", func(r *Rules) { r.MaxTotalLossPercent = math.Inf(1) }},
		{"nan profit target", func(r *Rules) { r.ProfitTargetPercent = math.NaN() }},
		{"zero daily limit", func(r *Rules) { r.MaxDailyLossPercent = 0 }},
	}
	for _, tt := range limits {
		r := ftmo(t, Phase1)
		r.CurrentDailyLoss = 4800
		tt.set(&r)

		res := ValidateTrade(r, 1)
		assert.False(t, res.Valid, tt.name)
		assert.Equal(t, []string{"PROP_BAD_INPUT"}, codes(res.Violations), tt.name)
	}
}

func TestAssessChallengeHealth_WarningWithTargetReached(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase1)
	r.CurrentDailyLoss = 3000
	r.CurrentProfit = 10500

	h := AssessChallengeHealth(r)
	assert.Equal(t, Warn, h.Status)
	assert.True(t, h.TargetReached)
	assert.Equal(t, warningAdvice[0], h.Recommendations[0])
	assert.Contains(t, h.Recommendations, "Profit target reached - protect gains")
}

func TestValidateTrade_ViolationIff(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase2)
	for daily := 0.0; daily <= 6; daily += 0.35 {
		for total := daily; total <= 11; total += 0.7 {
			for _, newRisk := range []float64{0.25, 0.5, 1, 2} {
				r.CurrentDailyLoss = daily * 1000
				r.CurrentTotalDrawdown = total * 1000
				res := ValidateTrade(r, newRisk)

				u := res.Usage
				want := u.DailyLossUsed+newRisk > r.MaxDailyLossPercent || u.TotalDrawdownUsed+newRisk > r.MaxTotalLossPercent
				assert.Equal(t, want, len(res.Violations) > 0, "daily=%.2f total=%.2f risk=%.2f", daily, total, newRisk)
			}
		}
	}
}

func TestRemainingTradesAndMaxRisk(t *testing.T) {
	t.Parallel()

	r := ftmo(t, Phase1)
	r.CurrentDailyLoss = 2000
	r.CurrentTotalDrawdown = 4000

	assert.Equal(t, 3, RemainingTrades(r, 1))
	assert.Equal(t, 6, RemainingTrades(r, 0.5))
	assert.Equal(t, 0, RemainingTrades(r, 0))

	// min(3, 6) * 0.8 = 2.4 -> 2.0
	assert.InDelta(t, 2.0, SuggestMaxRisk(r), 1e-9)

	r.CurrentDailyLoss = 4900
	assert.InDelta(t, 0.0, SuggestMaxRisk(r), 1e-9)

	fresh := ftmo(t, Phase1)
	// 5 * 0.8 = 4.0
	assert.InDelta(t, 4.0, SuggestMaxRisk(fresh), 1e-9)
}

func TestAssessChallengeHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		daily  float64
		total  float64
		profit float64
		want   Status
		advice string
	}{
		{"healthy", 0, 0, 0, Healthy, "keep following your trading plan"},
		{"warning daily", 2600, 2600, 0, Warn, "1% per trade"},
		{"warning target", 0, 0, 10500, Warn, "protect gains"},
		{"danger total", 0, 7200, 0, Danger, "0.5% per trade"},
		{"critical daily", 4600, 4600, 0, Critical, "Stop trading"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := ftmo(t, Phase1)
			r.CurrentDailyLoss = tt.daily
			r.CurrentTotalDrawdown = tt.total
			r.CurrentProfit = tt.profit

			h := AssessChallengeHealth(r)
			assert.Equal(t, tt.want, h.Status)
			require.NotEmpty(t, h.Recommendations)
			assert.Contains(t, h.Recommendations[0], tt.advice)
		})
	}
}

func TestFillPreset(t *testing.T) {
	t.Parallel()

	r := Rules{Provider: "ftmo", StartingBalance: 100000}
	require.NoError(t, r.FillPreset())
	assert.Equal(t, FTMO, r.Provider)
	assert.Equal(t, Phase1, r.Phase)
	assert.Equal(t, 5.0, r.MaxDailyLossPercent)
	assert.Equal(t, 10.0, r.MaxTotalLossPercent)

	custom := Rules{Provider: FTMO, Limits: Limits{MaxDailyLossPercent: 3, MaxTotalLossPercent: 6}}
	require.NoError(t, custom.FillPreset())
	assert.Equal(t, 3.0, custom.MaxDailyLossPercent)

	bad := Rules{Provider: "ACME"}
	assert.Error(t, bad.FillPreset())

	none := Rules{}
	assert.NoError(t, none.FillPreset())
	assert.Equal(t, Limits{}, none.Limits)
}
