package exposure

import (
	"math"

	"github.com/rustyeddy/tradeguard/market"
)

type pairKey struct{ a, b string }

// Approximate long-run correlations of daily returns. Stored one way; the
// lookup tries both orders.
var correlations = map[pairKey]float64{
	{"EURUSD", "GBPUSD"}: 0.85,
	{"EURUSD", "AUDUSD"}: 0.75,
	{"EURUSD", "NZDUSD"}: 0.70,
	{"EURUSD", "USDCHF"}: -0.95,
	{"EURUSD", "USDCAD"}: -0.65,
	{"EURUSD", "USDJPY"}: -0.30,
	{"EURUSD", "EURGBP"}: 0.30,
	{"EURUSD", "EURJPY"}: 0.55,
	{"EURUSD", "XAUUSD"}: 0.40,
	{"GBPUSD", "AUDUSD"}: 0.65,
	{"GBPUSD", "NZDUSD"}: 0.60,
	{"GBPUSD", "USDCHF"}: -0.80,
	{"GBPUSD", "USDCAD"}: -0.55,
	{"GBPUSD", "USDJPY"}: -0.25,
	{"GBPUSD", "EURGBP"}: -0.45,
	{"GBPUSD", "GBPJPY"}: 0.60,
	{"AUDUSD", "NZDUSD"}: 0.90,
	{"AUDUSD", "USDCAD"}: -0.60,
	{"AUDUSD", "USDCHF"}: -0.65,
	{"AUDUSD", "AUDJPY"}: 0.70,
	{"AUDUSD", "XAUUSD"}: 0.45,
	{"NZDUSD", "USDCAD"}: -0.55,
	{"NZDUSD", "USDCHF"}: -0.60,
	{"USDJPY", "USDCHF"}: 0.60,
	{"USDJPY", "USDCAD"}: 0.45,
	{"USDJPY", "EURJPY"}: 0.75,
	{"USDJPY", "GBPJPY"}: 0.70,
	{"USDJPY", "AUDJPY"}: 0.65,
	{"USDCHF", "USDCAD"}: 0.50,
	{"EURJPY", "GBPJPY"}: 0.90,
	{"EURJPY", "AUDJPY"}: 0.80,
	{"GBPJPY", "AUDJPY"}: 0.75,
	{"XAUUSD", "XAGUSD"}: 0.85,
	{"XAUUSD", "USDCHF"}: -0.40,
	{"XAUUSD", "USDJPY"}: -0.35,
	{"US30", "NAS100"}:   0.90,
	{"US30", "SPX500"}:   0.95,
	{"NAS100", "SPX500"}: 0.95,
}

// Correlation returns the correlation between two symbols. It is symmetric,
// 1 for a symbol with itself and 0 for unknown pairs.
func Correlation(sym1, sym2 string) float64 {
	a, b := market.NormalizeSymbol(sym1), market.NormalizeSymbol(sym2)
	if a == b {
		return 1.0
	}
	if c, ok := correlations[pairKey{a, b}]; ok {
		return c
	}
	if c, ok := correlations[pairKey{b, a}]; ok {
		return c
	}
	return 0
}

// EffectiveRisk estimates diversification-adjusted risk for a set of trades:
// sqrt(|sum_ij sqrt(r_i*r_j) * corr_ij * sign_ij|) where sign_ij is +1 for
// trades in the same direction and -1 otherwise.
//
// This is a heuristic, not a covariance model.
func EffectiveRisk(trades []Trade) float64 {
	var sum float64
	for i := range trades {
		for j := range trades {
			ri, rj := trades[i].RiskPercent, trades[j].RiskPercent
			if ri <= 0 || rj <= 0 {
				continue
			}
			sign := 1.0
			if trades[i].Direction != trades[j].Direction {
				sign = -1.0
			}
			sum += math.Sqrt(ri*rj) * Correlation(trades[i].Symbol, trades[j].Symbol) * sign
		}
	}
	return math.Sqrt(math.Abs(sum))
}
