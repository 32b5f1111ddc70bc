package propfirm

import "math"

type Status string

const (
	Healthy  Status = "HEALTHY"
	Warn     Status = "WARNING"
	Danger   Status = "DANGER"
	Critical Status = "CRITICAL"
)

type Health struct {
	Status           Status   `json:"status"`
	DailyLimitUsage  float64  `json:"daily_limit_usage"` // percent of MaxDailyLossPercent consumed
	TotalLimitUsage  float64  `json:"total_limit_usage"`
	TargetReached    bool     `json:"target_reached"`
	SuggestedMaxRisk float64  `json:"suggested_max_risk"`
	Usage            Usage    `json:"usage"`
	Recommendations  []string `json:"recommendations"`
}

var (
	criticalAdvice = []string{
		"Stop trading for today - you are within 10% of a loss limit",
		"Review open positions and close anything without a stop",
		"Do not try to recover losses on this account today",
	}
	dangerAdvice = []string{
		"Reduce risk to 0.5% per trade or less",
		"Take only A+ setups until usage drops",
		"Avoid correlated positions",
	}
	warningAdvice = []string{
		"Keep risk at 1% per trade or less",
		"Track daily loss before every new entry",
	}
	protectGainsAdvice = []string{
		"Profit target reached - protect gains",
		"Keep risk at 1% per trade or less while completing minimum days",
	}
	healthyAdvice = []string{
		"Challenge on track - keep following your trading plan",
	}
)

func usageRatio(used, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return used / limit * 100
}

// AssessChallengeHealth grades the account in four tiers from how much of
// each loss limit has been consumed.
func AssessChallengeHealth(r Rules) Health {
	u := CalculateUsage(r)
	h := Health{
		Usage:            u,
		DailyLimitUsage:  usageRatio(u.DailyLossUsed, r.MaxDailyLossPercent),
		TotalLimitUsage:  usageRatio(u.TotalDrawdownUsed, r.MaxTotalLossPercent),
		TargetReached:    r.ProfitTargetPercent > 0 && u.ProfitProgress >= r.ProfitTargetPercent,
		SuggestedMaxRisk: SuggestMaxRisk(r),
	}
	worst := math.Max(h.DailyLimitUsage, h.TotalLimitUsage)

	switch {
	case worst >= 90:
		h.Status = Critical
		h.Recommendations = criticalAdvice
	case worst >= 70:
		h.Status = Danger
		h.Recommendations = dangerAdvice
	case worst >= 50:
		h.Status = Warn
		h.Recommendations = warningAdvice
		if h.TargetReached {
			h.Recommendations = append(append([]string(nil), warningAdvice...), protectGainsAdvice[0])
		}
	case h.TargetReached:
		h.Status = Warn
		h.Recommendations = protectGainsAdvice
	default:
		h.Status = Healthy
		h.Recommendations = healthyAdvice
	}
	h.Recommendations = append([]string(nil), h.Recommendations...)
	return h
}
