package propfirm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rustyeddy/tradeguard/risk"
)

const (
	WarnUsageRatio     = 0.8
	ProfitTargetBuffer = 2.0 // percent
	SafetyBuffer       = 0.8
	RiskStep           = 0.5
)

// Usage is the account's position against its limits, in percent of the
// starting balance.
type Usage struct {
	DailyLossUsed          float64 `json:"daily_loss_used"`
	TotalDrawdownUsed      float64 `json:"total_drawdown_used"`
	ProfitProgress         float64 `json:"profit_progress"`
	DaysProgress           float64 `json:"days_progress"` // percent of MinTradingDays
	DailyLossRemaining     float64 `json:"daily_loss_remaining"`
	TotalDrawdownRemaining float64 `json:"total_drawdown_remaining"`
}

type Result struct {
	Valid      bool             `json:"is_valid"`
	Violations []risk.Violation `json:"violations"`
	Warnings   []risk.Violation `json:"warnings"`
	Usage      Usage            `json:"usage"`
}

func pct(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// CalculateUsage converts the money counters in r into percentages.
func CalculateUsage(r Rules) Usage {
	var u Usage
	if r.StartingBalance > 0 {
		u.DailyLossUsed = math.Max(0, r.CurrentDailyLoss) / r.StartingBalance * 100
		u.TotalDrawdownUsed = math.Max(0, r.CurrentTotalDrawdown) / r.StartingBalance * 100
		u.ProfitProgress = r.CurrentProfit / r.StartingBalance * 100
	}
	if r.MinTradingDays > 0 {
		u.DaysProgress = math.Min(100, float64(r.TradingDays)/float64(r.MinTradingDays)*100)
	} else {
		u.DaysProgress = 100
	}
	u.DailyLossRemaining = math.Max(0, r.MaxDailyLossPercent-u.DailyLossUsed)
	u.TotalDrawdownRemaining = math.Max(0, r.MaxTotalLossPercent-u.TotalDrawdownUsed)
	return u
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// ValidateTrade checks whether a new trade risking newRisk percent fits in
// the remaining daily and total loss budgets.
func ValidateTrade(r Rules, newRisk float64) Result {
	res := Result{}

	if !finite(newRisk, r.StartingBalance, r.CurrentDailyLoss, r.CurrentTotalDrawdown, r.CurrentProfit) {
		res.Violations = append(res.Violations, risk.Violation{Code: "PROP_BAD_INPUT", Msg: "Prop firm counters contain invalid numbers"})
		return res
	}
	if !finite(r.MaxDailyLossPercent, r.MaxTotalLossPercent, r.ProfitTargetPercent) ||
		r.MaxDailyLossPercent <= 0 || r.MaxTotalLossPercent <= 0 || r.ProfitTargetPercent < 0 {
		res.Violations = append(res.Violations, risk.Violation{Code: "PROP_BAD_INPUT", Msg: "Prop firm limits contain invalid numbers"})
		return res
	}
	if r.StartingBalance <= 0 {
		res.Violations = append(res.Violations, risk.Violation{Code: "PROP_BAD_INPUT", Msg: "Starting balance must be greater than 0"})
		return res
	}

	u := CalculateUsage(r)
	res.Usage = u

	daily := u.DailyLossUsed + newRisk
	total := u.TotalDrawdownUsed + newRisk

	if daily > r.MaxDailyLossPercent {
		res.Violations = append(res.Violations, risk.Violation{
			Code: "PROP_DAILY_LOSS",
			Msg:  fmt.Sprintf("Daily loss would exceed limit: %.1f%% > %s%%", daily, pct(r.MaxDailyLossPercent)),
		})
	} else if daily >= r.MaxDailyLossPercent*WarnUsageRatio {
		res.Warnings = append(res.Warnings, risk.Violation{
			Code: "PROP_DAILY_LOSS_HIGH",
			Msg:  fmt.Sprintf("Daily loss would reach %.1f%% of %s%% limit", daily, pct(r.MaxDailyLossPercent)),
		})
	}

	if total > r.MaxTotalLossPercent {
		res.Violations = append(res.Violations, risk.Violation{
			Code: "PROP_TOTAL_LOSS",
			Msg:  fmt.Sprintf("Total drawdown would exceed limit: %.1f%% > %s%%", total, pct(r.MaxTotalLossPercent)),
		})
	} else if total >= r.MaxTotalLossPercent*WarnUsageRatio {
		res.Warnings = append(res.Warnings, risk.Violation{
			Code: "PROP_TOTAL_LOSS_HIGH",
			Msg:  fmt.Sprintf("Total drawdown would reach %.1f%% of %s%% limit", total, pct(r.MaxTotalLossPercent)),
		})
	}

	if r.ProfitTargetPercent > 0 {
		switch {
		case u.ProfitProgress >= r.ProfitTargetPercent:
			res.Warnings = append(res.Warnings, risk.Violation{
				Code: "PROP_TARGET_REACHED",
				Msg:  fmt.Sprintf("Profit target reached (%.1f%% of %s%%) - consider slowing down to protect gains", u.ProfitProgress, pct(r.ProfitTargetPercent)),
			})
		case r.ProfitTargetPercent-u.ProfitProgress <= ProfitTargetBuffer:
			res.Warnings = append(res.Warnings, risk.Violation{
				Code: "PROP_TARGET_NEAR",
				Msg:  fmt.Sprintf("Close to profit target (%.1f%% of %s%%) - avoid oversized trades", u.ProfitProgress, pct(r.ProfitTargetPercent)),
			})
		}
	}

	if r.MinTradingDays > 0 && r.TradingDays < r.MinTradingDays {
		res.Warnings = append(res.Warnings, risk.Violation{
			Code: "PROP_MIN_DAYS",
			Msg:  fmt.Sprintf("Minimum trading days not met: %d/%d", r.TradingDays, r.MinTradingDays),
		})
	}

	res.Valid = len(res.Violations) == 0
	return res
}

// RemainingTrades is how many trades of avgRisk percent fit in today's
// remaining loss budget.
func RemainingTrades(r Rules, avgRisk float64) int {
	if avgRisk <= 0 || !finite(avgRisk) {
		return 0
	}
	u := CalculateUsage(r)
	return int(math.Floor(u.DailyLossRemaining / avgRisk))
}

// SuggestMaxRisk is the smaller remaining budget with a 20% safety buffer,
// floored to a 0.5% step.
func SuggestMaxRisk(r Rules) float64 {
	u := CalculateUsage(r)
	m := math.Min(u.DailyLossRemaining, u.TotalDrawdownRemaining) * SafetyBuffer
	// nudge so 2.0 stays 2.0 after float noise
	return math.Floor(m/RiskStep+1e-9) * RiskStep
}
