package discipline

import (
	"math"
)

// Sub-score ceilings.
const (
	MaxViolations     = 30
	MaxRiskManagement = 30
	MaxDrawdown       = 20
	MaxTradingQuality = 20
)

// Input is one trading day for one account.
type Input struct {
	CriticalViolations int `json:"critical_violations"`
	WarningViolations  int `json:"warning_violations"`

	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	TradesWithinRisk int `json:"trades_within_risk"`
	TradesOverRisk   int `json:"trades_over_risk"`

	DailyDrawdown     float64 `json:"daily_drawdown"`      // percent
	MaxDailyDrawdown  float64 `json:"max_daily_drawdown"`  // percent
	ChallengeBreached bool    `json:"challenge_breached"`
}

type SubScore struct {
	Score int  `json:"score"`
	Max   int  `json:"max"`
	Tier  Tier `json:"tier"`
}

type Result struct {
	Violations     SubScore `json:"violations"`
	RiskManagement SubScore `json:"risk_management"`
	Drawdown       SubScore `json:"drawdown"`
	TradingQuality SubScore `json:"trading_quality"`

	Total int    `json:"total"`
	Grade string `json:"grade"`

	Feedback        []string  `json:"feedback"`
	Recommendations []string  `json:"recommendations"`
	Messages        []Message `json:"messages"`
}

func scoreViolations(in Input) SubScore {
	s := MaxViolations - in.CriticalViolations*10 - in.WarningViolations*5
	if s < 0 {
		s = 0
	}
	tier := TierPoor
	switch {
	case s == MaxViolations:
		tier = TierExcellent
	case s >= 20:
		tier = TierGood
	case s >= 10:
		tier = TierFair
	}
	return SubScore{Score: s, Max: MaxViolations, Tier: tier}
}

func scoreRisk(in Input) SubScore {
	n := in.TradesWithinRisk + in.TradesOverRisk
	if n <= 0 {
		return SubScore{Score: MaxRiskManagement, Max: MaxRiskManagement, Tier: TierNoTrades}
	}
	s := int(math.Round(MaxRiskManagement * float64(in.TradesWithinRisk) / float64(n)))
	tier := TierPoor
	switch {
	case s == MaxRiskManagement:
		tier = TierExcellent
	case s >= 24:
		tier = TierGood
	case s >= 15:
		tier = TierFair
	}
	return SubScore{Score: s, Max: MaxRiskManagement, Tier: tier}
}

func scoreDrawdown(in Input) SubScore {
	if in.ChallengeBreached {
		return SubScore{Score: 0, Max: MaxDrawdown, Tier: TierBreached}
	}
	var ratio float64
	if in.MaxDailyDrawdown > 0 {
		ratio = math.Abs(in.DailyDrawdown) / in.MaxDailyDrawdown
	}
	switch {
	case ratio >= 0.9:
		return SubScore{Score: 5, Max: MaxDrawdown, Tier: TierPoor}
	case ratio >= 0.7:
		return SubScore{Score: 10, Max: MaxDrawdown, Tier: TierFair}
	case ratio >= 0.5:
		return SubScore{Score: 15, Max: MaxDrawdown, Tier: TierGood}
	}
	return SubScore{Score: MaxDrawdown, Max: MaxDrawdown, Tier: TierExcellent}
}

func scoreQuality(in Input) SubScore {
	if in.TotalTrades <= 0 {
		return SubScore{Score: 10, Max: MaxTradingQuality, Tier: TierNoTrades}
	}
	winRate := float64(in.WinningTrades) / float64(in.TotalTrades)
	switch {
	case winRate >= 0.6:
		return SubScore{Score: 20, Max: MaxTradingQuality, Tier: TierExcellent}
	case winRate >= 0.5:
		return SubScore{Score: 15, Max: MaxTradingQuality, Tier: TierGood}
	case winRate >= 0.4:
		return SubScore{Score: 10, Max: MaxTradingQuality, Tier: TierFair}
	}
	return SubScore{Score: 5, Max: MaxTradingQuality, Tier: TierPoor}
}

// Grade maps a 0-100 total onto S/A/B/C/D/F.
func Grade(total int) string {
	switch {
	case total >= 95:
		return "S"
	case total >= 85:
		return "A"
	case total >= 75:
		return "B"
	case total >= 60:
		return "C"
	case total >= 40:
		return "D"
	}
	return "F"
}

// Calculate scores one trading day.
func Calculate(in Input) Result {
	r := Result{
		Violations:      scoreViolations(in),
		RiskManagement:  scoreRisk(in),
		Drawdown:        scoreDrawdown(in),
		TradingQuality:  scoreQuality(in),
		Feedback:        []string{},
		Recommendations: []string{},
		Messages:        []Message{},
	}
	r.Total = r.Violations.Score + r.RiskManagement.Score + r.Drawdown.Score + r.TradingQuality.Score
	r.Grade = Grade(r.Total)

	for _, c := range []struct {
		cat Category
		sub SubScore
	}{
		{CatViolations, r.Violations},
		{CatRiskManagement, r.RiskManagement},
		{CatDrawdown, r.Drawdown},
		{CatTradingQuality, r.TradingQuality},
	} {
		m, ok := MessageFor(c.cat, c.sub.Tier)
		if !ok {
			continue
		}
		r.Messages = append(r.Messages, m)
		if m.Feedback != "" {
			r.Feedback = append(r.Feedback, m.Feedback)
		}
		if m.Recommendation != "" {
			r.Recommendations = append(r.Recommendations, m.Recommendation)
		}
	}
	return r
}
