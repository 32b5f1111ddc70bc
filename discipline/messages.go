package discipline

type Category string

const (
	CatViolations     Category = "violations"
	CatRiskManagement Category = "risk_management"
	CatDrawdown       Category = "drawdown"
	CatTradingQuality Category = "trading_quality"
)

// Tier names where a sub-score landed.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
	TierBreached  Tier = "breached"
	TierNoTrades  Tier = "no_trades"
)

// Message is what a tier says back to the trader. Either field may be empty.
type Message struct {
	Code           string `json:"code"`
	Feedback       string `json:"feedback,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

type tierKey struct {
	cat  Category
	tier Tier
}

var messages = map[tierKey]Message{
	{CatViolations, TierExcellent}: {
		Code:     "VIOLATIONS_NONE",
		Feedback: "No rule violations - excellent discipline",
	},
	{CatViolations, TierGood}: {
		Code:           "VIOLATIONS_MINOR",
		Feedback:       "Minor rule warnings recorded",
		Recommendation: "Review today's warnings before the next session",
	},
	{CatViolations, TierFair}: {
		Code:           "VIOLATIONS_SEVERAL",
		Feedback:       "Several rule violations recorded",
		Recommendation: "Re-read your trading rules and pre-trade checklist",
	},
	{CatViolations, TierPoor}: {
		Code:           "VIOLATIONS_MANY",
		Feedback:       "Too many rule violations",
		Recommendation: "Take a break and reset - trade only with the validator's approval tomorrow",
	},

	{CatRiskManagement, TierExcellent}: {
		Code:     "RISK_COMPLIANT",
		Feedback: "Every trade stayed within the risk limit",
	},
	{CatRiskManagement, TierGood}: {
		Code:           "RISK_MOSTLY_COMPLIANT",
		Feedback:       "Most trades stayed within the risk limit",
		Recommendation: "Size every position with the calculator",
	},
	{CatRiskManagement, TierFair}: {
		Code:           "RISK_INCONSISTENT",
		Feedback:       "Risk per trade was inconsistent",
		Recommendation: "Fix a risk percentage before the session and stick to it",
	},
	{CatRiskManagement, TierPoor}: {
		Code:           "RISK_OVERSIZED",
		Feedback:       "Most trades exceeded the risk limit",
		Recommendation: "Cut position size in half until risk compliance recovers",
	},
	{CatRiskManagement, TierNoTrades}: {
		Code:     "RISK_NO_TRADES",
		Feedback: "No trades to assess risk compliance",
	},

	{CatDrawdown, TierExcellent}: {
		Code:     "DRAWDOWN_CONTROLLED",
		Feedback: "Drawdown well under control",
	},
	{CatDrawdown, TierGood}: {
		Code:           "DRAWDOWN_MODERATE",
		Feedback:       "Drawdown reached half of the daily limit",
		Recommendation: "Slow down after losses",
	},
	{CatDrawdown, TierFair}: {
		Code:           "DRAWDOWN_HIGH",
		Feedback:       "Drawdown approached the daily limit",
		Recommendation: "Stop trading for the day after two consecutive losses",
	},
	{CatDrawdown, TierPoor}: {
		Code:           "DRAWDOWN_CRITICAL",
		Feedback:       "Drawdown came within 10% of the daily limit",
		Recommendation: "Set a hard daily stop well before the firm's limit",
	},
	{CatDrawdown, TierBreached}: {
		Code:           "DRAWDOWN_BREACHED",
		Feedback:       "Challenge loss limit breached",
		Recommendation: "Review every trade of the day before starting a new challenge",
	},

	{CatTradingQuality, TierExcellent}: {
		Code:     "QUALITY_STRONG",
		Feedback: "Strong win rate",
	},
	{CatTradingQuality, TierGood}: {
		Code:     "QUALITY_POSITIVE",
		Feedback: "Positive win rate",
	},
	{CatTradingQuality, TierFair}: {
		Code:           "QUALITY_BELOW_AVERAGE",
		Feedback:       "Win rate below 50%",
		Recommendation: "Be more selective with entries",
	},
	{CatTradingQuality, TierPoor}: {
		Code:           "QUALITY_LOW",
		Feedback:       "Low win rate",
		Recommendation: "Review losing trades for a common mistake",
	},
	{CatTradingQuality, TierNoTrades}: {
		Code:     "QUALITY_NO_TRADES",
		Feedback: "No trades taken",
	},
}

// MessageFor returns the message for a category tier.
func MessageFor(c Category, t Tier) (Message, bool) {
	m, ok := messages[tierKey{c, t}]
	return m, ok
}
