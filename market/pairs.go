package market

import "strings"

// Pair is the base/quote decomposition of a symbol.
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

var indexTickers = []string{"US30", "NAS", "SPX"}

// ParseCurrencyPair splits a symbol into its base and quote currency.
// Metals map to GOLD/USD and SILVER/USD, index tickers to INDEX/USD.
// Anything shorter than six letters is treated as <symbol>/USD.
func ParseCurrencyPair(symbol string) Pair {
	upper := strings.ToUpper(symbol)

	var b strings.Builder
	for _, r := range upper {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	letters := b.String()

	switch {
	case strings.HasPrefix(letters, "XAU"):
		return Pair{Base: "GOLD", Quote: "USD"}
	case strings.HasPrefix(letters, "XAG"):
		return Pair{Base: "SILVER", Quote: "USD"}
	}
	for _, t := range indexTickers {
		if strings.Contains(upper, t) {
			return Pair{Base: "INDEX", Quote: "USD"}
		}
	}

	if len(letters) >= 6 {
		return Pair{Base: letters[:3], Quote: letters[3:6]}
	}
	if letters == "" {
		letters = NormalizeSymbol(symbol)
	}
	return Pair{Base: letters, Quote: "USD"}
}
