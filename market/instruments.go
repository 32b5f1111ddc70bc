// market/instruments.go
package market

import (
	"math"
	"strings"
)

// Defaults used when a symbol is not in the instrument table.
const (
	DefaultDigits   = 5
	DefaultPipValue = 10.0 // USD per pip per standard lot
)

// StandardLot is the number of base units in a 1.00 lot.
const StandardLot = 100_000.0

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	Digits        int     // quote digits, EURUSD 1.10000 -> 5
	PipValue      float64 // account currency per pip per standard lot
}

// PipExponent returns the power of ten that converts a price move into pips.
// Fractional-pip quoting is assumed: one pip is ten points.
func (m InstrumentMeta) PipExponent() int {
	return PipExponent(m.Digits)
}

// PipExponent converts quote digits into the pip exponent.
func PipExponent(digits int) int {
	if digits <= 1 {
		return 0
	}
	return digits - 1
}

// PipSize returns the price increment of one pip for the given quote digits.
func PipSize(digits int) float64 {
	return math.Pow(10, -float64(PipExponent(digits)))
}

var instruments = map[string]InstrumentMeta{
	"EURUSD": {"EURUSD", "EUR", "USD", 5, 10.0},
	"GBPUSD": {"GBPUSD", "GBP", "USD", 5, 10.0},
	"AUDUSD": {"AUDUSD", "AUD", "USD", 5, 10.0},
	"NZDUSD": {"NZDUSD", "NZD", "USD", 5, 10.0},
	"USDJPY": {"USDJPY", "USD", "JPY", 3, 6.7},
	"USDCHF": {"USDCHF", "USD", "CHF", 5, 11.0},
	"USDCAD": {"USDCAD", "USD", "CAD", 5, 7.4},
	"EURGBP": {"EURGBP", "EUR", "GBP", 5, 12.7},
	"EURJPY": {"EURJPY", "EUR", "JPY", 3, 6.7},
	"GBPJPY": {"GBPJPY", "GBP", "JPY", 3, 6.7},
	"AUDJPY": {"AUDJPY", "AUD", "JPY", 3, 6.7},
	"CADJPY": {"CADJPY", "CAD", "JPY", 3, 6.7},
	"CHFJPY": {"CHFJPY", "CHF", "JPY", 3, 6.7},
	"NZDJPY": {"NZDJPY", "NZD", "JPY", 3, 6.7},
	"EURCHF": {"EURCHF", "EUR", "CHF", 5, 11.0},
	"EURAUD": {"EURAUD", "EUR", "AUD", 5, 6.6},
	"EURCAD": {"EURCAD", "EUR", "CAD", 5, 7.4},
	"GBPCHF": {"GBPCHF", "GBP", "CHF", 5, 11.0},
	"GBPAUD": {"GBPAUD", "GBP", "AUD", 5, 6.6},
	"AUDCAD": {"AUDCAD", "AUD", "CAD", 5, 7.4},
	"AUDNZD": {"AUDNZD", "AUD", "NZD", 5, 6.0},
	"XAUUSD": {"XAUUSD", "GOLD", "USD", 2, 10.0},
	"XAGUSD": {"XAGUSD", "SILVER", "USD", 3, 50.0},
	"US30":   {"US30", "INDEX", "USD", 1, 1.0},
	"NAS100": {"NAS100", "INDEX", "USD", 1, 1.0},
	"SPX500": {"SPX500", "INDEX", "USD", 1, 1.0},
}

// NormalizeSymbol upper-cases a symbol and drops separators, so "eur/usd",
// "EUR_USD" and "EURUSD" all map to the same key.
func NormalizeSymbol(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(symbol) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup returns the table entry for symbol.
func Lookup(symbol string) (InstrumentMeta, bool) {
	m, ok := instruments[NormalizeSymbol(symbol)]
	return m, ok
}

// Instrument returns the table entry for symbol, or a default entry built
// from ParseCurrencyPair with the fallback digits and pip value.
func Instrument(symbol string) InstrumentMeta {
	if m, ok := Lookup(symbol); ok {
		return m
	}
	p := ParseCurrencyPair(symbol)
	return InstrumentMeta{
		Name:          NormalizeSymbol(symbol),
		BaseCurrency:  p.Base,
		QuoteCurrency: p.Quote,
		Digits:        DefaultDigits,
		PipValue:      DefaultPipValue,
	}
}

// Symbols lists every symbol in the instrument table.
func Symbols() []string {
	out := make([]string, 0, len(instruments))
	for k := range instruments {
		out = append(out, k)
	}
	return out
}
