package oanda

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/rustyeddy/tradeguard/market"
)

type instrument struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	DisplayName      string `json:"displayName"`
	PipLocation      int    `json:"pipLocation"`
	DisplayPrecision int    `json:"displayPrecision"`
}

type instrumentsResponse struct {
	Instruments []instrument `json:"instruments"`
}

// contract sizes per 1.00 lot by instrument type
var contractSizes = map[string]float64{
	"CURRENCY": 100000,
	"METAL":    100,
	"CFD":      1,
}

// silver trades in 5000oz lots
var contractOverrides = map[string]float64{
	"XAG_USD": 5000,
}

// InstrumentName converts a normalized symbol to OANDA's BASE_QUOTE form.
func InstrumentName(symbol string) string {
	s := market.NormalizeSymbol(symbol)
	if strings.Contains(symbol, "_") {
		return strings.ToUpper(strings.TrimSpace(symbol))
	}
	if len(s) == 6 && isLetters(s) {
		return s[:3] + "_" + s[3:]
	}
	if strings.HasSuffix(s, "USD") && len(s) > 3 {
		return s[:len(s)-3] + "_USD"
	}
	return s + "_USD"
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Specs resolves symbol specs from the account instruments endpoint.
// SymbolSpec pip values are in quote currency, so only instruments quoted
// in AccountCurrency are served.
type Specs struct {
	Client          *Client
	AccountCurrency string
}

func NewSpecs(c *Client, accountCurrency string) *Specs {
	if accountCurrency == "" {
		accountCurrency = "USD"
	}
	return &Specs{Client: c, AccountCurrency: strings.ToUpper(accountCurrency)}
}

func (p *Specs) Spec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	name := InstrumentName(symbol)
	if acct := p.AccountCurrency; acct != "" && !strings.HasSuffix(name, "_"+acct) {
		return market.SymbolSpec{}, fmt.Errorf("%w: %s is not quoted in %s", market.ErrUnknownSymbol, name, acct)
	}
	path := fmt.Sprintf("/v3/accounts/%s/instruments", p.Client.AccountID)

	var resp instrumentsResponse
	err := p.Client.GetJSON(ctx, path, map[string]string{"instruments": name}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusNotFound) {
			return market.SymbolSpec{}, fmt.Errorf("%w: %s: %w", market.ErrUnknownSymbol, symbol, err)
		}
		return market.SymbolSpec{}, err
	}

	for _, in := range resp.Instruments {
		if in.Name == name {
			return toSpec(symbol, in)
		}
	}
	return market.SymbolSpec{}, fmt.Errorf("%w: %s", market.ErrUnknownSymbol, symbol)
}

// toSpec maps OANDA's pip location onto quote digits: a pip at 10^-4 means a
// 5-digit quote with a point of 10^-5.
func toSpec(symbol string, in instrument) (market.SymbolSpec, error) {
	digits := -in.PipLocation + 1
	if digits <= 0 {
		return market.SymbolSpec{}, fmt.Errorf("oanda: %s has unsupported pipLocation %d", in.Name, in.PipLocation)
	}
	size, ok := contractOverrides[in.Name]
	if !ok {
		size, ok = contractSizes[in.Type]
	}
	if !ok {
		return market.SymbolSpec{}, fmt.Errorf("oanda: %s has unsupported type %q", in.Name, in.Type)
	}
	s := market.SymbolSpec{
		Symbol:       market.NormalizeSymbol(symbol),
		Point:        math.Pow10(-digits),
		Digits:       digits,
		ContractSize: size,
	}
	return s, s.Validate()
}
