package market

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// SymbolSpec is the broker's contract description of a symbol.
type SymbolSpec struct {
	Symbol       string  `json:"symbol" yaml:"symbol"`
	Point        float64 `json:"point" yaml:"point"`                 // smallest quote increment, 0.00001 for EURUSD
	Digits       int     `json:"digits" yaml:"digits"`               // quote digits
	ContractSize float64 `json:"contract_size" yaml:"contract_size"` // units per 1.00 lot
}

// PipValue is the account-currency value of one pip on one lot.
// Assumes the quote currency is the account currency.
func (s SymbolSpec) PipValue() float64 {
	return s.Point * 10 * s.ContractSize
}

func (s SymbolSpec) Validate() error {
	if s.Point <= 0 {
		return fmt.Errorf("spec %s: point must be positive", s.Symbol)
	}
	if s.Digits <= 0 {
		return fmt.Errorf("spec %s: digits must be positive", s.Symbol)
	}
	if s.ContractSize <= 0 {
		return fmt.Errorf("spec %s: contract size must be positive", s.Symbol)
	}
	return nil
}

// SpecProvider resolves broker symbol specs. Implementations may block on
// the network; callers must treat any error as "use the static table".
type SpecProvider interface {
	Spec(ctx context.Context, symbol string) (SymbolSpec, error)
}

// SpecFunc adapts a function to SpecProvider.
type SpecFunc func(ctx context.Context, symbol string) (SymbolSpec, error)

func (f SpecFunc) Spec(ctx context.Context, symbol string) (SymbolSpec, error) {
	return f(ctx, symbol)
}

// MapProvider serves specs from a fixed set, typically loaded from config.
type MapProvider struct {
	specs map[string]SymbolSpec
}

func NewMapProvider(specs []SymbolSpec) *MapProvider {
	m := make(map[string]SymbolSpec, len(specs))
	for _, s := range specs {
		m[NormalizeSymbol(s.Symbol)] = s
	}
	return &MapProvider{specs: m}
}

func (p *MapProvider) Spec(_ context.Context, symbol string) (SymbolSpec, error) {
	s, ok := p.specs[NormalizeSymbol(symbol)]
	if !ok {
		return SymbolSpec{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return s, nil
}
