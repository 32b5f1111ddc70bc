package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeguard/market"
)

// ErrSpecUnavailable is returned when no provider in a chain could resolve
// a symbol spec.
var ErrSpecUnavailable = errors.New("broker: symbol spec unavailable")

// DefaultLookupTimeout bounds a single upstream spec lookup.
const DefaultLookupTimeout = 2 * time.Second

// Chain tries providers in order and returns the first valid spec.
type Chain []market.SpecProvider

func (c Chain) Spec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		s, err := p.Spec(ctx, symbol)
		if err == nil {
			err = s.Validate()
		}
		if err == nil {
			return s, nil
		}
		errs = append(errs, err)
	}
	return market.SymbolSpec{}, fmt.Errorf("%w: %s: %w", ErrSpecUnavailable, symbol, errors.Join(errs...))
}

// WithTimeout bounds every lookup on p by d.
func WithTimeout(p market.SpecProvider, d time.Duration) market.SpecProvider {
	if d <= 0 {
		d = DefaultLookupTimeout
	}
	return market.SpecFunc(func(ctx context.Context, symbol string) (market.SymbolSpec, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		start := time.Now()
		s, err := p.Spec(ctx, symbol)
		if err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Dur("took", time.Since(start)).Msg("spec lookup failed")
		}
		return s, err
	})
}
