package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	cb "github.com/sony/gobreaker"

	"github.com/rustyeddy/tradeguard/market"
)

type BreakerSettings struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" json:"consecutive_failures"`
	Interval            time.Duration `yaml:"interval" json:"interval"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
	}
}

// Breaker stops calling a failing upstream until its timeout elapses.
// Unknown symbols do not count as failures.
type Breaker struct {
	next market.SpecProvider
	cb   *cb.CircuitBreaker
}

func NewBreaker(name string, next market.SpecProvider, s BreakerSettings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}
	st := cb.Settings{Name: name}
	st.Interval = s.Interval
	st.Timeout = s.Timeout
	st.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= s.ConsecutiveFailures
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, market.ErrUnknownSymbol)
	}
	st.OnStateChange = func(name string, from, to cb.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("spec breaker state change")
	}
	return &Breaker{next: next, cb: cb.NewCircuitBreaker(st)}
}

func (b *Breaker) State() cb.State {
	return b.cb.State()
}

func (b *Breaker) Spec(ctx context.Context, symbol string) (market.SymbolSpec, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Spec(ctx, symbol)
	})
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			return market.SymbolSpec{}, fmt.Errorf("%w: %s: %w", ErrSpecUnavailable, symbol, err)
		}
		return market.SymbolSpec{}, err
	}
	return v.(market.SymbolSpec), nil
}
