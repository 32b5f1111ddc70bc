package risk

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeguard/market"
)

func TestCalculateLotSize_EURUSD(t *testing.T) {
	t.Parallel()

	got := CalculateLotSize(SizingInput{
		AccountBalance: 10000,
		RiskPercent:    1,
		EntryPrice:     1.10000,
		StopLoss:       1.09700,
		Symbol:         "EURUSD",
	})

	require.True(t, got.Valid, got.Error)
	assert.InDelta(t, 100.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 30.0, got.PipDistance, 1e-9)
	assert.InDelta(t, 10.0, got.PipValue, 1e-9)
	assert.InDelta(t, 0.33, got.LotSize, 1e-9)
	assert.Equal(t, "table", got.SpecSource)
}

func TestCalculateLotSize_JPY(t *testing.T) {
	t.Parallel()

	got := CalculateLotSize(SizingInput{
		AccountBalance: 5000,
		RiskPercent:    2,
		EntryPrice:     150.00,
		StopLoss:       149.50,
		Symbol:         "USD_JPY",
	})

	require.True(t, got.Valid, got.Error)
	assert.InDelta(t, 50.0, got.PipDistance, 1e-9)
	assert.InDelta(t, 100.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 0.3, got.LotSize, 1e-9)
}

func TestCalculateLotSize_BrokerSpec(t *testing.T) {
	t.Parallel()

	spec := market.SymbolSpec{Symbol: "XAUUSD", Point: 0.01, Digits: 2, ContractSize: 100}
	got := CalculateLotSize(SizingInput{
		AccountBalance: 20000,
		RiskPercent:    1,
		EntryPrice:     2000.0,
		StopLoss:       1990.0,
		Symbol:         "XAUUSD",
		Spec:           &spec,
	})

	require.True(t, got.Valid, got.Error)
	assert.Equal(t, "broker", got.SpecSource)
	assert.InDelta(t, 100.0, got.PipDistance, 1e-9)
	assert.InDelta(t, 10.0, got.PipValue, 1e-9)
	assert.InDelta(t, 0.2, got.LotSize, 1e-9)
}

func TestCalculateLotSize_Errors(t *testing.T) {
	t.Parallel()

	base := SizingInput{AccountBalance: 10000, RiskPercent: 1, EntryPrice: 1.1, StopLoss: 1.09, Symbol: "EURUSD"}

	tests := []struct {
		name   string
		mutate func(in *SizingInput)
		want   string
	}{
		{"zero balance", func(in *SizingInput) { in.AccountBalance = 0 }, ErrBalance},
		{"negative risk", func(in *SizingInput) { in.RiskPercent = -1 }, ErrRiskPercent},
		{"risk too high", func(in *SizingInput) { in.RiskPercent = 10.5 }, ErrRiskPercent},
		{"entry equals stop", func(in *SizingInput) { in.StopLoss = in.EntryPrice }, ErrEntryEqualStop},
		{"nan", func(in *SizingInput) { in.EntryPrice = math.NaN() }, ErrNonFinite},
		{"inf", func(in *SizingInput) { in.AccountBalance = math.Inf(1) }, ErrNonFinite},
		{"sub-pip stop", func(in *SizingInput) { in.StopLoss = in.EntryPrice - 0.000001 }, ErrZeroPips},
		{"lot too small", func(in *SizingInput) { in.AccountBalance = 100; in.RiskPercent = 0.1 }, "below minimum"},
		{"lot too large", func(in *SizingInput) {
			in.AccountBalance = 10_000_000
			in.RiskPercent = 10
			in.StopLoss = in.EntryPrice - 0.0005
		}, "exceeds maximum"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := base
			tt.mutate(&in)
			got := CalculateLotSize(in)
			assert.False(t, got.Valid)
			assert.Contains(t, got.Error, tt.want)
		})
	}
}

func TestCalculateLotSize_RiskReconciles(t *testing.T) {
	t.Parallel()

	cases := []SizingInput{
		{AccountBalance: 10000, RiskPercent: 1, EntryPrice: 1.1, StopLoss: 1.097, Symbol: "EURUSD"},
		{AccountBalance: 25000, RiskPercent: 0.5, EntryPrice: 1.27, StopLoss: 1.2755, Symbol: "GBPUSD"},
		{AccountBalance: 100000, RiskPercent: 2, EntryPrice: 150.2, StopLoss: 149.1, Symbol: "USDJPY"},
		{AccountBalance: 50000, RiskPercent: 1.5, EntryPrice: 0.65, StopLoss: 0.6470, Symbol: "AUDCAD"},
		{AccountBalance: 8000, RiskPercent: 3, EntryPrice: 1.5, StopLoss: 1.49, Symbol: "ZZZYYY"},
	}

	for _, in := range cases {
		got := CalculateLotSize(in)
		require.True(t, got.Valid, "%s: %s", in.Symbol, got.Error)
		tol := 0.005*got.PipDistance*got.PipValue + 1e-6
		assert.InDelta(t, got.RiskAmount, got.LotSize*got.PipDistance*got.PipValue, tol, in.Symbol)
	}
}

func TestSizer_FallsBackOnProviderError(t *testing.T) {
	t.Parallel()

	calls := 0
	p := market.SpecFunc(func(ctx context.Context, symbol string) (market.SymbolSpec, error) {
		calls++
		return market.SymbolSpec{}, errors.New("broker down")
	})

	got := NewSizer(p).Calculate(context.Background(), SizingInput{
		AccountBalance: 10000, RiskPercent: 1, EntryPrice: 1.1, StopLoss: 1.097, Symbol: "EURUSD",
	})

	assert.Equal(t, 1, calls)
	require.True(t, got.Valid)
	assert.True(t, got.SpecFallback)
	assert.Equal(t, "table", got.SpecSource)
	assert.InDelta(t, 0.33, got.LotSize, 1e-9)
}

func TestSizer_UsesProviderSpec(t *testing.T) {
	t.Parallel()

	p := market.NewMapProvider([]market.SymbolSpec{{Symbol: "EURUSD", Point: 0.00001, Digits: 5, ContractSize: 100000}})

	got := NewSizer(p).Calculate(context.Background(), SizingInput{
		AccountBalance: 10000, RiskPercent: 1, EntryPrice: 1.1, StopLoss: 1.097, Symbol: "EURUSD",
	})

	require.True(t, got.Valid)
	assert.False(t, got.SpecFallback)
	assert.Equal(t, "broker", got.SpecSource)
	assert.InDelta(t, 0.33, got.LotSize, 1e-9)
}

func TestSpecPipValueMatchesTable(t *testing.T) {
	t.Parallel()

	// Per standard lot, in account currency: a broker spec and the table
	// must size the same EURUSD trade identically.
	spec := market.SymbolSpec{Symbol: "EURUSD", Point: 0.00001, Digits: 5, ContractSize: 100000}
	assert.InDelta(t, market.Instrument("EURUSD").PipValue, spec.PipValue(), 1e-9)

	in := SizingInput{AccountBalance: 10000, RiskPercent: 1, EntryPrice: 1.1, StopLoss: 1.097, Symbol: "EURUSD"}
	table := CalculateLotSize(in)
	in.Spec = &spec
	broker := CalculateLotSize(in)

	require.True(t, table.Valid)
	require.True(t, broker.Valid)
	assert.Equal(t, table.LotSize, broker.LotSize)
	assert.InDelta(t, 10.0, broker.PipValue, 1e-9)

	// Scaling the pip value down by the contract size would push a $100
	// risk over 30 pips far past the lot cap.
	assert.Greater(t, 100/(30*spec.PipValue()/100000), MaxLotSize)
}

func TestSizer_NilProvider(t *testing.T) {
	t.Parallel()

	var s *Sizer
	got := s.Calculate(context.Background(), SizingInput{
		AccountBalance: 10000, RiskPercent: 1, EntryPrice: 1.1, StopLoss: 1.097, Symbol: "EURUSD",
	})
	assert.True(t, got.Valid)
}
