package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverride(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		kind     OverrideKind
		value    float64
		expected float64
	}{
		{"none leaves the price unchanged", 123.45, OverrideNone, 99, 123.45},
		{"fixed returns the value verbatim", 123.45, OverrideFixed, 99, 99},
		{"percentage scales the price", 100, OverridePercentage, 15, 115},
		{"negative percentage discounts", 100, OverridePercentage, -10, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ApplyOverride(tt.price, tt.kind, tt.value), 1e-9)
		})
	}
}

func TestRound2HalfUp(t *testing.T) {
	assert.InDelta(t, 1.23, Round2(1.234), 1e-9)
	assert.InDelta(t, 1.24, Round2(1.235), 1e-9)
	assert.InDelta(t, 1.24, Round2(1.236), 1e-9)
	assert.InDelta(t, 100.00, Round2(100), 1e-9)
}

// Fixed overrides win regardless of the rule chain applied beforehand.
func TestComputeFixedOverrideWins(t *testing.T) {
	res := Compute(ComputeInput{
		BasePrice:     100,
		Quantity:      1,
		Rules:         []Rule{pct(1, 0, 50), flat(2, 0, 30)},
		OverrideKind:  OverrideFixed,
		OverrideValue: 19.99,
		FallbackPrice: 100,
	})
	require.NoError(t, res.Err)
	assert.False(t, res.FellBack)
	assert.InDelta(t, 19.99, res.Price, 1e-9)
}

// With no override and no rules the pipeline returns the base price,
// rounded to two decimals.
func TestComputeNoRulesRoundTrip(t *testing.T) {
	res := Compute(ComputeInput{
		BasePrice:     42.375,
		Quantity:      1,
		OverrideKind:  OverrideNone,
		FallbackPrice: 42.375,
	})
	require.NoError(t, res.Err)
	assert.InDelta(t, 42.38, res.Price, 1e-9)
}

func TestComputeFailsClosedOnMissingBasePrice(t *testing.T) {
	res := Compute(ComputeInput{
		BasePrice:     0,
		Quantity:      1,
		OverrideKind:  OverrideNone,
		FallbackPrice: 17.50,
	})
	require.Error(t, res.Err)
	assert.True(t, res.FellBack)
	assert.InDelta(t, 17.50, res.Price, 1e-9, "must return the last stable price, never zero")
}

func TestComputePriceFloorViolation(t *testing.T) {
	res := Compute(ComputeInput{
		BasePrice:     10,
		Quantity:      1,
		Rules:         []Rule{flat(1, 0, -50)},
		OverrideKind:  OverrideNone,
		FallbackPrice: 10,
	})
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrPriceFloor)
	assert.True(t, res.FellBack)
	assert.InDelta(t, 10, res.Price, 1e-9)
}

func TestComputeInvalidRuleFailsClosed(t *testing.T) {
	res := Compute(ComputeInput{
		BasePrice:     10,
		Quantity:      1,
		Rules:         []Rule{{ID: 1, Scope: ScopeGlobalConnection, Kind: KindTiered}},
		OverrideKind:  OverrideNone,
		FallbackPrice: 12.34,
	})
	require.Error(t, res.Err)
	assert.True(t, res.FellBack)
	assert.InDelta(t, 12.34, res.Price, 1e-9)
}

// A fixed override makes the base price irrelevant, so a missing base
// price is not an error in that mode.
func TestComputeFixedOverrideIgnoresBasePrice(t *testing.T) {
	res := Compute(ComputeInput{
		BasePrice:     0,
		OverrideKind:  OverrideFixed,
		OverrideValue: 5,
		FallbackPrice: 0,
	})
	require.NoError(t, res.Err)
	assert.InDelta(t, 5, res.Price, 1e-9)
}
