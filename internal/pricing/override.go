package pricing

import (
	"errors"
	"fmt"
	"math"
)

// OverrideKind is the item-level price override mode.
type OverrideKind string

const (
	OverrideNone       OverrideKind = "none"
	OverrideFixed      OverrideKind = "fixed"
	OverridePercentage OverrideKind = "percentage"
)

// ErrPriceFloor marks a computed price that violated the non-negative floor.
// A rule chain with a large flat discount can drive a price to zero or below;
// that is treated as a configuration error, never pushed downstream.
var ErrPriceFloor = errors.New("computed price is zero or negative")

// ApplyOverride applies the item-level override on top of the rule-evaluated
// price. Fixed overrides return their value verbatim, ignoring the incoming
// price entirely.
func ApplyOverride(price float64, kind OverrideKind, value float64) float64 {
	switch kind {
	case OverrideFixed:
		return value
	case OverridePercentage:
		return price * (1 + value/100)
	default:
		return price
	}
}

// Round2 rounds to two decimal places using standard half-up rounding.
// Applied exactly once, after the override resolver.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// ComputeInput carries everything needed to recompute one item's final price.
// Rules must already be the item's active chain (see ActiveChain).
type ComputeInput struct {
	BasePrice     float64
	Quantity      int
	Rules         []Rule
	OverrideKind  OverrideKind
	OverrideValue float64

	// FallbackPrice is the last known stable price: the item's previous
	// final price, or the raw base price for a never-priced item. It is
	// returned when computation fails so downstream systems never see a
	// null or corrupted price.
	FallbackPrice float64
}

// ComputeResult is the outcome of a final-price computation.
type ComputeResult struct {
	Price    float64
	FellBack bool
	Err      error
}

// Compute runs the full pricing pipeline for one item: rule chain, then
// override, then rounding, then the non-negative floor check. On any
// failure it fails closed to FallbackPrice and reports the error alongside.
func Compute(in ComputeInput) ComputeResult {
	fallback := Round2(in.FallbackPrice)

	if in.BasePrice <= 0 && in.OverrideKind != OverrideFixed {
		return ComputeResult{
			Price:    fallback,
			FellBack: true,
			Err:      fmt.Errorf("missing or non-positive base price %.2f", in.BasePrice),
		}
	}

	for i := range in.Rules {
		if err := in.Rules[i].Validate(); err != nil {
			return ComputeResult{Price: fallback, FellBack: true, Err: err}
		}
	}

	price := Evaluate(in.BasePrice, in.Quantity, in.Rules)
	price = ApplyOverride(price, in.OverrideKind, in.OverrideValue)
	price = Round2(price)

	if price <= 0 {
		return ComputeResult{
			Price:    fallback,
			FellBack: true,
			Err:      fmt.Errorf("%w: %.2f", ErrPriceFloor, price),
		}
	}

	return ComputeResult{Price: price}
}
