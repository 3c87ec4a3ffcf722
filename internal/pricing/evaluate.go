package pricing

// Evaluate applies an ordered rule chain to a base price.
//
// The caller is responsible for filtering and ordering the chain (see
// ActiveChain). Rules compose: each rule consumes the previous rule's
// output, not the original base price. The result is unrounded; rounding
// happens once, after the override resolver.
func Evaluate(basePrice float64, quantity int, rules []Rule) float64 {
	price := basePrice
	for i := range rules {
		price = applyRule(price, quantity, &rules[i])
	}
	return price
}

func applyRule(price float64, quantity int, r *Rule) float64 {
	switch r.Kind {
	case KindPercentageMarkup:
		return price * (1 + r.Value/100)
	case KindFlatMarkup:
		return price + r.Value
	case KindTiered:
		return applyTiered(price, quantity, r.Tiers)
	case KindPercentageThenAmount:
		return price*(1+r.PercentageValue/100) + r.AmountValue
	case KindAmountThenPercentage:
		return (price + r.AmountValue) * (1 + r.PercentageValue/100)
	default:
		// Unknown kinds are rejected by Rule.Validate at configuration
		// time; at evaluation time they act as identity.
		return price
	}
}

// applyTiered selects the tier with the greatest MinQuantity that is still
// <= quantity. A quantity exactly equal to a tier's MinQuantity selects that
// tier. If no tier qualifies the price passes through unchanged.
func applyTiered(price float64, quantity int, tiers []Tier) float64 {
	var selected *Tier
	for i := range tiers {
		if tiers[i].MinQuantity <= quantity {
			selected = &tiers[i]
		}
	}
	if selected == nil {
		return price
	}
	switch selected.Kind {
	case TierPercentage:
		return price * (1 + selected.Value/100)
	case TierFixed:
		return price + selected.Value
	default:
		return price
	}
}
