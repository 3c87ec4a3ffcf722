package pricing

import (
	"fmt"
	"sort"
	"time"
)

// RuleScope determines which items a rule applies to.
type RuleScope string

const (
	ScopeGlobalConnection RuleScope = "global_connection"
	ScopeProductSpecific  RuleScope = "product_specific"
)

// RuleKind identifies the pricing transformation a rule performs.
// The set is closed; there is no general rule DSL.
type RuleKind string

const (
	KindPercentageMarkup     RuleKind = "percentage_markup"
	KindFlatMarkup           RuleKind = "flat_markup"
	KindTiered               RuleKind = "tiered"
	KindPercentageThenAmount RuleKind = "percentage_then_amount"
	KindAmountThenPercentage RuleKind = "amount_then_percentage"
)

// TierKind is the transformation applied by a quantity tier.
type TierKind string

const (
	TierPercentage TierKind = "percentage"
	TierFixed      TierKind = "fixed"
)

// Tier is a single quantity break of a tiered rule.
// Tiers are kept ordered by MinQuantity ascending.
type Tier struct {
	MinQuantity int      `json:"minQuantity"`
	Kind        TierKind `json:"kind"`
	Value       float64  `json:"value"`
}

// Rule is a single pricing rule for a (supplier, destination) pair.
// Rules are configuration: the engine reads them, never mutates them.
//
// Exactly one parameter group is populated, matching Kind:
// Value for percentage_markup/flat_markup, PercentageValue+AmountValue
// for the combined kinds, Tiers for tiered.
type Rule struct {
	ID              int64      `json:"id"`
	Scope           RuleScope  `json:"scope"`
	SupplierRef     string     `json:"supplierRef"`
	DestinationRef  string     `json:"destinationRef"`
	ProductRef      *string    `json:"productRef,omitempty"`
	Kind            RuleKind   `json:"kind"`
	Value           float64    `json:"value,omitempty"`
	PercentageValue float64    `json:"percentageValue,omitempty"`
	AmountValue     float64    `json:"amountValue,omitempty"`
	Tiers           []Tier     `json:"tiers,omitempty"`
	Priority        int        `json:"priority"`
	Active          bool       `json:"active"`
	ValidFrom       *time.Time `json:"validFrom,omitempty"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
}

// Validate checks structural invariants of a rule definition.
func (r *Rule) Validate() error {
	switch r.Scope {
	case ScopeGlobalConnection:
		if r.ProductRef != nil {
			return fmt.Errorf("rule %d: global_connection rule must not carry a product ref", r.ID)
		}
	case ScopeProductSpecific:
		if r.ProductRef == nil || *r.ProductRef == "" {
			return fmt.Errorf("rule %d: product_specific rule requires a product ref", r.ID)
		}
	default:
		return fmt.Errorf("rule %d: unknown scope %q", r.ID, r.Scope)
	}

	switch r.Kind {
	case KindPercentageMarkup, KindFlatMarkup:
		if len(r.Tiers) > 0 {
			return fmt.Errorf("rule %d: %s rule must not define tiers", r.ID, r.Kind)
		}
	case KindPercentageThenAmount, KindAmountThenPercentage:
		if len(r.Tiers) > 0 {
			return fmt.Errorf("rule %d: %s rule must not define tiers", r.ID, r.Kind)
		}
	case KindTiered:
		if len(r.Tiers) == 0 {
			return fmt.Errorf("rule %d: tiered rule requires at least one tier", r.ID)
		}
		for i, t := range r.Tiers {
			if t.Kind != TierPercentage && t.Kind != TierFixed {
				return fmt.Errorf("rule %d: tier %d has unknown kind %q", r.ID, i, t.Kind)
			}
			if i > 0 && r.Tiers[i-1].MinQuantity >= t.MinQuantity {
				return fmt.Errorf("rule %d: tiers must be ordered by min quantity ascending", r.ID)
			}
		}
	default:
		return fmt.Errorf("rule %d: unknown kind %q", r.ID, r.Kind)
	}

	return nil
}

// appliesAt reports whether the rule is active within its validity window.
func (r *Rule) appliesAt(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

// matchesScope reports whether the rule targets the given pairing and product.
func (r *Rule) matchesScope(supplierRef, destinationRef, productRef string) bool {
	if r.SupplierRef != supplierRef || r.DestinationRef != destinationRef {
		return false
	}
	if r.Scope == ScopeProductSpecific {
		return r.ProductRef != nil && *r.ProductRef == productRef
	}
	return true
}

// ActiveChain filters rules down to the chain that applies to one item at one
// point in time, sorted into application order: priority descending, ties
// broken by rule ID ascending so evaluation stays deterministic.
func ActiveChain(rules []Rule, supplierRef, destinationRef, productRef string, now time.Time) []Rule {
	chain := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.appliesAt(now) && r.matchesScope(supplierRef, destinationRef, productRef) {
			chain = append(chain, r)
		}
	}
	sort.Slice(chain, func(i, j int) bool {
		if chain[i].Priority != chain[j].Priority {
			return chain[i].Priority > chain[j].Priority
		}
		return chain[i].ID < chain[j].ID
	})
	return chain
}
