package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/channelsync/sync-service/internal/pricing"
)

// RulesForPair loads all active pricing rules for a supplier/destination
// pair, both global and product-specific. The caller narrows them to one
// item's chain with pricing.ActiveChain; the query only pre-filters what
// never changes per item.
func RulesForPair(ctx context.Context, supplierRef, destinationRef string) ([]pricing.Rule, error) {
	rows, err := Pool().Query(ctx, `
		SELECT id, scope, supplier_ref, destination_ref, product_ref,
		       rule_kind, value, percentage_value, amount_value, tiers,
		       priority, active, valid_from, valid_until
		FROM pricing_rules
		WHERE supplier_ref = $1 AND destination_ref = $2 AND active
		ORDER BY priority DESC, id
	`, supplierRef, destinationRef)
	if err != nil {
		return nil, fmt.Errorf("select pricing rules: %w", err)
	}
	defer rows.Close()

	var rules []pricing.Rule
	for rows.Next() {
		var r pricing.Rule
		var tiersJSON []byte
		err := rows.Scan(
			&r.ID, &r.Scope, &r.SupplierRef, &r.DestinationRef, &r.ProductRef,
			&r.Kind, &r.Value, &r.PercentageValue, &r.AmountValue, &tiersJSON,
			&r.Priority, &r.Active, &r.ValidFrom, &r.ValidUntil,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		if len(tiersJSON) > 0 {
			if err := json.Unmarshal(tiersJSON, &r.Tiers); err != nil {
				return nil, fmt.Errorf("decode tiers for rule %d: %w", r.ID, err)
			}
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
