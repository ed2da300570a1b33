package bundle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountTier grants Rate off the subtotal once the pack's total quantity
// reaches MinQuantity. Thresholds are inclusive lower bounds.
type DiscountTier struct {
	MinQuantity int
	Rate        decimal.Decimal
}

var one = decimal.NewFromInt(1)

// DefaultTiers returns the stock discount table: 10% at 2 units, 15% at 3,
// 20% at 5 and above.
func DefaultTiers() []DiscountTier {
	return []DiscountTier{
		{MinQuantity: 2, Rate: decimal.RequireFromString("0.10")},
		{MinQuantity: 3, Rate: decimal.RequireFromString("0.15")},
		{MinQuantity: 5, Rate: decimal.RequireFromString("0.20")},
	}
}

// ParseTiers decodes a "minQty:rate,minQty:rate" table. Empty input yields
// the default table.
func ParseTiers(raw string) ([]DiscountTier, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultTiers(), nil
	}

	parts := strings.Split(trimmed, ",")
	tiers := make([]DiscountTier, 0, len(parts))
	seen := map[int]struct{}{}
	for _, part := range parts {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid tier %q (expected minQty:rate)", part)
		}
		minQty, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid tier quantity %q: %w", fields[0], err)
		}
		if minQty <= 0 {
			return nil, fmt.Errorf("tier quantity must be positive, got %d", minQty)
		}
		if _, dup := seen[minQty]; dup {
			return nil, fmt.Errorf("duplicate tier quantity %d", minQty)
		}
		seen[minQty] = struct{}{}

		rate, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid tier rate %q: %w", fields[1], err)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(one) {
			return nil, fmt.Errorf("tier rate %s outside [0, 1)", rate)
		}

		tiers = append(tiers, DiscountTier{MinQuantity: minQty, Rate: rate})
	}
	return tiers, nil
}

// PricingResult is derived from a selection snapshot and never persisted on
// its own.
type PricingResult struct {
	SubtotalCents int64
	TotalQuantity int
	DiscountRate  decimal.Decimal
	DiscountCents int64
	TotalCents    int64
}

// ComputePricing derives totals for the snapshot. It is a pure function:
// identical snapshots always produce identical results. DiscountCents
// truncates toward zero so the total never loses more than the exact rate.
func ComputePricing(snapshot []SelectionEntry, tiers []DiscountTier) PricingResult {
	var subtotal int64
	var totalQty int
	for _, entry := range snapshot {
		subtotal += entry.UnitPriceCents * int64(entry.Quantity)
		totalQty += entry.Quantity
	}

	rate := decimal.Zero
	if tier := selectTier(totalQty, tiers); tier != nil {
		rate = tier.Rate
	}

	discount := decimal.NewFromInt(subtotal).Mul(rate).Floor().IntPart()

	return PricingResult{
		SubtotalCents: subtotal,
		TotalQuantity: totalQty,
		DiscountRate:  rate,
		DiscountCents: discount,
		TotalCents:    subtotal - discount,
	}
}

// selectTier picks the highest tier whose threshold the quantity meets.
func selectTier(totalQty int, tiers []DiscountTier) *DiscountTier {
	var selected *DiscountTier
	for _, tier := range tiers {
		if tier.MinQuantity <= totalQty {
			if selected == nil || tier.MinQuantity > selected.MinQuantity {
				copy := tier
				selected = &copy
			}
		}
	}
	return selected
}
