package bundle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(productID string, qty int, unitPriceCents int64) SelectionEntry {
	return SelectionEntry{
		ProductID:      productID,
		VariantID:      productID + "-v1",
		Quantity:       qty,
		UnitPriceCents: unitPriceCents,
	}
}

func TestComputePricingTierSelection(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		name         string
		snapshot     []SelectionEntry
		wantRate     string
		wantSubtotal int64
		wantDiscount int64
		wantTotal    int64
		wantQty      int
	}{
		{
			name:     "empty selection has zero totals",
			snapshot: nil,
			wantRate: "0",
		},
		{
			name:         "single unit gets no discount",
			snapshot:     []SelectionEntry{entry("a", 1, 1000)},
			wantRate:     "0",
			wantSubtotal: 1000,
			wantDiscount: 0,
			wantTotal:    1000,
			wantQty:      1,
		},
		{
			name:         "two units hit the first tier",
			snapshot:     []SelectionEntry{entry("a", 2, 1000)},
			wantRate:     "0.1",
			wantSubtotal: 2000,
			wantDiscount: 200,
			wantTotal:    1800,
			wantQty:      2,
		},
		{
			name:         "three units across products hit the second tier",
			snapshot:     []SelectionEntry{entry("a", 2, 1000), entry("b", 1, 500)},
			wantRate:     "0.15",
			wantSubtotal: 2500,
			wantDiscount: 375,
			wantTotal:    2125,
			wantQty:      3,
		},
		{
			name:         "four units stay on the second tier",
			snapshot:     []SelectionEntry{entry("a", 4, 1000)},
			wantRate:     "0.15",
			wantSubtotal: 4000,
			wantDiscount: 600,
			wantTotal:    3400,
			wantQty:      4,
		},
		{
			name:         "five units hit the top tier",
			snapshot:     []SelectionEntry{entry("a", 3, 700), entry("b", 2, 700)},
			wantRate:     "0.2",
			wantSubtotal: 3500,
			wantDiscount: 700,
			wantTotal:    2800,
			wantQty:      5,
		},
		{
			name:         "large quantities keep the top tier",
			snapshot:     []SelectionEntry{entry("a", 10, 1000), entry("b", 10, 1000)},
			wantRate:     "0.2",
			wantSubtotal: 20000,
			wantDiscount: 4000,
			wantTotal:    16000,
			wantQty:      20,
		},
		{
			name:         "discount cents truncate toward zero",
			snapshot:     []SelectionEntry{entry("a", 3, 333)},
			wantRate:     "0.15",
			wantSubtotal: 999,
			wantDiscount: 149, // 999 * 0.15 = 149.85
			wantTotal:    850,
			wantQty:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePricing(tt.snapshot, tiers)
			assert.Equal(t, tt.wantSubtotal, got.SubtotalCents)
			assert.Equal(t, tt.wantQty, got.TotalQuantity)
			assert.True(t, got.DiscountRate.Equal(decimal.RequireFromString(tt.wantRate)),
				"rate: want %s, got %s", tt.wantRate, got.DiscountRate)
			assert.Equal(t, tt.wantDiscount, got.DiscountCents)
			assert.Equal(t, tt.wantTotal, got.TotalCents)
		})
	}
}

func TestComputePricingIsPure(t *testing.T) {
	snapshot := []SelectionEntry{entry("a", 2, 1250), entry("b", 3, 950)}
	tiers := DefaultTiers()

	first := ComputePricing(snapshot, tiers)
	second := ComputePricing(snapshot, tiers)
	assert.Equal(t, first, second)
}

func TestComputePricingUnorderedTiers(t *testing.T) {
	// Tier selection must not depend on table ordering.
	tiers := []DiscountTier{
		{MinQuantity: 5, Rate: decimal.RequireFromString("0.20")},
		{MinQuantity: 2, Rate: decimal.RequireFromString("0.10")},
		{MinQuantity: 3, Rate: decimal.RequireFromString("0.15")},
	}

	got := ComputePricing([]SelectionEntry{entry("a", 6, 100)}, tiers)
	assert.True(t, got.DiscountRate.Equal(decimal.RequireFromString("0.20")))
}

func TestParseTiers(t *testing.T) {
	t.Run("empty yields defaults", func(t *testing.T) {
		tiers, err := ParseTiers("")
		require.NoError(t, err)
		assert.Equal(t, DefaultTiers(), tiers)
	})

	t.Run("valid table", func(t *testing.T) {
		tiers, err := ParseTiers("2:0.05, 4:0.12")
		require.NoError(t, err)
		require.Len(t, tiers, 2)
		assert.Equal(t, 2, tiers[0].MinQuantity)
		assert.True(t, tiers[0].Rate.Equal(decimal.RequireFromString("0.05")))
		assert.Equal(t, 4, tiers[1].MinQuantity)
	})

	t.Run("rejects malformed pair", func(t *testing.T) {
		_, err := ParseTiers("2-0.05")
		assert.Error(t, err)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := ParseTiers("0:0.05")
		assert.Error(t, err)
	})

	t.Run("rejects duplicate quantity", func(t *testing.T) {
		_, err := ParseTiers("2:0.05,2:0.10")
		assert.Error(t, err)
	})

	t.Run("rejects rate of one or more", func(t *testing.T) {
		_, err := ParseTiers("2:1.0")
		assert.Error(t, err)
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		_, err := ParseTiers("2:-0.1")
		assert.Error(t, err)
	})
}
