package bundle

import (
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
)

// VariantData is the catalog-supplied pricing context for a mutation. The
// engine never looks catalog data up itself.
type VariantData struct {
	VariantID      string
	UnitPriceCents int64
	Label          string
}

// CartLine is one row of the outbound cart-mutation request.
type CartLine struct {
	VariantID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

// Listener observes selection changes. The recomputed PricingResult passed
// here is the single source of truth for display totals.
type Listener interface {
	SelectionChanged(snapshot []SelectionEntry, pricing PricingResult)
}

// Coordinator validates mutation requests against the selection set and keeps
// the derived pricing current. It is not safe for concurrent use; callers
// serialize access per session.
type Coordinator struct {
	set      *SelectionSet
	tiers    []DiscountTier
	listener Listener
	pricing  PricingResult
}

// NewCoordinator builds a coordinator over an empty selection. A nil listener
// disables notifications.
func NewCoordinator(tiers []DiscountTier, listener Listener) (*Coordinator, error) {
	if len(tiers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "discount tiers required")
	}
	c := &Coordinator{
		set:      NewSelectionSet(),
		tiers:    tiers,
		listener: listener,
	}
	c.pricing = ComputePricing(nil, tiers)
	return c, nil
}

// ChangeQuantity applies a quantity delta for the product. Deltas that would
// take the quantity below zero are rejected without touching state; deltas
// past MaxQuantity clamp silently. A resulting quantity of zero removes the
// product from the pack.
func (c *Coordinator) ChangeQuantity(productID string, delta int, variant VariantData) (PricingResult, error) {
	if productID == "" {
		return c.pricing, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	current, exists := c.set.Get(productID)
	currentQty := 0
	if exists {
		currentQty = current.Quantity
	}

	newQty := currentQty + delta
	if newQty < 0 {
		return c.pricing, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot drop below zero")
	}
	if newQty > MaxQuantity {
		newQty = MaxQuantity
	}

	variantID := variant.VariantID
	unitPrice := variant.UnitPriceCents
	label := variant.Label
	if exists && variantID == "" {
		variantID = current.VariantID
		unitPrice = current.UnitPriceCents
		label = current.Label
	}
	if newQty > 0 && variantID == "" {
		return c.pricing, pkgerrors.New(pkgerrors.CodeValidation, "variant data required for new selection")
	}

	if err := c.set.SetQuantity(productID, newQty, variantID, unitPrice, label); err != nil {
		return c.pricing, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "apply quantity")
	}

	return c.recompute(), nil
}

// ChangeVariant swaps the chosen variant and unit price for an already
// selected product, leaving its quantity alone. Products not in the pack are
// rejected so the caller can log and ignore.
func (c *Coordinator) ChangeVariant(productID, variantID string, unitPriceCents int64, label string) (PricingResult, error) {
	entry, ok := c.set.Get(productID)
	if !ok {
		return c.pricing, pkgerrors.New(pkgerrors.CodeNotFound, "product not in pack")
	}
	if variantID == "" {
		return c.pricing, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}

	if err := c.set.SetQuantity(productID, entry.Quantity, variantID, unitPriceCents, label); err != nil {
		return c.pricing, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "apply variant")
	}

	return c.recompute(), nil
}

// BuildCartMutation maps the selection into the outbound cart request shape.
// An empty selection yields an empty slice; submission of an empty pack is
// rejected by Validate below before any network call.
func (c *Coordinator) BuildCartMutation() []CartLine {
	snapshot := c.set.Snapshot()
	lines := make([]CartLine, 0, len(snapshot))
	for _, entry := range snapshot {
		lines = append(lines, CartLine{VariantID: entry.VariantID, Quantity: entry.Quantity})
	}
	return lines
}

// ValidateForSubmit guards against empty submissions.
func (c *Coordinator) ValidateForSubmit() error {
	if c.set.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "pack is empty")
	}
	return nil
}

// Reset clears the selection after a confirmed cart submission.
func (c *Coordinator) Reset() PricingResult {
	c.set.Clear()
	return c.recompute()
}

// Restore replaces the selection with a previously captured snapshot.
func (c *Coordinator) Restore(snapshot []SelectionEntry) error {
	restored := NewSelectionSet()
	for _, entry := range snapshot {
		if err := restored.SetQuantity(entry.ProductID, entry.Quantity, entry.VariantID, entry.UnitPriceCents, entry.Label); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "restore selection")
		}
	}
	c.set = restored
	c.pricing = ComputePricing(c.set.Snapshot(), c.tiers)
	return nil
}

// Snapshot exposes the ordered selection entries.
func (c *Coordinator) Snapshot() []SelectionEntry {
	return c.set.Snapshot()
}

// Pricing returns the last computed result.
func (c *Coordinator) Pricing() PricingResult {
	return c.pricing
}

// IsEmpty reports whether the pack has no selections.
func (c *Coordinator) IsEmpty() bool {
	return c.set.IsEmpty()
}

func (c *Coordinator) recompute() PricingResult {
	snapshot := c.set.Snapshot()
	c.pricing = ComputePricing(snapshot, c.tiers)
	if c.listener != nil {
		c.listener.SelectionChanged(snapshot, c.pricing)
	}
	return c.pricing
}
