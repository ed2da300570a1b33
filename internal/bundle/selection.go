package bundle

import (
	"encoding/json"
	"fmt"
)

// MaxQuantity caps how many units of a single product a pack may hold.
const MaxQuantity = 10

// SelectionEntry is one product's participation in the pack. UnitPriceCents is
// supplied by the catalog layer per variant; Label is display-only and never
// used in pricing.
type SelectionEntry struct {
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Label          string `json:"label"`
}

// SelectionSet holds the in-progress pack contents keyed by product. An entry
// exists iff its quantity is positive; snapshots iterate in first-inserted
// order so summaries render deterministically.
type SelectionSet struct {
	entries map[string]*SelectionEntry
	order   []string
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{entries: make(map[string]*SelectionEntry)}
}

// SetQuantity inserts or overwrites the entry for productID. A quantity of
// zero removes the entry. Quantities outside [0, MaxQuantity] are rejected;
// clamping is the coordinator's job.
func (s *SelectionSet) SetQuantity(productID string, quantity int, variantID string, unitPriceCents int64, label string) error {
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if quantity < 0 || quantity > MaxQuantity {
		return fmt.Errorf("quantity %d outside [0, %d]", quantity, MaxQuantity)
	}
	if unitPriceCents < 0 {
		return fmt.Errorf("unit price cannot be negative")
	}

	if quantity == 0 {
		s.Remove(productID)
		return nil
	}

	if existing, ok := s.entries[productID]; ok {
		existing.VariantID = variantID
		existing.Quantity = quantity
		existing.UnitPriceCents = unitPriceCents
		existing.Label = label
		return nil
	}

	s.entries[productID] = &SelectionEntry{
		ProductID:      productID,
		VariantID:      variantID,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		Label:          label,
	}
	s.order = append(s.order, productID)
	return nil
}

// Remove drops the entry for productID. No-op when absent.
func (s *SelectionSet) Remove(productID string) {
	if _, ok := s.entries[productID]; !ok {
		return
	}
	delete(s.entries, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear empties the set.
func (s *SelectionSet) Clear() {
	s.entries = make(map[string]*SelectionEntry)
	s.order = nil
}

// Get returns a copy of the entry for productID.
func (s *SelectionSet) Get(productID string) (SelectionEntry, bool) {
	entry, ok := s.entries[productID]
	if !ok {
		return SelectionEntry{}, false
	}
	return *entry, true
}

// Snapshot returns the entries in insertion order. The returned slice is a
// copy; mutating it does not affect the set.
func (s *SelectionSet) Snapshot() []SelectionEntry {
	out := make([]SelectionEntry, 0, len(s.order))
	for _, id := range s.order {
		if entry, ok := s.entries[id]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

func (s *SelectionSet) IsEmpty() bool {
	return len(s.entries) == 0
}

func (s *SelectionSet) Len() int {
	return len(s.entries)
}

type selectionSetJSON struct {
	Entries []SelectionEntry `json:"entries"`
}

// MarshalJSON serializes the set as an ordered entry list.
func (s *SelectionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(selectionSetJSON{Entries: s.Snapshot()})
}

// UnmarshalJSON rebuilds the set from an ordered entry list, enforcing the
// same bounds as SetQuantity.
func (s *SelectionSet) UnmarshalJSON(data []byte) error {
	var decoded selectionSetJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	s.Clear()
	for _, entry := range decoded.Entries {
		if err := s.SetQuantity(entry.ProductID, entry.Quantity, entry.VariantID, entry.UnitPriceCents, entry.Label); err != nil {
			return fmt.Errorf("entry %q: %w", entry.ProductID, err)
		}
	}
	return nil
}
