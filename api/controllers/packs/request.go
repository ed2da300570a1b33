package packs

import (
	"github.com/google/uuid"

	packsvc "github.com/packlane/packlane-backend/internal/packs"
)

// ChangeQuantityRequest is the payload for a quantity mutation. The delta is
// signed: increments and decrements share the endpoint.
type ChangeQuantityRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Delta     int        `json:"delta" validate:"required"`
}

// ChangeVariantRequest swaps the variant of an already selected product.
type ChangeVariantRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
}

func (r ChangeQuantityRequest) toInput() packsvc.ChangeQuantityInput {
	return packsvc.ChangeQuantityInput{
		ProductID: r.ProductID,
		VariantID: r.VariantID,
		Delta:     r.Delta,
	}
}

func (r ChangeVariantRequest) toInput() packsvc.ChangeVariantInput {
	return packsvc.ChangeVariantInput{
		ProductID: r.ProductID,
		VariantID: r.VariantID,
	}
}
