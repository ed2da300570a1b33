package catalog

import (
	"github.com/google/uuid"

	"github.com/packlane/packlane-backend/pkg/db/models"
)

// OfferDTO is the full pack offer payload returned to clients.
type OfferDTO struct {
	Products []ProductDTO `json:"products"`
}

// ProductDTO represents one product slot of the pack offer.
type ProductDTO struct {
	ID       uuid.UUID    `json:"id"`
	Handle   string       `json:"handle"`
	Title    string       `json:"title"`
	Tags     []string     `json:"tags"`
	Position int          `json:"position"`
	Variants []VariantDTO `json:"variants"`
}

// VariantDTO exposes a purchasable option with its unit price.
type VariantDTO struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label"`
	OptionValues []string  `json:"option_values"`
	PriceCents   int64     `json:"price_cents"`
	IsDefault    bool      `json:"is_default"`
	Position     int       `json:"position"`
}

func toProductDTO(product models.BundleProduct) ProductDTO {
	variants := make([]VariantDTO, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variants = append(variants, VariantDTO{
			ID:           variant.ID,
			Label:        variant.Label,
			OptionValues: variant.OptionValues,
			PriceCents:   variant.PriceCents,
			IsDefault:    variant.IsDefault,
			Position:     variant.Position,
		})
	}
	return ProductDTO{
		ID:       product.ID,
		Handle:   product.Handle,
		Title:    product.Title,
		Tags:     product.Tags,
		Position: product.Position,
		Variants: variants,
	}
}
