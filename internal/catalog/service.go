package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/packlane-backend/internal/bundle"
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
)

// Service exposes catalog read operations for the pack builder. Unit prices
// always come from here; client-supplied prices are never trusted.
type Service interface {
	GetOffer(ctx context.Context) (*OfferDTO, error)
	ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (bundle.VariantData, error)
	ResolveDefaultVariant(ctx context.Context, productID uuid.UUID) (bundle.VariantData, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOffer(ctx context.Context) (*OfferDTO, error) {
	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list offer products")
	}

	dto := &OfferDTO{Products: make([]ProductDTO, 0, len(products))}
	for _, product := range products {
		dto.Products = append(dto.Products, toProductDTO(product))
	}
	return dto, nil
}

func (s *service) ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (bundle.VariantData, error) {
	variant, err := s.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bundle.VariantData{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found for product")
		}
		return bundle.VariantData{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve variant")
	}

	return bundle.VariantData{
		VariantID:      variant.ID.String(),
		UnitPriceCents: variant.PriceCents,
		Label:          variant.Label,
	}, nil
}

// ResolveDefaultVariant picks the product's flagged default variant, falling
// back to the first active one by position.
func (s *service) ResolveDefaultVariant(ctx context.Context, productID uuid.UUID) (bundle.VariantData, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bundle.VariantData{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return bundle.VariantData{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve product")
	}
	if len(product.Variants) == 0 {
		return bundle.VariantData{}, pkgerrors.New(pkgerrors.CodeNotFound, "product has no active variants")
	}

	chosen := product.Variants[0]
	for _, variant := range product.Variants {
		if variant.IsDefault {
			chosen = variant
			break
		}
	}

	return bundle.VariantData{
		VariantID:      chosen.ID.String(),
		UnitPriceCents: chosen.PriceCents,
		Label:          chosen.Label,
	}, nil
}
