package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/packlane-backend/pkg/db/models"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActiveProducts returns the pack offer in display order, each product
// preloaded with its active variants.
func (r *Repository) ListActiveProducts(ctx context.Context) ([]models.BundleProduct, error) {
	var products []models.BundleProduct
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC, created_at ASC").
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order("position ASC, created_at ASC")
		}).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindProductByID loads a single active product with its active variants.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.BundleProduct, error) {
	var product models.BundleProduct
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order("position ASC, created_at ASC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads an active variant belonging to the given product.
func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ? AND is_active = ?", variantID, productID, true).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}
