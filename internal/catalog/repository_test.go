package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packlane/packlane-backend/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS bundle_products (
  id TEXT PRIMARY KEY,
  handle TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  tags TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  label TEXT NOT NULL,
  option_values TEXT,
  price_cents INTEGER NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  is_default INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(variants).Error)
	return db
}

func mustCreateProduct(t *testing.T, db *gorm.DB, handle string, position int, active bool) *models.BundleProduct {
	t.Helper()
	product := &models.BundleProduct{
		ID:       uuid.New(),
		Handle:   handle,
		Title:    "Pack Item " + handle,
		Tags:     pq.StringArray{"bundle"},
		Position: position,
		IsActive: active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func mustCreateVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, label string, priceCents int64, position int, isDefault, active bool) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ID:           uuid.New(),
		ProductID:    productID,
		Label:        label,
		OptionValues: pq.StringArray{label},
		PriceCents:   priceCents,
		Position:     position,
		IsDefault:    isDefault,
		IsActive:     active,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func TestRepositoryListActiveProducts(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	second := mustCreateProduct(t, db, "gummies", 2, true)
	first := mustCreateProduct(t, db, "tincture", 1, true)
	mustCreateProduct(t, db, "retired", 0, false)

	mustCreateVariant(t, db, first.ID, "30ml", 2500, 1, true, true)
	mustCreateVariant(t, db, first.ID, "60ml", 4500, 2, false, true)
	mustCreateVariant(t, db, first.ID, "legacy", 100, 3, false, false)
	mustCreateVariant(t, db, second.ID, "20ct", 1800, 1, true, true)

	products, err := repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "tincture", products[0].Handle)
	assert.Equal(t, "gummies", products[1].Handle)

	require.Len(t, products[0].Variants, 2)
	assert.Equal(t, "30ml", products[0].Variants[0].Label)
	assert.Equal(t, "60ml", products[0].Variants[1].Label)
}

func TestRepositoryFindVariant(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := mustCreateProduct(t, db, "tincture", 1, true)
	other := mustCreateProduct(t, db, "gummies", 2, true)
	variant := mustCreateVariant(t, db, product.ID, "30ml", 2500, 1, true, true)
	inactive := mustCreateVariant(t, db, product.ID, "legacy", 100, 2, false, false)

	t.Run("returns matching active variant", func(t *testing.T) {
		found, err := repo.FindVariant(ctx, product.ID, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), found.PriceCents)
	})

	t.Run("misses variant under a different product", func(t *testing.T) {
		_, err := repo.FindVariant(ctx, other.ID, variant.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("misses inactive variant", func(t *testing.T) {
		_, err := repo.FindVariant(ctx, product.ID, inactive.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestRepositoryFindProductByID(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := mustCreateProduct(t, db, "tincture", 1, true)
	retired := mustCreateProduct(t, db, "retired", 2, false)
	mustCreateVariant(t, db, product.ID, "30ml", 2500, 1, true, true)

	found, err := repo.FindProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "tincture", found.Handle)
	require.Len(t, found.Variants, 1)

	_, err = repo.FindProductByID(ctx, retired.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
