package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BundleProduct is a product offered inside the pack-builder widget. Position
// fixes the render order of the offer so summaries stay deterministic.
type BundleProduct struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Handle    string           `gorm:"column:handle;not null;uniqueIndex"`
	Title     string           `gorm:"column:title;not null"`
	Tags      pq.StringArray   `gorm:"column:tags;type:text[]"`
	Position  int              `gorm:"column:position;not null;default:0"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
