package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProductVariant is one purchasable option of a bundle product. PriceCents is
// the unit price the pricing engine receives; it is never read from request
// payloads.
type ProductVariant struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	Label        string         `gorm:"column:label;not null"`
	OptionValues pq.StringArray `gorm:"column:option_values;type:text[]"`
	PriceCents   int64          `gorm:"column:price_cents;not null"`
	Position     int            `gorm:"column:position;not null;default:0"`
	IsDefault    bool           `gorm:"column:is_default;not null;default:false"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
