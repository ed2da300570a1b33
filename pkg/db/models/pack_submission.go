package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PackSubmission is the audit record written when a bundle is successfully
// pushed into the storefront cart. Lines holds the submitted
// variant/quantity pairs as sent to the cart service.
type PackSubmission struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID     uuid.UUID       `gorm:"column:session_id;type:uuid;not null;index"`
	SubtotalCents int64           `gorm:"column:subtotal_cents;not null"`
	DiscountCents int64           `gorm:"column:discount_cents;not null"`
	TotalCents    int64           `gorm:"column:total_cents;not null"`
	TotalQuantity int             `gorm:"column:total_quantity;not null"`
	CartItemCount int             `gorm:"column:cart_item_count;not null"`
	Lines         json.RawMessage `gorm:"column:lines;type:jsonb;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
