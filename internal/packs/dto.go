package packs

import (
	"time"

	"github.com/google/uuid"

	"github.com/packlane/packlane-backend/internal/bundle"
)

// SessionDTO is returned when a builder session starts.
type SessionDTO struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QuoteItemDTO is one selected product line within a quote.
type QuoteItemDTO struct {
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id"`
	Label          string `json:"label,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// QuoteDTO is the full pricing view of the current selection. It is derived
// on every read; clients never compute totals themselves.
type QuoteDTO struct {
	Items         []QuoteItemDTO `json:"items"`
	TotalQuantity int            `json:"total_quantity"`
	SubtotalCents int64          `json:"subtotal_cents"`
	DiscountRate  string         `json:"discount_rate"`
	DiscountCents int64          `json:"discount_cents"`
	TotalCents    int64          `json:"total_cents"`
}

// SubmissionDTO is one historical submission row for the session.
type SubmissionDTO struct {
	SubmissionID  uuid.UUID `json:"submission_id"`
	SubtotalCents int64     `json:"subtotal_cents"`
	DiscountCents int64     `json:"discount_cents"`
	TotalCents    int64     `json:"total_cents"`
	TotalQuantity int       `json:"total_quantity"`
	CartItemCount int       `json:"cart_item_count"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// SubmitResultDTO reports a completed cart submission.
type SubmitResultDTO struct {
	SubmissionID  uuid.UUID `json:"submission_id"`
	CartItemCount int       `json:"cart_item_count"`
	Quote         QuoteDTO  `json:"quote"`
}

func toQuoteDTO(snapshot []bundle.SelectionEntry, pricing bundle.PricingResult) QuoteDTO {
	items := make([]QuoteItemDTO, 0, len(snapshot))
	for _, entry := range snapshot {
		items = append(items, QuoteItemDTO{
			ProductID:      entry.ProductID,
			VariantID:      entry.VariantID,
			Label:          entry.Label,
			Quantity:       entry.Quantity,
			UnitPriceCents: entry.UnitPriceCents,
			LineTotalCents: entry.UnitPriceCents * int64(entry.Quantity),
		})
	}
	return QuoteDTO{
		Items:         items,
		TotalQuantity: pricing.TotalQuantity,
		SubtotalCents: pricing.SubtotalCents,
		DiscountRate:  pricing.DiscountRate.String(),
		DiscountCents: pricing.DiscountCents,
		TotalCents:    pricing.TotalCents,
	}
}
