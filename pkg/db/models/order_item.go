package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is the newest-generation line item row. Two older generations
// of the order_items table are still in the wild; inserts for those go
// through the shape-fallback chain in internal/orders and never use this
// struct directly.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	VariantID      uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	ProductTitle   string    `gorm:"column:product_title;not null"`
	Condition      string    `gorm:"column:condition;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	LineTotalCents int       `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
