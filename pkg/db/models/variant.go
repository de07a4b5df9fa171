package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mnldiecast/storefront-backend/pkg/enums"
)

// Variant is a sellable unit of a product (condition + price + stock).
// Stock is advisory at cart time; the approval flow owns the authoritative
// decrement.
type Variant struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Product         *Product         `gorm:"foreignKey:ProductID"`
	Condition       string           `gorm:"column:condition;not null;default:'MINT'"`
	BasePriceCents  int              `gorm:"column:base_price_cents;not null"`
	SalePriceCents  *int             `gorm:"column:sale_price_cents"`
	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2)"`
	AvailableQty    int              `gorm:"column:available_qty;not null;default:0"`
	ShipClass       enums.ShipClass  `gorm:"column:ship_class;type:text;not null;default:'MINI_GT'"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
