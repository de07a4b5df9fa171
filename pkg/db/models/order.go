package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnldiecast/storefront-backend/pkg/enums"
	"github.com/mnldiecast/storefront-backend/pkg/types"
)

// Order is the immutable header produced by checkout. Money fields never
// change after creation; only status columns move, and those transitions
// happen in the approval workflow.
type Order struct {
	ID      uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID *uuid.UUID `gorm:"column:owner_id;type:uuid"`

	// Normalized from the free-form shipping details bag so downstream
	// packing slips always have something readable.
	CustomerName string `gorm:"column:customer_name;not null"`
	Contact      string `gorm:"column:contact;not null"`
	Address      string `gorm:"column:address;not null"`

	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ShippingMethod  enums.Carrier       `gorm:"column:shipping_method;type:text;not null"`
	ShippingRegion  enums.Region        `gorm:"column:shipping_region;type:text;not null"`
	ShippingDetails types.JSONMap       `gorm:"column:shipping_details;type:jsonb;serializer:json"`

	SubtotalCents      int            `gorm:"column:subtotal_cents;not null"`
	ShippingFeeCents   int            `gorm:"column:shipping_fee_cents;not null;default:0"`
	DiscountTotalCents int            `gorm:"column:discount_total_cents;not null;default:0"`
	TotalCents         int            `gorm:"column:total_cents;not null"`
	Fees               *types.FeesBag `gorm:"column:fees;type:jsonb;serializer:json"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'PENDING_APPROVAL'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'UNPAID'"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
