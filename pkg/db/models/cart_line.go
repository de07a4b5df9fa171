package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is a server-persisted cart entry for an authenticated shopper.
// Guest entries live client-side (redis-backed token store) and never touch
// this table. One line per (owner, variant); repeat adds increment qty.
type CartLine struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID           uuid.UUID `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:idx_cart_owner_variant"`
	VariantID         uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_cart_owner_variant"`
	Qty               int       `gorm:"column:qty;not null"`
	ProtectorSelected bool      `gorm:"column:protector_selected;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
