package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog entry a variant belongs to. Authoring lives in the
// admin tooling; this service only reads titles for order snapshots.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string    `gorm:"column:title;not null"`
	Brand     string    `gorm:"column:brand;not null"`
	Scale     string    `gorm:"column:scale;not null;default:'1:64'"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
