package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
)

// RemoteBackend persists authenticated carts in the cart_lines table.
type RemoteBackend struct {
	db *gorm.DB
}

// NewRemoteBackend constructs a remote cart backend bound to the provided DB.
func NewRemoteBackend(db *gorm.DB) *RemoteBackend {
	return &RemoteBackend{db: db}
}

// WithTx binds the backend to a transaction.
func (b *RemoteBackend) WithTx(tx *gorm.DB) Backend {
	if tx == nil {
		return b
	}
	return &RemoteBackend{db: tx}
}

// List returns the owner's cart lines, oldest first.
func (b *RemoteBackend) List(ctx context.Context, key string) ([]Entry, error) {
	ownerID, err := uuid.Parse(key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner key")
	}
	var rows []models.CartLine
	if err := b.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading cart lines")
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			VariantID:         row.VariantID,
			Qty:               row.Qty,
			ProtectorSelected: row.ProtectorSelected,
		})
	}
	return entries, nil
}

// Replace atomically replaces the owner's cart lines.
func (b *RemoteBackend) Replace(ctx context.Context, key string, entries []Entry) error {
	ownerID, err := uuid.Parse(key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner key")
	}
	entries = collapseEntries(entries)

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&models.CartLine{}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clearing cart lines")
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]models.CartLine, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, models.CartLine{
				OwnerID:           ownerID,
				VariantID:         e.VariantID,
				Qty:               e.Qty,
				ProtectorSelected: e.ProtectorSelected,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "writing cart lines")
		}
		return nil
	})
}

// OwnersOf returns the distinct owners whose carts hold the variant. The
// stock-change subscriber uses it to find carts that may need re-clamping.
func (b *RemoteBackend) OwnersOf(ctx context.Context, variantID uuid.UUID) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	if err := b.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("variant_id = ?", variantID).
		Distinct().
		Pluck("owner_id", &owners).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "finding carts holding variant")
	}
	return owners, nil
}

// Clear removes every line for the owner.
func (b *RemoteBackend) Clear(ctx context.Context, key string) error {
	ownerID, err := uuid.Parse(key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart owner key")
	}
	if err := b.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.CartLine{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clearing cart lines")
	}
	return nil
}
