package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
)

// Repository exposes persistence for order headers and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateHeader inserts the order row. Items are written separately through
// the shape chain.
func (r *Repository) CreateHeader(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "creating order")
	}
	return nil
}

// InsertItems writes line items using the newest schema the database has,
// falling back shape by shape. Returns the shape name that took the rows.
func (r *Repository) InsertItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) (string, error) {
	tx := r.db.WithContext(ctx)
	var lastErr error
	for _, shape := range itemShapes {
		sp := "order_items_" + shape.name
		if err := tx.SavePoint(sp).Error; err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "creating savepoint")
		}
		err := shape.insert(tx, orderID, items)
		if err == nil {
			return shape.name, nil
		}
		if !isSchemaMismatch(err) {
			return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "writing order items")
		}
		if err := tx.RollbackTo(sp).Error; err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "rolling back to savepoint")
		}
		lastErr = err
	}
	return "", pkgerrors.Wrap(pkgerrors.CodeSchemaFallback, lastErr,
		"no order_items shape matched the database schema")
}

// DeleteCartLines removes exactly the checked-out lines from the owner's
// server cart. Lines added while checkout was in flight are untouched.
func (r *Repository) DeleteCartLines(ctx context.Context, ownerID uuid.UUID, variantIDs []uuid.UUID) error {
	if len(variantIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND variant_id IN ?", ownerID, variantIDs).
		Delete(&models.CartLine{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clearing checked-out cart lines")
	}
	return nil
}

// GetOrder loads an order header with items. On databases still running an
// older item schema the items query is skipped and the header returns bare.
func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading order")
	}

	var items []models.OrderItem
	err = r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("created_at ASC").
		Find(&items).Error
	switch {
	case err == nil:
		order.Items = items
	case isSchemaMismatch(err):
		// legacy item table; header is still useful
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading order items")
	}
	return &order, nil
}

// ListByOwner returns the owner's orders, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing orders")
	}
	return rows, nil
}
