package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
)

// VariantReader is the narrow surface cart and checkout consume: resolve
// variants with their parent product loaded.
type VariantReader interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	ListVariants(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error)
}

// Repository exposes read operations over the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) VariantReader {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetVariant loads a single variant with its product. Missing or inactive
// products surface as not-found so stale cart lines drop cleanly.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", id).
		First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading variant")
	}
	if !variant.Product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return &variant, nil
}

// ListVariants loads the given variants with products. Missing IDs are
// silently absent from the result; callers reconcile against their input.
func (r *Repository) ListVariants(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Variant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading variants")
	}
	active := rows[:0]
	for _, v := range rows {
		if v.Product.IsActive {
			active = append(active, v)
		}
	}
	return active, nil
}
