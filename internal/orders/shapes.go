package orders

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
)

// The order_items table has gone through three generations and older
// deployments still run the earlier ones. Rather than gate inserts on a
// schema registry, the writer tries each shape newest first and moves on
// only when the database reports a missing column or table. Any other
// failure aborts immediately.

type itemShape struct {
	name   string
	insert func(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItem) error
}

var itemShapes = []itemShape{
	{name: "current", insert: insertItemsCurrent},
	{name: "titled", insert: insertItemsTitled},
	{name: "original", insert: insertItemsOriginal},
}

// insertItemsCurrent targets the full current schema.
func insertItemsCurrent(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItem) error {
	for _, item := range items {
		err := tx.Exec(
			`INSERT INTO order_items
			  (id, order_id, variant_id, product_title, condition, unit_price_cents, qty, line_total_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, orderID, item.VariantID, item.ProductTitle, item.Condition,
			item.UnitPriceCents, item.Qty, item.LineTotalCents,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// insertItemsTitled targets the middle generation, before condition and
// line totals were denormalized onto the row.
func insertItemsTitled(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItem) error {
	for _, item := range items {
		err := tx.Exec(
			`INSERT INTO order_items
			  (id, order_id, variant_id, product_title, unit_price_cents, qty)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, orderID, item.VariantID, item.ProductTitle,
			item.UnitPriceCents, item.Qty,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// insertItemsOriginal targets the first-generation order_lines table.
func insertItemsOriginal(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItem) error {
	for _, item := range items {
		err := tx.Exec(
			`INSERT INTO order_lines
			  (id, order_id, variant_id, price_cents, qty)
			 VALUES (?, ?, ?, ?, ?)`,
			item.ID, orderID, item.VariantID, item.UnitPriceCents, item.Qty,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

const (
	pgUndefinedColumn = "42703"
	pgUndefinedTable  = "42P01"
)

// isSchemaMismatch reports whether err indicates the statement referenced a
// column or table the connected database does not have. Only these errors
// let the writer fall through to an older shape.
func isSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUndefinedColumn || pgxErr.Code == pgUndefinedTable
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == pgUndefinedColumn || code == pgUndefinedTable
	}

	// SQLite (tests) reports schema mismatches as plain strings.
	msg := err.Error()
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "has no column named") ||
		strings.Contains(msg, "no such table")
}
