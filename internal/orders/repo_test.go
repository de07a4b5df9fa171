package orders

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mnldiecast/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mnldiecast/storefront-backend/pkg/errors"
)

const ordersTable = `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  owner_id TEXT,
  customer_name TEXT NOT NULL,
  contact TEXT NOT NULL,
  address TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  shipping_method TEXT NOT NULL,
  shipping_region TEXT NOT NULL,
  shipping_details TEXT,
  subtotal_cents INTEGER NOT NULL,
  shipping_fee_cents INTEGER NOT NULL DEFAULT 0,
  discount_total_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  fees TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING_APPROVAL',
  payment_status TEXT NOT NULL DEFAULT 'UNPAID',
  created_at DATETIME,
  updated_at DATETIME
);`

const itemsCurrentTable = `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  product_title TEXT NOT NULL,
  condition TEXT NOT NULL DEFAULT '',
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL,
  created_at DATETIME
);`

const itemsTitledTable = `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  product_title TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL
);`

const itemsOriginalTable = `
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL
);`

const cartLinesTable = `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  protector_selected INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`

var dbSeq atomic.Int64

func setupDB(t *testing.T, schemas ...string) *gorm.DB {
	t.Helper()
	// Named in-memory DBs keep each test's schema isolated while surviving
	// the connection pool.
	dsn := fmt.Sprintf("file:orders_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, schema := range schemas {
		require.NoError(t, gdb.Exec(schema).Error)
	}
	return gdb
}

func sampleItems(n int) []models.OrderItem {
	items := make([]models.OrderItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.OrderItem{
			ID:             uuid.New(),
			VariantID:      uuid.New(),
			ProductTitle:   "LB-Silhouette Works GT",
			Condition:      "mint",
			UnitPriceCents: 150000,
			Qty:            i + 1,
			LineTotalCents: 150000 * (i + 1),
		})
	}
	return items
}

func insertInTx(t *testing.T, gdb *gorm.DB, orderID uuid.UUID, items []models.OrderItem) (string, error) {
	t.Helper()
	var shape string
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var txErr error
		shape, txErr = NewRepository(gdb).WithTx(tx).InsertItems(context.Background(), orderID, items)
		return txErr
	})
	return shape, err
}

func TestInsertItemsCurrentSchema(t *testing.T) {
	gdb := setupDB(t, ordersTable, itemsCurrentTable)

	shape, err := insertInTx(t, gdb, uuid.New(), sampleItems(2))
	require.NoError(t, err)
	require.Equal(t, "current", shape)

	var count int64
	require.NoError(t, gdb.Table("order_items").Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestInsertItemsFallsBackToTitled(t *testing.T) {
	gdb := setupDB(t, ordersTable, itemsTitledTable)

	shape, err := insertInTx(t, gdb, uuid.New(), sampleItems(2))
	require.NoError(t, err)
	require.Equal(t, "titled", shape)

	var count int64
	require.NoError(t, gdb.Table("order_items").Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestInsertItemsFallsBackToOriginal(t *testing.T) {
	gdb := setupDB(t, ordersTable, itemsOriginalTable)

	shape, err := insertInTx(t, gdb, uuid.New(), sampleItems(3))
	require.NoError(t, err)
	require.Equal(t, "original", shape)

	var count int64
	require.NoError(t, gdb.Table("order_lines").Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestInsertItemsExhaustsShapes(t *testing.T) {
	gdb := setupDB(t, ordersTable)

	_, err := insertInTx(t, gdb, uuid.New(), sampleItems(1))
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSchemaFallback))
}

func TestInsertItemsFallbackLeavesNoPartialRows(t *testing.T) {
	// The first item fits the titled shape but the statement targets the
	// current shape first; the savepoint rollback must leave zero rows from
	// the failed attempt.
	gdb := setupDB(t, ordersTable, itemsTitledTable)

	shape, err := insertInTx(t, gdb, uuid.New(), sampleItems(5))
	require.NoError(t, err)
	require.Equal(t, "titled", shape)

	var count int64
	require.NoError(t, gdb.Table("order_items").Count(&count).Error)
	require.EqualValues(t, 5, count)
}

func TestIsSchemaMismatch(t *testing.T) {
	t.Parallel()

	require.False(t, isSchemaMismatch(nil))
	require.False(t, isSchemaMismatch(context.Canceled))

	gdb := setupDB(t, ordersTable)
	err := gdb.Exec("INSERT INTO missing_table (id) VALUES (1)").Error
	require.Error(t, err)
	require.True(t, isSchemaMismatch(err))

	err = gdb.Exec("INSERT INTO orders (nope) VALUES (1)").Error
	require.Error(t, err)
	require.True(t, isSchemaMismatch(err))
}

func TestDeleteCartLinesScoped(t *testing.T) {
	gdb := setupDB(t, cartLinesTable)
	repo := NewRepository(gdb)

	ownerID := uuid.New()
	otherOwner := uuid.New()
	checkedOut := uuid.New()
	addedLater := uuid.New()

	seed := []models.CartLine{
		{ID: uuid.New(), OwnerID: ownerID, VariantID: checkedOut, Qty: 1},
		{ID: uuid.New(), OwnerID: ownerID, VariantID: addedLater, Qty: 2},
		{ID: uuid.New(), OwnerID: otherOwner, VariantID: checkedOut, Qty: 1},
	}
	require.NoError(t, gdb.Create(&seed).Error)

	require.NoError(t, repo.DeleteCartLines(context.Background(), ownerID, []uuid.UUID{checkedOut}))

	var remaining []models.CartLine
	require.NoError(t, gdb.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, line := range remaining {
		require.False(t, line.OwnerID == ownerID && line.VariantID == checkedOut)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	gdb := setupDB(t, ordersTable, itemsCurrentTable)
	repo := NewRepository(gdb)

	_, err := repo.GetOrder(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
