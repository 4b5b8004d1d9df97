package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	suppliers := `
CREATE TABLE IF NOT EXISTS suppliers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  contact_name TEXT,
  phone TEXT,
  email TEXT,
  address TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	parts := `
CREATE TABLE IF NOT EXISTS parts (
  id TEXT PRIMARY KEY,
  supplier_id TEXT,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  unit_price NUMERIC NOT NULL,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  min_stock INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	movements := `
CREATE TABLE IF NOT EXISTS inventory_movements (
  id TEXT PRIMARY KEY,
  part_id TEXT NOT NULL,
  reason TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  stock_before INTEGER NOT NULL,
  stock_after INTEGER NOT NULL,
  reference TEXT,
  employee_id TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(suppliers).Error)
	require.NoError(t, db.Exec(parts).Error)
	require.NoError(t, db.Exec(movements).Error)
	return db
}

func newPart(t *testing.T, db *gorm.DB, stock, minStock int) *models.Part {
	t.Helper()

	part := &models.Part{
		ID:        uuid.New(),
		SKU:       fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		Name:      "Oil Filter",
		UnitPrice: decimal.NewFromFloat(180.00),
		UnitCost:  decimal.NewFromFloat(95.50),
		Stock:     stock,
		MinStock:  minStock,
		Active:    true,
	}
	require.NoError(t, db.Create(part).Error)
	return part
}

func TestRepositoryDecrementStock_guardsBelowZero(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	part := newPart(t, db, 5, 0)

	ok, err := repo.DecrementStock(ctx, part.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	fetched, err := repo.FindPartByID(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Stock)

	ok, err = repo.DecrementStock(ctx, part.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	fetched, err = repo.FindPartByID(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Stock)
}

func TestRepositoryIncrementStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	part := newPart(t, db, 1, 0)

	require.NoError(t, repo.IncrementStock(ctx, part.ID, 7))

	fetched, err := repo.FindPartByID(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, fetched.Stock)
}

func TestRepositoryListParts_lowStockOnly(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	low := newPart(t, db, 2, 5)
	newPart(t, db, 20, 5)

	rows, err := repo.ListParts(ctx, "", false, true, pagination.Params{Limit: 50})
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	assert.Contains(t, ids, low.ID)
	for _, row := range rows {
		assert.LessOrEqual(t, row.Stock, row.MinStock)
	}
}

func TestRepositoryListParts_search(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	part := newPart(t, db, 4, 1)
	part.Name = "Brake Pad Ceramic"
	require.NoError(t, repo.UpdatePart(ctx, part))

	rows, err := repo.ListParts(ctx, "ceramic", false, false, pagination.Params{Limit: 50})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	found := false
	for _, row := range rows {
		if row.ID == part.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRepositoryListMovements_newestFirst(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	part := newPart(t, db, 10, 0)
	employeeID := uuid.New()
	now := time.Now().UTC()

	first, err := repo.CreateMovement(ctx, &models.InventoryMovement{
		PartID:      part.ID,
		Reason:      enums.MovementReasonPurchase,
		Quantity:    10,
		StockBefore: 0,
		StockAfter:  10,
		EmployeeID:  employeeID,
		CreatedAt:   now.Add(-time.Minute),
	})
	require.NoError(t, err)

	second, err := repo.CreateMovement(ctx, &models.InventoryMovement{
		PartID:      part.ID,
		Reason:      enums.MovementReasonAdjustment,
		Quantity:    -2,
		StockBefore: 10,
		StockAfter:  8,
		EmployeeID:  employeeID,
		CreatedAt:   now,
	})
	require.NoError(t, err)

	rows, err := repo.ListMovements(ctx, part.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)
}
