package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := setupInventoryTestDB(t)
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn))
	require.NoError(t, err)
	return svc, conn
}

func countMovements(t *testing.T, conn *gorm.DB, partID uuid.UUID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, conn.Model(&models.InventoryMovement{}).Where("part_id = ?", partID).Count(&count).Error)
	return count
}

func TestServiceCreatePart_seedsLedgerWithInitialStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	employeeID := uuid.New()

	part, err := svc.CreatePart(ctx, PartInput{
		SKU:          fmt.Sprintf("flt-%s", uuid.NewString()[:8]),
		Name:         "Air Filter",
		UnitPrice:    decimal.NewFromFloat(250.00),
		UnitCost:     decimal.NewFromFloat(120.00),
		MinStock:     2,
		InitialStock: 6,
		EmployeeID:   employeeID,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, part.Stock)

	var movement models.InventoryMovement
	require.NoError(t, conn.Where("part_id = ?", part.ID).First(&movement).Error)
	assert.Equal(t, enums.MovementReasonPurchase, movement.Reason)
	assert.Equal(t, 6, movement.Quantity)
	assert.Equal(t, 0, movement.StockBefore)
	assert.Equal(t, 6, movement.StockAfter)
	assert.Equal(t, employeeID, movement.EmployeeID)
}

func TestServiceCreatePart_duplicateSKU(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sku := fmt.Sprintf("dup-%s", uuid.NewString()[:8])

	_, err := svc.CreatePart(ctx, PartInput{
		SKU:       sku,
		Name:      "Spark Plug",
		UnitPrice: decimal.NewFromFloat(80.00),
	})
	require.NoError(t, err)

	_, err = svc.CreatePart(ctx, PartInput{
		SKU:       sku,
		Name:      "Spark Plug Copy",
		UnitPrice: decimal.NewFromFloat(80.00),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceCreatePart_rejectsNegativeValues(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePart(ctx, PartInput{
		SKU:       "neg-price",
		Name:      "Bad Part",
		UnitPrice: decimal.NewFromFloat(-1),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceAdjustStock_purchase(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	employeeID := uuid.New()

	part := newPart(t, conn, 3, 1)

	movement, err := svc.AdjustStock(ctx, employeeID, AdjustStockInput{
		PartID:   part.ID,
		Reason:   enums.MovementReasonPurchase,
		Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, movement.StockBefore)
	assert.Equal(t, 8, movement.StockAfter)
	assert.Equal(t, employeeID, movement.EmployeeID)

	fetched, err := svc.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, fetched.Stock)
}

func TestServiceAdjustStock_negativeAdjustment(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	part := newPart(t, conn, 10, 1)

	movement, err := svc.AdjustStock(ctx, uuid.New(), AdjustStockInput{
		PartID:   part.ID,
		Reason:   enums.MovementReasonAdjustment,
		Quantity: -4,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, movement.StockBefore)
	assert.Equal(t, 6, movement.StockAfter)

	fetched, err := svc.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, fetched.Stock)
}

func TestServiceAdjustStock_insufficientStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	part := newPart(t, conn, 2, 1)
	before := countMovements(t, conn, part.ID)

	_, err := svc.AdjustStock(ctx, uuid.New(), AdjustStockInput{
		PartID:   part.ID,
		Reason:   enums.MovementReasonAdjustment,
		Quantity: -5,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	fetched, err := svc.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Stock)
	assert.Equal(t, before, countMovements(t, conn, part.ID))
}

func TestServiceAdjustStock_rejectsInvalidInput(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	part := newPart(t, conn, 2, 1)

	cases := []struct {
		name  string
		input AdjustStockInput
	}{
		{"zero quantity", AdjustStockInput{PartID: part.ID, Reason: enums.MovementReasonPurchase, Quantity: 0}},
		{"negative purchase", AdjustStockInput{PartID: part.ID, Reason: enums.MovementReasonPurchase, Quantity: -1}},
		{"ticket_use reserved", AdjustStockInput{PartID: part.ID, Reason: enums.MovementReasonTicketUse, Quantity: -1}},
		{"unknown reason", AdjustStockInput{PartID: part.ID, Reason: enums.MovementReason("donation"), Quantity: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AdjustStock(ctx, uuid.New(), tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestServiceAdjustStock_partNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AdjustStock(context.Background(), uuid.New(), AdjustStockInput{
		PartID:   uuid.New(),
		Reason:   enums.MovementReasonPurchase,
		Quantity: 1,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceDeactivateSupplier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, SupplierInput{Name: fmt.Sprintf("Refacciones %s", uuid.NewString()[:8])})
	require.NoError(t, err)

	deactivated, err := svc.DeactivateSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)

	_, err = svc.DeactivateSupplier(ctx, uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceUpdatePart_preservesStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	part := newPart(t, conn, 9, 1)
	newPrice := decimal.NewFromFloat(210.00)

	updated, err := svc.UpdatePart(ctx, part.ID, UpdatePartInput{UnitPrice: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.UnitPrice.Equal(newPrice))
	assert.Equal(t, 9, updated.Stock)

	rows, err := svc.ListMovements(ctx, part.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
