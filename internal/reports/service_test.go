package reports

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
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  ticket_id TEXT NOT NULL UNIQUE,
  client_id TEXT NOT NULL,
  payment_method_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  tax_rate NUMERIC NOT NULL,
  tax_amount NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  amount_paid NUMERIC NOT NULL DEFAULT 0,
  issued_at DATETIME NOT NULL,
  paid_at DATETIME,
  voided_at DATETIME,
  notes TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS service_tickets (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  client_id TEXT NOT NULL,
  vehicle_id TEXT NOT NULL,
  mechanic_id TEXT,
  opened_by TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'intake',
  mileage_in INTEGER,
  complaint TEXT NOT NULL,
  diagnosis TEXT,
  work_log TEXT,
  labor_total NUMERIC NOT NULL DEFAULT 0,
  parts_total NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  opened_at DATETIME NOT NULL,
  promised_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS shop_services (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  base_price NUMERIC NOT NULL,
  estimated_minutes INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ticket_service_lines (
  id TEXT PRIMARY KEY,
  ticket_id TEXT NOT NULL,
  service_id TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ticket_part_lines (
  id TEXT PRIMARY KEY,
  ticket_id TEXT NOT NULL,
  part_id TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS parts (
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
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func createInvoice(t *testing.T, conn *gorm.DB, status enums.InvoiceStatus, total float64, paidAt *time.Time) {
	t.Helper()

	subtotal := total / 1.16
	invoice := &models.Invoice{
		ID:        uuid.New(),
		Number:    fmt.Sprintf("FC-%s", uuid.NewString()[:12]),
		TicketID:  uuid.New(),
		ClientID:  uuid.New(),
		Status:    status,
		Subtotal:  decimal.NewFromFloat(subtotal).Round(2),
		TaxRate:   decimal.NewFromFloat(0.16),
		TaxAmount: decimal.NewFromFloat(total - subtotal).Round(2),
		Total:     decimal.NewFromFloat(total),
		IssuedAt:  time.Now().UTC(),
		PaidAt:    paidAt,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, conn.Create(invoice).Error)
}

func createTicket(t *testing.T, conn *gorm.DB, status enums.TicketStatus) {
	t.Helper()

	ticket := &models.ServiceTicket{
		ID:        uuid.New(),
		Number:    fmt.Sprintf("TK-%s", uuid.NewString()[:12]),
		ClientID:  uuid.New(),
		VehicleID: uuid.New(),
		OpenedBy:  uuid.New(),
		Status:    status,
		Complaint: "check engine light",
		OpenedAt:  time.Now().UTC(),
	}
	require.NoError(t, conn.Create(ticket).Error)
}

func TestServiceRevenueSummary(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	from := time.Date(2033, 7, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	inside := from.Add(48 * time.Hour)
	outside := from.AddDate(0, 2, 0)

	createInvoice(t, conn, enums.InvoiceStatusPaid, 1160.00, &inside)
	createInvoice(t, conn, enums.InvoiceStatusPaid, 580.00, &inside)
	createInvoice(t, conn, enums.InvoiceStatusPaid, 999.00, &outside)
	// In-range paid_at but not paid status: the status filter alone
	// must keep it out of the sum.
	createInvoice(t, conn, enums.InvoiceStatusPending, 400.00, &inside)

	summary, err := svc.RevenueSummary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.InvoiceCount)
	assert.True(t, summary.Total.Equal(decimal.NewFromFloat(1740.00)), "total %s", summary.Total)
}

func TestServiceRevenueSummary_rejectsInvertedRange(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = svc.RevenueSummary(context.Background(), now, now.Add(-time.Hour))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceTicketsByStatus(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	createTicket(t, conn, enums.TicketStatusIntake)
	createTicket(t, conn, enums.TicketStatusIntake)
	createTicket(t, conn, enums.TicketStatusDelivered)

	counts, err := svc.TicketsByStatus(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts[enums.TicketStatusIntake], int64(2))
	assert.GreaterOrEqual(t, counts[enums.TicketStatusDelivered], int64(1))
	_, hasCompleted := counts[enums.TicketStatusCompleted]
	assert.True(t, hasCompleted, "zero statuses should still be present")
}

func TestServiceLowStockParts(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	low := &models.Part{
		ID:        uuid.New(),
		SKU:       fmt.Sprintf("LOW-%s", uuid.NewString()[:8]),
		Name:      "Wiper Blade",
		UnitPrice: decimal.NewFromFloat(120.00),
		Stock:     1,
		MinStock:  4,
		Active:    true,
	}
	healthy := &models.Part{
		ID:        uuid.New(),
		SKU:       fmt.Sprintf("OK-%s", uuid.NewString()[:8]),
		Name:      "Coolant",
		UnitPrice: decimal.NewFromFloat(95.00),
		Stock:     30,
		MinStock:  4,
		Active:    true,
	}
	require.NoError(t, conn.Create(low).Error)
	require.NoError(t, conn.Create(healthy).Error)

	rows, err := svc.LowStockParts(context.Background())
	require.NoError(t, err)

	ids := map[uuid.UUID]bool{}
	for _, row := range rows {
		ids[row.ID] = true
	}
	assert.True(t, ids[low.ID])
	assert.False(t, ids[healthy.ID])
}

func TestServiceTopServices(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	oilChange := &models.ShopService{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Name:       fmt.Sprintf("Oil Change %s", uuid.NewString()[:8]),
		BasePrice:  decimal.NewFromFloat(450.00),
		Active:     true,
	}
	alignment := &models.ShopService{
		ID:         uuid.New(),
		CategoryID: uuid.New(),
		Name:       fmt.Sprintf("Alignment %s", uuid.NewString()[:8]),
		BasePrice:  decimal.NewFromFloat(600.00),
		Active:     true,
	}
	require.NoError(t, conn.Create(oilChange).Error)
	require.NoError(t, conn.Create(alignment).Error)

	inRange := time.Date(2034, 3, 10, 12, 0, 0, 0, time.UTC)
	addLine := func(serviceID uuid.UUID, qty int, at time.Time) {
		line := &models.TicketServiceLine{
			ID:          uuid.New(),
			TicketID:    uuid.New(),
			ServiceID:   serviceID,
			Description: "labor",
			Quantity:    qty,
			UnitPrice:   decimal.NewFromFloat(450.00),
			LineTotal:   decimal.NewFromFloat(450.00).Mul(decimal.NewFromInt(int64(qty))),
			CreatedAt:   at,
		}
		require.NoError(t, conn.Create(line).Error)
	}
	addLine(oilChange.ID, 3, inRange)
	addLine(oilChange.ID, 2, inRange.Add(time.Hour))
	addLine(alignment.ID, 1, inRange)
	addLine(alignment.ID, 9, inRange.AddDate(0, 2, 0))

	items, err := svc.TopServices(context.Background(),
		time.Date(2034, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2034, 4, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, oilChange.ID, items[0].ItemID)
	assert.Equal(t, int64(5), items[0].Quantity)
	assert.Equal(t, alignment.ID, items[1].ItemID)
	assert.Equal(t, int64(1), items[1].Quantity)
}

func TestServiceTopParts(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	filter := &models.Part{
		ID:        uuid.New(),
		SKU:       fmt.Sprintf("TOP-%s", uuid.NewString()[:8]),
		Name:      "Oil Filter",
		UnitPrice: decimal.NewFromFloat(180.00),
		Stock:     40,
		Active:    true,
	}
	require.NoError(t, conn.Create(filter).Error)

	line := &models.TicketPartLine{
		ID:          uuid.New(),
		TicketID:    uuid.New(),
		PartID:      filter.ID,
		Description: "oil filter",
		Quantity:    4,
		UnitPrice:   decimal.NewFromFloat(180.00),
		LineTotal:   decimal.NewFromFloat(720.00),
		CreatedAt:   time.Date(2034, 5, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, conn.Create(line).Error)

	items, err := svc.TopParts(context.Background(),
		time.Date(2034, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2034, 6, 1, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, filter.ID, items[0].ItemID)
	assert.Equal(t, int64(4), items[0].Quantity)
	assert.True(t, decimal.NewFromFloat(720.00).Equal(items[0].Revenue))
}

func TestServiceTopServices_rejectsMissingRange(t *testing.T) {
	conn := setupReportsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.TopServices(context.Background(), time.Time{}, time.Now(), 10)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
