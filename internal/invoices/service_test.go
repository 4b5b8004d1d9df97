package invoices

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

	"github.com/garagelabs/taller-backend/internal/tickets"
	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

func setupInvoicesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
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
		`CREATE TABLE IF NOT EXISTS payment_methods (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
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
		`CREATE TABLE IF NOT EXISTS invoice_line_items (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type invoiceFixture struct {
	svc    Service
	conn   *gorm.DB
	method *models.PaymentMethod
	issuer uuid.UUID
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	conn := setupInvoicesTestDB(t)

	method := &models.PaymentMethod{
		ID:     uuid.New(),
		Name:   fmt.Sprintf("cash-%s", uuid.NewString()[:8]),
		Active: true,
	}
	require.NoError(t, conn.Create(method).Error)

	svc, err := NewService(
		NewRepository(conn),
		tickets.NewRepository(conn),
		db.FromGorm(conn),
		decimal.NewFromFloat(0.16),
	)
	require.NoError(t, err)

	return &invoiceFixture{svc: svc, conn: conn, method: method, issuer: uuid.New()}
}

func (f *invoiceFixture) newFinishedTicket(t *testing.T, status enums.TicketStatus, withLines bool) *models.ServiceTicket {
	t.Helper()

	ticket := &models.ServiceTicket{
		ID:         uuid.New(),
		Number:     fmt.Sprintf("TK-%s", uuid.NewString()[:12]),
		ClientID:   uuid.New(),
		VehicleID:  uuid.New(),
		OpenedBy:   uuid.New(),
		Status:     status,
		Complaint:  "grinding noise when braking",
		LaborTotal: decimal.NewFromFloat(450.00),
		PartsTotal: decimal.NewFromFloat(360.00),
		Total:      decimal.NewFromFloat(810.00),
		OpenedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(ticket).Error)

	if withLines {
		require.NoError(t, f.conn.Create(&models.TicketServiceLine{
			ID:          uuid.New(),
			TicketID:    ticket.ID,
			ServiceID:   uuid.New(),
			Description: "Brake Service",
			Quantity:    1,
			UnitPrice:   decimal.NewFromFloat(450.00),
			LineTotal:   decimal.NewFromFloat(450.00),
		}).Error)
		require.NoError(t, f.conn.Create(&models.TicketPartLine{
			ID:          uuid.New(),
			TicketID:    ticket.ID,
			PartID:      uuid.New(),
			Description: "Brake Pads",
			Quantity:    2,
			UnitPrice:   decimal.NewFromFloat(180.00),
			LineTotal:   decimal.NewFromFloat(360.00),
		}).Error)
	}
	return ticket
}

func TestServiceCreateFromTicket(t *testing.T) {
	f := newInvoiceFixture(t)
	f.svc.(*service).now = func() time.Time {
		return time.Date(2032, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)

	invoice, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)

	assert.Equal(t, "FC20320501-0001", invoice.Number)
	assert.Equal(t, enums.InvoiceStatusPending, invoice.Status)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromFloat(810.00)), "subtotal %s", invoice.Subtotal)
	assert.True(t, invoice.TaxAmount.Equal(decimal.NewFromFloat(129.60)), "tax %s", invoice.TaxAmount)
	assert.True(t, invoice.Total.Equal(decimal.NewFromFloat(939.60)), "total %s", invoice.Total)

	detail, err := f.svc.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Len(t, detail.LineItems, 2)
	kinds := map[enums.LineItemKind]bool{}
	for _, line := range detail.LineItems {
		kinds[line.Kind] = true
	}
	assert.True(t, kinds[enums.LineItemKindService])
	assert.True(t, kinds[enums.LineItemKindPart])
}

func TestServiceCreateFromTicket_discount(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)

	invoice, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{
		TicketID: ticket.ID,
		Discount: decimal.NewFromFloat(100.00),
	})
	require.NoError(t, err)
	assert.True(t, invoice.Discount.Equal(decimal.NewFromFloat(100.00)))
	assert.True(t, invoice.Total.Equal(decimal.NewFromFloat(839.60)), "total %s", invoice.Total)
}

func TestServiceCreateFromTicket_rejectsBadDiscount(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{
		TicketID: f.newFinishedTicket(t, enums.TicketStatusCompleted, true).ID,
		Discount: decimal.NewFromFloat(-5),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{
		TicketID: f.newFinishedTicket(t, enums.TicketStatusCompleted, true).ID,
		Discount: decimal.NewFromFloat(10000),
	})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceCreateFromTicket_duplicate(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusDelivered, true)
	ctx := context.Background()

	_, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)

	_, err = f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{TicketID: ticket.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceCreateFromTicket_anyTicketStatus(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusInProgress, true)

	invoice, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromFloat(810.00)))
}

func TestServiceCreateFromTicket_noLines(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, false)

	_, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{TicketID: ticket.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceRecordPayment_partialThenPaid(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)
	ctx := context.Background()

	invoice, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)

	partial, err := f.svc.RecordPayment(ctx, invoice.ID, PaymentInput{
		PaymentMethodID: f.method.ID,
		Amount:          decimal.NewFromFloat(500.00),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPartial, partial.Status)
	assert.Nil(t, partial.PaidAt)

	paid, err := f.svc.RecordPayment(ctx, invoice.ID, PaymentInput{
		PaymentMethodID: f.method.ID,
		Amount:          decimal.NewFromFloat(439.60),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.True(t, paid.AmountPaid.Equal(paid.Total))

	_, err = f.svc.RecordPayment(ctx, invoice.ID, PaymentInput{
		PaymentMethodID: f.method.ID,
		Amount:          decimal.NewFromFloat(1.00),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestServiceRecordPayment_rejectsOverpayment(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)
	ctx := context.Background()

	invoice, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(ctx, invoice.ID, PaymentInput{
		PaymentMethodID: f.method.ID,
		Amount:          invoice.Total.Add(decimal.NewFromFloat(0.01)),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceVoidInvoice(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	pending := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)
	invoice, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{TicketID: pending.ID})
	require.NoError(t, err)

	voided, err := f.svc.VoidInvoice(ctx, invoice.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusVoided, voided.Status)
	assert.NotNil(t, voided.VoidedAt)

	_, err = f.svc.VoidInvoice(ctx, invoice.ID, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestServiceVoidInvoice_rejectsPaid(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)
	invoice, err := f.svc.CreateFromTicket(ctx, f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(ctx, invoice.ID, PaymentInput{
		PaymentMethodID: f.method.ID,
		Amount:          invoice.Total,
	})
	require.NoError(t, err)

	_, err = f.svc.VoidInvoice(ctx, invoice.ID, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestServiceGetByNumber(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)

	invoice, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{TicketID: ticket.ID})
	require.NoError(t, err)

	detail, err := f.svc.GetByNumber(context.Background(), " "+invoice.Number+" ")
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, detail.Invoice.ID)
	require.Len(t, detail.LineItems, 2)

	_, err = f.svc.GetByNumber(context.Background(), "FC19990101-9999")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceCreateFromTicket_callerTaxes(t *testing.T) {
	f := newInvoiceFixture(t)

	ticket := &models.ServiceTicket{
		ID:         uuid.New(),
		Number:     fmt.Sprintf("TK-%s", uuid.NewString()[:12]),
		ClientID:   uuid.New(),
		VehicleID:  uuid.New(),
		OpenedBy:   uuid.New(),
		Status:     enums.TicketStatusCompleted,
		Complaint:  "full service",
		LaborTotal: decimal.NewFromFloat(200.00),
		PartsTotal: decimal.NewFromFloat(50.00),
		Total:      decimal.NewFromFloat(250.00),
		OpenedAt:   time.Now().UTC(),
	}
	require.NoError(t, f.conn.Create(ticket).Error)
	require.NoError(t, f.conn.Create(&models.TicketServiceLine{
		ID:          uuid.New(),
		TicketID:    ticket.ID,
		ServiceID:   uuid.New(),
		Description: "Tune Up",
		Quantity:    2,
		UnitPrice:   decimal.NewFromFloat(100.00),
		LineTotal:   decimal.NewFromFloat(200.00),
	}).Error)
	require.NoError(t, f.conn.Create(&models.TicketPartLine{
		ID:          uuid.New(),
		TicketID:    ticket.ID,
		PartID:      uuid.New(),
		Description: "Air Filter",
		Quantity:    1,
		UnitPrice:   decimal.NewFromFloat(50.00),
		LineTotal:   decimal.NewFromFloat(50.00),
	}).Error)

	taxes := decimal.NewFromFloat(10.00)
	invoice, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{
		TicketID:        ticket.ID,
		PaymentMethodID: &f.method.ID,
		Taxes:           &taxes,
		Discount:        decimal.NewFromFloat(5.00),
	})
	require.NoError(t, err)

	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromFloat(250.00)), "subtotal %s", invoice.Subtotal)
	assert.True(t, invoice.TaxAmount.Equal(decimal.NewFromFloat(10.00)), "tax %s", invoice.TaxAmount)
	assert.True(t, invoice.Total.Equal(decimal.NewFromFloat(255.00)), "total %s", invoice.Total)
	require.NotNil(t, invoice.PaymentMethodID)
	assert.Equal(t, f.method.ID, *invoice.PaymentMethodID)
}

func TestServiceCreateFromTicket_rejectsNegativeTaxes(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)

	taxes := decimal.NewFromFloat(-1.00)
	_, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{
		TicketID: ticket.ID,
		Taxes:    &taxes,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceCreateFromTicket_unknownPaymentMethod(t *testing.T) {
	f := newInvoiceFixture(t)
	ticket := f.newFinishedTicket(t, enums.TicketStatusCompleted, true)

	unknown := uuid.New()
	_, err := f.svc.CreateFromTicket(context.Background(), f.issuer, CreateInput{
		TicketID:        ticket.ID,
		PaymentMethodID: &unknown,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
