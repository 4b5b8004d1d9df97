package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"

	"github.com/garagelabs/taller-backend/internal/tickets"
)

const (
	numberPrefix = "FC"

	maxNumberAttempts = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type invoicesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)
	FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, opts listQuery) ([]models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error)
	FindPaymentMethodByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

type ticketsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceTicket, error)
}

// Service cuts invoices from finished tickets and tracks their payment state.
type Service interface {
	CreateFromTicket(ctx context.Context, createdBy uuid.UUID, input CreateInput) (*models.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceDetail, error)
	GetByNumber(ctx context.Context, number string) (*InvoiceDetail, error)
	ListInvoices(ctx context.Context, params ListParams) ([]models.Invoice, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (*models.Invoice, error)
	VoidInvoice(ctx context.Context, invoiceID uuid.UUID, notes *string) (*models.Invoice, error)
}

type service struct {
	repo    invoicesRepository
	tickets ticketsRepository
	db      txRunner
	taxRate decimal.Decimal
	now     func() time.Time
}

// CreateInput identifies the ticket to invoice. Taxes, when supplied,
// replace the amount derived from the configured rate; Discount is a flat
// amount subtracted from the taxed total.
type CreateInput struct {
	TicketID        uuid.UUID
	PaymentMethodID *uuid.UUID
	Taxes           *decimal.Decimal
	Discount        decimal.Decimal
	Notes           *string
}

// PaymentInput records money received against an invoice.
type PaymentInput struct {
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
}

// ListParams filters the invoice listing.
type ListParams struct {
	Status   *enums.InvoiceStatus
	ClientID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     pagination.Params
}

// InvoiceDetail is an invoice with its frozen line items.
type InvoiceDetail struct {
	Invoice   *models.Invoice
	LineItems []models.InvoiceLineItem
}

// NewService builds the invoice service. taxRate is the fraction applied to
// the subtotal, e.g. 0.16.
func NewService(repo invoicesRepository, ticketsRepo ticketsRepository, txDB txRunner, taxRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if ticketsRepo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if txDB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be in [0, 1), got %s", taxRate)
	}
	return &service{
		repo:    repo,
		tickets: ticketsRepo,
		db:      txDB,
		taxRate: taxRate,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateFromTicket(ctx context.Context, createdBy uuid.UUID, input CreateInput) (*models.Invoice, error) {
	if createdBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket_id is required")
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	if input.Taxes != nil && input.Taxes.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "taxes cannot be negative")
	}

	ticket, err := s.tickets.FindByID(ctx, input.TicketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find ticket")
	}

	if input.PaymentMethodID != nil {
		method, err := s.repo.FindPaymentMethodByID(ctx, *input.PaymentMethodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find payment method")
		}
		if !method.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is inactive")
		}
	}

	issuedAt := s.now()

	var invoice *models.Invoice
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := NewRepository(tx)
			ticketRepo := tickets.NewRepository(tx)

			serviceLines, err := ticketRepo.ListServiceLines(ctx, ticket.ID)
			if err != nil {
				return err
			}
			partLines, err := ticketRepo.ListPartLines(ctx, ticket.ID)
			if err != nil {
				return err
			}
			if len(serviceLines) == 0 && len(partLines) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "ticket has no lines to invoice")
			}

			subtotal := decimal.Zero
			for _, line := range serviceLines {
				subtotal = subtotal.Add(line.LineTotal)
			}
			for _, line := range partLines {
				subtotal = subtotal.Add(line.LineTotal)
			}
			taxRate := s.taxRate
			taxAmount := subtotal.Mul(s.taxRate).Round(2)
			if input.Taxes != nil {
				taxAmount = input.Taxes.Round(2)
				taxRate = decimal.Zero
				if subtotal.IsPositive() {
					taxRate = taxAmount.Div(subtotal).Round(4)
				}
			}
			if input.Discount.GreaterThan(subtotal.Add(taxAmount)) {
				return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds invoice total")
			}

			number, err := nextNumber(ctx, txRepo, issuedAt)
			if err != nil {
				return err
			}

			invoice, err = txRepo.Create(ctx, &models.Invoice{
				Number:          number,
				TicketID:        ticket.ID,
				ClientID:        ticket.ClientID,
				PaymentMethodID: input.PaymentMethodID,
				Status:          enums.InvoiceStatusPending,
				Subtotal:        subtotal,
				TaxRate:         taxRate,
				TaxAmount:       taxAmount,
				Discount:        input.Discount,
				Total:           subtotal.Add(taxAmount).Sub(input.Discount),
				AmountPaid:      decimal.Zero,
				IssuedAt:        issuedAt,
				Notes:           input.Notes,
				CreatedBy:       createdBy,
			})
			if err != nil {
				return err
			}

			for _, line := range serviceLines {
				if _, err := txRepo.CreateLineItem(ctx, &models.InvoiceLineItem{
					InvoiceID:   invoice.ID,
					Kind:        enums.LineItemKindService,
					Description: line.Description,
					Quantity:    line.Quantity,
					UnitPrice:   line.UnitPrice,
					LineTotal:   line.LineTotal,
				}); err != nil {
					return err
				}
			}
			for _, line := range partLines {
				if _, err := txRepo.CreateLineItem(ctx, &models.InvoiceLineItem{
					InvoiceID:   invoice.ID,
					Kind:        enums.LineItemKindPart,
					Description: line.Description,
					Quantity:    line.Quantity,
					UnitPrice:   line.UnitPrice,
					LineTotal:   line.LineTotal,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			return invoice, nil
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if !db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		// A ticket_id collision means the ticket was already invoiced; only
		// number collisions are worth retrying.
		if existing, findErr := s.repo.FindByTicketID(ctx, ticket.ID); findErr == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "ticket already invoiced").
				WithDetails(map[string]any{"invoice_number": existing.Number})
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
}

// nextNumber builds FC<YYYYMMDD>-<NNNN> from the count of same-day invoices.
func nextNumber(ctx context.Context, repo *Repository, issuedAt time.Time) (string, error) {
	prefix := fmt.Sprintf("%s%s-", numberPrefix, issuedAt.Format("20060102"))
	count, err := repo.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

func (s *service) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceDetail, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLineItems(ctx, invoice.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoice lines")
	}
	return &InvoiceDetail{Invoice: invoice, LineItems: lines}, nil
}

// GetByNumber resolves the user-facing invoice number printed on the receipt.
func (s *service) GetByNumber(ctx context.Context, number string) (*InvoiceDetail, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	invoice, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find invoice")
	}
	lines, err := s.repo.ListLineItems(ctx, invoice.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoice lines")
	}
	return &InvoiceDetail{Invoice: invoice, LineItems: lines}, nil
}

func (s *service) ListInvoices(ctx context.Context, params ListParams) ([]models.Invoice, error) {
	rows, err := s.repo.List(ctx, listQuery{
		Status:   params.Status,
		ClientID: params.ClientID,
		From:     params.From,
		To:       params.To,
		Page:     pagination.Normalize(params.Page),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return rows, nil
}

func (s *service) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := s.repo.ListPaymentMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return rows, nil
}

func (s *service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (*models.Invoice, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != enums.InvoiceStatusPending && invoice.Status != enums.InvoiceStatusPartial {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice does not accept payments").
			WithDetails(map[string]any{"status": invoice.Status})
	}

	method, err := s.repo.FindPaymentMethodByID(ctx, input.PaymentMethodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find payment method")
	}
	if !method.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is inactive")
	}

	outstanding := invoice.Total.Sub(invoice.AmountPaid)
	if input.Amount.GreaterThan(outstanding) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds outstanding balance").
			WithDetails(map[string]any{"outstanding": outstanding})
	}

	invoice.AmountPaid = invoice.AmountPaid.Add(input.Amount)
	invoice.PaymentMethodID = &method.ID
	if invoice.AmountPaid.GreaterThanOrEqual(invoice.Total) {
		invoice.Status = enums.InvoiceStatusPaid
		paidAt := s.now()
		invoice.PaidAt = &paidAt
	} else {
		invoice.Status = enums.InvoiceStatusPartial
	}

	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}
	return invoice, nil
}

// VoidInvoice cancels an unpaid invoice. Paid invoices stay immutable.
func (s *service) VoidInvoice(ctx context.Context, invoiceID uuid.UUID, notes *string) (*models.Invoice, error) {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case enums.InvoiceStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paid invoices cannot be voided")
	case enums.InvoiceStatusVoided:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already voided")
	}

	invoice.Status = enums.InvoiceStatusVoided
	voidedAt := s.now()
	invoice.VoidedAt = &voidedAt
	if notes != nil {
		invoice.Notes = notes
	}

	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void invoice")
	}
	return invoice, nil
}

func (s *service) findInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find invoice")
	}
	return invoice, nil
}
