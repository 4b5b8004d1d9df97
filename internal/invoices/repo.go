package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository handles invoice persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type listQuery struct {
	Status   *enums.InvoiceStatus
	ClientID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     pagination.Params
}

func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "number = ?", number).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "ticket_id = ?", ticketID).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if opts.Status != nil {
		query = query.Where("status = ?", *opts.Status)
	}
	if opts.ClientID != nil {
		query = query.Where("client_id = ?", *opts.ClientID)
	}
	if opts.From != nil {
		query = query.Where("issued_at >= ?", *opts.From)
	}
	if opts.To != nil {
		query = query.Where("issued_at < ?", *opts.To)
	}

	var rows []models.Invoice
	err := query.Order("issued_at DESC").
		Limit(opts.Page.Limit).Offset(opts.Page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByNumberPrefix counts invoices whose number starts with the given
// prefix, used for the daily sequence.
func (r *Repository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *Repository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *Repository) CreateLineItem(ctx context.Context, line *models.InvoiceLineItem) (*models.InvoiceLineItem, error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *Repository) ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error) {
	var rows []models.InvoiceLineItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindPaymentMethodByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *Repository) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
