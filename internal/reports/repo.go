package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
)

// Repository runs the read-only aggregate queries behind the reports.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RevenueRow is the paid-invoice aggregate for a date range.
type RevenueRow struct {
	InvoiceCount int64           `gorm:"column:invoice_count"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal"`
	TaxAmount    decimal.Decimal `gorm:"column:tax_amount"`
	Total        decimal.Decimal `gorm:"column:total"`
}

// StatusCountRow pairs a ticket status with how many tickets sit in it.
type StatusCountRow struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

// SumPaidInvoices aggregates invoices paid inside [from, to).
func (r *Repository) SumPaidInvoices(ctx context.Context, from, to time.Time) (*RevenueRow, error) {
	var row RevenueRow
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("COUNT(*) AS invoice_count, COALESCE(SUM(subtotal), 0) AS subtotal, COALESCE(SUM(tax_amount), 0) AS tax_amount, COALESCE(SUM(total), 0) AS total").
		Where("status = ?", enums.InvoiceStatusPaid).
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountTicketsByStatus groups the whole ticket table by status.
func (r *Repository) CountTicketsByStatus(ctx context.Context) ([]StatusCountRow, error) {
	var rows []StatusCountRow
	err := r.db.WithContext(ctx).Model(&models.ServiceTicket{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopLineRow aggregates one catalog service or part across ticket lines.
type TopLineRow struct {
	ItemID   uuid.UUID       `gorm:"column:item_id"`
	Name     string          `gorm:"column:name"`
	Quantity int64           `gorm:"column:quantity"`
	Revenue  decimal.Decimal `gorm:"column:revenue"`
}

// TopServices ranks catalog services by units billed inside [from, to).
func (r *Repository) TopServices(ctx context.Context, from, to time.Time, limit int) ([]TopLineRow, error) {
	var rows []TopLineRow
	err := r.db.WithContext(ctx).
		Table("ticket_service_lines AS l").
		Select("l.service_id AS item_id, s.name AS name, COALESCE(SUM(l.quantity), 0) AS quantity, COALESCE(SUM(l.line_total), 0) AS revenue").
		Joins("JOIN shop_services s ON s.id = l.service_id").
		Where("l.created_at >= ? AND l.created_at < ?", from, to).
		Group("l.service_id, s.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopParts ranks parts by units consumed on tickets inside [from, to).
func (r *Repository) TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopLineRow, error) {
	var rows []TopLineRow
	err := r.db.WithContext(ctx).
		Table("ticket_part_lines AS l").
		Select("l.part_id AS item_id, p.name AS name, COALESCE(SUM(l.quantity), 0) AS quantity, COALESCE(SUM(l.line_total), 0) AS revenue").
		Joins("JOIN parts p ON p.id = l.part_id").
		Where("l.created_at >= ? AND l.created_at < ?", from, to).
		Group("l.part_id, p.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLowStockParts returns active parts at or below their reorder level.
func (r *Repository) ListLowStockParts(ctx context.Context) ([]models.Part, error) {
	var rows []models.Part
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("stock <= min_stock").
		Order("sku ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
