package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

type reportsRepository interface {
	SumPaidInvoices(ctx context.Context, from, to time.Time) (*RevenueRow, error)
	CountTicketsByStatus(ctx context.Context) ([]StatusCountRow, error)
	TopServices(ctx context.Context, from, to time.Time, limit int) ([]TopLineRow, error)
	TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopLineRow, error)
	ListLowStockParts(ctx context.Context) ([]models.Part, error)
}

// Service answers the dashboard questions the front desk asks.
type Service interface {
	RevenueSummary(ctx context.Context, from, to time.Time) (*RevenueSummary, error)
	TicketsByStatus(ctx context.Context) (map[enums.TicketStatus]int64, error)
	TopServices(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error)
	TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error)
	LowStockParts(ctx context.Context) ([]models.Part, error)
}

type service struct {
	repo reportsRepository
}

// RevenueSummary covers paid invoices inside the requested range.
type RevenueSummary struct {
	From         time.Time
	To           time.Time
	InvoiceCount int64
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
}

// TopItem is one row of a volume ranking.
type TopItem struct {
	ItemID   uuid.UUID
	Name     string
	Quantity int64
	Revenue  decimal.Decimal
}

const (
	defaultTopLimit = 10
	maxTopLimit     = 50
)

// NewService builds the reports service.
func NewService(repo reportsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RevenueSummary(ctx context.Context, from, to time.Time) (*RevenueSummary, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required")
	}
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
	}

	row, err := s.repo.SumPaidInvoices(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum invoices")
	}
	return &RevenueSummary{
		From:         from,
		To:           to,
		InvoiceCount: row.InvoiceCount,
		Subtotal:     row.Subtotal,
		TaxAmount:    row.TaxAmount,
		Total:        row.Total,
	}, nil
}

// TicketsByStatus always returns every status, with zero for the empty ones.
func (s *service) TicketsByStatus(ctx context.Context) (map[enums.TicketStatus]int64, error) {
	rows, err := s.repo.CountTicketsByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tickets")
	}

	counts := map[enums.TicketStatus]int64{
		enums.TicketStatusIntake:     0,
		enums.TicketStatusInProgress: 0,
		enums.TicketStatusCompleted:  0,
		enums.TicketStatusDelivered:  0,
		enums.TicketStatusCancelled:  0,
	}
	for _, row := range rows {
		status, err := enums.ParseTicketStatus(row.Status)
		if err != nil {
			continue
		}
		counts[status] = row.Count
	}
	return counts, nil
}

func (s *service) TopServices(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	from, to, limit, err := normalizeRanking(from, to, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TopServices(ctx, from, to, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank services")
	}
	return toTopItems(rows), nil
}

func (s *service) TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	from, to, limit, err := normalizeRanking(from, to, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TopParts(ctx, from, to, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank parts")
	}
	return toTopItems(rows), nil
}

func normalizeRanking(from, to time.Time, limit int) (time.Time, time.Time, int, error) {
	if from.IsZero() || to.IsZero() {
		return from, to, 0, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required")
	}
	if !to.After(from) {
		return from, to, 0, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from")
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	return from, to, limit, nil
}

func toTopItems(rows []TopLineRow) []TopItem {
	items := make([]TopItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, TopItem{
			ItemID:   row.ItemID,
			Name:     row.Name,
			Quantity: row.Quantity,
			Revenue:  row.Revenue,
		})
	}
	return items
}

func (s *service) LowStockParts(ctx context.Context) ([]models.Part, error) {
	rows, err := s.repo.ListLowStockParts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock parts")
	}
	return rows, nil
}
