package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository handles service ticket persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type listQuery struct {
	Status     *enums.TicketStatus
	ClientID   *uuid.UUID
	MechanicID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       pagination.Params
}

func (r *Repository) Create(ctx context.Context, ticket *models.ServiceTicket) (*models.ServiceTicket, error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceTicket, error) {
	var ticket models.ServiceTicket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.ServiceTicket, error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceTicket{})
	if opts.Status != nil {
		query = query.Where("status = ?", *opts.Status)
	}
	if opts.ClientID != nil {
		query = query.Where("client_id = ?", *opts.ClientID)
	}
	if opts.MechanicID != nil {
		query = query.Where("mechanic_id = ?", *opts.MechanicID)
	}
	if opts.From != nil {
		query = query.Where("opened_at >= ?", *opts.From)
	}
	if opts.To != nil {
		query = query.Where("opened_at < ?", *opts.To)
	}

	var rows []models.ServiceTicket
	err := query.Order("opened_at DESC").
		Limit(opts.Page.Limit).Offset(opts.Page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByNumberPrefix counts tickets whose number starts with the given
// prefix, used for the daily sequence.
func (r *Repository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceTicket{}).
		Where("number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *Repository) Update(ctx context.Context, ticket *models.ServiceTicket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *Repository) CreateServiceLine(ctx context.Context, line *models.TicketServiceLine) (*models.TicketServiceLine, error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *Repository) FindServiceLineByID(ctx context.Context, ticketID, lineID uuid.UUID) (*models.TicketServiceLine, error) {
	var line models.TicketServiceLine
	err := r.db.WithContext(ctx).
		First(&line, "id = ? AND ticket_id = ?", lineID, ticketID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) ListServiceLines(ctx context.Context, ticketID uuid.UUID) ([]models.TicketServiceLine, error) {
	var rows []models.TicketServiceLine
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteServiceLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.TicketServiceLine{}, "id = ?", lineID).Error
}

func (r *Repository) CreatePartLine(ctx context.Context, line *models.TicketPartLine) (*models.TicketPartLine, error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *Repository) FindPartLineByID(ctx context.Context, ticketID, lineID uuid.UUID) (*models.TicketPartLine, error) {
	var line models.TicketPartLine
	err := r.db.WithContext(ctx).
		First(&line, "id = ? AND ticket_id = ?", lineID, ticketID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) ListPartLines(ctx context.Context, ticketID uuid.UUID) ([]models.TicketPartLine, error) {
	var rows []models.TicketPartLine
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeletePartLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.TicketPartLine{}, "id = ?", lineID).Error
}

// SumServiceLines totals the labor lines for a ticket.
func (r *Repository) SumServiceLines(ctx context.Context, ticketID uuid.UUID) (decimal.Decimal, error) {
	return r.sumLines(ctx, &models.TicketServiceLine{}, ticketID)
}

// SumPartLines totals the part lines for a ticket.
func (r *Repository) SumPartLines(ctx context.Context, ticketID uuid.UUID) (decimal.Decimal, error) {
	return r.sumLines(ctx, &models.TicketPartLine{}, ticketID)
}

func (r *Repository) sumLines(ctx context.Context, model any, ticketID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(model).
		Where("ticket_id = ?", ticketID).
		Select("COALESCE(SUM(line_total), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
