package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository exposes appointment persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an appointment repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new appointment row.
func (r *Repository) Create(ctx context.Context, appt *models.Appointment) (*models.Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(appt).Error; err != nil {
		return nil, err
	}
	return appt, nil
}

// FindByID returns the appointment or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

type listQuery struct {
	clientID *uuid.UUID
	status   *enums.AppointmentStatus
	from     *time.Time
	to       *time.Time
	page     pagination.Params
}

// List returns appointments ordered by scheduled time.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Appointment, error) {
	query := r.db.WithContext(ctx).Model(&models.Appointment{})

	if opts.clientID != nil {
		query = query.Where("client_id = ?", *opts.clientID)
	}
	if opts.status != nil {
		query = query.Where("status = ?", *opts.status)
	}
	if opts.from != nil {
		query = query.Where("scheduled_at >= ?", *opts.from)
	}
	if opts.to != nil {
		query = query.Where("scheduled_at < ?", *opts.to)
	}

	query = query.Order("scheduled_at ASC").Order("id ASC").
		Limit(opts.page.Limit).Offset(opts.page.Offset)

	var rows []models.Appointment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountOverlapping counts non-cancelled appointments for the vehicle in the window.
func (r *Repository) CountOverlapping(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("vehicle_id = ?", vehicleID).
		Where("status NOT IN ?", []enums.AppointmentStatus{enums.AppointmentStatusCancelled, enums.AppointmentStatusNoShow}).
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to).
		Count(&count).Error
	return count, err
}

// Update persists the mutable appointment fields.
func (r *Repository) Update(ctx context.Context, appt *models.Appointment) error {
	return r.db.WithContext(ctx).Save(appt).Error
}
