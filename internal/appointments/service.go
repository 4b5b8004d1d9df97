package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

type appointmentsRepository interface {
	Create(ctx context.Context, appt *models.Appointment) (*models.Appointment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, opts listQuery) ([]models.Appointment, error)
	CountOverlapping(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) (int64, error)
	Update(ctx context.Context, appt *models.Appointment) error
}

type vehiclesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

// Service exposes appointment booking semantics.
type Service interface {
	BookAppointment(ctx context.Context, employeeID uuid.UUID, input BookInput) (*models.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListAppointments(ctx context.Context, params ListParams) ([]models.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*models.Appointment, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status enums.AppointmentStatus) (*models.Appointment, error)
}

type service struct {
	repo     appointmentsRepository
	vehicles vehiclesRepository
	now      func() time.Time
}

// BookInput holds the fields required to book an appointment.
type BookInput struct {
	ClientID    uuid.UUID
	VehicleID   uuid.UUID
	ScheduledAt time.Time
	Reason      string
	Notes       *string
}

// ListParams filters the appointment listing.
type ListParams struct {
	ClientID *uuid.UUID
	Status   *enums.AppointmentStatus
	From     *time.Time
	To       *time.Time
	Page     pagination.Params
}

// NewService builds an appointment service backed by the provided repositories.
func NewService(repo appointmentsRepository, vehicles vehiclesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("appointments repository required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	return &service{repo: repo, vehicles: vehicles, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) BookAppointment(ctx context.Context, employeeID uuid.UUID, input BookInput) (*models.Appointment, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client_id is required")
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle_id is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if !input.ScheduledAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at must be in the future")
	}

	vehicle, err := s.vehicles.FindByID(ctx, input.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find vehicle")
	}
	if vehicle.ClientID != input.ClientID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle does not belong to client")
	}

	// one booking per vehicle per day
	dayStart := input.ScheduledAt.UTC().Truncate(24 * time.Hour)
	count, err := s.repo.CountOverlapping(ctx, input.VehicleID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check appointment overlap")
	}
	if count > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "vehicle already booked that day")
	}

	appt := &models.Appointment{
		ClientID:    input.ClientID,
		VehicleID:   input.VehicleID,
		ScheduledAt: input.ScheduledAt.UTC(),
		Reason:      strings.TrimSpace(input.Reason),
		Status:      enums.AppointmentStatusScheduled,
		Notes:       input.Notes,
		CreatedBy:   employeeID,
	}

	created, err := s.repo.Create(ctx, appt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create appointment")
	}
	return created, nil
}

func (s *service) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.findAppointment(ctx, id)
}

func (s *service) ListAppointments(ctx context.Context, params ListParams) ([]models.Appointment, error) {
	rows, err := s.repo.List(ctx, listQuery{
		clientID: params.ClientID,
		status:   params.Status,
		from:     params.From,
		to:       params.To,
		page:     pagination.Normalize(params.Page),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}
	return rows, nil
}

func (s *service) Reschedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*models.Appointment, error) {
	appt, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case enums.AppointmentStatusScheduled, enums.AppointmentStatusConfirmed:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "appointment can no longer be rescheduled")
	}
	if !scheduledAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_at must be in the future")
	}

	appt.ScheduledAt = scheduledAt.UTC()
	appt.Status = enums.AppointmentStatusScheduled
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reschedule appointment")
	}
	return appt, nil
}

func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, status enums.AppointmentStatus) (*models.Appointment, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid appointment status")
	}

	appt, err := s.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case enums.AppointmentStatusCancelled, enums.AppointmentStatusNoShow, enums.AppointmentStatusArrived:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "appointment already settled")
	}

	appt.Status = status
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update appointment status")
	}
	return appt, nil
}

func (s *service) findAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "appointment id is required")
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "appointment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find appointment")
	}
	return appt, nil
}
