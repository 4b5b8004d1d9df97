package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/appointments"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type appointmentBookRequest struct {
	ClientID    string    `json:"client_id" validate:"required,uuid"`
	VehicleID   string    `json:"vehicle_id" validate:"required,uuid"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Reason      string    `json:"reason" validate:"required"`
	Notes       *string   `json:"notes"`
}

func (req appointmentBookRequest) toInput() (appointments.BookInput, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return appointments.BookInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return appointments.BookInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle_id")
	}
	return appointments.BookInput{
		ClientID:    clientID,
		VehicleID:   vehicleID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
		Notes:       req.Notes,
	}, nil
}

// AppointmentBook books a client and vehicle into a slot.
func AppointmentBook(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		var payload appointmentBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booked, err := svc.BookAppointment(r.Context(), employeeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, appointmentResponseFromModel(booked))
	}
}

// AppointmentGet returns one appointment by id.
func AppointmentGet(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, appointmentResponseFromModel(appt))
	}
}

// AppointmentList filters the schedule by client, status and date range.
func AppointmentList(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := appointments.ListParams{Page: page}
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			clientID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			params.ClientID = &clientID
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseAppointmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}
		if params.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListAppointments(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]appointmentResponse, 0, len(rows))
		for i := range rows {
			out = append(out, appointmentResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type appointmentRescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// AppointmentReschedule moves a scheduled appointment to a new slot.
func AppointmentReschedule(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload appointmentRescheduleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		moved, err := svc.Reschedule(r.Context(), id, payload.ScheduledAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, appointmentResponseFromModel(moved))
	}
}

type appointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AppointmentChangeStatus confirms, completes, cancels or marks a no-show.
func AppointmentChangeStatus(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload appointmentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseAppointmentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.ChangeStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, appointmentResponseFromModel(updated))
	}
}

type appointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"client_id"`
	VehicleID   uuid.UUID `json:"vehicle_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func appointmentResponseFromModel(m *models.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          m.ID,
		ClientID:    m.ClientID,
		VehicleID:   m.VehicleID,
		ScheduledAt: m.ScheduledAt,
		Reason:      m.Reason,
		Status:      string(m.Status),
		Notes:       m.Notes,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
