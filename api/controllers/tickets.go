package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/tickets"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type ticketOpenRequest struct {
	ClientID  string `json:"client_id" validate:"required,uuid"`
	VehicleID string `json:"vehicle_id" validate:"required,uuid"`
	MileageIn *int   `json:"mileage_in"`
	Complaint string `json:"complaint" validate:"required"`
}

func (req ticketOpenRequest) toInput() (tickets.OpenInput, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return tickets.OpenInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return tickets.OpenInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle_id")
	}
	return tickets.OpenInput{
		ClientID:  clientID,
		VehicleID: vehicleID,
		MileageIn: req.MileageIn,
		Complaint: req.Complaint,
	}, nil
}

// TicketOpen opens a work order for a vehicle at the counter.
func TicketOpen(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		var payload ticketOpenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opened, err := svc.OpenTicket(r.Context(), employeeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticketResponseFromModel(opened))
	}
}

// TicketGet returns a ticket with both line sets.
func TicketGet(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetTicket(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketDetailResponseFromModel(detail))
	}
}

// TicketList filters work orders by status, client, mechanic and date range.
func TicketList(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := tickets.ListParams{Page: page}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseTicketStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			clientID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			params.ClientID = &clientID
		}
		if raw := r.URL.Query().Get("mechanic_id"); raw != "" {
			mechanicID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mechanic_id"))
				return
			}
			params.MechanicID = &mechanicID
		}
		if params.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListTickets(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]ticketResponse, 0, len(rows))
		for i := range rows {
			out = append(out, ticketResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type ticketAssignRequest struct {
	MechanicID string `json:"mechanic_id" validate:"required,uuid"`
}

// TicketAssignMechanic puts an active mechanic on the ticket.
func TicketAssignMechanic(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mechanicID, err := uuid.Parse(payload.MechanicID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mechanic_id"))
			return
		}

		updated, err := svc.AssignMechanic(r.Context(), ticketID, mechanicID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

type ticketDiagnosisRequest struct {
	Diagnosis string `json:"diagnosis" validate:"required"`
}

// TicketUpdateDiagnosis records the mechanic's findings.
func TicketUpdateDiagnosis(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketDiagnosisRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateDiagnosis(r.Context(), ticketID, payload.Diagnosis)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

type ticketPromiseRequest struct {
	PromisedAt time.Time `json:"promised_at" validate:"required"`
}

// TicketSetPromise records the delivery time quoted to the client.
func TicketSetPromise(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketPromiseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.SetPromise(r.Context(), ticketID, payload.PromisedAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

type serviceLineAddRequest struct {
	ServiceID string  `json:"service_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice *string `json:"unit_price"`
}

// TicketAddServiceLine puts catalog labor on the ticket at today's price.
func TicketAddServiceLine(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload serviceLineAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serviceID, err := uuid.Parse(payload.ServiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service_id"))
			return
		}
		unitPrice, err := parseOptionalPrice(payload.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddServiceLine(r.Context(), ticketID, tickets.AddServiceLineInput{
			ServiceID: serviceID,
			Quantity:  payload.Quantity,
			UnitPrice: unitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

// TicketRemoveServiceLine removes a labor line and recomputes totals.
func TicketRemoveServiceLine(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.ParseURLUUID(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RemoveServiceLine(r.Context(), ticketID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

type partLineAddRequest struct {
	PartID    string  `json:"part_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice *string `json:"unit_price"`
}

// parseOptionalPrice decodes an optional decimal request field.
func parseOptionalPrice(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_price")
	}
	return &parsed, nil
}

// TicketAddPartLine consumes stock onto the ticket and writes the matching
// ledger entry.
func TicketAddPartLine(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload partLineAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partID, err := uuid.Parse(payload.PartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid part_id"))
			return
		}
		unitPrice, err := parseOptionalPrice(payload.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddPartLine(r.Context(), employeeID, ticketID, tickets.AddPartLineInput{
			PartID:    partID,
			Quantity:  payload.Quantity,
			UnitPrice: unitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

// TicketRemovePartLine returns the stock and removes the line.
func TicketRemovePartLine(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.ParseURLUUID(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.RemovePartLine(r.Context(), employeeID, ticketID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

type ticketStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

// TicketChangeStatus moves the ticket one lifecycle step forward, or cancels.
func TicketChangeStatus(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseTicketStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.ChangeStatus(r.Context(), ticketID, status, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(updated))
	}
}

type ticketResponse struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	ClientID    uuid.UUID       `json:"client_id"`
	VehicleID   uuid.UUID       `json:"vehicle_id"`
	MechanicID  *uuid.UUID      `json:"mechanic_id"`
	OpenedBy    uuid.UUID       `json:"opened_by"`
	Status      string          `json:"status"`
	MileageIn   *int            `json:"mileage_in"`
	Complaint   string          `json:"complaint"`
	Diagnosis   *string         `json:"diagnosis"`
	WorkLog     *string         `json:"work_log"`
	LaborTotal  decimal.Decimal `json:"labor_total"`
	PartsTotal  decimal.Decimal `json:"parts_total"`
	Total       decimal.Decimal `json:"total"`
	OpenedAt    time.Time       `json:"opened_at"`
	PromisedAt  *time.Time      `json:"promised_at"`
	DeliveredAt *time.Time      `json:"delivered_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ticketResponseFromModel(m *models.ServiceTicket) ticketResponse {
	return ticketResponse{
		ID:          m.ID,
		Number:      m.Number,
		ClientID:    m.ClientID,
		VehicleID:   m.VehicleID,
		MechanicID:  m.MechanicID,
		OpenedBy:    m.OpenedBy,
		Status:      string(m.Status),
		MileageIn:   m.MileageIn,
		Complaint:   m.Complaint,
		Diagnosis:   m.Diagnosis,
		WorkLog:     m.WorkLog,
		LaborTotal:  m.LaborTotal,
		PartsTotal:  m.PartsTotal,
		Total:       m.Total,
		OpenedAt:    m.OpenedAt,
		PromisedAt:  m.PromisedAt,
		DeliveredAt: m.DeliveredAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type ticketLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	RefID       uuid.UUID       `json:"ref_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ticketDetailResponse struct {
	ticketResponse
	ServiceLines []ticketLineResponse `json:"service_lines"`
	PartLines    []ticketLineResponse `json:"part_lines"`
}

func ticketDetailResponseFromModel(detail *tickets.TicketDetail) ticketDetailResponse {
	out := ticketDetailResponse{
		ticketResponse: ticketResponseFromModel(detail.Ticket),
		ServiceLines:   make([]ticketLineResponse, 0, len(detail.ServiceLines)),
		PartLines:      make([]ticketLineResponse, 0, len(detail.PartLines)),
	}
	for _, line := range detail.ServiceLines {
		out.ServiceLines = append(out.ServiceLines, ticketLineResponse{
			ID:          line.ID,
			RefID:       line.ServiceID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			CreatedAt:   line.CreatedAt,
		})
	}
	for _, line := range detail.PartLines {
		out.PartLines = append(out.PartLines, ticketLineResponse{
			ID:          line.ID,
			RefID:       line.PartID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			CreatedAt:   line.CreatedAt,
		})
	}
	return out
}
