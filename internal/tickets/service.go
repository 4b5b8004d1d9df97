package tickets

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

	"github.com/garagelabs/taller-backend/internal/inventory"
)

const (
	numberPrefix = "TK"

	// ticket numbers collide only when two same-day opens race; a couple of
	// retries is enough.
	maxNumberAttempts = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ticketsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceTicket, error)
	List(ctx context.Context, opts listQuery) ([]models.ServiceTicket, error)
	Update(ctx context.Context, ticket *models.ServiceTicket) error
	ListServiceLines(ctx context.Context, ticketID uuid.UUID) ([]models.TicketServiceLine, error)
	ListPartLines(ctx context.Context, ticketID uuid.UUID) ([]models.TicketPartLine, error)
}

type clientsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type vehiclesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type catalogRepository interface {
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.ShopService, error)
}

type employeesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

// Service exposes the work order lifecycle.
type Service interface {
	OpenTicket(ctx context.Context, openedBy uuid.UUID, input OpenInput) (*models.ServiceTicket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*TicketDetail, error)
	ListTickets(ctx context.Context, params ListParams) ([]models.ServiceTicket, error)
	AssignMechanic(ctx context.Context, ticketID, mechanicID uuid.UUID) (*models.ServiceTicket, error)
	UpdateDiagnosis(ctx context.Context, ticketID uuid.UUID, diagnosis string) (*models.ServiceTicket, error)
	SetPromise(ctx context.Context, ticketID uuid.UUID, promisedAt time.Time) (*models.ServiceTicket, error)
	AddServiceLine(ctx context.Context, ticketID uuid.UUID, input AddServiceLineInput) (*models.ServiceTicket, error)
	RemoveServiceLine(ctx context.Context, ticketID, lineID uuid.UUID) (*models.ServiceTicket, error)
	AddPartLine(ctx context.Context, employeeID, ticketID uuid.UUID, input AddPartLineInput) (*models.ServiceTicket, error)
	RemovePartLine(ctx context.Context, employeeID, ticketID, lineID uuid.UUID) (*models.ServiceTicket, error)
	ChangeStatus(ctx context.Context, ticketID uuid.UUID, next enums.TicketStatus, note *string) (*models.ServiceTicket, error)
}

type service struct {
	repo      ticketsRepository
	clients   clientsRepository
	vehicles  vehiclesRepository
	catalog   catalogRepository
	employees employeesRepository
	db        txRunner
	now       func() time.Time
}

// OpenInput describes a new work order.
type OpenInput struct {
	ClientID  uuid.UUID
	VehicleID uuid.UUID
	MileageIn *int
	Complaint string
}

// AddServiceLineInput adds catalog labor to a ticket. UnitPrice, when set,
// replaces the catalog base price for this line only.
type AddServiceLineInput struct {
	ServiceID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// AddPartLineInput consumes stock onto a ticket. UnitPrice, when set,
// replaces the part's sale price for this line only.
type AddPartLineInput struct {
	PartID    uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// ListParams filters the ticket listing.
type ListParams struct {
	Status     *enums.TicketStatus
	ClientID   *uuid.UUID
	MechanicID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       pagination.Params
}

// TicketDetail is a ticket with both line sets loaded.
type TicketDetail struct {
	Ticket       *models.ServiceTicket
	ServiceLines []models.TicketServiceLine
	PartLines    []models.TicketPartLine
}

// NewService builds the ticket service.
func NewService(
	repo ticketsRepository,
	clients clientsRepository,
	vehicles vehiclesRepository,
	catalog catalogRepository,
	employees employeesRepository,
	txDB txRunner,
) (Service, error) {
	if repo == nil || clients == nil || vehicles == nil || catalog == nil || employees == nil {
		return nil, fmt.Errorf("tickets service requires all repositories")
	}
	if txDB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		clients:   clients,
		vehicles:  vehicles,
		catalog:   catalog,
		employees: employees,
		db:        txDB,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) OpenTicket(ctx context.Context, openedBy uuid.UUID, input OpenInput) (*models.ServiceTicket, error) {
	if openedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}
	if strings.TrimSpace(input.Complaint) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "complaint is required")
	}
	if input.MileageIn != nil && *input.MileageIn < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage_in cannot be negative")
	}

	client, err := s.clients.FindByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find client")
	}
	vehicle, err := s.vehicles.FindByID(ctx, input.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find vehicle")
	}
	if vehicle.ClientID != client.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle does not belong to client")
	}

	openedAt := s.now()

	var ticket *models.ServiceTicket
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := NewRepository(tx)

			number, err := nextNumber(ctx, txRepo, openedAt)
			if err != nil {
				return err
			}
			ticket, err = txRepo.Create(ctx, &models.ServiceTicket{
				Number:    number,
				ClientID:  client.ID,
				VehicleID: vehicle.ID,
				OpenedBy:  openedBy,
				Status:    enums.TicketStatusIntake,
				MileageIn: input.MileageIn,
				Complaint: strings.TrimSpace(input.Complaint),
				OpenedAt:  openedAt,
			})
			return err
		})
		if err == nil {
			return ticket, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open ticket")
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open ticket")
}

// nextNumber builds TK<YYYYMMDD>-<NNN> from the count of same-day tickets.
func nextNumber(ctx context.Context, repo *Repository, openedAt time.Time) (string, error) {
	prefix := fmt.Sprintf("%s%s-", numberPrefix, openedAt.Format("20060102"))
	count, err := repo.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}

func (s *service) GetTicket(ctx context.Context, id uuid.UUID) (*TicketDetail, error) {
	ticket, err := s.findTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	serviceLines, err := s.repo.ListServiceLines(ctx, ticket.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service lines")
	}
	partLines, err := s.repo.ListPartLines(ctx, ticket.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list part lines")
	}
	return &TicketDetail{Ticket: ticket, ServiceLines: serviceLines, PartLines: partLines}, nil
}

func (s *service) ListTickets(ctx context.Context, params ListParams) ([]models.ServiceTicket, error) {
	rows, err := s.repo.List(ctx, listQuery{
		Status:     params.Status,
		ClientID:   params.ClientID,
		MechanicID: params.MechanicID,
		From:       params.From,
		To:         params.To,
		Page:       pagination.Normalize(params.Page),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return rows, nil
}

func (s *service) AssignMechanic(ctx context.Context, ticketID, mechanicID uuid.UUID) (*models.ServiceTicket, error) {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
	}

	mechanic, err := s.employees.FindByID(ctx, mechanicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find employee")
	}
	if !mechanic.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee is inactive")
	}
	if mechanic.Role != enums.RoleMechanic && mechanic.Role != enums.RoleShopLead {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee cannot take ticket work")
	}

	ticket.MechanicID = &mechanic.ID
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign mechanic")
	}
	return ticket, nil
}

func (s *service) UpdateDiagnosis(ctx context.Context, ticketID uuid.UUID, diagnosis string) (*models.ServiceTicket, error) {
	if strings.TrimSpace(diagnosis) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "diagnosis is required")
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(ticket); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(diagnosis)
	ticket.Diagnosis = &trimmed
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update diagnosis")
	}
	return ticket, nil
}

// SetPromise records when the client was told the vehicle would be ready.
func (s *service) SetPromise(ctx context.Context, ticketID uuid.UUID, promisedAt time.Time) (*models.ServiceTicket, error) {
	if promisedAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promised_at is required")
	}
	if !promisedAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promised_at must be in the future")
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(ticket); err != nil {
		return nil, err
	}

	promised := promisedAt.UTC()
	ticket.PromisedAt = &promised
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set promise")
	}
	return ticket, nil
}

func (s *service) AddServiceLine(ctx context.Context, ticketID uuid.UUID, input AddServiceLineInput) (*models.ServiceTicket, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPrice != nil && input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price cannot be negative")
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(ticket); err != nil {
		return nil, err
	}

	catalogService, err := s.catalog.FindServiceByID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find service")
	}
	if !catalogService.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service is inactive")
	}

	unitPrice := catalogService.BasePrice
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		qty := decimal.NewFromInt(int64(input.Quantity))
		_, err := txRepo.CreateServiceLine(ctx, &models.TicketServiceLine{
			TicketID:    ticket.ID,
			ServiceID:   catalogService.ID,
			Description: catalogService.Name,
			Quantity:    input.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   unitPrice.Mul(qty),
		})
		if err != nil {
			return err
		}
		return recomputeTotals(ctx, txRepo, ticket)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add service line")
	}
	return ticket, nil
}

func (s *service) RemoveServiceLine(ctx context.Context, ticketID, lineID uuid.UUID) (*models.ServiceTicket, error) {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(ticket); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		line, err := txRepo.FindServiceLineByID(ctx, ticket.ID, lineID)
		if err != nil {
			return err
		}
		if err := txRepo.DeleteServiceLine(ctx, line.ID); err != nil {
			return err
		}
		return recomputeTotals(ctx, txRepo, ticket)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove service line")
	}
	return ticket, nil
}

// AddPartLine reserves stock, writes the ledger row, and adds the line in one
// transaction so a failed stock guard leaves nothing behind.
func (s *service) AddPartLine(ctx context.Context, employeeID, ticketID uuid.UUID, input AddPartLineInput) (*models.ServiceTicket, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPrice != nil && input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price cannot be negative")
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(ticket); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		invRepo := inventory.NewRepository(tx)

		part, err := invRepo.FindPartByID(ctx, input.PartID)
		if err != nil {
			return err
		}
		if !part.Active {
			return pkgerrors.New(pkgerrors.CodeValidation, "part is inactive")
		}

		ok, err := invRepo.DecrementStock(ctx, part.ID, input.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]any{"part_id": part.ID, "stock": part.Stock, "requested": input.Quantity})
		}

		// The guarded update may have applied against a stock another tx
		// committed after our read; re-read so the ledger row matches.
		after, err := invRepo.PartStock(ctx, part.ID)
		if err != nil {
			return err
		}

		reference := ticket.Number
		if _, err := invRepo.CreateMovement(ctx, &models.InventoryMovement{
			PartID:      part.ID,
			Reason:      enums.MovementReasonTicketUse,
			Quantity:    -input.Quantity,
			StockBefore: after + input.Quantity,
			StockAfter:  after,
			Reference:   &reference,
			EmployeeID:  employeeID,
		}); err != nil {
			return err
		}

		unitPrice := part.UnitPrice
		if input.UnitPrice != nil {
			unitPrice = *input.UnitPrice
		}
		qty := decimal.NewFromInt(int64(input.Quantity))
		if _, err := txRepo.CreatePartLine(ctx, &models.TicketPartLine{
			TicketID:    ticket.ID,
			PartID:      part.ID,
			Description: part.Name,
			Quantity:    input.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   unitPrice.Mul(qty),
		}); err != nil {
			return err
		}
		return recomputeTotals(ctx, txRepo, ticket)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add part line")
	}
	return ticket, nil
}

// RemovePartLine returns the consumed stock and records the reversal.
func (s *service) RemovePartLine(ctx context.Context, employeeID, ticketID, lineID uuid.UUID) (*models.ServiceTicket, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ensureEditable(ticket); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		invRepo := inventory.NewRepository(tx)

		line, err := txRepo.FindPartLineByID(ctx, ticket.ID, lineID)
		if err != nil {
			return err
		}
		part, err := invRepo.FindPartByID(ctx, line.PartID)
		if err != nil {
			return err
		}

		if err := invRepo.IncrementStock(ctx, part.ID, line.Quantity); err != nil {
			return err
		}
		after, err := invRepo.PartStock(ctx, part.ID)
		if err != nil {
			return err
		}
		reference := ticket.Number
		if _, err := invRepo.CreateMovement(ctx, &models.InventoryMovement{
			PartID:      part.ID,
			Reason:      enums.MovementReasonReturn,
			Quantity:    line.Quantity,
			StockBefore: after - line.Quantity,
			StockAfter:  after,
			Reference:   &reference,
			EmployeeID:  employeeID,
		}); err != nil {
			return err
		}

		if err := txRepo.DeletePartLine(ctx, line.ID); err != nil {
			return err
		}
		return recomputeTotals(ctx, txRepo, ticket)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove part line")
	}
	return ticket, nil
}

func (s *service) ChangeStatus(ctx context.Context, ticketID uuid.UUID, next enums.TicketStatus, note *string) (*models.ServiceTicket, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status")
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed").
			WithDetails(map[string]any{"status": ticket.Status})
	}
	if !ticket.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
			WithDetails(map[string]any{"from": ticket.Status, "to": next})
	}

	ticket.Status = next
	if next == enums.TicketStatusDelivered {
		deliveredAt := s.now()
		ticket.DeliveredAt = &deliveredAt
	}
	if note != nil && strings.TrimSpace(*note) != "" {
		entry := fmt.Sprintf("%s [%s] %s", s.now().Format("2006-01-02 15:04"), next, strings.TrimSpace(*note))
		if ticket.WorkLog != nil && *ticket.WorkLog != "" {
			entry = *ticket.WorkLog + "\n" + entry
		}
		ticket.WorkLog = &entry
	}
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "change status")
	}
	return ticket, nil
}

func (s *service) findTicket(ctx context.Context, id uuid.UUID) (*models.ServiceTicket, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find ticket")
	}
	return ticket, nil
}

// Lines and diagnosis only change before work is signed off.
func ensureEditable(ticket *models.ServiceTicket) error {
	switch ticket.Status {
	case enums.TicketStatusIntake, enums.TicketStatusInProgress:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is not editable").
			WithDetails(map[string]any{"status": ticket.Status})
	}
}

// recomputeTotals refreshes the cached totals from the full line set.
func recomputeTotals(ctx context.Context, repo *Repository, ticket *models.ServiceTicket) error {
	labor, err := repo.SumServiceLines(ctx, ticket.ID)
	if err != nil {
		return err
	}
	parts, err := repo.SumPartLines(ctx, ticket.ID)
	if err != nil {
		return err
	}
	ticket.LaborTotal = labor
	ticket.PartsTotal = parts
	ticket.Total = labor.Add(parts)
	return repo.Update(ctx, ticket)
}
