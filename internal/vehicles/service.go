package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

type vehiclesRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	List(ctx context.Context, clientID *uuid.UUID, plateSearch string, page pagination.Params) ([]models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
}

type clientsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// Service exposes vehicle registry semantics.
type Service interface {
	RegisterVehicle(ctx context.Context, input RegisterVehicleInput) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	LookupByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, params ListParams) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id uuid.UUID, input UpdateVehicleInput) (*models.Vehicle, error)
}

type service struct {
	repo    vehiclesRepository
	clients clientsRepository
}

// RegisterVehicleInput holds the fields required to register a vehicle.
type RegisterVehicleInput struct {
	ClientID uuid.UUID
	Plate    string
	VIN      *string
	Make     string
	Model    string
	Year     int
	Color    *string
	Mileage  *int
	Notes    *string
}

// UpdateVehicleInput carries optional field updates; nil means unchanged.
type UpdateVehicleInput struct {
	Color   *string
	Mileage *int
	Notes   *string
}

// ListParams filters the vehicle listing.
type ListParams struct {
	ClientID    *uuid.UUID
	PlateSearch string
	Page        pagination.Params
}

// NewService builds a vehicle service backed by the provided repositories.
func NewService(repo vehiclesRepository, clients clientsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	if clients == nil {
		return nil, fmt.Errorf("clients repository required")
	}
	return &service{repo: repo, clients: clients}, nil
}

func (s *service) RegisterVehicle(ctx context.Context, input RegisterVehicleInput) (*models.Vehicle, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client_id is required")
	}
	plate := strings.ToUpper(strings.TrimSpace(input.Plate))
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate is required")
	}
	if strings.TrimSpace(input.Make) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "make is required")
	}
	if strings.TrimSpace(input.Model) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}
	if input.Year < 1900 || input.Year > time.Now().UTC().Year()+1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year is out of range")
	}
	if input.Mileage != nil && *input.Mileage < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage cannot be negative")
	}

	if _, err := s.clients.FindByID(ctx, input.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find client")
	}

	vehicle := &models.Vehicle{
		ClientID: input.ClientID,
		Plate:    plate,
		VIN:      input.VIN,
		Make:     strings.TrimSpace(input.Make),
		Model:    strings.TrimSpace(input.Model),
		Year:     input.Year,
		Color:    input.Color,
		Mileage:  input.Mileage,
		Notes:    input.Notes,
	}

	created, err := s.repo.Create(ctx, vehicle)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "plate already registered").
				WithDetails(map[string]any{"plate": plate})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vehicle")
	}
	return created, nil
}

func (s *service) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id is required")
	}
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find vehicle")
	}
	return vehicle, nil
}

func (s *service) LookupByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	if strings.TrimSpace(plate) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate is required")
	}
	vehicle, err := s.repo.FindByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find vehicle by plate")
	}
	return vehicle, nil
}

func (s *service) ListVehicles(ctx context.Context, params ListParams) ([]models.Vehicle, error) {
	rows, err := s.repo.List(ctx, params.ClientID, params.PlateSearch, pagination.Normalize(params.Page))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return rows, nil
}

func (s *service) UpdateVehicle(ctx context.Context, id uuid.UUID, input UpdateVehicleInput) (*models.Vehicle, error) {
	vehicle, err := s.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Color != nil {
		vehicle.Color = input.Color
	}
	if input.Mileage != nil {
		if *input.Mileage < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage cannot be negative")
		}
		// odometers only go forward
		if vehicle.Mileage != nil && *input.Mileage < *vehicle.Mileage {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mileage cannot decrease")
		}
		vehicle.Mileage = input.Mileage
	}
	if input.Notes != nil {
		vehicle.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vehicle")
	}
	return vehicle, nil
}
