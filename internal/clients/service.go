package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

type clientsRepository interface {
	Create(ctx context.Context, client *models.Client) (*models.Client, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, search string, includeInactive bool, page pagination.Params) ([]models.Client, error)
	Update(ctx context.Context, client *models.Client) error
}

// Service exposes client registry semantics.
type Service interface {
	CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context, params ListParams) ([]models.Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*models.Client, error)
	DeactivateClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type service struct {
	repo clientsRepository
}

// CreateClientInput holds the fields required to register a client.
type CreateClientInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     *string
	Address   *string
	Notes     *string
}

// UpdateClientInput carries optional field updates; nil means unchanged.
type UpdateClientInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Address   *string
	Notes     *string
}

// ListParams filters the client listing.
type ListParams struct {
	Search          string
	IncludeInactive bool
	Page            pagination.Params
}

// NewService builds a client service backed by the provided repository.
func NewService(repo clientsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	client := &models.Client{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     input.Email,
		Address:   input.Address,
		Notes:     input.Notes,
		Active:    true,
	}

	created, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	return created, nil
}

func (s *service) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return s.findClient(ctx, id)
}

func (s *service) ListClients(ctx context.Context, params ListParams) ([]models.Client, error) {
	rows, err := s.repo.List(ctx, params.Search, params.IncludeInactive, pagination.Normalize(params.Page))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	return rows, nil
}

func (s *service) UpdateClient(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*models.Client, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be blank")
		}
		client.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be blank")
		}
		client.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		if strings.TrimSpace(*input.Phone) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone cannot be blank")
		}
		client.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		client.Email = input.Email
	}
	if input.Address != nil {
		client.Address = input.Address
	}
	if input.Notes != nil {
		client.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}
	return client, nil
}

// DeactivateClient soft-deletes: the row stays so tickets and invoices keep
// their references.
func (s *service) DeactivateClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if !client.Active {
		return client, nil
	}

	client.Active = false
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate client")
	}
	return client, nil
}

func (s *service) findClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find client")
	}
	return client, nil
}
