package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

type catalogRepository interface {
	CreateCategory(ctx context.Context, category *models.ServiceCategory) (*models.ServiceCategory, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error)
	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)
	CreateService(ctx context.Context, svc *models.ShopService) (*models.ShopService, error)
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.ShopService, error)
	ListServices(ctx context.Context, categoryID *uuid.UUID, search string, includeInactive bool, page pagination.Params) ([]models.ShopService, error)
	UpdateService(ctx context.Context, svc *models.ShopService) error
}

// Service exposes the labor catalog semantics.
type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.ServiceCategory, error)
	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)
	CreateService(ctx context.Context, input ServiceInput) (*models.ShopService, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.ShopService, error)
	ListServices(ctx context.Context, params ListParams) ([]models.ShopService, error)
	UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*models.ShopService, error)
	DeactivateService(ctx context.Context, id uuid.UUID) (*models.ShopService, error)
}

type service struct {
	repo catalogRepository
}

// CategoryInput holds the fields for a new category.
type CategoryInput struct {
	Name        string
	Description *string
}

// ServiceInput holds the fields for a new catalog service.
type ServiceInput struct {
	CategoryID       uuid.UUID
	Name             string
	Description      *string
	BasePrice        decimal.Decimal
	EstimatedMinutes int
}

// UpdateServiceInput carries optional field updates; nil means unchanged.
type UpdateServiceInput struct {
	Name             *string
	Description      *string
	BasePrice        *decimal.Decimal
	EstimatedMinutes *int
}

// ListParams filters the catalog service listing.
type ListParams struct {
	CategoryID      *uuid.UUID
	Search          string
	IncludeInactive bool
	Page            pagination.Params
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.ServiceCategory, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	category := &models.ServiceCategory{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return created, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) CreateService(ctx context.Context, input ServiceInput) (*models.ShopService, error) {
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_price cannot be negative")
	}
	if input.EstimatedMinutes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated_minutes cannot be negative")
	}

	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find category")
	}

	svc := &models.ShopService{
		CategoryID:       input.CategoryID,
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		BasePrice:        input.BasePrice,
		EstimatedMinutes: input.EstimatedMinutes,
		Active:           true,
	}
	created, err := s.repo.CreateService(ctx, svc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create catalog service")
	}
	return created, nil
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*models.ShopService, error) {
	return s.findService(ctx, id)
}

func (s *service) ListServices(ctx context.Context, params ListParams) ([]models.ShopService, error) {
	rows, err := s.repo.ListServices(ctx, params.CategoryID, params.Search, params.IncludeInactive, pagination.Normalize(params.Page))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog services")
	}
	return rows, nil
}

func (s *service) UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*models.ShopService, error) {
	svc, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		svc.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		svc.Description = input.Description
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_price cannot be negative")
		}
		svc.BasePrice = *input.BasePrice
	}
	if input.EstimatedMinutes != nil {
		if *input.EstimatedMinutes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated_minutes cannot be negative")
		}
		svc.EstimatedMinutes = *input.EstimatedMinutes
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update catalog service")
	}
	return svc, nil
}

// DeactivateService hides the entry from new tickets; existing ticket lines
// keep their snapshot.
func (s *service) DeactivateService(ctx context.Context, id uuid.UUID) (*models.ShopService, error) {
	svc, err := s.findService(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return svc, nil
	}

	svc.Active = false
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate catalog service")
	}
	return svc, nil
}

func (s *service) findService(ctx context.Context, id uuid.UUID) (*models.ShopService, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	}
	svc, err := s.repo.FindServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find catalog service")
	}
	return svc, nil
}
