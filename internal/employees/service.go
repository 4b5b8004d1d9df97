package employees

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
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

type employeesRepository interface {
	Create(ctx context.Context, employee *models.Employee) (*models.Employee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context, role *enums.Role, includeInactive bool) ([]models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) error
}

// Service manages the shop staff roster.
type Service interface {
	CreateEmployee(ctx context.Context, input CreateInput) (*models.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	ListEmployees(ctx context.Context, role *enums.Role, includeInactive bool) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Employee, error)
	DeactivateEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

type service struct {
	repo employeesRepository
}

// CreateInput holds the fields for a new staff member.
type CreateInput struct {
	FirstName string
	LastName  string
	Phone     *string
	Email     *string
	Role      enums.Role
	HiredAt   *time.Time
}

// UpdateInput carries optional field updates; nil means unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Role      *enums.Role
}

// NewService builds the employee service.
func NewService(repo employeesRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("employees repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateEmployee(ctx context.Context, input CreateInput) (*models.Employee, error) {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name and last_name are required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	employee := &models.Employee{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     input.Phone,
		Email:     input.Email,
		Role:      input.Role,
		HiredAt:   input.HiredAt,
		Active:    true,
	}
	created, err := s.repo.Create(ctx, employee)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create employee")
	}
	return created, nil
}

func (s *service) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	return s.findEmployee(ctx, id)
}

func (s *service) ListEmployees(ctx context.Context, role *enums.Role, includeInactive bool) ([]models.Employee, error) {
	if role != nil && !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	rows, err := s.repo.List(ctx, role, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	return rows, nil
}

func (s *service) UpdateEmployee(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Employee, error) {
	employee, err := s.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be blank")
		}
		employee.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be blank")
		}
		employee.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		employee.Phone = input.Phone
	}
	if input.Email != nil {
		employee.Email = input.Email
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		employee.Role = *input.Role
	}

	if err := s.repo.Update(ctx, employee); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update employee")
	}
	return employee, nil
}

// DeactivateEmployee soft deletes so ticket and movement history keeps its
// actor references.
func (s *service) DeactivateEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if !employee.Active {
		return employee, nil
	}

	employee.Active = false
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate employee")
	}
	return employee, nil
}

func (s *service) findEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find employee")
	}
	return employee, nil
}
