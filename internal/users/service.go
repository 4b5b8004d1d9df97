package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/config"
	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/security"
)

const (
	minPasswordLength  = 8
	tempPasswordLength = 12
)

type usersRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type employeesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

// Service manages login accounts for employees.
type Service interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*AccountResult, error)
	ListAccounts(ctx context.Context) ([]models.User, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.User, error)
	ResetPassword(ctx context.Context, userID uuid.UUID) (*AccountResult, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	DeactivateAccount(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type service struct {
	repo        usersRepository
	employees   employeesRepository
	passwordCfg config.PasswordConfig
}

// CreateAccountInput ties a login to an employee. When Password is nil a
// temporary one is generated and returned once.
type CreateAccountInput struct {
	EmployeeID uuid.UUID
	Username   string
	Password   *string
}

// AccountResult carries the account plus the temporary password when one was
// generated. The plaintext is never stored.
type AccountResult struct {
	User         *models.User
	TempPassword *string
}

// NewService builds the account service.
func NewService(repo usersRepository, employees employeesRepository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if employees == nil {
		return nil, fmt.Errorf("employees repository required")
	}
	return &service{repo: repo, employees: employees, passwordCfg: passwordCfg}, nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (*AccountResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if input.EmployeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee_id is required")
	}

	employee, err := s.employees.FindByID(ctx, input.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find employee")
	}
	if !employee.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee is inactive")
	}

	password := ""
	var tempPassword *string
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		password = *input.Password
	} else {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password = generated
		tempPassword = &generated
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, &models.User{
		EmployeeID:   employee.ID,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "username taken or employee already has an account")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return &AccountResult{User: user, TempPassword: tempPassword}, nil
}

func (s *service) ListAccounts(ctx context.Context) ([]models.User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	return rows, nil
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, id)
}

// ResetPassword replaces the hash with a fresh temporary password and
// returns the plaintext once.
func (s *service) ResetPassword(ctx context.Context, userID uuid.UUID) (*AccountResult, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	generated, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(generated, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user.PasswordHash = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset password")
	}
	return &AccountResult{User: user, TempPassword: &generated}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "change password")
	}
	return nil
}

func (s *service) DeactivateAccount(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return user, nil
	}

	user.Active = false
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate account")
	}
	return user, nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find account")
	}
	return user, nil
}
