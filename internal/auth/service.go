package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/auth"
	"github.com/garagelabs/taller-backend/pkg/auth/session"
	"github.com/garagelabs/taller-backend/pkg/config"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/security"
)

type sessionManager interface {
	Start(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type employeesRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
}

// Service handles the login session lifecycle.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

type service struct {
	users     usersRepository
	employees employeesRepository
	sessions  sessionManager
	jwtCfg    config.JWTConfig
	now       func() time.Time
}

// LoginInput carries the submitted credentials.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is the minted token plus the authenticated identity.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
	Employee  *models.Employee
}

// Profile is the authenticated user with their staff record.
type Profile struct {
	User     *models.User
	Employee *models.Employee
}

// NewService builds the auth service.
func NewService(users usersRepository, employees employeesRepository, sessions sessionManager, jwtCfg config.JWTConfig) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if employees == nil {
		return nil, fmt.Errorf("employees repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		users:     users,
		employees: employees,
		sessions:  sessions,
		jwtCfg:    jwtCfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login verifies credentials, mints an access token, and opens the matching
// redis session. Credential failures all map to the same message so callers
// cannot enumerate usernames.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find user")
	}
	if !user.Active {
		return nil, invalidCredentials()
	}

	employee, err := s.employees.FindByID(ctx, user.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find employee")
	}
	if !employee.Active {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	now := s.now()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID:     user.ID,
		EmployeeID: employee.ID,
		Role:       employee.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	if err := s.sessions.Start(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start session")
	}

	lastLogin := now
	user.LastLoginAt = &lastLogin
	if err := s.users.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:      user,
		Employee:  employee,
	}, nil
}

// Logout revokes the session behind the presented token's jti.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find account")
	}
	employee, err := s.employees.FindByID(ctx, user.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find employee")
	}
	return &Profile{User: user, Employee: employee}, nil
}

func invalidCredentials() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}
