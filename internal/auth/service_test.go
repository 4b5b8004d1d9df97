package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/garagelabs/taller-backend/pkg/auth"
	"github.com/garagelabs/taller-backend/pkg/config"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/security"
)

type stubUsersRepo struct {
	byUsername map[string]*models.User
	byID       map[uuid.UUID]*models.User
	updated    *models.User
	updateErr  error
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{
		byUsername: map[string]*models.User{},
		byID:       map[uuid.UUID]*models.User{},
	}
}

func (s *stubUsersRepo) add(user *models.User) {
	s.byUsername[user.Username] = user
	s.byID[user.ID] = user
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) Update(ctx context.Context, user *models.User) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = user
	return nil
}

type stubEmployeesRepo struct {
	byID map[uuid.UUID]*models.Employee
}

func newStubEmployeesRepo() *stubEmployeesRepo {
	return &stubEmployeesRepo{byID: map[uuid.UUID]*models.Employee{}}
}

func (s *stubEmployeesRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	if employee, ok := s.byID[id]; ok {
		return employee, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	started []string
	revoked []string
	err     error
}

func (s *stubSessions) Start(ctx context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	s.started = append(s.started, accessID)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, accessID)
	return nil
}

type authTestSetup struct {
	svc      Service
	users    *stubUsersRepo
	sessions *stubSessions
	user     *models.User
	employee *models.Employee
	cfg      config.JWTConfig
}

func newAuthTestSetup(t *testing.T) *authTestSetup {
	t.Helper()

	cfg := config.JWTConfig{
		Secret:            "test-secret-test-secret-test-1234",
		Issuer:            "taller-test",
		ExpirationMinutes: 30,
		SessionTTLMinutes: 60,
	}

	hash, err := security.HashPassword("correct-horse1", config.PasswordConfig{})
	require.NoError(t, err)

	employee := &models.Employee{
		ID:        uuid.New(),
		FirstName: "Marta",
		LastName:  "Silva",
		Role:      enums.RoleReceptionist,
		Active:    true,
	}
	user := &models.User{
		ID:           uuid.New(),
		EmployeeID:   employee.ID,
		Username:     "msilva",
		PasswordHash: hash,
		Active:       true,
	}

	usersRepo := newStubUsersRepo()
	usersRepo.add(user)
	employeesRepo := newStubEmployeesRepo()
	employeesRepo.byID[employee.ID] = employee
	sessions := &stubSessions{}

	svc, err := NewService(usersRepo, employeesRepo, sessions, cfg)
	require.NoError(t, err)

	return &authTestSetup{
		svc:      svc,
		users:    usersRepo,
		sessions: sessions,
		user:     user,
		employee: employee,
		cfg:      cfg,
	}
}

func TestServiceLogin(t *testing.T) {
	setup := newAuthTestSetup(t)

	result, err := setup.svc.Login(context.Background(), LoginInput{
		Username: "MSilva",
		Password: "correct-horse1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, setup.employee.ID, result.Employee.ID)

	claims, err := pkgauth.ParseAccessToken(setup.cfg, result.Token)
	require.NoError(t, err)
	assert.Equal(t, setup.user.ID, claims.UserID)
	assert.Equal(t, setup.employee.ID, claims.EmployeeID)
	assert.Equal(t, enums.RoleReceptionist, claims.Role)

	require.Len(t, setup.sessions.started, 1)
	assert.Equal(t, claims.ID, setup.sessions.started[0])

	require.NotNil(t, setup.users.updated)
	assert.NotNil(t, setup.users.updated.LastLoginAt)
}

func TestServiceLogin_badPassword(t *testing.T) {
	setup := newAuthTestSetup(t)

	_, err := setup.svc.Login(context.Background(), LoginInput{
		Username: "msilva",
		Password: "wrong-password",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Empty(t, setup.sessions.started)
}

func TestServiceLogin_unknownUser(t *testing.T) {
	setup := newAuthTestSetup(t)

	_, err := setup.svc.Login(context.Background(), LoginInput{
		Username: "nobody",
		Password: "correct-horse1",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceLogin_inactiveUser(t *testing.T) {
	setup := newAuthTestSetup(t)
	setup.user.Active = false

	_, err := setup.svc.Login(context.Background(), LoginInput{
		Username: "msilva",
		Password: "correct-horse1",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceLogin_inactiveEmployee(t *testing.T) {
	setup := newAuthTestSetup(t)
	setup.employee.Active = false

	_, err := setup.svc.Login(context.Background(), LoginInput{
		Username: "msilva",
		Password: "correct-horse1",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceLogout(t *testing.T) {
	setup := newAuthTestSetup(t)

	require.NoError(t, setup.svc.Logout(context.Background(), "some-jti"))
	assert.Equal(t, []string{"some-jti"}, setup.sessions.revoked)

	err := setup.svc.Logout(context.Background(), "  ")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceMe(t *testing.T) {
	setup := newAuthTestSetup(t)

	profile, err := setup.svc.Me(context.Background(), setup.user.ID)
	require.NoError(t, err)
	assert.Equal(t, setup.user.ID, profile.User.ID)
	assert.Equal(t, setup.employee.ID, profile.Employee.ID)

	_, err = setup.svc.Me(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceLogin_tokenExpiry(t *testing.T) {
	setup := newAuthTestSetup(t)
	fixed := time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)
	setup.svc.(*service).now = func() time.Time { return fixed }

	result, err := setup.svc.Login(context.Background(), LoginInput{
		Username: "msilva",
		Password: "correct-horse1",
	})
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(30*time.Minute), result.ExpiresAt)
}
