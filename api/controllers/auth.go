package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/garagelabs/taller-backend/api/middleware"
	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/auth"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      userResponse     `json:"user"`
	Employee  employeeResponse `json:"employee"`
}

// Login exchanges credentials for an access token.
func Login(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginInput{
			Username: payload.Username,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			Token:     result.Token,
			ExpiresAt: result.ExpiresAt,
			User:      userResponseFromModel(result.User),
			Employee:  employeeResponseFromModel(result.Employee),
		})
	}
}

// Logout revokes the session behind the presented token.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

type profileResponse struct {
	User     userResponse     `json:"user"`
	Employee employeeResponse `json:"employee"`
}

// Me returns the authenticated user's own profile.
func Me(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID, ok := actorUserID(w, r, logg)
		if !ok {
			return
		}

		profile, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profileResponse{
			User:     userResponseFromModel(profile.User),
			Employee: employeeResponseFromModel(profile.Employee),
		})
	}
}

type userResponse struct {
	ID          uuid.UUID  `json:"id"`
	EmployeeID  uuid.UUID  `json:"employee_id"`
	Username    string     `json:"username"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func userResponseFromModel(m *models.User) userResponse {
	return userResponse{
		ID:          m.ID,
		EmployeeID:  m.EmployeeID,
		Username:    m.Username,
		Active:      m.Active,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}

type employeeResponse struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email"`
	Role      enums.Role `json:"role"`
	HiredAt   *time.Time `json:"hired_at"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

func employeeResponseFromModel(m *models.Employee) employeeResponse {
	return employeeResponse{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Phone:     m.Phone,
		Email:     m.Email,
		Role:      m.Role,
		HiredAt:   m.HiredAt,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}
