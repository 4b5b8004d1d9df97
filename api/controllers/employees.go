package controllers

import (
	"net/http"
	"time"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/employees"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type employeeCreateRequest struct {
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Role      string     `json:"role" validate:"required"`
	HiredAt   *time.Time `json:"hired_at"`
}

// EmployeeCreate registers a staff member.
func EmployeeCreate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		var payload employeeCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		created, err := svc.CreateEmployee(r.Context(), employees.CreateInput{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Phone:     payload.Phone,
			Email:     payload.Email,
			Role:      role,
			HiredAt:   payload.HiredAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, employeeResponseFromModel(created))
	}
}

// EmployeeGet returns one staff member by id.
func EmployeeGet(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		employee, err := svc.GetEmployee(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, employeeResponseFromModel(employee))
	}
}

// EmployeeList returns staff, optionally filtered by role.
func EmployeeList(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		var role *enums.Role
		if raw := r.URL.Query().Get("role"); raw != "" {
			parsed, err := enums.ParseRole(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			role = &parsed
		}

		rows, err := svc.ListEmployees(r.Context(), role, r.URL.Query().Get("include_inactive") == "true")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]employeeResponse, 0, len(rows))
		for i := range rows {
			out = append(out, employeeResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type employeeUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Role      *string `json:"role"`
}

// EmployeeUpdate applies a partial update.
func EmployeeUpdate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload employeeUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := employees.UpdateInput{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Phone:     payload.Phone,
			Email:     payload.Email,
		}
		if payload.Role != nil {
			role, err := enums.ParseRole(*payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}

		updated, err := svc.UpdateEmployee(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, employeeResponseFromModel(updated))
	}
}

// EmployeeDeactivate soft deletes a staff member.
func EmployeeDeactivate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deactivated, err := svc.DeactivateEmployee(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, employeeResponseFromModel(deactivated))
	}
}
