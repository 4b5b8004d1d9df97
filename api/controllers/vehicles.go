package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/vehicles"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type vehicleRegisterRequest struct {
	ClientID string  `json:"client_id" validate:"required,uuid"`
	Plate    string  `json:"plate" validate:"required"`
	VIN      *string `json:"vin"`
	Make     string  `json:"make" validate:"required"`
	Model    string  `json:"model" validate:"required"`
	Year     int     `json:"year" validate:"required"`
	Color    *string `json:"color"`
	Mileage  *int    `json:"mileage"`
	Notes    *string `json:"notes"`
}

func (req vehicleRegisterRequest) toInput() (vehicles.RegisterVehicleInput, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return vehicles.RegisterVehicleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id")
	}
	return vehicles.RegisterVehicleInput{
		ClientID: clientID,
		Plate:    req.Plate,
		VIN:      req.VIN,
		Make:     req.Make,
		Model:    req.Model,
		Year:     req.Year,
		Color:    req.Color,
		Mileage:  req.Mileage,
		Notes:    req.Notes,
	}, nil
}

// VehicleRegister adds a vehicle under an existing client.
func VehicleRegister(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		var payload vehicleRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.RegisterVehicle(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vehicleResponseFromModel(created))
	}
}

// VehicleGet returns one vehicle by id.
func VehicleGet(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.GetVehicle(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vehicleResponseFromModel(vehicle))
	}
}

// VehicleLookupByPlate resolves a vehicle from its plate, the counter's
// fastest path.
func VehicleLookupByPlate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		plate := r.URL.Query().Get("plate")
		if plate == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "plate query parameter required"))
			return
		}

		vehicle, err := svc.LookupByPlate(r.Context(), plate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vehicleResponseFromModel(vehicle))
	}
}

// VehicleList pages through vehicles, optionally scoped to one client.
func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := vehicles.ListParams{
			PlateSearch: r.URL.Query().Get("plate_search"),
			Page:        page,
		}
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			clientID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			params.ClientID = &clientID
		}

		rows, err := svc.ListVehicles(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]vehicleResponse, 0, len(rows))
		for i := range rows {
			out = append(out, vehicleResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type vehicleUpdateRequest struct {
	Color   *string `json:"color"`
	Mileage *int    `json:"mileage"`
	Notes   *string `json:"notes"`
}

// VehicleUpdate applies a partial update.
func VehicleUpdate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vehicleUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateVehicle(r.Context(), id, vehicles.UpdateVehicleInput{
			Color:   payload.Color,
			Mileage: payload.Mileage,
			Notes:   payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vehicleResponseFromModel(updated))
	}
}

type vehicleResponse struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Plate     string    `json:"plate"`
	VIN       *string   `json:"vin"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Color     *string   `json:"color"`
	Mileage   *int      `json:"mileage"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func vehicleResponseFromModel(m *models.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:        m.ID,
		ClientID:  m.ClientID,
		Plate:     m.Plate,
		VIN:       m.VIN,
		Make:      m.Make,
		Model:     m.Model,
		Year:      m.Year,
		Color:     m.Color,
		Mileage:   m.Mileage,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
