package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	vehiclesvc "github.com/garagelabs/taller-backend/internal/vehicles"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

type stubVehicleService struct {
	vehicle *models.Vehicle
	err     error
}

func (s stubVehicleService) RegisterVehicle(ctx context.Context, input vehiclesvc.RegisterVehicleInput) (*models.Vehicle, error) {
	return s.vehicle, s.err
}

func (s stubVehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return s.vehicle, s.err
}

func (s stubVehicleService) LookupByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	return s.vehicle, s.err
}

func (s stubVehicleService) ListVehicles(ctx context.Context, params vehiclesvc.ListParams) ([]models.Vehicle, error) {
	return nil, s.err
}

func (s stubVehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, input vehiclesvc.UpdateVehicleInput) (*models.Vehicle, error) {
	return s.vehicle, s.err
}

func TestVehicleLookupByPlateSuccess(t *testing.T) {
	record := &models.Vehicle{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Plate:    "ABC-1234",
		Make:     "Nissan",
		Model:    "Versa",
		Year:     2019,
	}
	handler := VehicleLookupByPlate(stubVehicleService{vehicle: record}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/lookup?plate=abc-1234", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data vehicleResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Plate != record.Plate {
		t.Fatalf("unexpected plate: %s", envelope.Data.Plate)
	}
}

func TestVehicleLookupByPlateMissingParam(t *testing.T) {
	handler := VehicleLookupByPlate(stubVehicleService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/lookup", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVehicleLookupByPlateNotFound(t *testing.T) {
	handler := VehicleLookupByPlate(stubVehicleService{err: pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/lookup?plate=ZZZ-0000", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
