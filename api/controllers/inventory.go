package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/inventory"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type supplierCreateRequest struct {
	Name        string  `json:"name" validate:"required"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Address     *string `json:"address"`
}

// SupplierCreate registers a parts vendor.
func SupplierCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload supplierCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateSupplier(r.Context(), inventory.SupplierInput{
			Name:        payload.Name,
			ContactName: payload.ContactName,
			Phone:       payload.Phone,
			Email:       payload.Email,
			Address:     payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplierResponseFromModel(created))
	}
}

// SupplierList returns suppliers, active ones by default.
func SupplierList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rows, err := svc.ListSuppliers(r.Context(), r.URL.Query().Get("include_inactive") == "true")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]supplierResponse, 0, len(rows))
		for i := range rows {
			out = append(out, supplierResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// SupplierDeactivate retires a supplier; parts keep the reference.
func SupplierDeactivate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deactivated, err := svc.DeactivateSupplier(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplierResponseFromModel(deactivated))
	}
}

type partCreateRequest struct {
	SupplierID   *string `json:"supplier_id" validate:"omitempty,uuid"`
	SKU          string  `json:"sku" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description"`
	UnitPrice    string  `json:"unit_price" validate:"required"`
	UnitCost     string  `json:"unit_cost"`
	MinStock     int     `json:"min_stock" validate:"gte=0"`
	InitialStock int     `json:"initial_stock" validate:"gte=0"`
}

func (req partCreateRequest) toInput(employeeID uuid.UUID) (inventory.PartInput, error) {
	input := inventory.PartInput{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		MinStock:     req.MinStock,
		InitialStock: req.InitialStock,
		EmployeeID:   employeeID,
	}
	if req.SupplierID != nil {
		supplierID, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return inventory.PartInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier_id")
		}
		input.SupplierID = &supplierID
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return inventory.PartInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_price")
	}
	input.UnitPrice = unitPrice
	if req.UnitCost != "" {
		unitCost, err := decimal.NewFromString(req.UnitCost)
		if err != nil {
			return inventory.PartInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_cost")
		}
		input.UnitCost = unitCost
	}
	return input, nil
}

// PartCreate adds a stocked item, seeding the ledger when initial stock is
// positive.
func PartCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		var payload partCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(employeeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreatePart(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, partResponseFromModel(created))
	}
}

// PartGet returns one part by id.
func PartGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		part, err := svc.GetPart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partResponseFromModel(part))
	}
}

// PartList filters the stocked items by SKU or name.
func PartList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListParts(r.Context(), inventory.ListPartsParams{
			Search:          r.URL.Query().Get("search"),
			IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
			LowStockOnly:    r.URL.Query().Get("low_stock") == "true",
			Page:            page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]partResponse, 0, len(rows))
		for i := range rows {
			out = append(out, partResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type partUpdateRequest struct {
	SupplierID  *string `json:"supplier_id" validate:"omitempty,uuid"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	UnitPrice   *string `json:"unit_price"`
	UnitCost    *string `json:"unit_cost"`
	MinStock    *int    `json:"min_stock"`
}

// PartUpdate applies a partial update. Stock is deliberately absent here;
// only movements change it.
func PartUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload partUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdatePartInput{
			Name:        payload.Name,
			Description: payload.Description,
			MinStock:    payload.MinStock,
		}
		if payload.SupplierID != nil {
			supplierID, err := uuid.Parse(*payload.SupplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier_id"))
				return
			}
			input.SupplierID = &supplierID
		}
		if payload.UnitPrice != nil {
			unitPrice, err := decimal.NewFromString(*payload.UnitPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_price"))
				return
			}
			input.UnitPrice = &unitPrice
		}
		if payload.UnitCost != nil {
			unitCost, err := decimal.NewFromString(*payload.UnitCost)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_cost"))
				return
			}
			input.UnitCost = &unitCost
		}

		updated, err := svc.UpdatePart(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partResponseFromModel(updated))
	}
}

// PartDeactivate hides a part from new tickets and adjustments.
func PartDeactivate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deactivated, err := svc.DeactivatePart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, partResponseFromModel(deactivated))
	}
}

type stockAdjustRequest struct {
	Reason    string  `json:"reason" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required"`
	Reference *string `json:"reference"`
	Notes     *string `json:"notes"`
}

// PartAdjustStock writes a manual ledger entry against a part.
func PartAdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		partID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseMovementReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
			return
		}

		movement, err := svc.AdjustStock(r.Context(), employeeID, inventory.AdjustStockInput{
			PartID:    partID,
			Reason:    reason,
			Quantity:  payload.Quantity,
			Reference: payload.Reference,
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movementResponseFromModel(movement))
	}
}

// PartMovements pages through a part's ledger, newest first.
func PartMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		partID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMovements(r.Context(), partID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]movementResponse, 0, len(rows))
		for i := range rows {
			out = append(out, movementResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type supplierResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contact_name"`
	Phone       *string   `json:"phone"`
	Email       *string   `json:"email"`
	Address     *string   `json:"address"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func supplierResponseFromModel(m *models.Supplier) supplierResponse {
	return supplierResponse{
		ID:          m.ID,
		Name:        m.Name,
		ContactName: m.ContactName,
		Phone:       m.Phone,
		Email:       m.Email,
		Address:     m.Address,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}

type partResponse struct {
	ID          uuid.UUID       `json:"id"`
	SupplierID  *uuid.UUID      `json:"supplier_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func partResponseFromModel(m *models.Part) partResponse {
	return partResponse{
		ID:          m.ID,
		SupplierID:  m.SupplierID,
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		UnitPrice:   m.UnitPrice,
		UnitCost:    m.UnitCost,
		Stock:       m.Stock,
		MinStock:    m.MinStock,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type movementResponse struct {
	ID          uuid.UUID `json:"id"`
	PartID      uuid.UUID `json:"part_id"`
	Reason      string    `json:"reason"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Reference   *string   `json:"reference"`
	EmployeeID  uuid.UUID `json:"employee_id"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

func movementResponseFromModel(m *models.InventoryMovement) movementResponse {
	return movementResponse{
		ID:          m.ID,
		PartID:      m.PartID,
		Reason:      string(m.Reason),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reference:   m.Reference,
		EmployeeID:  m.EmployeeID,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}
