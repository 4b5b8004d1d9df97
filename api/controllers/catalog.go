package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/catalog"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type categoryCreateRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CategoryCreate adds a catalog category.
func CategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload categoryCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, categoryResponseFromModel(created))
	}
}

// CategoryList returns all categories.
func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		rows, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]categoryResponse, 0, len(rows))
		for i := range rows {
			out = append(out, categoryResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type serviceCreateRequest struct {
	CategoryID       string  `json:"category_id" validate:"required,uuid"`
	Name             string  `json:"name" validate:"required"`
	Description      *string `json:"description"`
	BasePrice        string  `json:"base_price" validate:"required"`
	EstimatedMinutes int     `json:"estimated_minutes" validate:"gte=0"`
}

func (req serviceCreateRequest) toInput() (catalog.ServiceInput, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return catalog.ServiceInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
	}
	basePrice, err := decimal.NewFromString(req.BasePrice)
	if err != nil {
		return catalog.ServiceInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price")
	}
	return catalog.ServiceInput{
		CategoryID:       categoryID,
		Name:             req.Name,
		Description:      req.Description,
		BasePrice:        basePrice,
		EstimatedMinutes: req.EstimatedMinutes,
	}, nil
}

// ServiceCreate adds a labor entry to the catalog.
func ServiceCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload serviceCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateService(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, serviceResponseFromModel(created))
	}
}

// ServiceGet returns one catalog service by id.
func ServiceGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.GetService(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, serviceResponseFromModel(entry))
	}
}

// ServiceList filters the catalog by category and name.
func ServiceList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := catalog.ListParams{
			Search:          r.URL.Query().Get("search"),
			IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
			Page:            page,
		}
		if raw := r.URL.Query().Get("category_id"); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id"))
				return
			}
			params.CategoryID = &categoryID
		}

		rows, err := svc.ListServices(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]serviceResponse, 0, len(rows))
		for i := range rows {
			out = append(out, serviceResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type serviceUpdateRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	BasePrice        *string `json:"base_price"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
}

// ServiceUpdate applies a partial update; existing ticket lines keep their
// snapshot prices.
func ServiceUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload serviceUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateServiceInput{
			Name:             payload.Name,
			Description:      payload.Description,
			EstimatedMinutes: payload.EstimatedMinutes,
		}
		if payload.BasePrice != nil {
			basePrice, err := decimal.NewFromString(*payload.BasePrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price"))
				return
			}
			input.BasePrice = &basePrice
		}

		updated, err := svc.UpdateService(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, serviceResponseFromModel(updated))
	}
}

// ServiceDeactivate retires a catalog entry from new tickets.
func ServiceDeactivate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deactivated, err := svc.DeactivateService(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, serviceResponseFromModel(deactivated))
	}
}

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func categoryResponseFromModel(m *models.ServiceCategory) categoryResponse {
	return categoryResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

type serviceResponse struct {
	ID               uuid.UUID       `json:"id"`
	CategoryID       uuid.UUID       `json:"category_id"`
	Name             string          `json:"name"`
	Description      *string         `json:"description"`
	BasePrice        decimal.Decimal `json:"base_price"`
	EstimatedMinutes int             `json:"estimated_minutes"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func serviceResponseFromModel(m *models.ShopService) serviceResponse {
	return serviceResponse{
		ID:               m.ID,
		CategoryID:       m.CategoryID,
		Name:             m.Name,
		Description:      m.Description,
		BasePrice:        m.BasePrice,
		EstimatedMinutes: m.EstimatedMinutes,
		Active:           m.Active,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
