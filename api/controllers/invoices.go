package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/invoices"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type invoiceCreateRequest struct {
	TicketID        string  `json:"ticket_id" validate:"required,uuid"`
	PaymentMethodID *string `json:"payment_method_id"`
	Taxes           *string `json:"taxes"`
	Discount        *string `json:"discount"`
	Notes           *string `json:"notes"`
}

// InvoiceCreate cuts an invoice from a ticket's current lines.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		employeeID, ok := actorEmployeeID(w, r, logg)
		if !ok {
			return
		}

		var payload invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := uuid.Parse(payload.TicketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket_id"))
			return
		}

		var methodID *uuid.UUID
		if payload.PaymentMethodID != nil {
			parsed, err := uuid.Parse(*payload.PaymentMethodID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method_id"))
				return
			}
			methodID = &parsed
		}

		var taxes *decimal.Decimal
		if payload.Taxes != nil {
			parsed, err := decimal.NewFromString(*payload.Taxes)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid taxes"))
				return
			}
			taxes = &parsed
		}

		discount := decimal.Zero
		if payload.Discount != nil {
			if discount, err = decimal.NewFromString(*payload.Discount); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount"))
				return
			}
		}

		created, err := svc.CreateFromTicket(r.Context(), employeeID, invoices.CreateInput{
			TicketID:        ticketID,
			PaymentMethodID: methodID,
			Taxes:           taxes,
			Discount:        discount,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoiceResponseFromModel(created))
	}
}

// InvoiceGet returns an invoice with its frozen line items.
func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceDetailResponseFromModel(detail))
	}
}

// InvoiceLookupByNumber resolves the number printed on the receipt.
func InvoiceLookupByNumber(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		number := r.URL.Query().Get("number")
		if number == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "number query parameter required"))
			return
		}

		detail, err := svc.GetByNumber(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceDetailResponseFromModel(detail))
	}
}

// InvoiceList filters invoices by status, client and issue date.
func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := invoices.ListParams{Page: page}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseInvoiceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}
		if raw := r.URL.Query().Get("client_id"); raw != "" {
			clientID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
				return
			}
			params.ClientID = &clientID
		}
		if params.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListInvoices(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]invoiceResponse, 0, len(rows))
		for i := range rows {
			out = append(out, invoiceResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// PaymentMethodList returns the active payment methods.
func PaymentMethodList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		rows, err := svc.ListPaymentMethods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]paymentMethodResponse, 0, len(rows))
		for i := range rows {
			out = append(out, paymentMethodResponse{ID: rows[i].ID, Name: rows[i].Name})
		}
		responses.WriteSuccess(w, out)
	}
}

type paymentRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required,uuid"`
	Amount          string `json:"amount" validate:"required"`
}

// InvoiceRecordPayment applies money received against the balance.
func InvoiceRecordPayment(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		invoiceID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := uuid.Parse(payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method_id"))
			return
		}
		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		updated, err := svc.RecordPayment(r.Context(), invoiceID, invoices.PaymentInput{
			PaymentMethodID: methodID,
			Amount:          amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceResponseFromModel(updated))
	}
}

type invoiceVoidRequest struct {
	Notes *string `json:"notes"`
}

// InvoiceVoid cancels an unpaid invoice.
func InvoiceVoid(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		invoiceID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload invoiceVoidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voided, err := svc.VoidInvoice(r.Context(), invoiceID, payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceResponseFromModel(voided))
	}
}

type invoiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	TicketID        uuid.UUID       `json:"ticket_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	PaymentMethodID *uuid.UUID      `json:"payment_method_id"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	IssuedAt        time.Time       `json:"issued_at"`
	PaidAt          *time.Time      `json:"paid_at"`
	VoidedAt        *time.Time      `json:"voided_at"`
	Notes           *string         `json:"notes"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

func invoiceResponseFromModel(m *models.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:              m.ID,
		Number:          m.Number,
		TicketID:        m.TicketID,
		ClientID:        m.ClientID,
		PaymentMethodID: m.PaymentMethodID,
		Status:          string(m.Status),
		Subtotal:        m.Subtotal,
		TaxRate:         m.TaxRate,
		TaxAmount:       m.TaxAmount,
		Discount:        m.Discount,
		Total:           m.Total,
		AmountPaid:      m.AmountPaid,
		IssuedAt:        m.IssuedAt,
		PaidAt:          m.PaidAt,
		VoidedAt:        m.VoidedAt,
		Notes:           m.Notes,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

type invoiceLineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type invoiceDetailResponse struct {
	invoiceResponse
	LineItems []invoiceLineItemResponse `json:"line_items"`
}

func invoiceDetailResponseFromModel(detail *invoices.InvoiceDetail) invoiceDetailResponse {
	out := invoiceDetailResponse{
		invoiceResponse: invoiceResponseFromModel(detail.Invoice),
		LineItems:       make([]invoiceLineItemResponse, 0, len(detail.LineItems)),
	}
	for _, item := range detail.LineItems {
		out.LineItems = append(out.LineItems, invoiceLineItemResponse{
			ID:          item.ID,
			Kind:        string(item.Kind),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return out
}

type paymentMethodResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
