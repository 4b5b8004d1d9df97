package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/api/responses"
	"github.com/garagelabs/taller-backend/api/validators"
	"github.com/garagelabs/taller-backend/internal/reports"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/logger"
)

type revenueSummaryResponse struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	InvoiceCount int64           `json:"invoice_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Total        decimal.Decimal `json:"total"`
}

// ReportRevenue sums paid invoices inside the requested range.
func ReportRevenue(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from == nil || to == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from and to query parameters required"))
			return
		}

		summary, err := svc.RevenueSummary(r.Context(), *from, *to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, revenueSummaryResponse{
			From:         summary.From,
			To:           summary.To,
			InvoiceCount: summary.InvoiceCount,
			Subtotal:     summary.Subtotal,
			TaxAmount:    summary.TaxAmount,
			Total:        summary.Total,
		})
	}
}

// ReportTicketsByStatus counts open and closed work orders per status.
func ReportTicketsByStatus(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		counts, err := svc.TicketsByStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make(map[string]int64, len(counts))
		for status, count := range counts {
			out[string(status)] = count
		}
		responses.WriteSuccess(w, out)
	}
}

type topItemResponse struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

func rankingHandler(
	logg *logger.Logger,
	rank func(ctx context.Context, from, to time.Time, limit int) ([]reports.TopItem, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rank == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from == nil || to == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from and to query parameters required"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := rank(r.Context(), *from, *to, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]topItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, topItemResponse{
				ID:       item.ItemID,
				Name:     item.Name,
				Quantity: item.Quantity,
				Revenue:  item.Revenue,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// ReportTopServices ranks catalog services by units billed in a range.
func ReportTopServices(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return rankingHandler(logg, nil)
	}
	return rankingHandler(logg, svc.TopServices)
}

// ReportTopParts ranks parts by units consumed in a range.
func ReportTopParts(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return rankingHandler(logg, nil)
	}
	return rankingHandler(logg, svc.TopParts)
}

// ReportLowStock lists active parts at or under their minimum stock.
func ReportLowStock(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		rows, err := svc.LowStockParts(r.Context())
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
