package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garagelabs/taller-backend/api/controllers"
	"github.com/garagelabs/taller-backend/api/middleware"
	"github.com/garagelabs/taller-backend/internal/appointments"
	"github.com/garagelabs/taller-backend/internal/auth"
	"github.com/garagelabs/taller-backend/internal/catalog"
	"github.com/garagelabs/taller-backend/internal/clients"
	"github.com/garagelabs/taller-backend/internal/employees"
	"github.com/garagelabs/taller-backend/internal/inventory"
	"github.com/garagelabs/taller-backend/internal/invoices"
	"github.com/garagelabs/taller-backend/internal/reports"
	"github.com/garagelabs/taller-backend/internal/tickets"
	"github.com/garagelabs/taller-backend/internal/users"
	"github.com/garagelabs/taller-backend/internal/vehicles"
	"github.com/garagelabs/taller-backend/pkg/auth/session"
	"github.com/garagelabs/taller-backend/pkg/config"
	"github.com/garagelabs/taller-backend/pkg/enums"
	"github.com/garagelabs/taller-backend/pkg/logger"
	"github.com/garagelabs/taller-backend/pkg/metrics"
)

type sessionManager interface {
	session.AccessSessionChecker
	Revoke(context.Context, string) error
}

type pinger interface {
	Ping(context.Context) error
}

// Services bundles everything the router hands to controllers.
type Services struct {
	Auth         auth.Service
	Users        users.Service
	Employees    employees.Service
	Clients      clients.Service
	Vehicles     vehicles.Service
	Appointments appointments.Service
	Catalog      catalog.Service
	Inventory    inventory.Service
	Tickets      tickets.Service
	Invoices     invoices.Service
	Reports      reports.Service
}

// NewRouter wires middleware, auth and role guards around the API surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisP pinger,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Post("/auth/logout", controllers.Logout(svcs.Auth, logg))
		r.Get("/auth/me", controllers.Me(svcs.Auth, logg))
		r.Post("/auth/change-password", controllers.AccountChangePassword(svcs.Users, logg))

		// Staff and account administration.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdmin))

			r.Route("/employees", func(r chi.Router) {
				r.Post("/", controllers.EmployeeCreate(svcs.Employees, logg))
				r.Get("/", controllers.EmployeeList(svcs.Employees, logg))
				r.Get("/{id}", controllers.EmployeeGet(svcs.Employees, logg))
				r.Patch("/{id}", controllers.EmployeeUpdate(svcs.Employees, logg))
				r.Delete("/{id}", controllers.EmployeeDeactivate(svcs.Employees, logg))
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", controllers.AccountCreate(svcs.Users, logg))
				r.Get("/", controllers.AccountList(svcs.Users, logg))
				r.Get("/{id}", controllers.AccountGet(svcs.Users, logg))
				r.Post("/{id}/reset-password", controllers.AccountResetPassword(svcs.Users, logg))
				r.Delete("/{id}", controllers.AccountDeactivate(svcs.Users, logg))
			})
		})

		// Catalog reads are open to all staff; mutations are admin only.
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CategoryList(svcs.Catalog, logg))
			r.Get("/services", controllers.ServiceList(svcs.Catalog, logg))
			r.Get("/services/{id}", controllers.ServiceGet(svcs.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.RoleAdmin))
				r.Post("/categories", controllers.CategoryCreate(svcs.Catalog, logg))
				r.Post("/services", controllers.ServiceCreate(svcs.Catalog, logg))
				r.Patch("/services/{id}", controllers.ServiceUpdate(svcs.Catalog, logg))
				r.Delete("/services/{id}", controllers.ServiceDeactivate(svcs.Catalog, logg))
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", controllers.ClientCreate(svcs.Clients, logg))
			r.Get("/", controllers.ClientList(svcs.Clients, logg))
			r.Get("/{id}", controllers.ClientGet(svcs.Clients, logg))
			r.Patch("/{id}", controllers.ClientUpdate(svcs.Clients, logg))
			r.With(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleShopLead)).
				Delete("/{id}", controllers.ClientDeactivate(svcs.Clients, logg))
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Post("/", controllers.VehicleRegister(svcs.Vehicles, logg))
			r.Get("/", controllers.VehicleList(svcs.Vehicles, logg))
			r.Get("/lookup", controllers.VehicleLookupByPlate(svcs.Vehicles, logg))
			r.Get("/{id}", controllers.VehicleGet(svcs.Vehicles, logg))
			r.Patch("/{id}", controllers.VehicleUpdate(svcs.Vehicles, logg))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", controllers.AppointmentBook(svcs.Appointments, logg))
			r.Get("/", controllers.AppointmentList(svcs.Appointments, logg))
			r.Get("/{id}", controllers.AppointmentGet(svcs.Appointments, logg))
			r.Post("/{id}/reschedule", controllers.AppointmentReschedule(svcs.Appointments, logg))
			r.Post("/{id}/status", controllers.AppointmentChangeStatus(svcs.Appointments, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(svcs.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleShopLead))
				r.Post("/", controllers.SupplierCreate(svcs.Inventory, logg))
				r.Delete("/{id}", controllers.SupplierDeactivate(svcs.Inventory, logg))
			})
		})

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", controllers.PartList(svcs.Inventory, logg))
			r.Get("/{id}", controllers.PartGet(svcs.Inventory, logg))
			r.Get("/{id}/movements", controllers.PartMovements(svcs.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleShopLead))
				r.Post("/", controllers.PartCreate(svcs.Inventory, logg))
				r.Patch("/{id}", controllers.PartUpdate(svcs.Inventory, logg))
				r.Delete("/{id}", controllers.PartDeactivate(svcs.Inventory, logg))
				r.Post("/{id}/adjust-stock", controllers.PartAdjustStock(svcs.Inventory, logg))
			})
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", controllers.TicketOpen(svcs.Tickets, logg))
			r.Get("/", controllers.TicketList(svcs.Tickets, logg))
			r.Get("/{id}", controllers.TicketGet(svcs.Tickets, logg))
			r.Post("/{id}/assign", controllers.TicketAssignMechanic(svcs.Tickets, logg))
			r.Post("/{id}/diagnosis", controllers.TicketUpdateDiagnosis(svcs.Tickets, logg))
			r.Post("/{id}/promise", controllers.TicketSetPromise(svcs.Tickets, logg))
			r.Post("/{id}/service-lines", controllers.TicketAddServiceLine(svcs.Tickets, logg))
			r.Delete("/{id}/service-lines/{lineID}", controllers.TicketRemoveServiceLine(svcs.Tickets, logg))
			r.Post("/{id}/part-lines", controllers.TicketAddPartLine(svcs.Tickets, logg))
			r.Delete("/{id}/part-lines/{lineID}", controllers.TicketRemovePartLine(svcs.Tickets, logg))
			r.Post("/{id}/status", controllers.TicketChangeStatus(svcs.Tickets, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.InvoiceCreate(svcs.Invoices, logg))
			r.Get("/", controllers.InvoiceList(svcs.Invoices, logg))
			r.Get("/lookup", controllers.InvoiceLookupByNumber(svcs.Invoices, logg))
			r.Get("/{id}", controllers.InvoiceGet(svcs.Invoices, logg))
			r.Post("/{id}/payments", controllers.InvoiceRecordPayment(svcs.Invoices, logg))
			r.With(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleShopLead)).
				Post("/{id}/void", controllers.InvoiceVoid(svcs.Invoices, logg))
		})

		r.Get("/payment-methods", controllers.PaymentMethodList(svcs.Invoices, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleShopLead))
			r.Get("/revenue", controllers.ReportRevenue(svcs.Reports, logg))
			r.Get("/tickets-by-status", controllers.ReportTicketsByStatus(svcs.Reports, logg))
			r.Get("/top-services", controllers.ReportTopServices(svcs.Reports, logg))
			r.Get("/top-parts", controllers.ReportTopParts(svcs.Reports, logg))
			r.Get("/low-stock", controllers.ReportLowStock(svcs.Reports, logg))
		})
	})

	return r
}
