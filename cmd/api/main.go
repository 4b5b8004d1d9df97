package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/api/routes"
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
	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/logger"
	"github.com/garagelabs/taller-backend/pkg/migrate"
	"github.com/garagelabs/taller-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(cfg.DB)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	taxRate, err := decimal.NewFromString(cfg.App.TaxRate)
	if err != nil {
		logg.Error(context.Background(), "invalid tax rate", err)
		os.Exit(1)
	}

	conn := dbClient.Gorm()

	authService, err := auth.NewService(users.NewRepository(conn), employees.NewRepository(conn), sessionManager, cfg.JWT)
	exitOnError(logg, "auth service", err)

	usersService, err := users.NewService(users.NewRepository(conn), employees.NewRepository(conn), cfg.Password)
	exitOnError(logg, "users service", err)

	employeesService, err := employees.NewService(employees.NewRepository(conn))
	exitOnError(logg, "employees service", err)

	clientsService, err := clients.NewService(clients.NewRepository(conn))
	exitOnError(logg, "clients service", err)

	vehiclesService, err := vehicles.NewService(vehicles.NewRepository(conn), clients.NewRepository(conn))
	exitOnError(logg, "vehicles service", err)

	appointmentsService, err := appointments.NewService(appointments.NewRepository(conn), vehicles.NewRepository(conn))
	exitOnError(logg, "appointments service", err)

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	exitOnError(logg, "catalog service", err)

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), dbClient)
	exitOnError(logg, "inventory service", err)

	ticketsService, err := tickets.NewService(
		tickets.NewRepository(conn),
		clients.NewRepository(conn),
		vehicles.NewRepository(conn),
		catalog.NewRepository(conn),
		employees.NewRepository(conn),
		dbClient,
	)
	exitOnError(logg, "tickets service", err)

	invoicesService, err := invoices.NewService(invoices.NewRepository(conn), tickets.NewRepository(conn), dbClient, taxRate)
	exitOnError(logg, "invoices service", err)

	reportsService, err := reports.NewService(reports.NewRepository(conn))
	exitOnError(logg, "reports service", err)

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Auth:         authService,
		Users:        usersService,
		Employees:    employeesService,
		Clients:      clientsService,
		Vehicles:     vehiclesService,
		Appointments: appointmentsService,
		Catalog:      catalogService,
		Inventory:    inventoryService,
		Tickets:      ticketsService,
		Invoices:     invoicesService,
		Reports:      reportsService,
	})

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
