package appointments

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/internal/vehicles"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

func setupAppointmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	vehiclesTable := `
CREATE TABLE IF NOT EXISTS vehicles (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  plate TEXT NOT NULL UNIQUE,
  vin TEXT,
  make TEXT NOT NULL,
  model TEXT NOT NULL,
  year INTEGER NOT NULL,
  color TEXT,
  mileage INTEGER,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	appointmentsTable := `
CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  vehicle_id TEXT NOT NULL,
  scheduled_at DATETIME NOT NULL,
  reason TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'scheduled',
  notes TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(vehiclesTable).Error)
	require.NoError(t, db.Exec(appointmentsTable).Error)
	return db
}

type apptFixture struct {
	svc       Service
	clientID  uuid.UUID
	vehicleID uuid.UUID
	bookedBy  uuid.UUID
	now       time.Time
}

func newApptFixture(t *testing.T) apptFixture {
	t.Helper()

	conn := setupAppointmentsTestDB(t)
	svc, err := NewService(NewRepository(conn), vehicles.NewRepository(conn))
	require.NoError(t, err)

	fixed := time.Date(2033, 6, 10, 9, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	clientID := uuid.New()
	vehicle := &models.Vehicle{
		ID:       uuid.New(),
		ClientID: clientID,
		Plate:    fmt.Sprintf("APT-%s", strings.ToUpper(uuid.NewString()[:6])),
		Make:     "Chevrolet",
		Model:    "Aveo",
		Year:     2020,
	}
	require.NoError(t, conn.Create(vehicle).Error)

	return apptFixture{
		svc:       svc,
		clientID:  clientID,
		vehicleID: vehicle.ID,
		bookedBy:  uuid.New(),
		now:       fixed,
	}
}

func TestServiceBookAppointment(t *testing.T) {
	fx := newApptFixture(t)
	ctx := context.Background()

	booked, err := fx.svc.BookAppointment(ctx, fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: fx.now.Add(48 * time.Hour),
		Reason:      "brake noise",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AppointmentStatusScheduled, booked.Status)
	assert.Equal(t, fx.bookedBy, booked.CreatedBy)
}

func TestServiceBookAppointment_rejectsPast(t *testing.T) {
	fx := newApptFixture(t)

	_, err := fx.svc.BookAppointment(context.Background(), fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: fx.now.Add(-time.Hour),
		Reason:      "oil change",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceBookAppointment_vehicleMustBelongToClient(t *testing.T) {
	fx := newApptFixture(t)

	_, err := fx.svc.BookAppointment(context.Background(), fx.bookedBy, BookInput{
		ClientID:    uuid.New(),
		VehicleID:   fx.vehicleID,
		ScheduledAt: fx.now.Add(24 * time.Hour),
		Reason:      "inspection",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceBookAppointment_oneSlotPerVehiclePerDay(t *testing.T) {
	fx := newApptFixture(t)
	ctx := context.Background()
	day := fx.now.Add(72 * time.Hour).Truncate(24 * time.Hour)

	_, err := fx.svc.BookAppointment(ctx, fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: day.Add(10 * time.Hour),
		Reason:      "alignment",
	})
	require.NoError(t, err)

	_, err = fx.svc.BookAppointment(ctx, fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: day.Add(15 * time.Hour),
		Reason:      "alignment again",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// the next day is free
	_, err = fx.svc.BookAppointment(ctx, fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: day.Add(34 * time.Hour),
		Reason:      "follow up",
	})
	require.NoError(t, err)
}

func TestServiceReschedule(t *testing.T) {
	fx := newApptFixture(t)
	ctx := context.Background()

	booked, err := fx.svc.BookAppointment(ctx, fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: fx.now.Add(24 * time.Hour),
		Reason:      "suspension check",
	})
	require.NoError(t, err)

	moved, err := fx.svc.Reschedule(ctx, booked.ID, fx.now.Add(96*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, fx.now.Add(96*time.Hour), moved.ScheduledAt)
	assert.Equal(t, enums.AppointmentStatusScheduled, moved.Status)

	_, err = fx.svc.Reschedule(ctx, booked.ID, fx.now.Add(-time.Hour))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceChangeStatus_settledIsFinal(t *testing.T) {
	fx := newApptFixture(t)
	ctx := context.Background()

	booked, err := fx.svc.BookAppointment(ctx, fx.bookedBy, BookInput{
		ClientID:    fx.clientID,
		VehicleID:   fx.vehicleID,
		ScheduledAt: fx.now.Add(24 * time.Hour),
		Reason:      "battery check",
	})
	require.NoError(t, err)

	confirmed, err := fx.svc.ChangeStatus(ctx, booked.ID, enums.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, enums.AppointmentStatusConfirmed, confirmed.Status)

	cancelled, err := fx.svc.ChangeStatus(ctx, booked.ID, enums.AppointmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.AppointmentStatusCancelled, cancelled.Status)

	_, err = fx.svc.ChangeStatus(ctx, booked.ID, enums.AppointmentStatusScheduled)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = fx.svc.Reschedule(ctx, booked.ID, fx.now.Add(120*time.Hour))
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}
