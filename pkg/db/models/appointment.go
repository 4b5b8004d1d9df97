package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagelabs/taller-backend/pkg/enums"
)

// Appointment books a client and vehicle into a time slot before a ticket
// exists.
type Appointment struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID    uuid.UUID               `gorm:"column:client_id;type:uuid;not null"`
	VehicleID   uuid.UUID               `gorm:"column:vehicle_id;type:uuid;not null"`
	ScheduledAt time.Time               `gorm:"column:scheduled_at;not null"`
	Reason      string                  `gorm:"column:reason;not null"`
	Status      enums.AppointmentStatus `gorm:"column:status;not null;default:'scheduled'"`
	Notes       *string                 `gorm:"column:notes"`
	CreatedBy   uuid.UUID               `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
