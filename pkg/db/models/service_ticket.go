package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/pkg/enums"
)

// ServiceTicket is the work order opened when a vehicle enters the shop.
// Totals are recomputed from the full line set whenever a line changes.
type ServiceTicket struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number      string             `gorm:"column:number;not null;uniqueIndex"`
	ClientID    uuid.UUID          `gorm:"column:client_id;type:uuid;not null"`
	VehicleID   uuid.UUID          `gorm:"column:vehicle_id;type:uuid;not null"`
	MechanicID  *uuid.UUID         `gorm:"column:mechanic_id;type:uuid"`
	OpenedBy    uuid.UUID          `gorm:"column:opened_by;type:uuid;not null"`
	Status      enums.TicketStatus `gorm:"column:status;not null;default:'intake'"`
	MileageIn   *int               `gorm:"column:mileage_in"`
	Complaint   string             `gorm:"column:complaint;not null"`
	Diagnosis   *string            `gorm:"column:diagnosis"`
	WorkLog     *string            `gorm:"column:work_log"`
	LaborTotal  decimal.Decimal    `gorm:"column:labor_total;type:numeric(10,2);not null;default:0"`
	PartsTotal  decimal.Decimal    `gorm:"column:parts_total;type:numeric(10,2);not null;default:0"`
	Total       decimal.Decimal    `gorm:"column:total;type:numeric(10,2);not null;default:0"`
	OpenedAt    time.Time          `gorm:"column:opened_at;not null"`
	PromisedAt  *time.Time         `gorm:"column:promised_at"`
	DeliveredAt *time.Time         `gorm:"column:delivered_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
