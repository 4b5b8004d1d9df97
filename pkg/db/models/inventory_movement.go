package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagelabs/taller-backend/pkg/enums"
)

// InventoryMovement is an append-only ledger row for every stock change.
// Quantity is signed: negative for consumption, positive for intake.
type InventoryMovement struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartID      uuid.UUID            `gorm:"column:part_id;type:uuid;not null"`
	Reason      enums.MovementReason `gorm:"column:reason;not null"`
	Quantity    int                  `gorm:"column:quantity;not null"`
	StockBefore int                  `gorm:"column:stock_before;not null"`
	StockAfter  int                  `gorm:"column:stock_after;not null"`
	Reference   *string              `gorm:"column:reference"`
	EmployeeID  uuid.UUID            `gorm:"column:employee_id;type:uuid;not null"`
	Notes       *string              `gorm:"column:notes"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}
