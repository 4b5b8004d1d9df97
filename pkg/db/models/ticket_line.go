package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketServiceLine is a labor line on a ticket. Description and unit price
// are snapshots of the catalog entry at add time.
type TicketServiceLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID    uuid.UUID       `gorm:"column:ticket_id;type:uuid;not null"`
	ServiceID   uuid.UUID       `gorm:"column:service_id;type:uuid;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TicketPartLine is a part line on a ticket. Adding one reserves stock and
// writes the matching inventory movement in the same transaction.
type TicketPartLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID    uuid.UUID       `gorm:"column:ticket_id;type:uuid;not null"`
	PartID      uuid.UUID       `gorm:"column:part_id;type:uuid;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
