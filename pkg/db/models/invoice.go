package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagelabs/taller-backend/pkg/enums"
)

// Invoice is the billing snapshot cut from a completed ticket. The unique
// index on ticket_id is the source of truth against duplicate invoicing.
type Invoice struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number          string              `gorm:"column:number;not null;uniqueIndex"`
	TicketID        uuid.UUID           `gorm:"column:ticket_id;type:uuid;not null;uniqueIndex"`
	ClientID        uuid.UUID           `gorm:"column:client_id;type:uuid;not null"`
	PaymentMethodID *uuid.UUID          `gorm:"column:payment_method_id;type:uuid"`
	Status          enums.InvoiceStatus `gorm:"column:status;not null;default:'pending'"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxRate         decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,4);not null"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	Discount        decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	AmountPaid      decimal.Decimal     `gorm:"column:amount_paid;type:numeric(10,2);not null;default:0"`
	IssuedAt        time.Time           `gorm:"column:issued_at;not null"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	VoidedAt        *time.Time          `gorm:"column:voided_at"`
	Notes           *string             `gorm:"column:notes"`
	CreatedBy       uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// InvoiceLineItem is a frozen copy of a ticket line at invoicing time.
type InvoiceLineItem struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID          `gorm:"column:invoice_id;type:uuid;not null"`
	Kind        enums.LineItemKind `gorm:"column:kind;not null"`
	Description string             `gorm:"column:description;not null"`
	Quantity    int                `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal    `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal   decimal.Decimal    `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
