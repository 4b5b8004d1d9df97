package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Part is a stocked inventory item. Stock is only ever changed through
// inventory movements so the ledger stays consistent.
type Part struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID  *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	SKU         string          `gorm:"column:sku;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric(10,2);not null;default:0"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	MinStock    int             `gorm:"column:min_stock;not null;default:0"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
