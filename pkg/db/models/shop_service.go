package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceCategory groups catalog services for browsing.
type ServiceCategory struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ShopService is a catalog entry for labor the shop offers. BasePrice is the
// default charge copied onto ticket lines at add time.
type ShopService struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID       uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Name             string          `gorm:"column:name;not null"`
	Description      *string         `gorm:"column:description"`
	BasePrice        decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	EstimatedMinutes int             `gorm:"column:estimated_minutes;not null;default:0"`
	Active           bool            `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
