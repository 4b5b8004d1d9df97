package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle belongs to a client. Plate is the natural key used at the counter.
type Vehicle struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID  uuid.UUID `gorm:"column:client_id;type:uuid;not null"`
	Plate     string    `gorm:"column:plate;not null;uniqueIndex"`
	VIN       *string   `gorm:"column:vin;uniqueIndex"`
	Make      string    `gorm:"column:make;not null"`
	Model     string    `gorm:"column:model;not null"`
	Year      int       `gorm:"column:year;not null"`
	Color     *string   `gorm:"column:color"`
	Mileage   *int      `gorm:"column:mileage"`
	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
