package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is a seeded lookup row (cash, card, transfer).
type PaymentMethod struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
