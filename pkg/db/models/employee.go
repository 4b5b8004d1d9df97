package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/garagelabs/taller-backend/pkg/enums"
)

// Employee is a member of the shop staff. Accounts that can log in get a
// matching User row.
type Employee struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName string     `gorm:"column:first_name;not null"`
	LastName  string     `gorm:"column:last_name;not null"`
	Phone     *string    `gorm:"column:phone"`
	Email     *string    `gorm:"column:email;uniqueIndex"`
	Role      enums.Role `gorm:"column:role;not null"`
	HiredAt   *time.Time `gorm:"column:hired_at"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
