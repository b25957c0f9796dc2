package models

import (
	"time"

	"github.com/google/uuid"
)

// Residence is a single unit inside a building.
type Residence struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BuildingID uuid.UUID `gorm:"column:building_id;type:uuid;not null;index"`
	UnitNumber string    `gorm:"column:unit_number;type:text;not null"`
	Floor      *int      `gorm:"column:floor"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
