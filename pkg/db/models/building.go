package models

import (
	"time"

	"github.com/google/uuid"
)

// Building belongs to an organization and contains residences.
type Building struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index"`
	Name           string    `gorm:"type:text;not null"`
	Address        string    `gorm:"type:text;not null"`
	City           string    `gorm:"type:text;not null"`
	TotalUnits     int       `gorm:"column:total_units;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
