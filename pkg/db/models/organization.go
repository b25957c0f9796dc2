package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the top level of the property hierarchy. Business deletion
// is a soft deactivation; dependents are torn down by the deletion
// coordinator before the row itself is flagged inactive.
type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:text;not null;default:standard"`
	Address   string    `gorm:"type:text;not null"`
	City      string    `gorm:"type:text;not null"`
	Province  string    `gorm:"type:text;not null;default:QC"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
