package models

import (
	"time"

	"github.com/google/uuid"
)

// Demand is a maintenance or service request submitted against a residence.
type Demand struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ResidenceID     uuid.UUID `gorm:"column:residence_id;type:uuid;not null;index"`
	SubmitterUserID uuid.UUID `gorm:"column:submitter_user_id;type:uuid;not null;index"`
	Type            string    `gorm:"type:text;not null"`
	Description     string    `gorm:"type:text;not null"`
	Status          string    `gorm:"type:text;not null;default:submitted"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
