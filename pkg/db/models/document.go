package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a stored file attached to a building or a residence. The bytes
// live in cloud storage; ObjectPath locates them within the documents bucket.
// Exactly one of BuildingID or ResidenceID is set.
type Document struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BuildingID       *uuid.UUID `gorm:"column:building_id;type:uuid;index"`
	ResidenceID      *uuid.UUID `gorm:"column:residence_id;type:uuid;index"`
	UploadedByUserID uuid.UUID  `gorm:"column:uploaded_by_user_id;type:uuid;not null;index"`
	Name             string     `gorm:"type:text;not null"`
	ObjectPath       string     `gorm:"column:object_path;type:text;not null"`
	ContentType      string     `gorm:"column:content_type;type:text;not null"`
	SizeBytes        int64      `gorm:"column:size_bytes;not null;default:0"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
