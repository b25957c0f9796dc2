package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app inbox entry for a user, produced by the event
// consumer from domain events.
type Notification struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Type      string          `gorm:"type:text;not null"`
	Title     string          `gorm:"type:text;not null"`
	Body      string          `gorm:"type:text;not null;default:''"`
	Data      json.RawMessage `gorm:"column:data;type:jsonb"`
	ReadAt    *time.Time      `gorm:"column:read_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
