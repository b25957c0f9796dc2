package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a discussion entry on a demand. Comments are the innermost
// dependency in the cascade: they must go before their parent demand.
type Comment struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DemandID     uuid.UUID `gorm:"column:demand_id;type:uuid;not null;index"`
	AuthorUserID uuid.UUID `gorm:"column:author_user_id;type:uuid;not null;index"`
	Body         string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
