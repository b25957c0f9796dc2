package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill is a residence-level charge. It exists in this core to prove cascade
// safety: the row references both a residence and a creating user.
type Bill struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ResidenceID     uuid.UUID       `gorm:"column:residence_id;type:uuid;not null;index"`
	CreatedByUserID uuid.UUID       `gorm:"column:created_by_user_id;type:uuid;not null;index"`
	Title           string          `gorm:"type:text;not null"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	DueDate         time.Time       `gorm:"column:due_date;not null"`
	Paid            bool            `gorm:"column:paid;not null;default:false"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
