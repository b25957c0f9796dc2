package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// OverrideRepository persists per-user permission overrides. One row exists
// per (user, permission); Upsert implements last-writer-wins.
type OverrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository binds the repo to the provided GORM connection.
func NewOverrideRepository(db *gorm.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Upsert writes the override, replacing any previous row for the same
// (user, permission) pair.
func (r *OverrideRepository) Upsert(ctx context.Context, override *models.PermissionOverride) error {
	if !override.Permission.IsValid() {
		return fmt.Errorf("invalid permission %q", override.Permission)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "permission"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"granted", "reason", "granted_by_user_id", "updated_at",
			}),
		}).
		Create(override).Error
}

// ListByUser returns every override for the user.
func (r *OverrideRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PermissionOverride, error) {
	var rows []models.PermissionOverride
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("permission ASC").
		Find(&rows).Error
	return rows, err
}

// DeleteByUser removes every override for the user. Used by the user cascade.
func (r *OverrideRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PermissionOverride{})
	return res.RowsAffected, res.Error
}

// CountActiveAdmins returns how many active users hold the admin role. The
// deletion coordinator refuses to remove the last one.
func CountActiveAdmins(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = TRUE", enums.UserRoleAdmin).
		Count(&count).Error
	return count, err
}
