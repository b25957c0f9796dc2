package invitations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// Repository persists invitations. All status transitions go through
// conditional updates guarded on the current status, so concurrent callers
// racing on the same row resolve to exactly one winner.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new pending invitation.
func (r *Repository) Create(ctx context.Context, invitation *models.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

// FindByID loads an invitation by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByTokenHash loads an invitation by its token hash. Lookups never use
// the raw token.
func (r *Repository) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "token_hash = ?", tokenHash).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// HasPending reports whether a pending invitation exists for the address in
// the organization. The partial unique index enforces the same rule at the
// storage level; this check exists to return a clean conflict.
func (r *Repository) HasPending(ctx context.Context, email string, orgID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("email = ? AND organization_id = ? AND status = ?", email, orgID, enums.InvitationStatusPending).
		Count(&count).Error
	return count > 0, err
}

// MarkAccepted performs the accept transition as a single conditional update.
// Zero rows affected means the invitation was no longer pending. The
// accepting user is linked afterwards with SetAcceptedBy, once their row
// exists.
func (r *Repository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, enums.InvitationStatusPending).
		Updates(map[string]any{
			"status":      enums.InvitationStatusAccepted,
			"accepted_at": at,
		})
	return res.RowsAffected, res.Error
}

// SetAcceptedBy links the accepting user to an already-accepted invitation.
func (r *Repository) SetAcceptedBy(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ?", id).
		Update("accepted_by_user_id", userID).Error
}

// MarkExpired flips a pending invitation to expired. Used by lazy expiry.
func (r *Repository) MarkExpired(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, enums.InvitationStatusPending).
		Update("status", enums.InvitationStatusExpired)
	return res.RowsAffected, res.Error
}

// MarkCancelled flips a pending invitation to cancelled.
func (r *Repository) MarkCancelled(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, enums.InvitationStatusPending).
		Update("status", enums.InvitationStatusCancelled)
	return res.RowsAffected, res.Error
}

// SweepExpiredBatch expires up to limit pending invitations past their
// deadline and returns the affected ids. It shares the conditional-update
// discipline with MarkAccepted, so running it concurrently with accepts is
// safe: each row transitions exactly once.
func (r *Repository) SweepExpiredBatch(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		UPDATE invitations
		SET status = ?, updated_at = ?
		WHERE id IN (
			SELECT id FROM invitations
			WHERE status = ? AND expires_at < ?
			ORDER BY expires_at
			LIMIT ?
		)
		AND status = ?
		RETURNING id`,
		enums.InvitationStatusExpired, now,
		enums.InvitationStatusPending, now, limit,
		enums.InvitationStatusPending,
	).Scan(&ids).Error
	return ids, err
}

// ListByOrganization returns invitations for an organization, optionally
// filtered by status, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, status *enums.InvitationStatus) ([]models.Invitation, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Invitation
	err := query.Find(&rows).Error
	return rows, err
}

// UnlinkAcceptedBy clears the accepting-user reference when that user is
// hard-deleted. The invitation row itself stays for the audit trail.
func (r *Repository) UnlinkAcceptedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("accepted_by_user_id = ?", userID).
		Update("accepted_by_user_id", nil)
	return res.RowsAffected, res.Error
}

// DeletePendingByOrganization removes pending invitations when their
// organization is torn down; redeemed ones stay as history.
func (r *Repository) DeletePendingByOrganization(ctx context.Context, orgID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, enums.InvitationStatusPending).
		Delete(&models.Invitation{})
	return res.RowsAffected, res.Error
}
