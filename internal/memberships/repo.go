package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// Repository exposes persistence for membership edges, the links between
// users and scopes in the property hierarchy. Edges are only mutated inside
// the transaction that also mutates the entity they scope to.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateEdgeParams captures a new membership edge.
type CreateEdgeParams struct {
	UserID          uuid.UUID
	ScopeKind       enums.ScopeKind
	ScopeID         uuid.UUID
	Role            enums.UserRole
	AllAccess       bool
	InvitedByUserID *uuid.UUID
}

// CreateEdge persists a new active membership edge.
func (r *Repository) CreateEdge(ctx context.Context, params CreateEdgeParams) (*models.MembershipEdge, error) {
	if !params.ScopeKind.IsValid() {
		return nil, fmt.Errorf("invalid scope kind %q", params.ScopeKind)
	}
	if !params.Role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", params.Role)
	}
	if params.AllAccess && params.ScopeKind != enums.ScopeOrganization {
		return nil, fmt.Errorf("all_access is only valid on organization edges")
	}

	edge := &models.MembershipEdge{
		UserID:          params.UserID,
		ScopeKind:       params.ScopeKind,
		ScopeID:         params.ScopeID,
		Role:            params.Role,
		AllAccess:       params.AllAccess,
		IsActive:        true,
		InvitedByUserID: params.InvitedByUserID,
	}
	if err := r.db.WithContext(ctx).Create(edge).Error; err != nil {
		return nil, err
	}
	return edge, nil
}

// ListActiveByUser returns every active edge for the user.
func (r *Repository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.MembershipEdge, error) {
	var rows []models.MembershipEdge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = TRUE", userID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListActiveByScope returns every active edge anchored at the given scope.
func (r *Repository) ListActiveByScope(ctx context.Context, kind enums.ScopeKind, scopeID uuid.UUID) ([]models.MembershipEdge, error) {
	var rows []models.MembershipEdge
	err := r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_id = ? AND is_active = TRUE", kind, scopeID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// DeactivateByScope flags every edge anchored at the scope inactive and
// returns how many rows changed.
func (r *Repository) DeactivateByScope(ctx context.Context, kind enums.ScopeKind, scopeID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MembershipEdge{}).
		Where("scope_kind = ? AND scope_id = ? AND is_active = TRUE", kind, scopeID).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// DeactivateByScopeIDs is the bulk form of DeactivateByScope, used by
// cascades that tear down many scopes of the same kind at once.
func (r *Repository) DeactivateByScopeIDs(ctx context.Context, kind enums.ScopeKind, scopeIDs []uuid.UUID) (int64, error) {
	if len(scopeIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.MembershipEdge{}).
		Where("scope_kind = ? AND scope_id IN ? AND is_active = TRUE", kind, scopeIDs).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// DeleteByUser removes every edge belonging to the user. Used by the user
// cascade, where the user row itself is about to be removed.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.MembershipEdge{})
	return res.RowsAffected, res.Error
}

// HasActiveOrganizationMembership reports whether the user still belongs to
// any active organization.
func (r *Repository) HasActiveOrganizationMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MembershipEdge{}).
		Where("user_id = ? AND scope_kind = ? AND is_active = TRUE", userID, enums.ScopeOrganization).
		Count(&count).Error
	return count > 0, err
}

// UserHasRole reports whether the user holds one of the given roles on an
// active organization edge.
func (r *Repository) UserHasRole(ctx context.Context, userID, organizationID uuid.UUID, roles ...enums.UserRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MembershipEdge{}).
		Where("user_id = ? AND scope_kind = ? AND scope_id = ? AND role IN ? AND is_active = TRUE",
			userID, enums.ScopeOrganization, organizationID, roles).
		Count(&count).Error
	return count > 0, err
}

// OrphanedUserIDs returns active users holding no active organization edge.
// The query backs the orphan sweep and must stay idempotent: a user already
// flagged inactive is excluded.
func (r *Repository) OrphanedUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id").
		Where("users.is_active = TRUE").
		Where("NOT EXISTS (?)",
			r.db.Model(&models.MembershipEdge{}).
				Select("1").
				Where("membership_edges.user_id = users.id").
				Where("membership_edges.scope_kind = ?", enums.ScopeOrganization).
				Where("membership_edges.is_active = TRUE"),
		).
		Scan(&ids).Error
	return ids, err
}

// MembershipWithOrganization pairs an organization edge with the
// organization's display name for login and switch responses.
type MembershipWithOrganization struct {
	OrganizationID   uuid.UUID      `gorm:"column:organization_id"`
	OrganizationName string         `gorm:"column:organization_name"`
	Role             enums.UserRole `gorm:"column:role"`
	AllAccess        bool           `gorm:"column:all_access"`
}

// ListUserOrganizations returns the active organizations the user belongs
// to, joined with their names. Inactive organizations are excluded even when
// the edge itself is still active.
func (r *Repository) ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]MembershipWithOrganization, error) {
	var rows []MembershipWithOrganization
	err := r.db.WithContext(ctx).
		Table("membership_edges").
		Select("membership_edges.scope_id AS organization_id, organizations.name AS organization_name, membership_edges.role, membership_edges.all_access").
		Joins("JOIN organizations ON organizations.id = membership_edges.scope_id AND organizations.is_active = TRUE").
		Where("membership_edges.user_id = ? AND membership_edges.scope_kind = ? AND membership_edges.is_active = TRUE",
			userID, enums.ScopeOrganization).
		Order("organizations.name ASC").
		Scan(&rows).Error
	return rows, err
}

// GetOrganizationMembership loads a single active organization edge with the
// organization name, or gorm.ErrRecordNotFound when the user has no such
// edge.
func (r *Repository) GetOrganizationMembership(ctx context.Context, userID, organizationID uuid.UUID) (*MembershipWithOrganization, error) {
	var row MembershipWithOrganization
	err := r.db.WithContext(ctx).
		Table("membership_edges").
		Select("membership_edges.scope_id AS organization_id, organizations.name AS organization_name, membership_edges.role, membership_edges.all_access").
		Joins("JOIN organizations ON organizations.id = membership_edges.scope_id AND organizations.is_active = TRUE").
		Where("membership_edges.user_id = ? AND membership_edges.scope_id = ? AND membership_edges.scope_kind = ? AND membership_edges.is_active = TRUE",
			userID, organizationID, enums.ScopeOrganization).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
