package access

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/audit"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

// Service manages permission overrides. Every write lands in the audit trail
// inside the same transaction.
type Service struct {
	db       *db.Client
	resolver *Resolver
	logg     *logger.Logger
}

// ServiceParams packages the service dependencies.
type ServiceParams struct {
	DB       *db.Client
	Resolver *Resolver
	Logger   *logger.Logger
}

// NewService builds the override service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "resolver required")
	}
	return &Service{db: params.DB, resolver: params.Resolver, logg: params.Logger}, nil
}

// SetOverrideInput captures a single override write.
type SetOverrideInput struct {
	UserID     uuid.UUID
	Permission enums.Permission
	Granted    bool
	Reason     string
}

// SetOverride upserts the override for (user, permission). The last write
// wins; the previous value is not merged.
func (s *Service) SetOverride(ctx context.Context, actor *models.User, input SetOverrideInput) (*models.PermissionOverride, error) {
	if !input.Permission.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid permission")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if err := s.resolver.Require(ctx, actor, nil, enums.PermEditUser); err != nil {
		return nil, err
	}

	var actorID *uuid.UUID
	if actor != nil {
		id := actor.ID
		actorID = &id
	}

	override := &models.PermissionOverride{
		UserID:          input.UserID,
		Permission:      input.Permission,
		Granted:         input.Granted,
		Reason:          input.Reason,
		GrantedByUserID: actorID,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewOverrideRepository(tx).Upsert(ctx, override); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert permission override")
		}
		entry := audit.PermissionChange(override.ID, input.UserID, input.Permission, input.Granted, actorID, input.Reason)
		if err := audit.NewRepository(tx).Append(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, input.UserID.String())
		s.logg.Info(logCtx, "permission override written")
	}
	return override, nil
}

// ListOverrides returns the overrides layered onto the user.
func (s *Service) ListOverrides(ctx context.Context, actor *models.User, userID uuid.UUID) ([]models.PermissionOverride, error) {
	if err := s.resolver.Require(ctx, actor, nil, enums.PermViewUser); err != nil {
		return nil, err
	}
	rows, err := NewOverrideRepository(s.db.DB()).ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list permission overrides")
	}
	return rows, nil
}
