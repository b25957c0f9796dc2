package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/middleware"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
)

// ActorStore loads the authenticated user behind a request.
type ActorStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AccessGuard checks a permission at a hierarchy scope.
type AccessGuard interface {
	Require(ctx context.Context, user *models.User, scope *access.Scope, perm enums.Permission) error
}

// actorFromRequest resolves the context user id to a full user row. A stale
// token pointing at a missing or deactivated user reads as unauthorized.
func actorFromRequest(r *http.Request, store ActorStore) (*models.User, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	user, err := store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user deactivated")
	}
	return user, nil
}
