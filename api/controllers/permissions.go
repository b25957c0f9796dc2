package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/validators"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

type setOverrideRequest struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	Permission string    `json:"permission" validate:"required"`
	Granted    bool      `json:"granted"`
	Reason     string    `json:"reason" validate:"required"`
}

// PermissionOverrideSet grants or revokes a single permission for a user.
func PermissionOverrideSet(svc *access.Service, actors ActorStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body setOverrideRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		override, err := svc.SetOverride(r.Context(), actor, access.SetOverrideInput{
			UserID:     body.UserID,
			Permission: enums.Permission(body.Permission),
			Granted:    body.Granted,
			Reason:     body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, override)
	}
}

// PermissionOverrideList returns a user's active overrides.
func PermissionOverrideList(svc *access.Service, actors ActorStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overrides, err := svc.ListOverrides(r.Context(), actor, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"overrides": overrides})
	}
}
