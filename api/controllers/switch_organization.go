package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/validators"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/auth"
	pkgAuth "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

type switchOrganizationRequest struct {
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
	RefreshToken   string `json:"refresh_token" validate:"required"`
}

// AuthSwitchOrganization mints a new token that targets the requested organization.
func AuthSwitchOrganization(svc auth.SwitchOrganizationService, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "switch organization service unavailable"))
			return
		}

		var body switchOrganizationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgID, err := uuid.Parse(body.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid organization_id"))
			return
		}

		token, err := parseBearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := pkgAuth.ParseAccessToken(cfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeUnauthorized, err, "invalid token"))
			return
		}

		result, err := svc.Switch(r.Context(), auth.SwitchOrganizationInput{
			UserID:         claims.UserID,
			OrganizationID: orgID,
			AccessTokenID:  claims.ID,
			RefreshToken:   body.RefreshToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
