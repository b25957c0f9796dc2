package controllers

import (
	"net/http"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/validators"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

// AdminAuthRegister creates an admin user and logs it in. The route is only
// mounted outside production.
func AdminAuthRegister(adminRegister auth.AdminRegisterService, svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.App.IsProd() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin register disabled in production"))
			return
		}
		if adminRegister == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin register unavailable"))
			return
		}

		var body auth.AdminRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := adminRegister.Register(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminLogin(r.Context(), auth.LoginRequest{
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
