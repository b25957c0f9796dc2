package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/validators"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/deletion"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/organizations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

// OrganizationCreate provisions a new organization. Admin only; the service
// enforces it.
func OrganizationCreate(svc *organizations.Service, actors ActorStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body organizations.CreateOrganizationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateOrganization(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// OrganizationGet returns one organization with active entity counts.
func OrganizationGet(svc *organizations.Service, actors ActorStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := uuid.Parse(chi.URLParam(r, "organizationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrganization(r.Context(), actor, orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrganizationDelete runs the cascading teardown and returns its summary.
func OrganizationDelete(coord *deletion.Coordinator, actors ActorStore, guard AccessGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := uuid.Parse(chi.URLParam(r, "organizationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &access.Scope{Kind: enums.ScopeOrganization, ID: orgID}
		if err := guard.Require(r.Context(), actor, scope, enums.PermDeleteOrganization); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := coord.DeleteOrganization(r.Context(), &actor.ID, orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// BuildingCreate adds a building to an organization.
func BuildingCreate(svc *organizations.Service, actors ActorStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := uuid.Parse(chi.URLParam(r, "organizationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
			return
		}

		var body organizations.CreateBuildingInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateBuilding(r.Context(), actor, orgID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ResidenceCreate adds a residence unit to a building.
func ResidenceCreate(svc *organizations.Service, actors ActorStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := uuid.Parse(chi.URLParam(r, "buildingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid building id"))
			return
		}

		var body organizations.CreateResidenceInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateResidence(r.Context(), actor, buildingID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
