package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/deletion"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

// UserMe returns the authenticated user's profile and organizations.
func UserMe(actors ActorStore, membershipsRepo *memberships.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgs, err := membershipsRepo.ListUserOrganizations(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries := make([]auth.OrganizationSummary, 0, len(orgs))
		for _, m := range orgs {
			summaries = append(summaries, auth.OrganizationSummary{
				ID:        m.OrganizationID,
				Name:      m.OrganizationName,
				Role:      m.Role,
				AllAccess: m.AllAccess,
			})
		}

		responses.WriteSuccess(w, map[string]any{
			"user":          users.FromModel(actor),
			"organizations": summaries,
		})
	}
}

// UserDelete hard-deletes a user and their authored records. The actor needs
// the delete:user permission at the global scope, so a revoking
// PermissionOverride blocks even an admin.
func UserDelete(coord *deletion.Coordinator, actors ActorStore, guard AccessGuard, logg *logger.Logger) http.HandlerFunc {
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
		if err := guard.Require(r.Context(), actor, nil, enums.PermDeleteUser); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := coord.DeleteUser(r.Context(), &actor.ID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
