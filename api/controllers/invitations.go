package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/validators"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/invitations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

// invitationPublicMessage is the only thing an anonymous caller learns about
// a token that cannot be redeemed. Unknown, expired, cancelled and already
// accepted all collapse into it; the audit trail keeps the real reason.
const invitationPublicMessage = "invalid or expired invitation"

type invitationTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type invitationAcceptRequest struct {
	Token string `json:"token" validate:"required"`
	invitations.AcceptInput
}

// maskInvitationError hides the concrete failure from anonymous callers.
func maskInvitationError(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	switch typed.Code() {
	case pkgerrors.CodeNotFound, pkgerrors.CodeStateConflict:
		return pkgerrors.New(pkgerrors.CodeNotFound, invitationPublicMessage)
	default:
		return err
	}
}

// InvitationValidate resolves a raw token for the public acceptance page.
func InvitationValidate(svc *invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body invitationTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Validate(r.Context(), body.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, maskInvitationError(err))
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// InvitationAccept redeems a token and provisions the invited user.
func InvitationAccept(svc *invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body invitationAcceptRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := body.AcceptInput
		input.IP = clientIP(r)
		input.UserAgent = r.UserAgent()

		result, err := svc.Accept(r.Context(), body.Token, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, maskInvitationError(err))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// InvitationCreate issues an invitation into the actor's organization.
func InvitationCreate(svc *invitations.Service, actors ActorStore, guard AccessGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body invitations.CreateInvitationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &access.Scope{Kind: enums.ScopeOrganization, ID: body.OrganizationID}
		if err := guard.Require(r.Context(), actor, scope, enums.PermInviteUser); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), &actor.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// InvitationList returns an organization's invitations, optionally filtered
// by status.
func InvitationList(svc *invitations.Service, actors ActorStore, guard AccessGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := uuid.Parse(chi.URLParam(r, "organizationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
			return
		}

		var status *enums.InvitationStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseInvitationStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &access.Scope{Kind: enums.ScopeOrganization, ID: orgID}
		if err := guard.Require(r.Context(), actor, scope, enums.PermViewUser); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByOrganization(r.Context(), orgID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"invitations": rows})
	}
}

// InvitationCancel retracts a pending invitation.
func InvitationCancel(svc *invitations.Service, actors ActorStore, guard AccessGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitationID, err := uuid.Parse(chi.URLParam(r, "invitationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invitation id"))
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inv, err := svc.Get(r.Context(), invitationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &access.Scope{Kind: enums.ScopeOrganization, ID: inv.OrganizationID}
		if err := guard.Require(r.Context(), actor, scope, enums.PermInviteUser); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Cancel(r.Context(), invitationID, &actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// InvitationTrail returns the audit history for one invitation.
func InvitationTrail(svc *invitations.Service, actors ActorStore, guard AccessGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invitationID, err := uuid.Parse(chi.URLParam(r, "invitationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invitation id"))
			return
		}

		actor, err := actorFromRequest(r, actors)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inv, err := svc.Get(r.Context(), invitationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := &access.Scope{Kind: enums.ScopeOrganization, ID: inv.OrganizationID}
		if err := guard.Require(r.Context(), actor, scope, enums.PermViewUser); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Trail(r.Context(), invitationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}

// clientIP extracts the originating address, preferring the proxy header.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
