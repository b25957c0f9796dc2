package controllers

import (
	"net/http"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/middleware"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if org := middleware.OrganizationIDFromContext(r.Context()); org != "" {
			payload["organization_id"] = org
		}
		responses.WriteSuccess(w, payload)
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "admin", "status": "ok"}
		if org := middleware.OrganizationIDFromContext(r.Context()); org != "" {
			payload["organization_id"] = org
		}
		responses.WriteSuccess(w, payload)
	}
}
