package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/api/middleware"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

type testActorStore struct {
	user *models.User
}

func (s *testActorStore) FindByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return s.user, nil
}

type testAccessGuard struct {
	called bool
	scope  *access.Scope
	perm   enums.Permission
	err    error
}

func (g *testAccessGuard) Require(_ context.Context, _ *models.User, scope *access.Scope, perm enums.Permission) error {
	g.called = true
	g.scope = scope
	g.perm = perm
	return g.err
}

func TestUserDeleteConsultsTheResolverNotTheRole(t *testing.T) {
	// An admin with a revoking override must be turned away; the bare role
	// is never enough on its own.
	admin := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin, IsActive: true}
	guard := &testAccessGuard{err: pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permission")}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+uuid.NewString(), nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), admin.ID.String()))
	req = addRouteParam(req, "userId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler := UserDelete(nil, &testActorStore{user: admin}, guard, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	handler(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if !guard.called {
		t.Fatal("expected the access guard to be consulted")
	}
	if guard.scope != nil {
		t.Fatalf("expected a global permission check, got scope %+v", guard.scope)
	}
	if guard.perm != enums.PermDeleteUser {
		t.Fatalf("expected %s, got %s", enums.PermDeleteUser, guard.perm)
	}
}

func TestUserDeleteRejectsMalformedID(t *testing.T) {
	guard := &testAccessGuard{}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/not-a-uuid", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "userId", "not-a-uuid")

	resp := httptest.NewRecorder()
	handler := UserDelete(nil, &testActorStore{}, guard, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	handler(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if guard.called {
		t.Fatal("guard must not run for a malformed id")
	}
}
