package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	accesssvc "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/notifications"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	pkgAuth "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth/session"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.AdminLoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubAdminRegisterService struct{}

func (stubAdminRegisterService) Register(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	return nil, nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubSwitchService struct{}

func (stubSwitchService) Switch(ctx context.Context, input auth.SwitchOrganizationInput) (*auth.SwitchOrganizationResult, error) {
	return nil, nil
}

type stubActorStore struct{}

func (stubActorStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, IsActive: true, Role: enums.UserRoleManager}, nil
}

type stubGuard struct{}

func (stubGuard) Require(ctx context.Context, user *models.User, scope *accesssvc.Scope, perm enums.Permission) error {
	return nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "koveo-gestion",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubPinger{},
		stubSessionManager{},
		stubAuthService{},
		stubAdminRegisterService{},
		stubSwitchService{},
		nil, // invitations service, unused by gating tests
		nil, // organizations service
		nil, // deletion coordinator
		nil, // access service
		stubGuard{},
		stubActorStore{},
		nil, // memberships repo
		stubNotificationsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, orgID *uuid.UUID) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:               uuid.New(),
		ActiveOrganizationID: orgID,
		Role:                 role,
		JTI:                  accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivatePingRequiresOrganizationContext(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	noOrg := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	noOrg.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleTenant, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, noOrg)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without organization got %d", resp.Code)
	}

	orgID := uuid.New()
	withOrg := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	withOrg.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleManager, &orgID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, withOrg)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleTenant, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin, nil))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminRegisterNotMountedInProd(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = "prod"
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected register route absent in prod got %d", resp.Code)
	}
}

func TestPublicValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestPublicValidateAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"name":"Zed","email":"zed@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid payload got %d", resp.Code)
	}
}
