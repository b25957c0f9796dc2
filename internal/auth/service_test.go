package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	pkgAuth "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/security"
)

func TestServiceLoginReturnsOrganizations(t *testing.T) {
	password := "manager-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "manager@example.com",
		Username:     "manager",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Marie",
		LastName:     "Tremblay",
		Role:         enums.UserRoleManager,
		IsActive:     true,
	}
	orgID := uuid.New()
	orgs := []memberships.MembershipWithOrganization{
		{
			OrganizationID:   orgID,
			OrganizationName: "Gestion Ville-Marie",
			Role:             enums.UserRoleManager,
			AllAccess:        true,
		},
	}
	cfg := testJWTConfig()

	svc, _, err := buildTestService(user, orgs, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.Role != enums.UserRoleManager {
		t.Fatalf("expected manager role claim, got %s", claims.Role)
	}
	if claims.ActiveOrganizationID == nil || *claims.ActiveOrganizationID != orgID {
		t.Fatalf("expected active organization %s, got %v", orgID, claims.ActiveOrganizationID)
	}
	if len(resp.Organizations) != 1 || resp.Organizations[0].ID != orgID {
		t.Fatalf("expected one organization in response, got %+v", resp.Organizations)
	}
	if !resp.Organizations[0].AllAccess {
		t.Fatalf("expected all_access to carry through")
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRequiresMembershipForNonAdmins(t *testing.T) {
	password := "no-org"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "tenant@example.com",
		Username:     "tenant",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Luc",
		LastName:     "Gagnon",
		Role:         enums.UserRoleTenant,
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err == nil {
		t.Fatalf("expected unauthorized without membership")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginAdminWithoutMemberships(t *testing.T) {
	password := "admin-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		Username:     "admin",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Root",
		LastName:     "Admin",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, _, err := buildTestService(user, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role claim, got %s", claims.Role)
	}
	if claims.ActiveOrganizationID != nil {
		t.Fatalf("expected no active organization for admin without memberships")
	}
	if len(resp.Organizations) != 0 {
		t.Fatalf("expected empty organization list, got %d", len(resp.Organizations))
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "inactive"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		Username:     "gone",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Former",
		LastName:     "Resident",
		Role:         enums.UserRoleResident,
		IsActive:     false,
	}

	svc, _, err := buildTestService(user, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}
}

func TestAdminLoginRejectsNonAdmin(t *testing.T) {
	password := "manager-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "manager@example.com",
		Username:     "manager",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Marie",
		LastName:     "Tremblay",
		Role:         enums.UserRoleManager,
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.AdminLogin(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for non-admin, got %v", err)
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "koveo-gestion",
		ExpirationMinutes: 30,
	}
}

func buildTestService(user *models.User, orgs []memberships.MembershipWithOrganization, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	userRepo := stubUserRepo{user: user}
	membershipRepo := stubMembershipsRepo{orgs: orgs}
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:        userRepo,
		MembershipsRepo: membershipRepo,
		SessionManager:  sessionMgr,
		JWTConfig:       jwtCfg,
	})
	return svc, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubMembershipsRepo struct {
	orgs []memberships.MembershipWithOrganization
	err  error
}

func (s stubMembershipsRepo) ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]memberships.MembershipWithOrganization, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orgs, nil
}

type stubSessionManager struct {
	refreshToken string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}
