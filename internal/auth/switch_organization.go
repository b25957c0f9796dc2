package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	pkgAuth "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/auth/session"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
)

// SwitchOrganizationInput captures the data required to change the active organization.
type SwitchOrganizationInput struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	AccessTokenID  string
	RefreshToken   string
}

// SwitchOrganizationResult returns the tokens issued after switching.
type SwitchOrganizationResult struct {
	AccessToken  string
	RefreshToken string
	Organization OrganizationSummary
}

type switchOrganizationService struct {
	memberships switchMembershipsRepository
	session     switchSessionRotator
	jwtCfg      config.JWTConfig
}

type switchMembershipsRepository interface {
	GetOrganizationMembership(ctx context.Context, userID, organizationID uuid.UUID) (*memberships.MembershipWithOrganization, error)
}

type switchSessionRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
}

// SwitchOrganizationServiceParams bundles dependencies for the switch flow.
type SwitchOrganizationServiceParams struct {
	MembershipsRepo switchMembershipsRepository
	SessionManager  switchSessionRotator
	JWTConfig       config.JWTConfig
}

// NewSwitchOrganizationService constructs the service.
func NewSwitchOrganizationService(params SwitchOrganizationServiceParams) (SwitchOrganizationService, error) {
	if params.MembershipsRepo == nil {
		return nil, errors.New("memberships repository required")
	}
	if params.SessionManager == nil {
		return nil, errors.New("session manager required")
	}
	return &switchOrganizationService{
		memberships: params.MembershipsRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
	}, nil
}

// SwitchOrganizationService is the interface exposed to the controller.
type SwitchOrganizationService interface {
	Switch(ctx context.Context, input SwitchOrganizationInput) (*SwitchOrganizationResult, error)
}

func (s *switchOrganizationService) Switch(ctx context.Context, input SwitchOrganizationInput) (*SwitchOrganizationResult, error) {
	membership, err := s.memberships.GetOrganizationMembership(ctx, input.UserID, input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization membership required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup membership")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, input.AccessTokenID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	orgID := membership.OrganizationID
	payload := pkgAuth.AccessTokenPayload{
		UserID:               input.UserID,
		ActiveOrganizationID: &orgID,
		Role:                 membership.Role,
		JTI:                  newAccessID,
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SwitchOrganizationResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		Organization: OrganizationSummary{
			ID:        membership.OrganizationID,
			Name:      membership.OrganizationName,
			Role:      membership.Role,
			AllAccess: membership.AllAccess,
		},
	}, nil
}
