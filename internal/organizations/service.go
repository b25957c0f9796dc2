package organizations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	dbpkg "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

// accessChecker is the slice of the resolver the service needs.
type accessChecker interface {
	Require(ctx context.Context, user *models.User, scope *access.Scope, perm enums.Permission) error
}

// Service manages the organization → building → residence hierarchy.
// Creation walks top down; teardown belongs to the deletion coordinator.
type Service struct {
	db       *dbpkg.Client
	resolver accessChecker
	logg     *logger.Logger
}

// ServiceParams packages the service dependencies.
type ServiceParams struct {
	DB       *dbpkg.Client
	Resolver accessChecker
	Logger   *logger.Logger
}

// NewService builds the hierarchy service.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "access resolver required")
	}
	return &Service{
		db:       params.DB,
		resolver: params.Resolver,
		logg:     params.Logger,
	}, nil
}

// CreateOrganization provisions a new organization. Only platform admins can
// create top-level organizations; managers grow into them by invitation.
func (s *Service) CreateOrganization(ctx context.Context, actor *models.User, input CreateOrganizationInput) (*OrganizationDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor required")
	}
	if !actor.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permission")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	org := &models.Organization{
		Name:     name,
		Type:     strings.TrimSpace(input.Type),
		Address:  strings.TrimSpace(input.Address),
		City:     strings.TrimSpace(input.City),
		Province: strings.TrimSpace(input.Province),
		IsActive: true,
	}
	if org.Type == "" {
		org.Type = "standard"
	}
	if org.Province == "" {
		org.Province = "QC"
	}

	if err := NewRepository(s.db.DB()).CreateOrganization(ctx, org); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create organization")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrganizationID(ctx, org.ID.String()), "organization created")
	}

	dto := toOrganizationDTO(org)
	return &dto, nil
}

// GetOrganization returns an organization with occupancy counts, provided
// the actor can view it.
func (s *Service) GetOrganization(ctx context.Context, actor *models.User, orgID uuid.UUID) (*OrganizationDetail, error) {
	scope := &access.Scope{Kind: enums.ScopeOrganization, ID: orgID}
	if err := s.resolver.Require(ctx, actor, scope, enums.PermViewOrganization); err != nil {
		return nil, err
	}

	repo := NewRepository(s.db.DB())
	org, err := repo.FindOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load organization")
	}

	buildings, err := repo.CountActiveBuildings(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count buildings")
	}
	residences, err := repo.CountActiveResidences(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count residences")
	}

	return &OrganizationDetail{
		OrganizationDTO:  toOrganizationDTO(org),
		ActiveBuildings:  buildings,
		ActiveResidences: residences,
	}, nil
}

// CreateBuilding adds a building under an organization.
func (s *Service) CreateBuilding(ctx context.Context, actor *models.User, orgID uuid.UUID, input CreateBuildingInput) (*BuildingDTO, error) {
	scope := &access.Scope{Kind: enums.ScopeOrganization, ID: orgID}
	if err := s.resolver.Require(ctx, actor, scope, enums.PermCreateBuilding); err != nil {
		return nil, err
	}

	repo := NewRepository(s.db.DB())
	org, err := repo.FindOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load organization")
	}
	if !org.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "organization is inactive")
	}

	building := &models.Building{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(input.Name),
		Address:        strings.TrimSpace(input.Address),
		City:           strings.TrimSpace(input.City),
		TotalUnits:     input.TotalUnits,
		IsActive:       true,
	}
	if building.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	if err := repo.CreateBuilding(ctx, building); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create building")
	}

	dto := toBuildingDTO(building)
	return &dto, nil
}

// CreateResidence adds a residence under a building.
func (s *Service) CreateResidence(ctx context.Context, actor *models.User, buildingID uuid.UUID, input CreateResidenceInput) (*ResidenceDTO, error) {
	repo := NewRepository(s.db.DB())
	building, err := repo.FindBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "building not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load building")
	}

	scope := &access.Scope{Kind: enums.ScopeBuilding, ID: buildingID}
	if err := s.resolver.Require(ctx, actor, scope, enums.PermCreateResidence); err != nil {
		return nil, err
	}
	if !building.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "building is inactive")
	}

	unit := strings.TrimSpace(input.UnitNumber)
	if unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_number is required")
	}

	residence := &models.Residence{
		BuildingID: buildingID,
		UnitNumber: unit,
		Floor:      input.Floor,
		IsActive:   true,
	}
	if err := repo.CreateResidence(ctx, residence); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create residence")
	}

	dto := toResidenceDTO(residence)
	return &dto, nil
}
