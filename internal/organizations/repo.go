package organizations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
)

// Repository exposes persistence for the property hierarchy: organizations,
// their buildings, and the residences inside those buildings.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrganization persists a new organization.
func (r *Repository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

// FindOrganization loads an organization by id.
func (r *Repository) FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateBuilding persists a new building.
func (r *Repository) CreateBuilding(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Create(building).Error
}

// CreateResidence persists a new residence.
func (r *Repository) CreateResidence(ctx context.Context, residence *models.Residence) error {
	return r.db.WithContext(ctx).Create(residence).Error
}

// BuildingOrganization returns the organization a building belongs to.
func (r *Repository) BuildingOrganization(ctx context.Context, buildingID uuid.UUID) (uuid.UUID, error) {
	var building models.Building
	err := r.db.WithContext(ctx).
		Select("organization_id").
		First(&building, "id = ?", buildingID).Error
	if err != nil {
		return uuid.Nil, err
	}
	return building.OrganizationID, nil
}

// ResidenceBuilding returns the building a residence belongs to.
func (r *Repository) ResidenceBuilding(ctx context.Context, residenceID uuid.UUID) (uuid.UUID, error) {
	var residence models.Residence
	err := r.db.WithContext(ctx).
		Select("building_id").
		First(&residence, "id = ?", residenceID).Error
	if err != nil {
		return uuid.Nil, err
	}
	return residence.BuildingID, nil
}

// BuildingIDs returns every building id under the organization, active or not.
// The cascade needs inactive rows too so re-runs clean up fully.
func (r *Repository) BuildingIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Building{}).
		Where("organization_id = ?", orgID).
		Pluck("id", &ids).Error
	return ids, err
}

// ResidenceIDs returns every residence id inside the given buildings.
func (r *Repository) ResidenceIDs(ctx context.Context, buildingIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(buildingIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Residence{}).
		Where("building_id IN ?", buildingIDs).
		Pluck("id", &ids).Error
	return ids, err
}

// DeactivateResidences flags the given residences inactive.
func (r *Repository) DeactivateResidences(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Residence{}).
		Where("id IN ? AND is_active = TRUE", ids).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// DeactivateBuildings flags the given buildings inactive.
func (r *Repository) DeactivateBuildings(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Building{}).
		Where("id IN ? AND is_active = TRUE", ids).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// DeactivateOrganization flags the organization inactive.
func (r *Repository) DeactivateOrganization(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("id = ? AND is_active = TRUE", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// CountActiveBuildings counts active buildings under the organization.
func (r *Repository) CountActiveBuildings(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Building{}).
		Where("organization_id = ? AND is_active = TRUE", orgID).
		Count(&count).Error
	return count, err
}

// FindBuilding loads a building by id.
func (r *Repository) FindBuilding(ctx context.Context, id uuid.UUID) (*models.Building, error) {
	var building models.Building
	if err := r.db.WithContext(ctx).First(&building, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &building, nil
}

// CountActiveResidences counts active residences under the organization.
// Used by tests and the deletion summary.
func (r *Repository) CountActiveResidences(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Residence{}).
		Joins("JOIN buildings ON buildings.id = residences.building_id").
		Where("buildings.organization_id = ? AND residences.is_active = TRUE", orgID).
		Count(&count).Error
	return count, err
}
