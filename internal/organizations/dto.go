package organizations

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
)

// CreateOrganizationInput captures a new organization request.
type CreateOrganizationInput struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Type     string `json:"type,omitempty"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	Province string `json:"province,omitempty"`
}

// CreateBuildingInput captures a new building under an organization.
type CreateBuildingInput struct {
	Name       string `json:"name" validate:"required,min=2,max=200"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	TotalUnits int    `json:"total_units" validate:"gte=0"`
}

// CreateResidenceInput captures a new residence under a building.
type CreateResidenceInput struct {
	UnitNumber string `json:"unit_number" validate:"required,max=32"`
	Floor      *int   `json:"floor,omitempty"`
}

// OrganizationDTO is the transport shape for an organization.
type OrganizationDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Province  string    `json:"province"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationDetail adds occupancy counts to the base DTO.
type OrganizationDetail struct {
	OrganizationDTO
	ActiveBuildings  int64 `json:"active_buildings"`
	ActiveResidences int64 `json:"active_residences"`
}

// BuildingDTO is the transport shape for a building.
type BuildingDTO struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	TotalUnits     int       `json:"total_units"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ResidenceDTO is the transport shape for a residence.
type ResidenceDTO struct {
	ID         uuid.UUID `json:"id"`
	BuildingID uuid.UUID `json:"building_id"`
	UnitNumber string    `json:"unit_number"`
	Floor      *int      `json:"floor,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toOrganizationDTO(m *models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		Address:   m.Address,
		City:      m.City,
		Province:  m.Province,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toBuildingDTO(m *models.Building) BuildingDTO {
	return BuildingDTO{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Address:        m.Address,
		City:           m.City,
		TotalUnits:     m.TotalUnits,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
}

func toResidenceDTO(m *models.Residence) ResidenceDTO {
	return ResidenceDTO{
		ID:         m.ID,
		BuildingID: m.BuildingID,
		UnitNumber: m.UnitNumber,
		Floor:      m.Floor,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
	}
}
