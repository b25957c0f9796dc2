package records

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
)

// Repository manages residence and building level records: bills, demands,
// comments and documents. Most of its surface exists for the deletion
// coordinator, which removes record rows from the inside out.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBill persists a bill against a residence.
func (r *Repository) CreateBill(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

// CreateDemand persists a demand against a residence.
func (r *Repository) CreateDemand(ctx context.Context, demand *models.Demand) error {
	return r.db.WithContext(ctx).Create(demand).Error
}

// CreateComment persists a comment on a demand.
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// CreateDocument persists document metadata. The object itself is written to
// cloud storage before the row is created.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// DemandIDsByResidences returns demand ids under the given residences, so
// their comments can be removed first.
func (r *Repository) DemandIDsByResidences(ctx context.Context, residenceIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(residenceIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Demand{}).
		Where("residence_id IN ?", residenceIDs).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteCommentsByDemands removes all comments on the given demands.
func (r *Repository) DeleteCommentsByDemands(ctx context.Context, demandIDs []uuid.UUID) (int64, error) {
	if len(demandIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("demand_id IN ?", demandIDs).
		Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

// DeleteDemandsByResidences removes all demands under the given residences.
func (r *Repository) DeleteDemandsByResidences(ctx context.Context, residenceIDs []uuid.UUID) (int64, error) {
	if len(residenceIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("residence_id IN ?", residenceIDs).
		Delete(&models.Demand{})
	return res.RowsAffected, res.Error
}

// DeleteBillsByResidences removes all bills under the given residences.
func (r *Repository) DeleteBillsByResidences(ctx context.Context, residenceIDs []uuid.UUID) (int64, error) {
	if len(residenceIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("residence_id IN ?", residenceIDs).
		Delete(&models.Bill{})
	return res.RowsAffected, res.Error
}

// DocumentPathsByResidences returns storage paths for residence documents.
// The caller deletes the objects after the surrounding transaction commits.
func (r *Repository) DocumentPathsByResidences(ctx context.Context, residenceIDs []uuid.UUID) ([]string, error) {
	if len(residenceIDs) == 0 {
		return nil, nil
	}
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("residence_id IN ?", residenceIDs).
		Pluck("object_path", &paths).Error
	return paths, err
}

// DocumentPathsByBuildings returns storage paths for building documents.
func (r *Repository) DocumentPathsByBuildings(ctx context.Context, buildingIDs []uuid.UUID) ([]string, error) {
	if len(buildingIDs) == 0 {
		return nil, nil
	}
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("building_id IN ?", buildingIDs).
		Pluck("object_path", &paths).Error
	return paths, err
}

// DeleteDocumentsByResidences removes document rows for the given residences.
func (r *Repository) DeleteDocumentsByResidences(ctx context.Context, residenceIDs []uuid.UUID) (int64, error) {
	if len(residenceIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("residence_id IN ?", residenceIDs).
		Delete(&models.Document{})
	return res.RowsAffected, res.Error
}

// DeleteDocumentsByBuildings removes document rows for the given buildings.
func (r *Repository) DeleteDocumentsByBuildings(ctx context.Context, buildingIDs []uuid.UUID) (int64, error) {
	if len(buildingIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("building_id IN ?", buildingIDs).
		Delete(&models.Document{})
	return res.RowsAffected, res.Error
}

// DeleteCommentsByUser removes comments authored by the user. User deletion
// removes the user's own records but never touches records other users
// created in the same residences.
func (r *Repository) DeleteCommentsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("author_user_id = ?", userID).
		Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

// DemandIDsBySubmitter returns demand ids the user submitted.
func (r *Repository) DemandIDsBySubmitter(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Demand{}).
		Where("submitter_user_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteDemandsByIDs removes the given demands.
func (r *Repository) DeleteDemandsByIDs(ctx context.Context, demandIDs []uuid.UUID) (int64, error) {
	if len(demandIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("id IN ?", demandIDs).
		Delete(&models.Demand{})
	return res.RowsAffected, res.Error
}

// DeleteBillsByCreator removes bills the user created.
func (r *Repository) DeleteBillsByCreator(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_by_user_id = ?", userID).
		Delete(&models.Bill{})
	return res.RowsAffected, res.Error
}

// DocumentPathsByUploader returns storage paths for the user's documents.
func (r *Repository) DocumentPathsByUploader(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("uploaded_by_user_id = ?", userID).
		Pluck("object_path", &paths).Error
	return paths, err
}

// DeleteDocumentsByUploader removes document rows the user uploaded.
func (r *Repository) DeleteDocumentsByUploader(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("uploaded_by_user_id = ?", userID).
		Delete(&models.Document{})
	return res.RowsAffected, res.Error
}
