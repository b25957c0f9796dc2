package records

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
)

func setupRecordsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	bills := `
CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  residence_id TEXT NOT NULL,
  created_by_user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  due_date DATETIME NOT NULL,
  paid BOOLEAN NOT NULL DEFAULT FALSE,
  created_at DATETIME,
  updated_at DATETIME
);`
	demands := `
CREATE TABLE IF NOT EXISTS demands (
  id TEXT PRIMARY KEY,
  residence_id TEXT NOT NULL,
  submitter_user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'submitted',
  created_at DATETIME,
  updated_at DATETIME
);`
	comments := `
CREATE TABLE IF NOT EXISTS comments (
  id TEXT PRIMARY KEY,
  demand_id TEXT NOT NULL,
  author_user_id TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	documents := `
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  building_id TEXT,
  residence_id TEXT,
  uploaded_by_user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  object_path TEXT NOT NULL,
  content_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, schema := range []string{bills, demands, comments, documents} {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func createDemandWithComment(t *testing.T, repo *Repository, residenceID, userID uuid.UUID) *models.Demand {
	t.Helper()
	ctx := context.Background()

	demand := &models.Demand{
		ID:              uuid.New(),
		ResidenceID:     residenceID,
		SubmitterUserID: userID,
		Type:            "maintenance",
		Description:     "leaking faucet",
		Status:          "submitted",
	}
	require.NoError(t, repo.CreateDemand(ctx, demand))
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{
		ID:           uuid.New(),
		DemandID:     demand.ID,
		AuthorUserID: userID,
		Body:         "plumber booked",
	}))
	return demand
}

func TestRepositoryResidenceCascade(t *testing.T) {
	db := setupRecordsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	residenceID := uuid.New()
	otherResidenceID := uuid.New()
	userID := uuid.New()

	demand := createDemandWithComment(t, repo, residenceID, userID)
	otherDemand := createDemandWithComment(t, repo, otherResidenceID, userID)

	require.NoError(t, repo.CreateBill(ctx, &models.Bill{
		ID:              uuid.New(),
		ResidenceID:     residenceID,
		CreatedByUserID: userID,
		Title:           "July rent",
		Amount:          decimal.NewFromInt(1250),
		DueDate:         time.Now().UTC(),
	}))

	demandIDs, err := repo.DemandIDsByResidences(ctx, []uuid.UUID{residenceID})
	require.NoError(t, err)
	require.Len(t, demandIDs, 1)
	assert.Equal(t, demand.ID, demandIDs[0])

	// Comments first, then their demands, then bills.
	removed, err := repo.DeleteCommentsByDemands(ctx, demandIDs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteDemandsByResidences(ctx, []uuid.UUID{residenceID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteBillsByResidences(ctx, []uuid.UUID{residenceID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The other residence keeps its rows.
	remaining, err := repo.DemandIDsByResidences(ctx, []uuid.UUID{otherResidenceID})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, otherDemand.ID, remaining[0])
}

func TestRepositoryDocumentPaths(t *testing.T) {
	db := setupRecordsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	residenceID := uuid.New()
	buildingID := uuid.New()
	userID := uuid.New()

	residenceDoc := &models.Document{
		ID:               uuid.New(),
		ResidenceID:      &residenceID,
		UploadedByUserID: userID,
		Name:             "lease.pdf",
		ObjectPath:       "documents/residence/lease.pdf",
		ContentType:      "application/pdf",
	}
	require.NoError(t, repo.CreateDocument(ctx, residenceDoc))
	require.NoError(t, repo.CreateDocument(ctx, &models.Document{
		ID:               uuid.New(),
		BuildingID:       &buildingID,
		UploadedByUserID: userID,
		Name:             "insurance.pdf",
		ObjectPath:       "documents/building/insurance.pdf",
		ContentType:      "application/pdf",
	}))

	paths, err := repo.DocumentPathsByResidences(ctx, []uuid.UUID{residenceID})
	require.NoError(t, err)
	assert.Equal(t, []string{"documents/residence/lease.pdf"}, paths)

	paths, err = repo.DocumentPathsByBuildings(ctx, []uuid.UUID{buildingID})
	require.NoError(t, err)
	assert.Equal(t, []string{"documents/building/insurance.pdf"}, paths)

	removed, err := repo.DeleteDocumentsByResidences(ctx, []uuid.UUID{residenceID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteDocumentsByBuildings(ctx, []uuid.UUID{buildingID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	paths, err = repo.DocumentPathsByResidences(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRepositoryUserOwnedRecords(t *testing.T) {
	db := setupRecordsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	residenceID := uuid.New()
	userID := uuid.New()
	otherUserID := uuid.New()

	mine := createDemandWithComment(t, repo, residenceID, userID)
	createDemandWithComment(t, repo, residenceID, otherUserID)

	require.NoError(t, repo.CreateBill(ctx, &models.Bill{
		ID:              uuid.New(),
		ResidenceID:     residenceID,
		CreatedByUserID: userID,
		Title:           "Parking fee",
		Amount:          decimal.NewFromInt(45),
		DueDate:         time.Now().UTC(),
	}))
	require.NoError(t, repo.CreateDocument(ctx, &models.Document{
		ID:               uuid.New(),
		ResidenceID:      &residenceID,
		UploadedByUserID: userID,
		Name:             "proof-of-payment.pdf",
		ObjectPath:       "documents/residence/proof-of-payment.pdf",
		ContentType:      "application/pdf",
	}))

	demandIDs, err := repo.DemandIDsBySubmitter(ctx, userID)
	require.NoError(t, err)
	require.Len(t, demandIDs, 1)
	assert.Equal(t, mine.ID, demandIDs[0])

	removed, err := repo.DeleteCommentsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteDemandsByIDs(ctx, demandIDs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteBillsByCreator(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	paths, err := repo.DocumentPathsByUploader(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"documents/residence/proof-of-payment.pdf"}, paths)

	removed, err = repo.DeleteDocumentsByUploader(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The other submitter's demand and comment survive.
	otherIDs, err := repo.DemandIDsBySubmitter(ctx, otherUserID)
	require.NoError(t, err)
	assert.Len(t, otherIDs, 1)
}
