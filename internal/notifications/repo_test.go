package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL DEFAULT '',
  data TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, created time.Time, readAt *time.Time) *models.Notification {
	t.Helper()

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      "invitation.accepted",
		Title:     title,
		ReadAt:    readAt,
		CreatedAt: created,
	}
	require.NoError(t, db.Create(notification).Error)
	return notification
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	createNotification(t, db, userID, "oldest", now.Add(-2*time.Hour), nil)
	createNotification(t, db, userID, "middle", now.Add(-time.Hour), nil)
	createNotification(t, db, userID, "newest", now, nil)
	createNotification(t, db, uuid.New(), "other inbox", now, nil)

	rows, next, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, next)
	assert.Equal(t, "newest", rows[0].Title)
	assert.Equal(t, "middle", rows[1].Title)

	second, final, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "oldest", second[0].Title)
	assert.Nil(t, final)
}

func TestRepositoryList_unreadOnly(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	readAt := now.Add(-time.Minute)
	createNotification(t, db, userID, "already read", now.Add(-time.Hour), &readAt)
	createNotification(t, db, userID, "still unread", now, nil)

	rows, next, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "still unread", rows[0].Title)
	assert.Nil(t, next)
}

func TestRepositoryMarkRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	notification := createNotification(t, db, userID, "unread", now, nil)

	mark, err := repo.MarkRead(context.Background(), userID, notification.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	again, err := repo.MarkRead(context.Background(), userID, notification.ID, now)
	require.NoError(t, err)
	assert.True(t, again.Found)
	assert.False(t, again.Updated)

	missing, err := repo.MarkRead(context.Background(), userID, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.False(t, missing.Updated)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	createNotification(t, db, userID, "first", now.Add(-time.Hour), nil)
	createNotification(t, db, userID, "second", now, nil)
	createNotification(t, db, uuid.New(), "other inbox", now, nil)

	updated, err := repo.MarkAllRead(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	rows, _, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryRetentionAndUserCleanup(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC()
	readAt := now.Add(-48 * time.Hour)
	createNotification(t, db, userID, "old and read", now.Add(-72*time.Hour), &readAt)
	createNotification(t, db, userID, "old but unread", now.Add(-72*time.Hour), nil)
	createNotification(t, db, userID, "recent", now, nil)

	removed, err := repo.DeleteOlderThan(context.Background(), nil, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := repo.DeleteByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)
}
