package invitations

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	dbpkg "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/security"
)

// uuidDefault lets sqlite fill primary keys the way gen_random_uuid does in
// production, so inserts that omit the id still get one back.
const uuidDefault = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-' || hex(randomblob(2)) || '-' || hex(randomblob(2)) || '-' || hex(randomblob(6))))`

// setupLifecycleDB opens a file-backed sqlite database in WAL mode. The
// service commits rejection audit entries on a second connection while the
// request transaction is still open, which an in-memory database cannot
// serve.
func setupLifecycleDB(t *testing.T) *dbpkg.Client {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "lifecycle.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	schemas := []string{`
CREATE TABLE IF NOT EXISTS invitations (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  email TEXT NOT NULL,
  role TEXT NOT NULL,
  organization_id TEXT NOT NULL,
  building_id TEXT,
  residence_id TEXT,
  token_hash TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  personal_message TEXT,
  expires_at DATETIME NOT NULL,
  accepted_at DATETIME,
  accepted_by_user_id TEXT,
  created_by_user_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  language TEXT NOT NULL DEFAULT 'fr',
  role TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS membership_edges (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  user_id TEXT NOT NULL,
  scope_kind TEXT NOT NULL,
  scope_id TEXT NOT NULL,
  role TEXT NOT NULL,
  all_access BOOLEAN NOT NULL DEFAULT FALSE,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  invited_by_user_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS audit_log_entries (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  action TEXT NOT NULL,
  invitation_id TEXT,
  permission_override_id TEXT,
  actor_user_id TEXT,
  previous_status TEXT,
  new_status TEXT,
  success BOOLEAN NOT NULL,
  details TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}
	for _, schema := range schemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	return dbpkg.NewWithConn(db)
}

func newLifecycleService(t *testing.T) (*Service, *dbpkg.Client) {
	t.Helper()

	client := setupLifecycleDB(t)
	svc, err := NewService(ServiceParams{
		DB:     client,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Config: config.InvitationConfig{TTL: time.Hour, SweepBatchSize: 2},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	require.NoError(t, err)
	return svc, client
}

func seedPendingInvitation(t *testing.T, client *dbpkg.Client, email, rawToken string, expiresAt time.Time) *models.Invitation {
	t.Helper()

	inv := &models.Invitation{
		ID:             uuid.New(),
		Email:          email,
		Role:           enums.UserRoleTenant,
		OrganizationID: uuid.New(),
		TokenHash:      security.HashInviteToken(rawToken),
		Status:         enums.InvitationStatusPending,
		ExpiresAt:      expiresAt,
	}
	require.NoError(t, client.DB().Create(inv).Error)
	return inv
}

func acceptProfile() AcceptInput {
	return AcceptInput{
		Password:              "tr3s-s3curepass",
		FirstName:             " Marie ",
		LastName:              "Tremblay",
		DataCollectionConsent: true,
		RightsAcknowledged:    true,
	}
}

func failedAttemptCount(t *testing.T, client *dbpkg.Client) int64 {
	t.Helper()

	var count int64
	require.NoError(t, client.DB().
		Model(&models.AuditLogEntry{}).
		Where("action = ? AND success = ?", enums.AuditValidationAttempt, false).
		Count(&count).Error)
	return count
}

func TestCreateValidateAcceptRoundTrip(t *testing.T) {
	svc, client := newLifecycleService(t)
	ctx := context.Background()

	actor := uuid.New()
	orgID := uuid.New()

	dto, err := svc.Create(ctx, &actor, CreateInvitationInput{
		Email:          "Marie.Tremblay@Example.com",
		Role:           enums.UserRoleTenant,
		OrganizationID: orgID,
	})
	require.NoError(t, err)
	assert.Equal(t, "marie.tremblay@example.com", dto.Email)
	require.NotEmpty(t, dto.RawToken)

	_, err = svc.Create(ctx, &actor, CreateInvitationInput{
		Email:          "marie.tremblay@example.com",
		Role:           enums.UserRoleTenant,
		OrganizationID: orgID,
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "duplicate pending must conflict, got %v", err)

	validated, err := svc.Validate(ctx, dto.RawToken)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, validated.ID)

	result, err := svc.Accept(ctx, dto.RawToken, acceptProfile())
	require.NoError(t, err)
	assert.Equal(t, "Marie", result.User.FirstName)
	assert.Equal(t, "marie.tremblay", result.User.Username)
	assert.Equal(t, enums.UserRoleTenant, result.User.Role)
	assert.Equal(t, "fr", result.User.Language)

	var row models.Invitation
	require.NoError(t, client.DB().First(&row, "id = ?", dto.ID).Error)
	assert.Equal(t, enums.InvitationStatusAccepted, row.Status)
	require.NotNil(t, row.AcceptedByUserID)
	assert.Equal(t, result.User.ID, *row.AcceptedByUserID)

	var edges []models.MembershipEdge
	require.NoError(t, client.DB().Where("user_id = ?", result.User.ID).Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.Equal(t, enums.ScopeOrganization, edges[0].ScopeKind)
	assert.Equal(t, orgID, edges[0].ScopeID)
	assert.True(t, edges[0].AllAccess)
	assert.True(t, edges[0].IsActive)

	var events int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(2), events)

	trail, err := svc.Trail(ctx, dto.ID)
	require.NoError(t, err)
	actions := make([]enums.AuditAction, 0, len(trail))
	for _, entry := range trail {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, enums.AuditInvitationCreated)
	assert.Contains(t, actions, enums.AuditValidationAttempt)
	assert.Contains(t, actions, enums.AuditInvitationAccepted)

	// A second redemption loses and still leaves a trail entry behind.
	_, err = svc.Accept(ctx, dto.RawToken, acceptProfile())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "second accept must be a state conflict, got %v", err)
	assert.Equal(t, int64(1), failedAttemptCount(t, client))
}

func TestValidateUnknownTokenStillAudits(t *testing.T) {
	svc, client := newLifecycleService(t)

	_, err := svc.Validate(context.Background(), "not-a-real-token")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "unknown token must read as not found, got %v", err)

	var entries []models.AuditLogEntry
	require.NoError(t, client.DB().Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.AuditValidationAttempt, entries[0].Action)
	assert.False(t, entries[0].Success)
	assert.Nil(t, entries[0].InvitationID)
}

func TestValidateExpiredTokenPersistsTransition(t *testing.T) {
	svc, client := newLifecycleService(t)
	ctx := context.Background()

	inv := seedPendingInvitation(t, client, "stale@example.com", "stale-raw-token", time.Now().Add(-time.Hour))

	_, err := svc.Validate(ctx, "stale-raw-token")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "expired token must be a state conflict, got %v", err)

	// Both the transition and its audit entries survive the rejection.
	var row models.Invitation
	require.NoError(t, client.DB().First(&row, "id = ?", inv.ID).Error)
	assert.Equal(t, enums.InvitationStatusExpired, row.Status)

	trail, err := svc.Trail(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, enums.AuditInvitationExpired, trail[0].Action)
	assert.Equal(t, enums.AuditValidationAttempt, trail[1].Action)
	assert.False(t, trail[1].Success)

	// A later validate sees the terminal row and audits again, without a
	// second transition entry.
	_, err = svc.Validate(ctx, "stale-raw-token")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, int64(2), failedAttemptCount(t, client))
}

func TestAcceptWhenUserAlreadyExistsKeepsInvitationPending(t *testing.T) {
	svc, client := newLifecycleService(t)
	ctx := context.Background()

	inv := seedPendingInvitation(t, client, "jean@example.com", "jean-raw-token", time.Now().Add(time.Hour))
	require.NoError(t, client.DB().Create(&models.User{
		ID:           uuid.New(),
		Email:        "jean@example.com",
		Username:     "jean",
		PasswordHash: "argon2-hash",
		FirstName:    "Jean",
		LastName:     "Bouchard",
		Language:     "fr",
		Role:         enums.UserRoleTenant,
		IsActive:     true,
	}).Error)

	_, err := svc.Accept(ctx, "jean-raw-token", acceptProfile())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "existing user must conflict, got %v", err)

	// The token is not burned by the rejected attempt.
	var row models.Invitation
	require.NoError(t, client.DB().First(&row, "id = ?", inv.ID).Error)
	assert.Equal(t, enums.InvitationStatusPending, row.Status)

	trail, err := svc.Trail(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.False(t, trail[0].Success)

	var details map[string]any
	require.NoError(t, json.Unmarshal(trail[0].Details, &details))
	assert.Equal(t, "user_exists", details["reason"])
}

func TestSweepExpiredAuditsEveryRow(t *testing.T) {
	svc, client := newLifecycleService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedPendingInvitation(t, client,
			fmt.Sprintf("stale%d@example.com", i),
			fmt.Sprintf("stale-token-%d", i),
			time.Now().Add(-time.Hour))
	}
	live := seedPendingInvitation(t, client, "live@example.com", "live-token", time.Now().Add(time.Hour))

	// SweepBatchSize is 2, so three rows take two batches.
	total, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	var expired int64
	require.NoError(t, client.DB().
		Model(&models.Invitation{}).
		Where("status = ?", enums.InvitationStatusExpired).
		Count(&expired).Error)
	assert.Equal(t, int64(3), expired)

	var liveRow models.Invitation
	require.NoError(t, client.DB().First(&liveRow, "id = ?", live.ID).Error)
	assert.Equal(t, enums.InvitationStatusPending, liveRow.Status)

	var transitions int64
	require.NoError(t, client.DB().
		Model(&models.AuditLogEntry{}).
		Where("action = ?", enums.AuditInvitationExpired).
		Count(&transitions).Error)
	assert.Equal(t, int64(3), transitions)

	again, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again)
}
