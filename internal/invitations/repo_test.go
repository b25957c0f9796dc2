//go:build db
// +build db

package invitations

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/security"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("KOVEO_DB_DSN")
	if dsn == "" {
		t.Skip("KOVEO_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func seedInvitation(t *testing.T, tx *gorm.DB, expiresAt time.Time) *models.Invitation {
	t.Helper()

	org := &models.Organization{ID: uuid.New(), Name: "Gestion Test", Address: "1 rue Test", City: "Montréal", IsActive: true}
	if err := tx.Create(org).Error; err != nil {
		t.Fatalf("create org: %v", err)
	}

	_, hash, err := security.GenerateInviteToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	inv := &models.Invitation{
		ID:             uuid.New(),
		Email:          fmt.Sprintf("invitee_%s@example.com", uuid.NewString()),
		Role:           enums.UserRoleTenant,
		OrganizationID: org.ID,
		TokenHash:      hash,
		Status:         enums.InvitationStatusPending,
		ExpiresAt:      expiresAt,
	}
	if err := tx.Create(inv).Error; err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	return inv
}

func TestMarkAcceptedWinsExactlyOnce(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()
	inv := seedInvitation(t, tx, time.Now().Add(time.Hour))

	first, err := repo.MarkAccepted(ctx, inv.ID, time.Now())
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first accept to win, affected %d", first)
	}

	second, err := repo.MarkAccepted(ctx, inv.ID, time.Now())
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if second != 0 {
		t.Fatalf("second accept must lose, affected %d", second)
	}

	reread, err := repo.FindByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if reread.Status != enums.InvitationStatusAccepted {
		t.Fatalf("expected accepted, got %s", reread.Status)
	}
}

func TestSweepExpiredBatchLeavesLiveRowsAlone(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()

	stale := seedInvitation(t, tx, time.Now().Add(-time.Hour))
	live := seedInvitation(t, tx, time.Now().Add(time.Hour))

	swept, err := repo.SweepExpiredBatch(ctx, time.Now(), 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	sweptStale := false
	for _, id := range swept {
		if id == live.ID {
			t.Fatal("sweep must not touch unexpired invitations")
		}
		if id == stale.ID {
			sweptStale = true
		}
	}
	if !sweptStale {
		t.Fatal("expected the stale invitation to be swept")
	}

	again, err := repo.SweepExpiredBatch(ctx, time.Now(), 100)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	for _, id := range again {
		if id == stale.ID {
			t.Fatal("a swept invitation must not be swept twice")
		}
	}
}

func TestHasPendingSeesOnlyPendingRows(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() { _ = tx.Rollback() })

	repo := NewRepository(tx)
	ctx := context.Background()
	inv := seedInvitation(t, tx, time.Now().Add(time.Hour))

	pending, err := repo.HasPending(ctx, inv.Email, inv.OrganizationID)
	if err != nil {
		t.Fatalf("has pending: %v", err)
	}
	if !pending {
		t.Fatal("expected a pending invitation")
	}

	if _, err := repo.MarkCancelled(ctx, inv.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	pending, err = repo.HasPending(ctx, inv.Email, inv.OrganizationID)
	if err != nil {
		t.Fatalf("has pending after cancel: %v", err)
	}
	if pending {
		t.Fatal("cancelled invitations must not block re-invites")
	}
}
