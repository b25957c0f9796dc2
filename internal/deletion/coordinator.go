package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/access"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/audit"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/invitations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/notifications"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/organizations"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/records"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	dbpkg "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox"
)

// ObjectRemover deletes a stored document object. The GCS bucket satisfies
// it; tests substitute a recorder.
type ObjectRemover interface {
	Delete(ctx context.Context, objectPath string) error
}

// Coordinator runs the destructive cascades. Each cascade is a fixed,
// dependency-ordered sequence of idempotent steps inside one transaction:
// either the whole hierarchy comes down or none of it does. Stored objects
// are the only exception; their removal is best effort after commit, since
// the bucket cannot join the transaction.
type Coordinator struct {
	db      *dbpkg.Client
	objects ObjectRemover
	outbox  *outbox.Service
	cfg     config.DeletionConfig
	logg    *logger.Logger
}

// CoordinatorParams packages the coordinator dependencies. Objects may be
// nil, in which case stored documents are orphaned rather than removed.
type CoordinatorParams struct {
	DB      *dbpkg.Client
	Objects ObjectRemover
	Outbox  *outbox.Service
	Config  config.DeletionConfig
	Logger  *logger.Logger
}

// NewCoordinator builds a deletion coordinator.
func NewCoordinator(params CoordinatorParams) (*Coordinator, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.Config.CascadeTimeout <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cascade timeout must be positive")
	}
	return &Coordinator{
		db:      params.DB,
		objects: params.Objects,
		outbox:  params.Outbox,
		cfg:     params.Config,
		logg:    params.Logger,
	}, nil
}

// Summary reports how many rows each cascade step touched, keyed by step
// name in execution order.
type Summary struct {
	Steps map[string]int64 `json:"steps"`
}

func newSummary() *Summary {
	return &Summary{Steps: make(map[string]int64)}
}

func (s *Summary) record(step string, count int64) {
	s.Steps[step] += count
}

// DeleteOrganization tears down an organization and everything under it:
// residence records from the inside out, then residences, buildings, edges
// and finally the organization row itself, which is soft-deactivated.
func (c *Coordinator) DeleteOrganization(ctx context.Context, actor *uuid.UUID, orgID uuid.UUID) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CascadeTimeout)
	defer cancel()

	summary := newSummary()
	var doomedObjects []string

	err := c.db.WithTx(ctx, func(tx *gorm.DB) error {
		orgRepo := organizations.NewRepository(tx)
		recordRepo := records.NewRepository(tx)
		membershipRepo := memberships.NewRepository(tx)

		if _, err := orgRepo.FindOrganization(ctx, orgID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load organization")
		}

		// Clear out users already orphaned by earlier deletions, so the
		// blast radius recorded below reflects this cascade alone.
		prepass, err := c.deactivateOrphans(ctx, tx)
		if err != nil {
			return translateCascadeErr(err, "orphan pre-pass")
		}
		summary.record("orphan_prepass", prepass)

		buildingIDs, err := orgRepo.BuildingIDs(ctx, orgID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list buildings")
		}
		residenceIDs, err := orgRepo.ResidenceIDs(ctx, buildingIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list residences")
		}

		demandIDs, err := recordRepo.DemandIDsByResidences(ctx, residenceIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list demands")
		}

		residencePaths, err := recordRepo.DocumentPathsByResidences(ctx, residenceIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list residence documents")
		}
		buildingPaths, err := recordRepo.DocumentPathsByBuildings(ctx, buildingIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list building documents")
		}
		doomedObjects = append(doomedObjects, residencePaths...)
		doomedObjects = append(doomedObjects, buildingPaths...)

		steps := []struct {
			name string
			run  func() (int64, error)
		}{
			{"residence_comments", func() (int64, error) {
				return recordRepo.DeleteCommentsByDemands(ctx, demandIDs)
			}},
			{"residence_demands", func() (int64, error) {
				return recordRepo.DeleteDemandsByResidences(ctx, residenceIDs)
			}},
			{"residence_documents", func() (int64, error) {
				return recordRepo.DeleteDocumentsByResidences(ctx, residenceIDs)
			}},
			{"residence_bills", func() (int64, error) {
				return recordRepo.DeleteBillsByResidences(ctx, residenceIDs)
			}},
			{"residence_membership_edges", func() (int64, error) {
				return membershipRepo.DeactivateByScopeIDs(ctx, enums.ScopeResidence, residenceIDs)
			}},
			{"residences", func() (int64, error) {
				return orgRepo.DeactivateResidences(ctx, residenceIDs)
			}},
			{"building_documents", func() (int64, error) {
				return recordRepo.DeleteDocumentsByBuildings(ctx, buildingIDs)
			}},
			{"building_membership_edges", func() (int64, error) {
				return membershipRepo.DeactivateByScopeIDs(ctx, enums.ScopeBuilding, buildingIDs)
			}},
			{"buildings", func() (int64, error) {
				return orgRepo.DeactivateBuildings(ctx, buildingIDs)
			}},
			{"pending_invitations", func() (int64, error) {
				return invitations.NewRepository(tx).DeletePendingByOrganization(ctx, orgID)
			}},
			{"organization_membership_edges", func() (int64, error) {
				return membershipRepo.DeactivateByScope(ctx, enums.ScopeOrganization, orgID)
			}},
			{"orphaned_users", func() (int64, error) {
				return c.deactivateOrphans(ctx, tx)
			}},
			{"organization", func() (int64, error) {
				return orgRepo.DeactivateOrganization(ctx, orgID)
			}},
		}
		for _, step := range steps {
			count, err := step.run()
			if err != nil {
				return translateCascadeErr(err, "cascade step "+step.name)
			}
			summary.record(step.name, count)
		}

		if err := audit.NewRepository(tx).Append(ctx, audit.EntityRemoval(
			enums.AuditOrganizationDeleted, actor, map[string]any{
				"organization_id": orgID,
				"steps":           summary.Steps,
			},
		)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record organization deletion")
		}

		return c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrganizationDeleted,
			AggregateType: enums.AggregateOrganization,
			AggregateID:   orgID,
			Actor:         outbox.ActorFromUserID(actor),
			Data: map[string]any{
				"organization_id": orgID,
				"steps":           summary.Steps,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, translateCascadeErr(err, "delete organization")
	}

	c.removeObjects(ctx, doomedObjects)

	if c.logg != nil {
		c.logg.Info(c.logg.WithOrganizationID(ctx, orgID.String()), "organization cascade complete")
	}
	return summary, nil
}

// DeleteUser removes a user and the records they authored. Records other
// users created in the same residences are untouched. Admins cannot be
// deleted while they are the only active admin left.
func (c *Coordinator) DeleteUser(ctx context.Context, actor *uuid.UUID, userID uuid.UUID) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CascadeTimeout)
	defer cancel()

	summary := newSummary()
	var doomedObjects []string

	err := c.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		recordRepo := records.NewRepository(tx)

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		if user.Role.IsAdmin() && user.IsActive {
			admins, err := access.CountActiveAdmins(ctx, tx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count admins")
			}
			if admins <= 1 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete the last active administrator")
			}
		}

		demandIDs, err := recordRepo.DemandIDsBySubmitter(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user demands")
		}
		paths, err := recordRepo.DocumentPathsByUploader(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user documents")
		}
		doomedObjects = append(doomedObjects, paths...)

		steps := []struct {
			name string
			run  func() (int64, error)
		}{
			{"comments", func() (int64, error) {
				return recordRepo.DeleteCommentsByUser(ctx, userID)
			}},
			{"demand_comments", func() (int64, error) {
				return recordRepo.DeleteCommentsByDemands(ctx, demandIDs)
			}},
			{"demands", func() (int64, error) {
				return recordRepo.DeleteDemandsByIDs(ctx, demandIDs)
			}},
			{"bills", func() (int64, error) {
				return recordRepo.DeleteBillsByCreator(ctx, userID)
			}},
			{"documents", func() (int64, error) {
				return recordRepo.DeleteDocumentsByUploader(ctx, userID)
			}},
			{"notifications", func() (int64, error) {
				return notifications.NewRepository(tx).DeleteByUser(ctx, userID)
			}},
			{"permission_overrides", func() (int64, error) {
				return access.NewOverrideRepository(tx).DeleteByUser(ctx, userID)
			}},
			{"membership_edges", func() (int64, error) {
				return memberships.NewRepository(tx).DeleteByUser(ctx, userID)
			}},
			{"accepted_invitations_unlinked", func() (int64, error) {
				return invitations.NewRepository(tx).UnlinkAcceptedBy(ctx, userID)
			}},
		}
		for _, step := range steps {
			count, err := step.run()
			if err != nil {
				return translateCascadeErr(err, "cascade step "+step.name)
			}
			summary.record(step.name, count)
		}

		if err := audit.NewRepository(tx).Append(ctx, audit.EntityRemoval(
			enums.AuditUserDeleted, actor, map[string]any{
				"user_id": userID,
				"email":   user.Email,
				"steps":   summary.Steps,
			},
		)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record user deletion")
		}

		if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserDeleted,
			AggregateType: enums.AggregateUser,
			AggregateID:   userID,
			Actor:         outbox.ActorFromUserID(actor),
			Data: map[string]any{
				"user_id": userID,
				"email":   user.Email,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		if err := userRepo.Delete(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user row")
		}
		summary.record("user", 1)
		return nil
	})
	if err != nil {
		return nil, translateCascadeErr(err, "delete user")
	}

	c.removeObjects(ctx, doomedObjects)

	if c.logg != nil {
		c.logg.Info(c.logg.WithUserID(ctx, userID.String()), "user cascade complete")
	}
	return summary, nil
}

// SweepOrphans deactivates active users who no longer hold any active
// organization membership. Safe to re-run at any time.
func (c *Coordinator) SweepOrphans(ctx context.Context) (int64, error) {
	var total int64

	err := c.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := c.deactivateOrphans(ctx, tx)
		if err != nil {
			return err
		}
		total = affected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// deactivateOrphans runs inside a caller-owned transaction. The organization
// cascade reuses it so users stripped of their last membership never survive
// the same commit.
func (c *Coordinator) deactivateOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	ids, err := memberships.NewRepository(tx).OrphanedUserIDs(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scan for orphaned users")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	affected, err := users.NewRepository(tx).DeactivateMany(ctx, ids)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate orphaned users")
	}

	auditRepo := audit.NewRepository(tx)
	for _, id := range ids {
		if err := auditRepo.Append(ctx, audit.EntityRemoval(
			enums.AuditUserDeactivated, nil, map[string]any{
				"user_id": id,
				"reason":  "no_active_organization_membership",
			},
		)); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record orphan deactivation")
		}
		if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserDeactivated,
			AggregateType: enums.AggregateUser,
			AggregateID:   id,
			Data: map[string]any{
				"user_id": id,
				"reason":  "no_active_organization_membership",
			},
			Version: 1,
		}); err != nil {
			return 0, err
		}
	}
	return affected, nil
}

// removeObjects deletes stored documents after the cascade committed.
// Failures are aggregated and logged once: the database is already
// consistent and a later bucket lifecycle rule can collect the leftovers.
func (c *Coordinator) removeObjects(ctx context.Context, paths []string) {
	if c.objects == nil || len(paths) == 0 {
		return
	}
	// Detach from the cascade deadline, which may already be spent.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	var errs []error
	for _, path := range paths {
		if err := c.objects.Delete(cleanupCtx, path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	if combined := multierr.Combine(errs...); combined != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(cleanupCtx, "error", combined.Error()), "document object cleanup incomplete")
	}
}

// translateCascadeErr keeps typed errors intact and maps deadline expiry to
// TIMEOUT so callers can tell an aborted cascade from a storage fault.
func translateCascadeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
