package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/audit"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/memberships"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	dbpkg "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/security"
)

// pendingUniqueConstraint backs the at-most-one-pending rule in the database.
const pendingUniqueConstraint = "ux_invitations_pending_email_org"

// Service drives the invitation state machine: pending is the only live
// state, and accepted, expired and cancelled are terminal. Expiry is lazy;
// nothing polls for it outside the sweep job.
type Service struct {
	db          *dbpkg.Client
	vault       TokenVault
	outbox      *outbox.Service
	cfg         config.InvitationConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams packages the dependencies for the invitation service.
type ServiceParams struct {
	DB             *dbpkg.Client
	Outbox         *outbox.Service
	Config         config.InvitationConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService builds the invitation service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.Config.TTL <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invitation TTL must be positive")
	}
	return &Service{
		db:          params.DB,
		outbox:      params.Outbox,
		cfg:         params.Config,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

// Create issues a new invitation and returns it with the raw token. The raw
// token appears in this response and nowhere else.
func (s *Service) Create(ctx context.Context, actor *uuid.UUID, input CreateInvitationInput) (*InvitationDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if input.OrganizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization_id is required")
	}
	if input.ResidenceID != nil && input.BuildingID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "residence scope requires a building")
	}

	raw, hash, err := s.vault.Issue()
	if err != nil {
		return nil, err
	}

	invitation := &models.Invitation{
		Email:           email,
		Role:            input.Role,
		OrganizationID:  input.OrganizationID,
		BuildingID:      input.BuildingID,
		ResidenceID:     input.ResidenceID,
		TokenHash:       hash,
		Status:          enums.InvitationStatusPending,
		PersonalMessage: input.PersonalMessage,
		ExpiresAt:       time.Now().Add(s.cfg.TTL),
		CreatedByUserID: actor,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		exists, err := repo.HasPending(ctx, email, input.OrganizationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending invitations")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "a pending invitation already exists for this email in this organization")
		}

		if err := repo.Create(ctx, invitation); err != nil {
			if dbpkg.IsUniqueViolation(err, pendingUniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "a pending invitation already exists for this email in this organization")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invitation")
		}

		if err := audit.NewRepository(tx).Append(ctx, audit.InvitationCreated(invitation.ID, actor)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record invitation creation")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvitationCreated,
			AggregateType: enums.AggregateInvitation,
			AggregateID:   invitation.ID,
			Actor:         outbox.ActorFromUserID(actor),
			Data: map[string]any{
				"invitation_id":   invitation.ID,
				"email":           invitation.Email,
				"role":            invitation.Role,
				"organization_id": invitation.OrganizationID,
				"expires_at":      invitation.ExpiresAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithInvitationID(ctx, invitation.ID.String()), "invitation created")
	}

	dto := ToDTO(invitation)
	dto.RawToken = raw
	return dto, nil
}

// Validate resolves a raw token for display. Tokens past their deadline are
// expired in place; terminal invitations are rejected. Every call records a
// validation_attempt entry regardless of outcome.
func (s *Service) Validate(ctx context.Context, rawToken string) (*InvitationDTO, error) {
	var dto *InvitationDTO

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.resolvePending(ctx, tx, rawToken)
		if err != nil {
			return err
		}

		if err := audit.NewRepository(tx).Append(ctx, audit.ValidationAttempt(&inv.ID, true, "")); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record validation attempt")
		}

		dto = ToDTO(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Accept redeems a token: flips the invitation to accepted, provisions the
// user, and wires membership edges from the invitation scope. The status
// check and the transition are one conditional update that runs before the
// user insert, so of two concurrent callers on the same token exactly one
// succeeds and the loser never reaches the users table.
func (s *Service) Accept(ctx context.Context, rawToken string, input AcceptInput) (*AcceptResult, error) {
	if !input.DataCollectionConsent || !input.RightsAcknowledged {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "data collection consent and rights acknowledgment are required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var result *AcceptResult

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		auditRepo := audit.NewRepository(tx)

		inv, err := s.resolvePending(ctx, tx, rawToken)
		if err != nil {
			return err
		}

		userRepo := users.NewRepository(tx)
		if _, err := userRepo.FindByEmail(ctx, inv.Email); err == nil {
			return s.rejectToken(ctx, &inv.ID, "user_exists",
				pkgerrors.New(pkgerrors.CodeConflict, "a user already exists for this email"))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		username, err := deriveUsername(ctx, userRepo, inv.Email)
		if err != nil {
			return err
		}

		invRepo := NewRepository(tx)
		now := time.Now()
		affected, err := invRepo.MarkAccepted(ctx, inv.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accept invitation")
		}
		if affected == 0 {
			// Lost the race to another accept or the sweep.
			return s.classifyLostTransition(ctx, inv.ID)
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        inv.Email,
			Username:     username,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			Phone:        input.Phone,
			Language:     input.Language,
			Role:         inv.Role,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return s.rejectToken(ctx, &inv.ID, "user_exists",
					pkgerrors.New(pkgerrors.CodeConflict, "a user already exists for this email"))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if err := invRepo.SetAcceptedBy(ctx, inv.ID, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link accepting user")
		}

		if err := s.createEdges(ctx, tx, inv, user.ID); err != nil {
			return err
		}

		if err := auditRepo.Append(ctx, audit.InvitationTransition(
			inv.ID, enums.AuditInvitationAccepted, &user.ID,
			enums.InvitationStatusPending, enums.InvitationStatusAccepted,
		)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record acceptance")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvitationAccepted,
			AggregateType: enums.AggregateInvitation,
			AggregateID:   inv.ID,
			Actor:         outbox.ActorFromUserID(&user.ID),
			Data: map[string]any{
				"invitation_id":   inv.ID,
				"user_id":         user.ID,
				"email":           inv.Email,
				"role":            inv.Role,
				"organization_id": inv.OrganizationID,
				"ip":              input.IP,
				"user_agent":      input.UserAgent,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		inv.Status = enums.InvitationStatusAccepted
		inv.AcceptedAt = &now
		inv.AcceptedByUserID = &user.ID
		result = &AcceptResult{User: users.FromModel(user), Invitation: ToDTO(inv)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithInvitationID(ctx, result.Invitation.ID.String())
		s.logg.Info(s.logg.WithUserID(logCtx, result.User.ID.String()), "invitation accepted")
	}
	return result, nil
}

// Cancel retracts a pending invitation. Any other starting status is an
// invalid transition.
func (s *Service) Cancel(ctx context.Context, invitationID uuid.UUID, actor *uuid.UUID) (*InvitationDTO, error) {
	var dto *InvitationDTO

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		inv, err := repo.FindByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invitation")
		}

		affected, err := repo.MarkCancelled(ctx, inv.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel invitation")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel an invitation in status %s", inv.Status))
		}

		if err := audit.NewRepository(tx).Append(ctx, audit.InvitationTransition(
			inv.ID, enums.AuditInvitationCancelled, actor,
			enums.InvitationStatusPending, enums.InvitationStatusCancelled,
		)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record cancellation")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvitationCancelled,
			AggregateType: enums.AggregateInvitation,
			AggregateID:   inv.ID,
			Actor:         outbox.ActorFromUserID(actor),
			Data: map[string]any{
				"invitation_id":   inv.ID,
				"organization_id": inv.OrganizationID,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		inv.Status = enums.InvitationStatusCancelled
		dto = ToDTO(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// SweepExpired expires all pending invitations past their deadline, in
// batches, and returns the total count. Safe to run concurrently with
// accepts and with itself.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	batch := s.cfg.SweepBatchSize
	if batch <= 0 {
		batch = 500
	}

	var total int64
	for {
		var ids []uuid.UUID
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			swept, err := NewRepository(tx).SweepExpiredBatch(ctx, time.Now(), batch)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sweep expired invitations")
			}
			auditRepo := audit.NewRepository(tx)
			for _, id := range swept {
				if err := auditRepo.Append(ctx, audit.InvitationTransition(
					id, enums.AuditInvitationExpired, nil,
					enums.InvitationStatusPending, enums.InvitationStatusExpired,
				)); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record expiry")
				}
			}
			ids = swept
			return nil
		})
		if err != nil {
			return total, err
		}
		total += int64(len(ids))
		if len(ids) < batch {
			return total, nil
		}
	}
}

// Get loads a single invitation by id.
func (s *Service) Get(ctx context.Context, invitationID uuid.UUID) (*InvitationDTO, error) {
	inv, err := NewRepository(s.db.DB()).FindByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invitation")
	}
	return ToDTO(inv), nil
}

// ListByOrganization returns an organization's invitations.
func (s *Service) ListByOrganization(ctx context.Context, orgID uuid.UUID, status *enums.InvitationStatus) ([]InvitationDTO, error) {
	rows, err := NewRepository(s.db.DB()).ListByOrganization(ctx, orgID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invitations")
	}
	out := make([]InvitationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToDTO(&rows[i]))
	}
	return out, nil
}

// Trail returns the audit history of one invitation, oldest entry first.
func (s *Service) Trail(ctx context.Context, invitationID uuid.UUID) ([]models.AuditLogEntry, error) {
	rows, err := audit.NewRepository(s.db.DB()).ListByInvitation(ctx, invitationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load audit trail")
	}
	return rows, nil
}

// resolvePending looks up a token and returns its invitation only if it is
// still live. Deadline passage flips the row to expired on the spot. Every
// refusal commits its audit entry outside the caller's transaction, which is
// about to roll back with the business error.
func (s *Service) resolvePending(ctx context.Context, tx *gorm.DB, rawToken string) (*models.Invitation, error) {
	inv, err := s.vault.Lookup(ctx, tx, rawToken)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, s.rejectToken(ctx, nil, "token_unknown", err)
		}
		return nil, err
	}

	if inv.Status == enums.InvitationStatusPending && time.Now().After(inv.ExpiresAt) {
		return nil, s.expireOnSight(ctx, inv)
	}

	switch inv.Status {
	case enums.InvitationStatusPending:
		return inv, nil
	case enums.InvitationStatusExpired:
		return nil, s.rejectToken(ctx, &inv.ID, "expired",
			pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has expired"))
	default:
		return nil, s.rejectToken(ctx, &inv.ID, "already_used",
			pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has already been used"))
	}
}

// rejectToken commits the failed validation_attempt entry in its own
// transaction and then returns the business error. The caller's transaction
// rolls back with that error, so an entry written through it would vanish.
func (s *Service) rejectToken(ctx context.Context, invitationID *uuid.UUID, reason string, businessErr error) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return audit.NewRepository(tx).Append(ctx, audit.ValidationAttempt(invitationID, false, reason))
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record validation attempt")
	}
	return businessErr
}

// expireOnSight flips a deadline-passed pending row to expired. The
// transition and its audit entries commit independently of the caller, so the
// row stays expired after the caller's rollback.
func (s *Service) expireOnSight(ctx context.Context, inv *models.Invitation) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := NewRepository(tx).MarkExpired(ctx, inv.ID)
		if err != nil {
			return err
		}
		auditRepo := audit.NewRepository(tx)
		if affected > 0 {
			if err := auditRepo.Append(ctx, audit.InvitationTransition(
				inv.ID, enums.AuditInvitationExpired, nil,
				enums.InvitationStatusPending, enums.InvitationStatusExpired,
			)); err != nil {
				return err
			}
		}
		return auditRepo.Append(ctx, audit.ValidationAttempt(&inv.ID, false, "expired"))
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire invitation")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has expired")
}

// classifyLostTransition re-reads an invitation on a fresh connection after a
// conditional update matched zero rows, records the refused attempt and
// reports why the transition was lost.
func (s *Service) classifyLostTransition(ctx context.Context, id uuid.UUID) error {
	current, err := NewRepository(s.db.DB()).FindByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "re-read invitation")
	}
	if current.Status == enums.InvitationStatusExpired {
		return s.rejectToken(ctx, &id, "expired",
			pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has expired"))
	}
	return s.rejectToken(ctx, &id, "already_used",
		pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has already been used"))
}

// createEdges materializes membership from the invitation scope. Every
// invitee gets an organization edge; building and residence invitations add
// the narrower edges, and only an unscoped invitation grants all_access.
func (s *Service) createEdges(ctx context.Context, tx *gorm.DB, inv *models.Invitation, userID uuid.UUID) error {
	membershipRepo := memberships.NewRepository(tx)

	allAccess := inv.BuildingID == nil && inv.ResidenceID == nil
	if _, err := membershipRepo.CreateEdge(ctx, memberships.CreateEdgeParams{
		UserID:          userID,
		ScopeKind:       enums.ScopeOrganization,
		ScopeID:         inv.OrganizationID,
		Role:            inv.Role,
		AllAccess:       allAccess,
		InvitedByUserID: inv.CreatedByUserID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create organization edge")
	}

	if inv.BuildingID != nil {
		if _, err := membershipRepo.CreateEdge(ctx, memberships.CreateEdgeParams{
			UserID:          userID,
			ScopeKind:       enums.ScopeBuilding,
			ScopeID:         *inv.BuildingID,
			Role:            inv.Role,
			InvitedByUserID: inv.CreatedByUserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create building edge")
		}
	}

	if inv.ResidenceID != nil {
		if _, err := membershipRepo.CreateEdge(ctx, memberships.CreateEdgeParams{
			UserID:          userID,
			ScopeKind:       enums.ScopeResidence,
			ScopeID:         *inv.ResidenceID,
			Role:            inv.Role,
			InvitedByUserID: inv.CreatedByUserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create residence edge")
		}
	}

	return nil
}

// deriveUsername builds a deterministic username from the email local part,
// then resolves collisions with a numeric suffix.
func deriveUsername(ctx context.Context, repo *users.Repository, email string) (string, error) {
	base := usernameBase(email)
	for i := 0; i < 50; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		_, err := repo.FindByUsername(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not derive a free username")
}

func usernameBase(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "resident"
	}
	return b.String()
}
