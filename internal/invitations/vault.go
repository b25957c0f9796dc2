package invitations

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/security"
)

// TokenVault mints invitation tokens and resolves presented ones. Raw tokens
// exist only in flight; storage holds the SHA-256 hash. The service records
// every lookup outcome on the audit trail, so brute-force guessing shows up
// in the data.
type TokenVault struct{}

// Issue mints a fresh raw token and the hash to persist alongside it.
func (TokenVault) Issue() (raw string, hash string, err error) {
	raw, hash, err = security.GenerateInviteToken()
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue invitation token")
	}
	return raw, hash, nil
}

// Lookup resolves a raw token to its invitation within tx. Unknown tokens
// return NOT_FOUND; the caller records the failed attempt.
func (TokenVault) Lookup(ctx context.Context, tx *gorm.DB, rawToken string) (*models.Invitation, error) {
	hash := security.HashInviteToken(rawToken)

	inv, err := NewRepository(tx).FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up invitation token")
	}
	return inv, nil
}
