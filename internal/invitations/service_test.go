package invitations

import (
	"context"
	"testing"
	"time"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/config"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/security"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error when database client is missing")
	}

	_, err := NewService(ServiceParams{
		DB:     nil,
		Outbox: &outbox.Service{},
		Config: config.InvitationConfig{TTL: time.Hour},
	})
	if err == nil {
		t.Fatal("expected error when database client is missing")
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeInternal) == false {
		t.Fatalf("expected internal code, got %v", err)
	}
}

func TestUsernameBase(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"marie.tremblay@example.com", "marie.tremblay"},
		{"Jean+Luc@example.com", "jeanluc"},
		{"UPPER_case-1@example.com", "upper_case-1"},
		{"@example.com", "resident"},
		{"éàç@example.com", "resident"},
	}
	for _, tc := range cases {
		if got := usernameBase(tc.email); got != tc.want {
			t.Fatalf("usernameBase(%q) = %q, want %q", tc.email, got, tc.want)
		}
	}
}

func TestTokenVaultIssueRoundTrip(t *testing.T) {
	var vault TokenVault

	raw, hash, err := vault.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if raw == "" || hash == "" {
		t.Fatal("issue returned empty token or hash")
	}
	if raw == hash {
		t.Fatal("raw token must not equal its hash")
	}
	if security.HashInviteToken(raw) != hash {
		t.Fatal("hash must be reproducible from the raw token")
	}

	raw2, hash2, err := vault.Issue()
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if raw2 == raw || hash2 == hash {
		t.Fatal("tokens must be unique across issues")
	}
}

func TestAcceptRejectsMissingConsentBeforeAnyWork(t *testing.T) {
	// A nil DB client would panic on any touch; the consent gate has to
	// trip before that.
	svc := &Service{cfg: config.InvitationConfig{TTL: time.Hour}}

	_, err := svc.Accept(context.Background(), "some-token", AcceptInput{
		Password:              "long-enough-pass",
		FirstName:             "Marie",
		LastName:              "Tremblay",
		DataCollectionConsent: false,
		RightsAcknowledged:    true,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Accept(context.Background(), "some-token", AcceptInput{
		Password:              "long-enough-pass",
		FirstName:             "Marie",
		LastName:              "Tremblay",
		DataCollectionConsent: true,
		RightsAcknowledged:    false,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAcceptRejectsShortPassword(t *testing.T) {
	svc := &Service{cfg: config.InvitationConfig{TTL: time.Hour}}

	_, err := svc.Accept(context.Background(), "some-token", AcceptInput{
		Password:              "short",
		FirstName:             "Marie",
		LastName:              "Tremblay",
		DataCollectionConsent: true,
		RightsAcknowledged:    true,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
