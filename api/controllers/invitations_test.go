package controllers

import (
	"errors"
	"testing"

	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
)

func TestMaskInvitationErrorHidesTokenResolution(t *testing.T) {
	// Unknown, expired and already-used tokens all collapse to the same
	// response, so an anonymous caller learns nothing about token state.
	cases := []error{
		pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found"),
		pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has expired"),
		pkgerrors.New(pkgerrors.CodeStateConflict, "invitation has already been used"),
	}
	for _, in := range cases {
		masked := maskInvitationError(in)
		typed := pkgerrors.As(masked)
		if typed == nil {
			t.Fatalf("expected a typed error for %v", in)
		}
		if typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected NOT_FOUND for %v, got %s", in, typed.Code())
		}
		if typed.Message() != invitationPublicMessage {
			t.Fatalf("expected the public message for %v, got %q", in, typed.Message())
		}
	}
}

func TestMaskInvitationErrorPassesOtherCodesThrough(t *testing.T) {
	// An existing account is the invitee's own state, not token state; the
	// caller needs to hear about it to sign in instead.
	userExists := pkgerrors.New(pkgerrors.CodeConflict, "a user already exists for this email")
	if got := maskInvitationError(userExists); got != userExists {
		t.Fatalf("conflict must pass through, got %v", got)
	}

	internal := pkgerrors.New(pkgerrors.CodeInternal, "boom")
	if got := maskInvitationError(internal); got != internal {
		t.Fatalf("internal must pass through, got %v", got)
	}

	plain := errors.New("untyped")
	if got := maskInvitationError(plain); got != plain {
		t.Fatalf("untyped errors must pass through, got %v", got)
	}
}
