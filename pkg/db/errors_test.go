package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_invitations_pending_email_org"}
	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected a match on the error code alone")
	}
	if !IsUniqueViolation(pgErr, "ux_invitations_pending_email_org") {
		t.Fatal("expected a match on the named constraint")
	}
	if IsUniqueViolation(pgErr, "ux_some_other_index") {
		t.Fatal("a different constraint must not match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("a foreign key violation is not a unique violation")
	}

	wrapped := fmt.Errorf("create invitation: %w", pgErr)
	if !IsUniqueViolation(wrapped, "ux_invitations_pending_email_org") {
		t.Fatal("wrapping must not hide the structured error")
	}

	// Drivers without structured errors fall back to message text.
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "users_email_key"`), "") {
		t.Fatal("expected a match on the postgres message form")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email"), "") {
		t.Fatal("expected a match on the sqlite message form")
	}
	if IsUniqueViolation(errors.New("connection reset by peer"), "") {
		t.Fatal("unrelated errors must not match")
	}
}
