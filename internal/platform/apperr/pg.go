package apperr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// FromPG classifies an error returned by pgx. resource names the entity for
// pgx.ErrNoRows. Errors that are already classified pass through unchanged.
func FromPG(err error, resource string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &Error{Kind: KindConflict, Message: uniqueMessage(pgErr), Err: err}
		case pgExclusionViolation:
			return &Error{Kind: KindConflict, Message: "conflicting row exists", Err: err}
		case pgForeignKeyViolation:
			return &Error{Kind: KindConflict, Message: "referenced row is missing or still referenced", Err: err}
		case pgCheckViolation:
			return &Error{Kind: KindValidation, Message: "value violates constraint " + pgErr.ConstraintName, Err: err}
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
			return Unavailable("database busy, retry the request", err)
		}
	}
	return Internal(err)
}

// IsExclusionViolation reports whether err carries SQLSTATE 23P01.
func IsExclusionViolation(err error) bool {
	return hasCode(err, pgExclusionViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func uniqueMessage(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "patients_email_key", "doctors_email_key":
		return "Email already exists"
	case "wards_ward_name_key":
		return "Ward name already exists"
	case "uq_admissions_current_patient":
		return "Patient is already admitted"
	}
	return "duplicate value"
}
