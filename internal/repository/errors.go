package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound signals a missing row.
	ErrNotFound = errors.New("record not found")
	// ErrUniqueViolation signals a unique constraint/index rejection.
	ErrUniqueViolation = errors.New("unique constraint violated")
	// ErrForeignKeyViolation signals a row still referenced elsewhere (or a
	// dangling reference on insert).
	ErrForeignKeyViolation = errors.New("foreign key constraint violated")
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Constraint names referenced by services.
const (
	ConstraintUserUsername     = "users_username_key"
	ConstraintUserEmail        = "users_email_key"
	ConstraintSportName        = "sports_name_key"
	ConstraintPlanName         = "membership_plans_name_key"
	ConstraintTrainingSlot     = "trainings_coach_slot_key"
	ConstraintActiveEnrollment = "enrollments_active_key"
)

// ConstraintError carries the violated constraint name.
type ConstraintError struct {
	Constraint string
	Err        error
	cause      error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.Err, e.Constraint, e.cause)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// ConstraintName returns the violated constraint, or "".
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// IsRetryable reports store-level conflicts worth one more attempt.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// mapErr converts pgx errors into package sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Constraint: pgErr.ConstraintName, Err: ErrUniqueViolation, cause: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Constraint: pgErr.ConstraintName, Err: ErrForeignKeyViolation, cause: err}
		}
	}
	return err
}

func requireAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
