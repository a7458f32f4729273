package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr(nil))
	require.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	unique := &pgconn.PgError{Code: "23505", ConstraintName: ConstraintActiveEnrollment}
	err := mapErr(unique)
	require.ErrorIs(t, err, ErrUniqueViolation)
	require.Equal(t, ConstraintActiveEnrollment, ConstraintName(err))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "memberships_plan_id_fkey"}
	require.ErrorIs(t, mapErr(fk), ErrForeignKeyViolation)

	other := errors.New("connection reset")
	require.Equal(t, other, mapErr(other))
	require.Empty(t, ConstraintName(other))
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"})))
	require.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	require.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsRetryable(errors.New("x")))
}
