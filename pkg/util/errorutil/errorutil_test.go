package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThroughWrapped(t *testing.T) {
	base := NewConflict("slot taken", map[string]any{"coach_id": "c1"})
	wrapped := fmt.Errorf("create training: %w", base)

	de := ToDomainError(wrapped)
	require.Equal(t, CodeConflict, de.Code)
	require.Equal(t, http.StatusConflict, de.HTTPStatus)
	require.Equal(t, "c1", de.Details["coach_id"])
}

func TestToDomainErrorNoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	require.Equal(t, CodeNotFound, de.Code)
	require.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainErrorFiberError(t *testing.T) {
	de := ToDomainError(fiber.NewError(http.StatusForbidden, "insufficient role"))
	require.Equal(t, CodeForbidden, de.Code)
	require.Equal(t, "insufficient role", de.Message)
}

func TestToDomainErrorUnknownIsInternal(t *testing.T) {
	cause := errors.New("boom")
	de := ToDomainError(cause)
	require.Equal(t, CodeInternal, de.Code)
	require.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	require.ErrorIs(t, de, cause)
}

func TestRejectionIsBadRequest(t *testing.T) {
	err := NewRejection(CodeTrainingFull, "training is full", nil)
	require.True(t, HasCode(err, CodeTrainingFull))
	require.Equal(t, http.StatusBadRequest, ToDomainError(err).HTTPStatus)
	require.False(t, HasCode(err, CodeAlreadyEnrolled))
}
