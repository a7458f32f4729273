package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/domain"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

const maxPageSize = 100

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

// pathID returns the named path parameter when it is a UUID. Anything else
// cannot address a row, so it is reported as missing.
func pathID(c *fiber.Ctx, param, resource string) (string, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return "", apperrors.NewNotFound(resource, nil)
	}
	return id.String(), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return apperrors.NewValidationError("invalid query parameters", nil)
	}
	return nil
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := domain.ParseDate(strings.TrimSpace(*value))
	if err != nil {
		return nil, apperrors.NewFieldError(field, "date must use YYYY-MM-DD")
	}
	return &parsed, nil
}

func parseBool(field, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, apperrors.NewFieldError(field, "must be true or false")
	}
	return &parsed, nil
}

func optionalID(field, value string) (*string, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, apperrors.NewFieldError(field, "must be a valid UUID")
	}
	s := id.String()
	return &s, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func pageQuery(c *fiber.Ctx) (int, int) {
	return page(c.QueryInt("limit"), c.QueryInt("offset"))
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func message(text string) fiber.Map {
	return fiber.Map{"data": fiber.Map{"message": text}}
}
