package service

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/events"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// notFoundAs turns a missing row into a NotFound for resource and leaves
// other errors untouched.
func notFoundAs(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// conflictMessages maps unique constraints to caller-facing messages.
var conflictMessages = map[string]struct{ field, message string }{
	repository.ConstraintUserUsername: {"username", "a user with this username already exists"},
	repository.ConstraintUserEmail:    {"email", "a user with this email already exists"},
	repository.ConstraintSportName:    {"name", "a sport with this name already exists"},
	repository.ConstraintPlanName:     {"name", "a membership plan with this name already exists"},
	repository.ConstraintTrainingSlot: {"start_time", "the coach already has a training at this time"},
}

// constraintConflict converts unique violations into Conflict errors.
func constraintConflict(err error) error {
	if !errors.Is(err, repository.ErrUniqueViolation) {
		return err
	}
	if msg, ok := conflictMessages[repository.ConstraintName(err)]; ok {
		return apperrors.NewConflict(msg.message, map[string]any{msg.field: msg.message})
	}
	return apperrors.NewConflict("resource already exists", nil)
}

// fieldErrors collects per-field validation failures.
type fieldErrors map[string]any

func (f fieldErrors) check(ok bool, field, message string) {
	if ok {
		return
	}
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError("validation failed", map[string]any(f))
}

func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

// publisher stamps and publishes domain events; failures are logged only.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func (p publisher) publish(ctx context.Context, actorID string, eventType events.EventType, payload any) {
	if p.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: p.now().UTC(),
		Payload:   payload,
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("publish event failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func clockOrNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
