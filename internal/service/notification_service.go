package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/events"
)

// NotificationService turns domain events into member emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      UserLookup
	mailer     Mailer
	logger     *zap.Logger
}

// UserLookup resolves event recipients.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users UserLookup, mailer Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		mailer:     mailer,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventEnrollmentConfirmed, n.handleEnrollmentConfirmed)
	n.dispatcher.Subscribe(events.EventEnrollmentCancelled, n.handleEnrollmentCancelled)
	n.dispatcher.Subscribe(events.EventMembershipCreated, n.handleMembershipCreated)
	n.dispatcher.Subscribe(events.EventTrainingDeactivated, n.handleTrainingDeactivated)
	n.dispatcher.Subscribe(events.EventAttendanceMarked, n.handleAttendanceMarked)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.mailer.Send(ctx, payload.Email, "Welcome to the club",
		fmt.Sprintf("Hello %s!\n\nYour account is ready. See you on the mats.", payload.Username))
}

func (n *NotificationService) handleEnrollmentConfirmed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EnrollmentPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.mailUser(ctx, payload.UserID, "Enrollment confirmed", func(u *domain.User) string {
		return fmt.Sprintf("Hello %s!\n\nYou are enrolled in %q on %s at %s.",
			u.FullName(), payload.TrainingTitle, payload.Date.Format(domain.DateLayout), payload.StartTime)
	})
}

func (n *NotificationService) handleEnrollmentCancelled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EnrollmentPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.mailUser(ctx, payload.UserID, "Enrollment cancelled", func(u *domain.User) string {
		return fmt.Sprintf("Hello %s!\n\nYour enrollment in %q on %s was cancelled.",
			u.FullName(), payload.TrainingTitle, payload.Date.Format(domain.DateLayout))
	})
}

func (n *NotificationService) handleMembershipCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MembershipCreatedPayload)
	if !ok {
		return unexpectedPayload(event)
	}
	return n.mailUser(ctx, payload.UserID, "Membership activated", func(u *domain.User) string {
		return fmt.Sprintf("Hello %s!\n\nYour %s membership is valid until %s.",
			u.FullName(), payload.PlanName, payload.EndDate.Format(domain.DateLayout))
	})
}

func (n *NotificationService) handleTrainingDeactivated(_ context.Context, event events.Event) error {
	n.logger.Info("TrainingDeactivated", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleAttendanceMarked(_ context.Context, event events.Event) error {
	n.logger.Debug("AttendanceMarked", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) mailUser(ctx context.Context, userID, subject string, body func(*domain.User) string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", userID, err)
	}
	return n.mailer.Send(ctx, user.Email, subject, body(user))
}

func unexpectedPayload(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}
